package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/config"
	"github.com/noah-isme/codeassess-api/internal/database"
	"github.com/noah-isme/codeassess-api/internal/repository"
	"github.com/noah-isme/codeassess-api/internal/scoring"
	"github.com/noah-isme/codeassess-api/internal/service"
	"github.com/noah-isme/codeassess-api/internal/worker"
	"github.com/noah-isme/codeassess-api/pkg/ai"
)

// Container holds the wired storage, services and background worker shared by the binaries.
type Container struct {
	DB          *gorm.DB
	Redis       *redis.Client
	NATS        *nats.Conn
	Validate    *validator.Validate
	Engine      *scoring.Engine
	Invitations service.InvitationService
	Sessions    service.TestSessionService
	Submissions service.SubmissionService
	Results     service.ResultService
	Assessments service.AssessmentService
	Finalizer   service.Finalizer
	Reaper      *worker.TimeoutReaper

	closers []io.Closer
	logger  zerolog.Logger
}

// Build connects to the configured backends and wires the lifecycle services.
// Redis and NATS are optional: a failed connection is logged and the feature runs without them.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Container, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	c := &Container{
		DB:       db,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, judge cache and redis events disabled")
		} else {
			c.Redis = client
			c.closers = append(c.closers, client)
		}
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, nats events disabled")
		} else {
			c.NATS = conn
		}
	}

	judge, err := c.buildJudge(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Engine = scoring.NewEngine(judge, scoring.EngineConfig{BatchDelay: cfg.ScoringBatchDelay}, logger)

	assessmentRepo := repository.NewAssessmentRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	sessionRepo := repository.NewTestSessionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	publisher := service.NewCompletionPublisher(c.Redis, c.NATS, cfg.EventsChannel, logger)

	c.Assessments = service.NewAssessmentService(assessmentRepo, c.Validate, logger)
	c.Invitations = service.NewInvitationService(invitationRepo, assessmentRepo, c.Validate, logger)
	c.Results = service.NewResultService(assessmentRepo, submissionRepo, logger)
	c.Finalizer = service.NewFinalizer(c.Invitations, assessmentRepo, submissionRepo, sessionRepo, c.Engine, publisher, logger)
	c.Sessions = service.NewTestSessionService(sessionRepo, invitationRepo, c.Invitations, c.Finalizer, logger)
	c.Submissions = service.NewSubmissionService(sessionRepo, assessmentRepo, submissionRepo, c.Engine, c.Validate, logger)
	c.Reaper = worker.NewTimeoutReaper(invitationRepo, c.Finalizer, worker.ReaperConfig{
		Schedule:    cfg.ReaperSchedule,
		TickTimeout: cfg.ReaperTickTimeout,
	}, logger)

	return c, nil
}

// Close releases every connection held by the container.
func (c *Container) Close() {
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close resource")
		}
	}
	c.closers = nil

	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.UsesSQLite() {
		db, err := database.ConnectSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect sqlite: %w", err)
		}
		return db, nil
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

func (c *Container) buildJudge(ctx context.Context, cfg config.Config) (scoring.Judge, error) {
	var completer ai.Completer

	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			c.logger.Warn().Msg("openai api key missing, scoring falls back to heuristics")
			return nil, nil
		}
		openaiCompleter, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
			Logger:      c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai completer: %w", err)
		}
		completer = openaiCompleter
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			c.logger.Warn().Msg("gemini api key missing, scoring falls back to heuristics")
			return nil, nil
		}
		geminiCompleter, err := ai.NewGeminiCompleter(ctx, ai.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
			Logger:      c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini completer: %w", err)
		}
		c.closers = append(c.closers, geminiCompleter)
		completer = geminiCompleter
	default:
		return nil, nil
	}

	var cache scoring.ResultCache
	if c.Redis != nil {
		cache = scoring.NewRedisResultCache(c.Redis)
	}

	return scoring.NewJudgeClient(completer, cache, scoring.JudgeConfig{
		Timeout:     cfg.JudgeTimeout,
		CacheTTL:    cfg.JudgeCacheTTL,
		Fingerprint: scoring.FingerprinterByName(cfg.JudgeFingerprint),
	}, c.logger), nil
}
