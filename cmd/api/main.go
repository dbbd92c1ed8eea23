package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/bootstrap"
	"github.com/noah-isme/codeassess-api/internal/config"
	"github.com/noah-isme/codeassess-api/internal/handler"
	"github.com/noah-isme/codeassess-api/internal/logger"
	"github.com/noah-isme/codeassess-api/internal/middleware"
	"github.com/noah-isme/codeassess-api/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.Build(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dependencies")
	}
	defer container.Close()

	reaperDone, err := container.Reaper.Start(rootCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start timeout reaper")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &log, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		DB:                container.DB,
		SessionHandler:    handler.NewSessionHandler(container.Sessions, container.Submissions, container.Validate, log),
		ResultHandler:     handler.NewResultHandler(container.Results, log),
		ScoringHandler:    handler.NewScoringHandler(container.Engine, container.Validate, log),
		InvitationHandler: handler.NewInvitationHandler(container.Invitations, log),
		AssessmentHandler: handler.NewAssessmentHandler(container.Assessments, log),
		SubmissionHandler: handler.NewSubmissionHandler(container.Submissions, log),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		ScoringRateLimit:  cfg.ScoringRateLimit,
	})

	go func() {
		log.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	waitForShutdown(rootCtx, app, reaperDone, log)
}

func waitForShutdown(ctx context.Context, app *fiber.App, reaperDone <-chan struct{}, log zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-reaperDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("timeout reaper did not stop before the shutdown deadline")
	}

	log.Info().Msg("server stopped")
}
