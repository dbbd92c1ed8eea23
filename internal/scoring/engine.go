package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/observability"
)

// MinBatchDelay is the smallest spacing allowed between judge calls of a batch.
const MinBatchDelay = 100 * time.Millisecond

// Judge grades a single answer.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (Verdict, error)
}

// Scored is a score result tagged with the source that produced it.
type Scored struct {
	ScoreResult
	Source string `json:"source"`
}

// EngineConfig tunes the scoring engine.
type EngineConfig struct {
	BatchDelay time.Duration
}

// Engine orchestrates judge calls and falls back to the heuristic scorer on any failure.
type Engine struct {
	judge      Judge
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration)
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewEngine builds a scoring engine. A nil judge makes every answer go through FallbackScore.
func NewEngine(judge Judge, cfg EngineConfig, logger zerolog.Logger) *Engine {
	if cfg.BatchDelay < MinBatchDelay {
		cfg.BatchDelay = MinBatchDelay
	}

	return &Engine{
		judge:      judge,
		batchDelay: cfg.BatchDelay,
		sleep:      sleepContext,
		logger:     logger.With().Str("component", "scoring_engine").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/codeassess-api/internal/scoring/engine"),
	}
}

// ScoreAnswer always returns a valid result: the judge's when it answers with a score,
// the fallback heuristic's otherwise.
func (e *Engine) ScoreAnswer(ctx context.Context, req JudgeRequest) Scored {
	ctx, span := e.tracer.Start(ctx, "scoring.answer")
	defer span.End()

	scored := e.score(ctx, req)
	span.SetAttributes(
		attribute.String("scoring.source", scored.Source),
		attribute.Float64("scoring.score", scored.Score),
	)
	observability.Scores().WithLabelValues(scored.Source).Inc()
	return scored
}

func (e *Engine) score(ctx context.Context, req JudgeRequest) Scored {
	if e.judge == nil {
		return Scored{ScoreResult: FallbackScore(req.Answer, req.MaxScore), Source: models.ScoreSourceFallback}
	}

	verdict, err := e.judge.Judge(ctx, req)
	if err != nil {
		event := e.logger.Warn().Err(err)
		if errors.Is(err, ErrParseAmbiguous) {
			event = e.logger.Info().Err(err)
		}
		event.Str("question", truncateRunes(req.QuestionTitle, 80)).Msg("falling back to heuristic scoring")
		return Scored{ScoreResult: FallbackScore(req.Answer, req.MaxScore), Source: models.ScoreSourceFallback}
	}

	result := verdict.Result
	result.Score = clamp(result.Score, req.MaxScore)
	source := models.ScoreSourceAI
	if verdict.Cached {
		source = models.ScoreSourceCache
	}
	return Scored{ScoreResult: result, Source: source}
}

// ScoreBatch scores items one after another, waiting the batch delay between judge calls.
// A failing item falls back on its own and never aborts the batch.
func (e *Engine) ScoreBatch(ctx context.Context, reqs []JudgeRequest) []Scored {
	results := make([]Scored, 0, len(reqs))
	for idx, req := range reqs {
		if idx > 0 {
			e.sleep(ctx, e.batchDelay)
		}
		results = append(results, e.ScoreAnswer(ctx, req))
	}
	return results
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
