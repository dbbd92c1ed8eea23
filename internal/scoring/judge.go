package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/codeassess-api/pkg/ai"
)

const (
	defaultJudgeTimeout = 30 * time.Second
	defaultCacheTTL     = 24 * time.Hour
)

// JudgeRequest carries everything the judge needs to grade one answer.
type JudgeRequest struct {
	QuestionTitle string  `json:"question_title"`
	Question      string  `json:"question" validate:"required"`
	Language      string  `json:"language"`
	Answer        string  `json:"answer"`
	MaxScore      float64 `json:"max_score" validate:"gt=0"`
}

// Verdict is a parsed judge result. Cached is set when the result came from the cache.
type Verdict struct {
	Result ScoreResult
	Cached bool
}

// JudgeConfig tunes the judge client.
type JudgeConfig struct {
	Timeout     time.Duration
	CacheTTL    time.Duration
	Fingerprint Fingerprinter
}

// JudgeClient asks a generative model to grade answers, deduplicating calls through a result cache.
type JudgeClient struct {
	completer ai.Completer
	cache     ResultCache
	cfg       JudgeConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewJudgeClient builds a judge client. A nil cache disables caching.
func NewJudgeClient(completer ai.Completer, cache ResultCache, cfg JudgeConfig, logger zerolog.Logger) *JudgeClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultJudgeTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Fingerprint == nil {
		cfg.Fingerprint = ContentFingerprint
	}

	return &JudgeClient{
		completer: completer,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.With().Str("component", "judge_client").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/codeassess-api/internal/scoring/judge"),
	}
}

// Judge returns a cached verdict when one is fresh, otherwise calls the model and parses its answer.
// Failures are ErrJudgeUnavailable or ErrParseAmbiguous.
func (j *JudgeClient) Judge(ctx context.Context, req JudgeRequest) (Verdict, error) {
	ctx, span := j.tracer.Start(ctx, "judge.evaluate")
	defer span.End()

	key := CacheKey(j.cfg.Fingerprint(req))

	if j.cache != nil {
		cached, ok, err := j.cache.Get(ctx, key)
		switch {
		case err != nil:
			j.logger.Warn().Err(err).Str("key", key).Msg("failed to read judge cache")
		case ok:
			span.SetAttributes(attribute.Bool("judge.cache_hit", true))
			cached.Score = clamp(cached.Score, req.MaxScore)
			return Verdict{Result: cached, Cached: true}, nil
		}
	}

	raw, err := j.Raw(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge_unavailable")
		return Verdict{}, err
	}

	result, err := ParseScore(raw, req.MaxScore)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse_ambiguous")
		j.logger.Warn().Str("verdict", truncateRunes(raw, 200)).Msg("judge verdict has no score")
		return Verdict{}, err
	}

	if j.cache != nil {
		if err := j.cache.Set(ctx, key, result, j.cfg.CacheTTL); err != nil {
			j.logger.Warn().Err(err).Str("key", key).Msg("failed to store judge cache")
		}
	}

	return Verdict{Result: result}, nil
}

// Raw performs the uncached model call under the judge timeout.
func (j *JudgeClient) Raw(ctx context.Context, req JudgeRequest) (string, error) {
	if j.completer == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrJudgeUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	text, err := j.completer.Complete(ctx, ai.CompletionRequest{
		System: judgeSystemPrompt(),
		Prompt: buildJudgePrompt(req),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrJudgeUnavailable, j.completer.Provider(), err)
	}
	return text, nil
}

func judgeSystemPrompt() string {
	return "You are a strict technical interviewer grading a candidate's answer. Judge correctness first, " +
		"then code quality and handling of edge cases. Be concise."
}

func buildJudgePrompt(req JudgeRequest) string {
	builder := strings.Builder{}
	if req.QuestionTitle != "" {
		builder.WriteString("# Question\n")
		builder.WriteString(req.QuestionTitle)
		builder.WriteString("\n\n")
	}
	builder.WriteString("## Prompt\n")
	builder.WriteString(req.Question)
	if req.Language != "" {
		builder.WriteString("\n\n## Expected language\n")
		builder.WriteString(req.Language)
	}
	builder.WriteString("\n\n## Candidate answer\n")
	if strings.TrimSpace(req.Answer) == "" {
		builder.WriteString("(empty)")
	} else {
		builder.WriteString(req.Answer)
	}
	builder.WriteString(fmt.Sprintf("\n\nGrade the answer with an integer between 0 and %s.\n", formatPoints(req.MaxScore)))
	builder.WriteString("Reply exactly in this format:\nSCORE: <integer>\nFEEDBACK: <two or three sentences>")
	return builder.String()
}

func formatPoints(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}
