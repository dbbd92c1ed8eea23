package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/observability"
	"github.com/noah-isme/codeassess-api/internal/repository"
	"github.com/noah-isme/codeassess-api/internal/service"
)

// Reaper defaults used when the configuration leaves them unset.
const (
	DefaultReaperSchedule    = "@every 5m"
	DefaultReaperTickTimeout = 4 * time.Minute
)

// ReapReport summarizes one reaper tick.
type ReapReport struct {
	Scanned   int `json:"scanned"`
	Due       int `json:"due"`
	Completed int `json:"completed"`
	NoOp      int `json:"no_op"`
	Failed    int `json:"failed"`
}

// ReaperConfig tunes the reaper schedule.
type ReaperConfig struct {
	Schedule    string
	TickTimeout time.Duration
}

// TimeoutReaper force-completes started invitations whose assessment time budget has elapsed.
// Only started invitations are considered; pending ones expire through their expiry date when read.
type TimeoutReaper struct {
	invitations repository.InvitationRepository
	finalizer   service.Finalizer
	cfg         ReaperConfig
	log         zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewTimeoutReaper wires a reaper over the invitation store and the shared finalizer.
func NewTimeoutReaper(invitations repository.InvitationRepository, finalizer service.Finalizer, cfg ReaperConfig, log zerolog.Logger) *TimeoutReaper {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultReaperSchedule
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = DefaultReaperTickTimeout
	}

	return &TimeoutReaper{
		invitations: invitations,
		finalizer:   finalizer,
		cfg:         cfg,
		log:         log.With().Str("component", "timeout_reaper").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/codeassess-api/internal/worker/reaper"),
		now:         time.Now,
	}
}

// RunOnce performs a single sweep. Failures on one invitation are logged and counted; the sweep
// moves on to the next. The returned error is set only when the candidates could not be listed.
func (r *TimeoutReaper) RunOnce(ctx context.Context) (ReapReport, error) {
	ctx, span := r.tracer.Start(ctx, "reaper.tick")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ReaperTickDuration().Observe(time.Since(start).Seconds())
	}()

	report := ReapReport{}
	invitations, err := r.invitations.ListStarted(ctx)
	if err != nil {
		span.RecordError(err)
		return report, fmt.Errorf("list started invitations: %w", err)
	}
	report.Scanned = len(invitations)

	now := r.now()
	for _, invitation := range invitations {
		if ctx.Err() != nil {
			r.log.Warn().Err(ctx.Err()).Msg("reaper tick interrupted")
			break
		}
		if !isOverdue(invitation, now) {
			continue
		}
		report.Due++

		outcome, err := r.finalizer.Finalize(ctx, invitation, service.TriggerReaper)
		if err != nil {
			report.Failed++
			observability.ReaperInvitations().WithLabelValues("failed").Inc()
			r.log.Error().Err(err).Uint("invitation_id", invitation.ID).Msg("failed to force-complete invitation")
			continue
		}

		if outcome.Applied {
			report.Completed++
			observability.ReaperInvitations().WithLabelValues("completed").Inc()
			r.log.Info().
				Uint("invitation_id", invitation.ID).
				Float64("score", outcome.Result.TotalScore).
				Int("rescored", outcome.Rescored).
				Msg("invitation force-completed")
			continue
		}

		report.NoOp++
		observability.ReaperInvitations().WithLabelValues("no_op").Inc()
	}

	span.SetAttributes(
		attribute.Int("reaper.scanned", report.Scanned),
		attribute.Int("reaper.completed", report.Completed),
		attribute.Int("reaper.failed", report.Failed),
	)
	return report, nil
}

// Start schedules RunOnce with cron. Overlapping ticks are skipped. The scheduler stops when ctx
// is cancelled; the returned channel closes once the running tick, if any, has returned.
func (r *TimeoutReaper) Start(ctx context.Context) (<-chan struct{}, error) {
	cronLog := cronLogger{log: r.log}
	scheduler := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))

	if _, err := scheduler.AddFunc(r.cfg.Schedule, func() { r.tick(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid reaper schedule %q: %w", r.cfg.Schedule, err)
	}

	scheduler.Start()
	r.log.Info().Str("schedule", r.cfg.Schedule).Dur("tick_timeout", r.cfg.TickTimeout).Msg("timeout reaper started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		<-scheduler.Stop().Done()
		r.log.Info().Msg("timeout reaper stopped")
	}()

	return done, nil
}

func (r *TimeoutReaper) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, r.cfg.TickTimeout)
	defer cancel()

	report, err := r.RunOnce(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("reaper tick failed")
		return
	}
	if report.Due > 0 {
		r.log.Info().
			Int("scanned", report.Scanned).
			Int("due", report.Due).
			Int("completed", report.Completed).
			Int("no_op", report.NoOp).
			Int("failed", report.Failed).
			Msg("reaper tick finished")
	}
}

// isOverdue reports whether the assessment time budget has elapsed. Invitations without a start
// time or on assessments without a duration are never overdue.
func isOverdue(invitation models.Invitation, now time.Time) bool {
	if invitation.StartedAt == nil {
		return false
	}
	limit := invitation.Assessment.DurationLimit()
	if limit <= 0 {
		return false
	}
	return !now.Before(invitation.StartedAt.Add(limit))
}

// cronLogger routes scheduler messages to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
