package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/observability"
)

// Completion triggers.
const (
	TriggerCandidate = "candidate"
	TriggerReaper    = "reaper"
)

// CompletionEvent is broadcast once per applied started → completed transition.
type CompletionEvent struct {
	EventID      string    `json:"event_id"`
	Source       string    `json:"source"`
	InvitationID uint      `json:"invitation_id"`
	CandidateID  uint      `json:"candidate_id"`
	AssessmentID uint      `json:"assessment_id"`
	Trigger      string    `json:"trigger"`
	Score        float64   `json:"score"`
	MaxScore     float64   `json:"max_score"`
	AverageScore float64   `json:"average_score"`
	CompletedAt  time.Time `json:"completed_at"`
}

// CompletionPublisher announces completed assessments to downstream consumers.
type CompletionPublisher interface {
	Publish(ctx context.Context, event CompletionEvent) error
}

type brokerCompletionPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewCompletionPublisher publishes completion events on a Redis channel and the matching NATS
// subject. Either broker may be nil; with neither configured events are only logged.
func NewCompletionPublisher(redisClient *redis.Client, natsConn *nats.Conn, channel string, logger zerolog.Logger) CompletionPublisher {
	if channel == "" {
		channel = "assessment.completed"
	}

	return &brokerCompletionPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  strings.ReplaceAll(channel, ":", "."),
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "completion_publisher").Logger(),
	}
}

func (p *brokerCompletionPublisher) Publish(ctx context.Context, event CompletionEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.Source = p.nodeID

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.nats != nil {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	observability.CompletionEvents().WithLabelValues(event.Trigger).Inc()
	p.logger.Info().
		Str("event_id", event.EventID).
		Uint("invitation_id", event.InvitationID).
		Str("trigger", event.Trigger).
		Float64("score", event.Score).
		Msg("assessment completed")

	return errors.Join(errs...)
}
