package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/observability"
	"github.com/noah-isme/codeassess-api/internal/repository"
)

const sessionTokenBytes = 32

// TestSessionService opens and closes candidate test sessions.
type TestSessionService interface {
	Start(ctx context.Context, candidateID, assessmentID uint) (dto.SessionResponse, error)
	End(ctx context.Context, sessionID uint, token string, candidateID uint) (dto.EndSessionResponse, error)
}

type testSessionService struct {
	sessions    repository.TestSessionRepository
	invitations repository.InvitationRepository
	lifecycle   InvitationService
	finalizer   Finalizer
	locks       *keyedMutex
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	newToken    func() (string, error)
}

// NewTestSessionService constructs a TestSessionService instance.
func NewTestSessionService(sessions repository.TestSessionRepository, invitations repository.InvitationRepository, lifecycle InvitationService, finalizer Finalizer, logger zerolog.Logger) TestSessionService {
	return &testSessionService{
		sessions:    sessions,
		invitations: invitations,
		lifecycle:   lifecycle,
		finalizer:   finalizer,
		locks:       newKeyedMutex(),
		logger:      logger.With().Str("component", "test_session_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/codeassess-api/internal/service/session"),
		now:         time.Now,
		newToken:    newSessionToken,
	}
}

// Start opens a session for the pair. Concurrent starts for the same pair are serialized in
// process; the unique active key on sessions covers other processes.
func (s *testSessionService) Start(ctx context.Context, candidateID, assessmentID uint) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.start", trace.WithAttributes(
		attribute.Int64("candidate_id", int64(candidateID)),
		attribute.Int64("assessment_id", int64(assessmentID)),
	))
	defer span.End()

	key := models.PairKey(candidateID, assessmentID)
	unlock := s.locks.Lock(key)
	defer unlock()

	response, err := s.start(ctx, candidateID, assessmentID, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.Sessions().WithLabelValues("start_rejected").Inc()
		return dto.SessionResponse{}, err
	}

	observability.Sessions().WithLabelValues("started").Inc()
	return response, nil
}

func (s *testSessionService) start(ctx context.Context, candidateID, assessmentID uint, key string) (dto.SessionResponse, error) {
	if _, err := s.sessions.FindActiveForPair(ctx, candidateID, assessmentID); err == nil {
		return dto.SessionResponse{}, ErrSessionAlreadyActive
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SessionResponse{}, storageError(err)
	}

	invitation, err := s.lifecycle.Validate(ctx, candidateID, assessmentID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	token, err := s.newToken()
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("generate session token: %w", err)
	}

	session := models.TestSession{
		CandidateID:  candidateID,
		AssessmentID: assessmentID,
		InvitationID: invitation.ID,
		SessionToken: token,
		Status:       models.TestSessionStatusInProgress,
		StartedAt:    s.now().UTC(),
		ActiveKey:    &key,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SessionResponse{}, ErrSessionAlreadyActive
		}
		return dto.SessionResponse{}, storageError(err)
	}

	if _, err := s.lifecycle.MarkStarted(ctx, invitation); err != nil {
		// Release the pair so the candidate can retry once the invitation settles.
		if _, closeErr := s.sessions.Close(ctx, session.ID, s.now().UTC()); closeErr != nil {
			s.logger.Error().Err(closeErr).Uint("session_id", session.ID).Msg("failed to release session after start failure")
		}
		return dto.SessionResponse{}, err
	}

	s.logger.Info().
		Uint("session_id", session.ID).
		Uint("invitation_id", invitation.ID).
		Uint("candidate_id", candidateID).
		Msg("session started")

	return dto.NewStartedSessionResponse(session, invitation.Assessment.DurationLimit()), nil
}

// End closes the session identified by (id, token, candidate) and finalizes its invitation.
// A second call for the same session fails with ErrSessionNotFound.
func (s *testSessionService) End(ctx context.Context, sessionID uint, token string, candidateID uint) (dto.EndSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.end", trace.WithAttributes(
		attribute.Int64("session_id", int64(sessionID)),
	))
	defer span.End()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return dto.EndSessionResponse{}, lookupError(err, ErrSessionNotFound)
	}
	if !session.IsActive() || session.CandidateID != candidateID ||
		subtle.ConstantTimeCompare([]byte(session.SessionToken), []byte(token)) != 1 {
		return dto.EndSessionResponse{}, ErrSessionNotFound
	}

	endedAt := s.now().UTC()
	closed, err := s.sessions.Close(ctx, session.ID, endedAt)
	if err != nil {
		return dto.EndSessionResponse{}, storageError(err)
	}
	if !closed {
		return dto.EndSessionResponse{}, ErrSessionNotFound
	}
	session.Status = models.TestSessionStatusCompleted
	session.EndedAt = &endedAt
	session.ActiveKey = nil
	observability.Sessions().WithLabelValues("ended").Inc()

	invitation, err := s.invitations.GetByID(ctx, session.InvitationID)
	if err != nil {
		return dto.EndSessionResponse{}, lookupError(err, ErrInvitationNotFound)
	}

	outcome, err := s.finalizer.Finalize(ctx, invitation, TriggerCandidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.EndSessionResponse{}, err
	}

	s.logger.Info().
		Uint("session_id", session.ID).
		Uint("invitation_id", invitation.ID).
		Bool("finalized", outcome.Applied).
		Msg("session ended")

	return dto.EndSessionResponse{
		Session:   dto.NewSessionResponse(session),
		Result:    outcome.Result,
		Finalized: outcome.Applied,
	}, nil
}

// newSessionToken returns 256 bits of randomness, hex encoded.
func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
