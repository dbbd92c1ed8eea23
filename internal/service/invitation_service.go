package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/repository"
)

// ErrInvalidExpiry indicates an invitation expiry that is not in the future.
var ErrInvalidExpiry = errors.New("invitation expiry must be in the future")

var (
	openStatuses      = []string{models.InvitationStatusPending, models.InvitationStatusAccepted}
	nonTerminalStatus = []string{models.InvitationStatusPending, models.InvitationStatusAccepted, models.InvitationStatusStarted}
)

// InvitationService drives invitation state transitions. Every transition is a conditional update
// on the stored status, so concurrent callers cannot both apply the same move.
type InvitationService interface {
	Create(ctx context.Context, payload dto.CreateInvitationRequest) (dto.InvitationResponse, error)
	Validate(ctx context.Context, candidateID, assessmentID uint) (models.Invitation, error)
	Get(ctx context.Context, invitationID uint) (models.Invitation, error)
	MarkStarted(ctx context.Context, invitation models.Invitation) (models.Invitation, error)
	Complete(ctx context.Context, invitationID uint, score, maxScore float64) (bool, error)
	Expire(ctx context.Context, invitationID uint) (bool, error)
}

type invitationService struct {
	invitations repository.InvitationRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(invitations repository.InvitationRepository, assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) InvitationService {
	return &invitationService{
		invitations: invitations,
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "invitation_service").Logger(),
		now:         time.Now,
	}
}

func (s *invitationService) Create(ctx context.Context, payload dto.CreateInvitationRequest) (dto.InvitationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InvitationResponse{}, err
	}

	now := s.now().UTC()
	if payload.ExpiresAt != nil && !payload.ExpiresAt.After(now) {
		return dto.InvitationResponse{}, ErrInvalidExpiry
	}

	if _, err := s.assessments.GetByID(ctx, payload.AssessmentID); err != nil {
		return dto.InvitationResponse{}, lookupError(err, ErrAssessmentNotFound)
	}

	// A lapsed invitation that was never started still holds the pair slot until something reads it.
	if latest, err := s.invitations.FindLatestForPair(ctx, payload.CandidateID, payload.AssessmentID); err == nil {
		if latest.Status != models.InvitationStatusStarted && latest.IsExpiredAt(now) {
			if _, err := s.Expire(ctx, latest.ID); err != nil {
				return dto.InvitationResponse{}, err
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.InvitationResponse{}, storageError(err)
	}

	key := models.PairKey(payload.CandidateID, payload.AssessmentID)
	invitation := models.Invitation{
		CandidateID:  payload.CandidateID,
		AssessmentID: payload.AssessmentID,
		Status:       models.InvitationStatusPending,
		InvitedAt:    now,
		ExpiresAt:    payload.ExpiresAt,
		ActiveKey:    &key,
	}

	if err := s.invitations.Create(ctx, &invitation); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.InvitationResponse{}, ErrDuplicateInvitation
		}
		return dto.InvitationResponse{}, storageError(err)
	}

	s.logger.Info().
		Uint("invitation_id", invitation.ID).
		Uint("candidate_id", invitation.CandidateID).
		Uint("assessment_id", invitation.AssessmentID).
		Msg("invitation created")

	return dto.NewInvitationResponse(invitation), nil
}

// Validate returns the pair's invitation when it still allows a session to start. A pending or
// accepted invitation found past its expiry is moved to expired as part of this read. Started
// invitations are bounded by the assessment duration instead and are left to the reaper.
func (s *invitationService) Validate(ctx context.Context, candidateID, assessmentID uint) (models.Invitation, error) {
	invitation, err := s.invitations.FindLatestForPair(ctx, candidateID, assessmentID)
	if err != nil {
		return models.Invitation{}, lookupError(err, ErrNotInvited)
	}

	switch invitation.Status {
	case models.InvitationStatusPending, models.InvitationStatusAccepted:
		if invitation.IsExpiredAt(s.now()) {
			if _, err := s.Expire(ctx, invitation.ID); err != nil {
				return models.Invitation{}, err
			}
			return models.Invitation{}, ErrInvitationExpired
		}
		return invitation, nil
	case models.InvitationStatusExpired:
		return models.Invitation{}, ErrInvitationExpired
	default:
		return models.Invitation{}, ErrNotInvited
	}
}

// MarkStarted moves a pending or accepted invitation to started. A pending invitation is accepted
// in the same update.
func (s *invitationService) MarkStarted(ctx context.Context, invitation models.Invitation) (models.Invitation, error) {
	now := s.now().UTC()
	updates := map[string]interface{}{
		"status":     models.InvitationStatusStarted,
		"started_at": now,
	}
	if invitation.AcceptedAt == nil {
		updates["accepted_at"] = now
	}

	applied, err := s.invitations.Transition(ctx, invitation.ID, openStatuses, updates)
	if err != nil {
		return models.Invitation{}, storageError(err)
	}
	if !applied {
		return models.Invitation{}, ErrInvalidTransition
	}

	invitation.Status = models.InvitationStatusStarted
	invitation.StartedAt = &now
	if invitation.AcceptedAt == nil {
		invitation.AcceptedAt = &now
	}
	return invitation, nil
}

// Complete moves a started invitation to completed and stores its score. It returns false without
// error when the invitation is already completed, which makes repeated finalization a no-op.
func (s *invitationService) Complete(ctx context.Context, invitationID uint, score, maxScore float64) (bool, error) {
	now := s.now().UTC()
	applied, err := s.invitations.Transition(ctx, invitationID, []string{models.InvitationStatusStarted}, map[string]interface{}{
		"status":       models.InvitationStatusCompleted,
		"completed_at": now,
		"score":        score,
		"max_score":    maxScore,
		"active_key":   nil,
	})
	if err != nil {
		return false, storageError(err)
	}
	if applied {
		return true, nil
	}

	return false, s.rejectedTransition(ctx, invitationID, models.InvitationStatusCompleted)
}

// Expire moves a non-terminal invitation to expired. Expiring an expired invitation is a no-op.
func (s *invitationService) Expire(ctx context.Context, invitationID uint) (bool, error) {
	applied, err := s.invitations.Transition(ctx, invitationID, nonTerminalStatus, map[string]interface{}{
		"status":     models.InvitationStatusExpired,
		"active_key": nil,
	})
	if err != nil {
		return false, storageError(err)
	}
	if applied {
		s.logger.Info().Uint("invitation_id", invitationID).Msg("invitation expired")
		return true, nil
	}

	return false, s.rejectedTransition(ctx, invitationID, models.InvitationStatusExpired)
}

// rejectedTransition explains why a conditional update touched no row: nil when the invitation is
// already in the target state, otherwise not-found or invalid-transition.
func (s *invitationService) rejectedTransition(ctx context.Context, invitationID uint, target string) error {
	current, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return lookupError(err, ErrInvitationNotFound)
	}
	if current.Status == target {
		return nil
	}
	return ErrInvalidTransition
}

// Get reads the invitation as stored, without applying lazy expiry.
func (s *invitationService) Get(ctx context.Context, invitationID uint) (models.Invitation, error) {
	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return models.Invitation{}, lookupError(err, ErrInvitationNotFound)
	}
	return invitation, nil
}
