package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/repository"
)

// FinalizeOutcome reports what a finalization did. Applied is false when another caller had
// already completed the invitation.
type FinalizeOutcome struct {
	Applied  bool
	Rescored int
	Result   dto.AssessmentResult
}

// Finalizer closes out a started invitation: it scores answers still pending, aggregates the
// result, completes the invitation and closes any open session. Candidate-initiated ends and the
// timeout reaper share it.
type Finalizer interface {
	Finalize(ctx context.Context, invitation models.Invitation, trigger string) (FinalizeOutcome, error)
}

type finalizer struct {
	invitations InvitationService
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	sessions    repository.TestSessionRepository
	scorer      *answerScorer
	publisher   CompletionPublisher
	locks       *keyedMutex
	logger      zerolog.Logger
	now         func() time.Time
}

// NewFinalizer constructs a Finalizer. A nil publisher disables completion events.
func NewFinalizer(invitations InvitationService, assessments repository.AssessmentRepository, submissions repository.SubmissionRepository, sessions repository.TestSessionRepository, scorer Scorer, publisher CompletionPublisher, logger zerolog.Logger) Finalizer {
	return &finalizer{
		invitations: invitations,
		assessments: assessments,
		submissions: submissions,
		sessions:    sessions,
		scorer:      newAnswerScorer(scorer, submissions),
		publisher:   publisher,
		locks:       newKeyedMutex(),
		logger:      logger.With().Str("component", "finalizer").Logger(),
		now:         time.Now,
	}
}

// Finalize runs one finalization per invitation at a time and works from the stored row, so a
// candidate end racing a reaper tick grades pending answers only once.
func (f *finalizer) Finalize(ctx context.Context, invitation models.Invitation, trigger string) (FinalizeOutcome, error) {
	unlock := f.locks.Lock(strconv.FormatUint(uint64(invitation.ID), 10))
	defer unlock()

	current, err := f.invitations.Get(ctx, invitation.ID)
	if err != nil {
		return FinalizeOutcome{}, err
	}
	invitation = current

	switch invitation.Status {
	case models.InvitationStatusStarted, models.InvitationStatusCompleted:
	default:
		return FinalizeOutcome{}, ErrInvalidTransition
	}

	assessment, err := f.assessments.GetByID(ctx, invitation.AssessmentID)
	if err != nil {
		return FinalizeOutcome{}, lookupError(err, ErrAssessmentNotFound)
	}

	outcome := FinalizeOutcome{}
	if invitation.Status == models.InvitationStatusStarted {
		outcome.Rescored, err = f.scorePending(ctx, invitation, assessment)
		if err != nil {
			return FinalizeOutcome{}, err
		}
	}

	submissions, err := f.submissions.ListForCandidate(ctx, invitation.AssessmentID, invitation.CandidateID)
	if err != nil {
		return FinalizeOutcome{}, storageError(err)
	}
	outcome.Result = Summarize(assessment, invitation.CandidateID, submissions)

	if invitation.Status == models.InvitationStatusStarted {
		outcome.Applied, err = f.invitations.Complete(ctx, invitation.ID, outcome.Result.TotalScore, outcome.Result.MaxScore)
		if err != nil {
			return FinalizeOutcome{}, err
		}
	}

	if err := f.closeSession(ctx, invitation); err != nil {
		return outcome, err
	}

	if outcome.Applied {
		f.publish(ctx, invitation, trigger, outcome.Result)
	}

	return outcome, nil
}

// scorePending grades answers stored but never scored, as they were submitted.
func (f *finalizer) scorePending(ctx context.Context, invitation models.Invitation, assessment models.Assessment) (int, error) {
	pending, err := f.submissions.ListPending(ctx, invitation.AssessmentID, invitation.CandidateID)
	if err != nil {
		return 0, storageError(err)
	}

	scored := 0
	for i := range pending {
		link, ok := findLink(assessment, pending[i].QuestionID)
		if !ok {
			continue
		}
		if err := f.scorer.score(ctx, &pending[i], link); err != nil {
			return scored, err
		}
		scored++
	}
	return scored, nil
}

func (f *finalizer) closeSession(ctx context.Context, invitation models.Invitation) error {
	session, err := f.sessions.FindActiveForPair(ctx, invitation.CandidateID, invitation.AssessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return storageError(err)
	}

	if _, err := f.sessions.Close(ctx, session.ID, f.now().UTC()); err != nil {
		return storageError(err)
	}
	return nil
}

func (f *finalizer) publish(ctx context.Context, invitation models.Invitation, trigger string, result dto.AssessmentResult) {
	if f.publisher == nil {
		return
	}

	event := CompletionEvent{
		InvitationID: invitation.ID,
		CandidateID:  invitation.CandidateID,
		AssessmentID: invitation.AssessmentID,
		Trigger:      trigger,
		Score:        result.TotalScore,
		MaxScore:     result.MaxScore,
		AverageScore: result.AverageScore,
		CompletedAt:  f.now().UTC(),
	}
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.logger.Warn().Err(err).Uint("invitation_id", invitation.ID).Msg("failed to publish completion event")
	}
}
