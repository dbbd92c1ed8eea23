package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
)

func TestTestSessionServiceStartMarksInvitationStarted(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	invitation := f.invite(t, 7)

	session, err := f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, session.SessionToken, 64)
	require.Equal(t, models.TestSessionStatusInProgress, session.Status)
	require.NotNil(t, session.Deadline)
	require.True(t, f.clock.Now().Add(30*time.Minute).Equal(*session.Deadline))

	stored := f.invitation(t, invitation.ID)
	require.Equal(t, models.InvitationStatusStarted, stored.Status)
	require.NotNil(t, stored.AcceptedAt)
	require.NotNil(t, stored.StartedAt)
}

func TestTestSessionServiceStartTwiceFails(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	f.invite(t, 7)

	_, err := f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.NoError(t, err)

	_, err = f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.ErrorIs(t, err, ErrSessionAlreadyActive)
}

func TestTestSessionServiceStartWithoutInvitation(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.sessionSvc.Start(context.Background(), 99, f.assessment.ID)
	require.ErrorIs(t, err, ErrNotInvited)
}

func TestTestSessionServiceStartExpiredInvitation(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	expiresAt := f.clock.Now().Add(time.Hour)
	invitation, err := f.lifecycle.Create(ctx, dto.CreateInvitationRequest{
		CandidateID:  7,
		AssessmentID: f.assessment.ID,
		ExpiresAt:    &expiresAt,
	})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.ErrorIs(t, err, ErrInvitationExpired)
	require.Equal(t, models.InvitationStatusExpired, f.invitation(t, invitation.ID).Status)

	// The expired invitation no longer holds the pair.
	f.invite(t, 7)
	_, err = f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.NoError(t, err)
}

func TestTestSessionServiceConcurrentStartsOpenOneSession(t *testing.T) {
	f := newLifecycleFixture(t)
	f.invite(t, 7)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessionSvc.Start(context.Background(), 7, f.assessment.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if errors.Is(err, ErrSessionAlreadyActive) {
				rejected++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, attempts-1, rejected)

	var open int64
	require.NoError(t, f.db.Model(&models.TestSession{}).Where("status = ?", models.TestSessionStatusInProgress).Count(&open).Error)
	require.EqualValues(t, 1, open)
}

func TestTestSessionServiceEndFinalizesOnce(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	invitation := f.invite(t, 7)

	session, err := f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.NoError(t, err)

	_, err = f.answers.SubmitAnswer(ctx, session.SessionToken, 7, dto.SubmitAnswerRequest{
		QuestionID: f.questions[1].ID,
		Answer:     "type lru struct{}",
	})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	ended, err := f.sessionSvc.End(ctx, session.ID, session.SessionToken, 7)
	require.NoError(t, err)
	require.True(t, ended.Finalized)
	require.Equal(t, models.TestSessionStatusCompleted, ended.Session.Status)
	require.Empty(t, ended.Session.SessionToken)
	require.Equal(t, 1, ended.Result.AnsweredQuestions)
	require.Equal(t, 1, ended.Result.UnansweredQuestions)
	require.Equal(t, 50.0, ended.Result.AverageScore)
	require.Equal(t, 50.0, ended.Result.TotalScore)
	require.Equal(t, 110.0, ended.Result.MaxScore)

	stored := f.invitation(t, invitation.ID)
	require.Equal(t, models.InvitationStatusCompleted, stored.Status)
	require.NotNil(t, stored.Score)
	require.Equal(t, 50.0, *stored.Score)
	require.Nil(t, stored.ActiveKey)

	_, err = f.sessionSvc.End(ctx, session.ID, session.SessionToken, 7)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.Equal(t, models.InvitationStatusCompleted, f.invitation(t, invitation.ID).Status)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	require.Equal(t, TriggerCandidate, events[0].Trigger)
	require.Equal(t, invitation.ID, events[0].InvitationID)
}

func TestTestSessionServiceEndRejectsForeignCallers(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	f.invite(t, 7)

	session, err := f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.NoError(t, err)

	_, err = f.sessionSvc.End(ctx, session.ID, "not-the-token-at-all", 7)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.sessionSvc.End(ctx, session.ID, session.SessionToken, 8)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.sessionSvc.End(ctx, session.ID+100, session.SessionToken, 7)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTestSessionServiceStartAfterCompletionIsRejected(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	f.invite(t, 7)

	session, err := f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.NoError(t, err)
	_, err = f.sessionSvc.End(ctx, session.ID, session.SessionToken, 7)
	require.NoError(t, err)

	_, err = f.sessionSvc.Start(ctx, 7, f.assessment.ID)
	require.ErrorIs(t, err, ErrNotInvited)
}
