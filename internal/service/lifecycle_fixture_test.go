package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/database"
	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/repository"
	"github.com/noah-isme/codeassess-api/internal/scoring"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedScorer grades every answer with a fixed ratio of its max score.
type fixedScorer struct {
	mu     sync.Mutex
	ratio  float64
	source string
	calls  int
}

func (s *fixedScorer) ScoreAnswer(_ context.Context, req scoring.JudgeRequest) scoring.Scored {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return scoring.Scored{
		ScoreResult: scoring.ScoreResult{Score: s.ratio * req.MaxScore, Feedback: "<b>Solid</b> answer"},
		Source:      s.source,
	}
}

func (s *fixedScorer) ScoreBatch(ctx context.Context, reqs []scoring.JudgeRequest) []scoring.Scored {
	results := make([]scoring.Scored, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, s.ScoreAnswer(ctx, req))
	}
	return results
}

func (s *fixedScorer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []CompletionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event CompletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []CompletionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CompletionEvent(nil), p.events...)
}

type lifecycleFixture struct {
	db          *gorm.DB
	clock       *fakeClock
	scorer      *fixedScorer
	publisher   *recordingPublisher
	assessments repository.AssessmentRepository
	invitations repository.InvitationRepository
	sessions    repository.TestSessionRepository
	submissions repository.SubmissionRepository
	lifecycle   InvitationService
	results     ResultService
	finalizer   Finalizer
	sessionSvc  TestSessionService
	answers     SubmissionService
	assessment  models.Assessment
	questions   []models.Question
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &lifecycleFixture{
		db:          db,
		clock:       &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
		scorer:      &fixedScorer{ratio: 0.5, source: models.ScoreSourceAI},
		publisher:   &recordingPublisher{},
		assessments: repository.NewAssessmentRepository(db),
		invitations: repository.NewInvitationRepository(db),
		sessions:    repository.NewTestSessionRepository(db),
		submissions: repository.NewSubmissionRepository(db),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	lifecycle := NewInvitationService(f.invitations, f.assessments, validate, logger).(*invitationService)
	lifecycle.now = f.clock.Now
	f.lifecycle = lifecycle

	f.results = NewResultService(f.assessments, f.submissions, logger)

	fin := NewFinalizer(lifecycle, f.assessments, f.submissions, f.sessions, f.scorer, f.publisher, logger).(*finalizer)
	fin.now = f.clock.Now
	fin.scorer.now = f.clock.Now
	f.finalizer = fin

	sessionSvc := NewTestSessionService(f.sessions, f.invitations, lifecycle, fin, logger).(*testSessionService)
	sessionSvc.now = f.clock.Now
	f.sessionSvc = sessionSvc

	answers := NewSubmissionService(f.sessions, f.assessments, f.submissions, f.scorer, validate, logger).(*submissionService)
	answers.now = f.clock.Now
	answers.scorer.now = f.clock.Now
	f.answers = answers

	f.seedAssessment(t)
	return f
}

// seedAssessment links two questions: 10 points over 10 minutes and 100 points over 20 minutes.
func (f *lifecycleFixture) seedAssessment(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	assessment := models.Assessment{Title: "Backend screening", Status: models.AssessmentStatusActive}
	require.NoError(t, f.assessments.Create(ctx, &assessment))

	f.questions = []models.Question{
		{Title: "Reverse", Prompt: "Reverse a string", Language: "python", MaxScore: 10, TimeLimit: 10},
		{Title: "Cache", Prompt: "Implement an LRU cache", Language: "go", MaxScore: 100, TimeLimit: 20},
	}
	for i := range f.questions {
		require.NoError(t, f.assessments.CreateQuestion(ctx, &f.questions[i]))
		updated, err := f.assessments.LinkQuestion(ctx, &models.AssessmentQuestion{
			AssessmentID: assessment.ID,
			QuestionID:   f.questions[i].ID,
			OrderIndex:   i,
		})
		require.NoError(t, err)
		assessment = updated
	}
	require.Equal(t, 30, assessment.Duration)
	f.assessment = assessment
}

func (f *lifecycleFixture) invite(t *testing.T, candidateID uint) dto.InvitationResponse {
	t.Helper()
	invitation, err := f.lifecycle.Create(context.Background(), dto.CreateInvitationRequest{
		CandidateID:  candidateID,
		AssessmentID: f.assessment.ID,
	})
	require.NoError(t, err)
	return invitation
}

func (f *lifecycleFixture) invitation(t *testing.T, id uint) models.Invitation {
	t.Helper()
	invitation, err := f.invitations.GetByID(context.Background(), id)
	require.NoError(t, err)
	return invitation
}
