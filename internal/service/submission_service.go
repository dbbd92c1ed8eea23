package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/repository"
	"github.com/noah-isme/codeassess-api/internal/scoring"
)

// ErrSessionTimeUp indicates the session's time budget is spent and answers are no longer accepted.
var ErrSessionTimeUp = errors.New("session time limit exceeded")

// Scorer grades answers. It never fails: unavailable judges degrade to heuristic scores.
type Scorer interface {
	ScoreAnswer(ctx context.Context, req scoring.JudgeRequest) scoring.Scored
	ScoreBatch(ctx context.Context, reqs []scoring.JudgeRequest) []scoring.Scored
}

// SubmissionService stores candidate answers and scores them synchronously.
type SubmissionService interface {
	SubmitAnswer(ctx context.Context, sessionToken string, candidateID uint, payload dto.SubmitAnswerRequest) (dto.SubmissionResponse, error)
	Rescore(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	sessions    repository.TestSessionRepository
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	scorer      *answerScorer
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(sessions repository.TestSessionRepository, assessments repository.AssessmentRepository, submissions repository.SubmissionRepository, scorer Scorer, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		sessions:    sessions,
		assessments: assessments,
		submissions: submissions,
		scorer:      newAnswerScorer(scorer, submissions),
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) SubmitAnswer(ctx context.Context, sessionToken string, candidateID uint, payload dto.SubmitAnswerRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	session, err := s.sessions.FindActiveByToken(ctx, sessionToken)
	if err != nil {
		return dto.SubmissionResponse{}, lookupError(err, ErrSessionNotFound)
	}
	if session.CandidateID != candidateID {
		return dto.SubmissionResponse{}, ErrSessionNotFound
	}

	assessment, err := s.assessments.GetByID(ctx, session.AssessmentID)
	if err != nil {
		return dto.SubmissionResponse{}, lookupError(err, ErrAssessmentNotFound)
	}

	now := s.now().UTC()
	if limit := assessment.DurationLimit(); limit > 0 && now.After(session.StartedAt.Add(limit)) {
		return dto.SubmissionResponse{}, ErrSessionTimeUp
	}

	link, ok := findLink(assessment, payload.QuestionID)
	if !ok {
		return dto.SubmissionResponse{}, ErrQuestionNotInAssessment
	}

	submission, err := s.submissions.FindAnswer(ctx, candidateID, session.AssessmentID, payload.QuestionID)
	switch {
	case err == nil:
		submission.Answer = payload.Answer
		submission.Language = payload.Language
		submission.Status = models.SubmissionStatusPending
		submission.Score = nil
		submission.SubmittedAt = now
		if err := s.submissions.Update(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, storageError(err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			CandidateID:  candidateID,
			AssessmentID: session.AssessmentID,
			QuestionID:   payload.QuestionID,
			Answer:       payload.Answer,
			Language:     payload.Language,
			Status:       models.SubmissionStatusPending,
			SubmittedAt:  now,
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, storageError(err)
		}
	default:
		return dto.SubmissionResponse{}, storageError(err)
	}

	if err := s.scorer.score(ctx, &submission, link); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("question_id", submission.QuestionID).
		Str("source", submission.ScoreSource).
		Msg("answer scored")

	return dto.NewSubmissionResponse(submission), nil
}

// Rescore runs scoring again for a stored answer, replacing its previous grade.
func (s *submissionService) Rescore(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, lookupError(err, ErrSubmissionNotFound)
	}

	link, err := s.assessments.GetQuestionLink(ctx, submission.AssessmentID, submission.QuestionID)
	if err != nil {
		return dto.SubmissionResponse{}, lookupError(err, ErrQuestionNotInAssessment)
	}

	if err := s.scorer.score(ctx, &submission, link); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// answerScorer grades a stored submission and persists the clamped result.
type answerScorer struct {
	scorer      Scorer
	submissions repository.SubmissionRepository
	sanitizer   *bluemonday.Policy
	now         func() time.Time
}

func newAnswerScorer(scorer Scorer, submissions repository.SubmissionRepository) *answerScorer {
	return &answerScorer{
		scorer:      scorer,
		submissions: submissions,
		sanitizer:   bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

func (a *answerScorer) score(ctx context.Context, submission *models.Submission, link models.AssessmentQuestion) error {
	maxScore := link.EffectiveMaxScore()
	scored := a.scorer.ScoreAnswer(ctx, scoring.JudgeRequest{
		QuestionTitle: link.Question.Title,
		Question:      link.Question.Prompt,
		Language:      firstNonEmpty(submission.Language, link.Question.Language),
		Answer:        submission.Answer,
		MaxScore:      maxScore,
	})

	value := scored.Score
	if value < 0 {
		value = 0
	}
	if value > maxScore {
		value = maxScore
	}

	feedback := strings.TrimSpace(a.sanitizer.Sanitize(scored.Feedback))
	if feedback == "" {
		feedback = scoring.DefaultFeedback
	}

	executedAt := a.now().UTC()
	submission.Score = &value
	submission.MaxScore = maxScore
	submission.Feedback = feedback
	submission.ScoreSource = scored.Source
	submission.Status = models.SubmissionStatusCompleted
	submission.Attempts++
	submission.ExecutedAt = &executedAt
	submission.Details = datatypes.JSONMap{
		"source":        scored.Source,
		"question_max":  link.Question.MaxScore,
		"points_weight": maxScore,
	}

	if err := a.submissions.Update(ctx, submission); err != nil {
		return storageError(err)
	}
	return nil
}

func findLink(assessment models.Assessment, questionID uint) (models.AssessmentQuestion, bool) {
	for _, link := range assessment.Questions {
		if link.QuestionID == questionID {
			return link, true
		}
	}
	return models.AssessmentQuestion{}, false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
