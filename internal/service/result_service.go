package service

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/dto"
	"github.com/noah-isme/codeassess-api/internal/models"
	"github.com/noah-isme/codeassess-api/internal/repository"
)

// ResultService aggregates a candidate's submissions into assessment results.
type ResultService interface {
	ComputeResults(ctx context.Context, assessmentID, candidateID uint) (dto.AssessmentResult, error)
}

type resultService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

// NewResultService constructs a ResultService instance.
func NewResultService(assessments repository.AssessmentRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) ResultService {
	return &resultService{
		assessments: assessments,
		submissions: submissions,
		logger:      logger.With().Str("component", "result_service").Logger(),
	}
}

func (s *resultService) ComputeResults(ctx context.Context, assessmentID, candidateID uint) (dto.AssessmentResult, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return dto.AssessmentResult{}, lookupError(err, ErrAssessmentNotFound)
	}

	submissions, err := s.submissions.ListForCandidate(ctx, assessmentID, candidateID)
	if err != nil {
		return dto.AssessmentResult{}, storageError(err)
	}

	return Summarize(assessment, candidateID, submissions), nil
}

// Summarize computes results from an assessment with its question links and the candidate's
// submissions. Unanswered questions are excluded from the average rather than counted as zero.
// Submissions for questions no longer linked to the assessment are ignored.
func Summarize(assessment models.Assessment, candidateID uint, submissions []models.Submission) dto.AssessmentResult {
	byQuestion := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byQuestion[submission.QuestionID] = submission
	}

	result := dto.AssessmentResult{
		AssessmentID:   assessment.ID,
		CandidateID:    candidateID,
		TotalQuestions: len(assessment.Questions),
		PerQuestion:    make([]dto.QuestionResult, 0, len(assessment.Questions)),
	}

	var percentageSum, scoreSum, maxSum float64
	for _, link := range assessment.Questions {
		maxScore := link.EffectiveMaxScore()
		maxSum += maxScore

		item := dto.QuestionResult{
			QuestionID: link.QuestionID,
			Title:      link.Question.Title,
			OrderIndex: link.OrderIndex,
			MaxScore:   maxScore,
		}

		submission, ok := byQuestion[link.QuestionID]
		if ok && submission.IsScored() {
			score := *submission.Score
			percentage := 0.0
			if maxScore > 0 {
				percentage = score / maxScore * 100
			}
			percentageSum += percentage
			scoreSum += score
			result.AnsweredQuestions++

			roundedScore := round2(score)
			roundedPercentage := round2(percentage)
			item.Answered = true
			item.Score = &roundedScore
			item.Percentage = &roundedPercentage
			item.Feedback = submission.Feedback
			item.ScoreSource = submission.ScoreSource
		}

		result.PerQuestion = append(result.PerQuestion, item)
	}

	result.UnansweredQuestions = result.TotalQuestions - result.AnsweredQuestions
	if result.AnsweredQuestions > 0 {
		result.AverageScore = round2(percentageSum / float64(result.AnsweredQuestions))
	}
	result.TotalScore = round2(scoreSum)
	result.MaxScore = round2(maxSum)

	return result
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
