package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/models"
)

func scoredSubmission(questionID uint, score float64) models.Submission {
	return models.Submission{
		QuestionID:  questionID,
		Status:      models.SubmissionStatusCompleted,
		Score:       &score,
		Feedback:    "ok",
		ScoreSource: models.ScoreSourceAI,
	}
}

func summaryAssessment(maxScores ...float64) models.Assessment {
	assessment := models.Assessment{ID: 1}
	for i, maxScore := range maxScores {
		id := uint(i + 1)
		assessment.Questions = append(assessment.Questions, models.AssessmentQuestion{
			AssessmentID: 1,
			QuestionID:   id,
			OrderIndex:   i,
			Question:     models.Question{ID: id, Title: "Q", MaxScore: maxScore},
		})
	}
	return assessment
}

func TestSummarizeExcludesUnansweredFromAverage(t *testing.T) {
	assessment := summaryAssessment(100, 10)

	result := Summarize(assessment, 7, []models.Submission{scoredSubmission(1, 50)})

	require.Equal(t, 2, result.TotalQuestions)
	require.Equal(t, 1, result.AnsweredQuestions)
	require.Equal(t, 1, result.UnansweredQuestions)
	require.Equal(t, 50.0, result.AverageScore)
	require.Equal(t, 50.0, result.TotalScore)
	require.Equal(t, 110.0, result.MaxScore)

	require.Len(t, result.PerQuestion, 2)
	require.True(t, result.PerQuestion[0].Answered)
	require.Equal(t, 50.0, *result.PerQuestion[0].Percentage)
	require.False(t, result.PerQuestion[1].Answered)
	require.Nil(t, result.PerQuestion[1].Score)
}

func TestSummarizeCountsZeroScoresAsAnswered(t *testing.T) {
	assessment := summaryAssessment(10, 10)

	result := Summarize(assessment, 7, []models.Submission{
		scoredSubmission(1, 0),
		scoredSubmission(2, 10),
	})

	require.Equal(t, 2, result.AnsweredQuestions)
	require.Equal(t, 0, result.UnansweredQuestions)
	require.Equal(t, 50.0, result.AverageScore)
}

func TestSummarizeAveragesPercentagesNotPoints(t *testing.T) {
	assessment := summaryAssessment(10, 90)
	override := 30.0
	assessment.Questions[1].PointsOverride = &override

	result := Summarize(assessment, 7, []models.Submission{
		scoredSubmission(1, 10),
		scoredSubmission(2, 10),
	})

	// 100% and 33.33...% average to 66.67 when computed from unrounded percentages.
	require.Equal(t, 66.67, result.AverageScore)
	require.Equal(t, 40.0, result.MaxScore)
	require.Equal(t, 33.33, *result.PerQuestion[1].Percentage)
}

func TestSummarizeIgnoresPendingAndUnlinkedSubmissions(t *testing.T) {
	assessment := summaryAssessment(10)
	pending := models.Submission{QuestionID: 1, Status: models.SubmissionStatusPending}

	result := Summarize(assessment, 7, []models.Submission{pending, scoredSubmission(99, 5)})

	require.Equal(t, 0, result.AnsweredQuestions)
	require.Equal(t, 1, result.UnansweredQuestions)
	require.Zero(t, result.AverageScore)
	require.Zero(t, result.TotalScore)
}

func TestSummarizeEmptyAssessment(t *testing.T) {
	result := Summarize(models.Assessment{ID: 3}, 7, nil)

	require.Zero(t, result.TotalQuestions)
	require.Zero(t, result.AverageScore)
	require.NotNil(t, result.PerQuestion)
}

func TestResultServiceComputeResults(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	session := startSession(t, f, 7)

	result, err := f.results.ComputeResults(ctx, f.assessment.ID, 7)
	require.NoError(t, err)
	require.Equal(t, 0, result.AnsweredQuestions)

	_, err = f.answers.SubmitAnswer(ctx, session.SessionToken, 7, submitFor(f.questions[0].ID))
	require.NoError(t, err)

	result, err = f.results.ComputeResults(ctx, f.assessment.ID, 7)
	require.NoError(t, err)
	require.Equal(t, 1, result.AnsweredQuestions)
	require.Equal(t, 50.0, result.AverageScore)
	require.Equal(t, 5.0, result.TotalScore)

	_, err = f.results.ComputeResults(ctx, f.assessment.ID+10, 7)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}
