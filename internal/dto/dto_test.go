package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/models"
)

func TestNewStartedSessionResponseExposesTokenAndDeadline(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := models.TestSession{ID: 4, CandidateID: 2, AssessmentID: 3, InvitationID: 9, SessionToken: "secret-token", Status: models.TestSessionStatusInProgress, StartedAt: started}

	response := NewStartedSessionResponse(session, 45*time.Minute)
	require.Equal(t, uint(4), response.ID)
	require.Equal(t, uint(9), response.InvitationID)
	require.Equal(t, "secret-token", response.SessionToken)
	require.Equal(t, started.Add(45*time.Minute), *response.Deadline)

	require.Empty(t, NewSessionResponse(session).SessionToken)
}

func TestNewAssessmentResponseUsesEffectivePoints(t *testing.T) {
	override := 25.0
	assessment := models.Assessment{
		ID:          1,
		Title:       "Backend",
		Duration:    45,
		TotalPoints: 35,
		Status:      models.AssessmentStatusActive,
		Questions: []models.AssessmentQuestion{
			{QuestionID: 10, OrderIndex: 0, Question: models.Question{ID: 10, Title: "FizzBuzz", MaxScore: 10, TimeLimit: 15}},
			{QuestionID: 11, OrderIndex: 1, PointsOverride: &override, Question: models.Question{ID: 11, Title: "LRU", MaxScore: 20, TimeLimit: 30}},
		},
	}

	response := NewAssessmentResponse(assessment)
	require.Equal(t, 45, response.Duration)
	require.Len(t, response.Questions, 2)
	require.Equal(t, 10.0, response.Questions[0].Points)
	require.Equal(t, 25.0, response.Questions[1].Points)
	require.Equal(t, "LRU", response.Questions[1].Question.Title)
}

func TestNewSubmissionResponseCopiesScore(t *testing.T) {
	score := 7.5
	response := NewSubmissionResponse(models.Submission{ID: 3, QuestionID: 8, Score: &score, MaxScore: 10, ScoreSource: models.ScoreSourceAI, Status: models.SubmissionStatusCompleted})
	require.Equal(t, uint(8), response.QuestionID)
	require.Equal(t, 7.5, *response.Score)
	require.Equal(t, models.ScoreSourceAI, response.ScoreSource)
}
