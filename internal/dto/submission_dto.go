package dto

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// SubmitAnswerRequest is a candidate's answer to one question of the running session.
type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Answer     string `json:"answer" validate:"max=20000"`
	Language   string `json:"language" validate:"omitempty,max=32"`
}

// SubmissionResponse is returned once an answer has been stored and scored.
type SubmissionResponse struct {
	ID           uint       `json:"id"`
	CandidateID  uint       `json:"candidate_id"`
	AssessmentID uint       `json:"assessment_id"`
	QuestionID   uint       `json:"question_id"`
	Language     string     `json:"language"`
	Status       string     `json:"status"`
	Score        *float64   `json:"score"`
	MaxScore     float64    `json:"max_score"`
	Feedback     string     `json:"feedback"`
	ScoreSource  string     `json:"score_source"`
	Attempts     int        `json:"attempts"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	var response SubmissionResponse
	_ = copier.Copy(&response, &model)
	return response
}
