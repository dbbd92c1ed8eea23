package dto

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// StartSessionRequest opens a test session for the authenticated candidate.
type StartSessionRequest struct {
	AssessmentID uint `json:"assessment_id" validate:"required,gt=0"`
}

// EndSessionRequest finalizes a session. The token must match the one issued on start.
type EndSessionRequest struct {
	SessionToken string `json:"session_token" validate:"required,min=16,max=128"`
}

// SessionResponse describes a test session. SessionToken is only populated when the session is created.
type SessionResponse struct {
	ID           uint       `json:"id"`
	CandidateID  uint       `json:"candidate_id"`
	AssessmentID uint       `json:"assessment_id"`
	InvitationID uint       `json:"invitation_id"`
	SessionToken string     `json:"session_token,omitempty"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// EndSessionResponse carries the closed session and the candidate's final result.
type EndSessionResponse struct {
	Session   SessionResponse  `json:"session"`
	Result    AssessmentResult `json:"result"`
	Finalized bool             `json:"finalized"`
}

// NewSessionResponse converts a TestSession model into a DTO without its token.
func NewSessionResponse(model models.TestSession) SessionResponse {
	var response SessionResponse
	_ = copier.Copy(&response, &model)
	response.SessionToken = ""
	return response
}

// NewStartedSessionResponse exposes the token of a freshly started session together with its deadline.
func NewStartedSessionResponse(model models.TestSession, limit time.Duration) SessionResponse {
	response := NewSessionResponse(model)
	response.SessionToken = model.SessionToken
	if limit > 0 {
		deadline := model.StartedAt.Add(limit)
		response.Deadline = &deadline
	}
	return response
}
