package dto

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// CreateInvitationRequest invites a candidate to an assessment.
type CreateInvitationRequest struct {
	CandidateID  uint       `json:"candidate_id" validate:"required,gt=0"`
	AssessmentID uint       `json:"assessment_id" validate:"required,gt=0"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// InvitationResponse describes an invitation and, once completed, its final score.
type InvitationResponse struct {
	ID           uint       `json:"id"`
	CandidateID  uint       `json:"candidate_id"`
	AssessmentID uint       `json:"assessment_id"`
	Status       string     `json:"status"`
	InvitedAt    time.Time  `json:"invited_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Score        *float64   `json:"score,omitempty"`
	MaxScore     *float64   `json:"max_score,omitempty"`
}

// NewInvitationResponse converts an Invitation model into a DTO.
func NewInvitationResponse(model models.Invitation) InvitationResponse {
	var response InvitationResponse
	_ = copier.Copy(&response, &model)
	return response
}
