package models

import (
	"fmt"
	"time"
)

// Invitation statuses.
const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusStarted   = "started"
	InvitationStatusCompleted = "completed"
	InvitationStatusExpired   = "expired"
)

// Invitation grants a candidate access to an assessment and carries its lifecycle state.
// ActiveKey is set while the invitation is non-terminal and cleared once it completes or expires;
// its unique index keeps a single open invitation per (candidate, assessment).
type Invitation struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CandidateID  uint       `gorm:"not null;index:idx_invitation_pair" json:"candidate_id"`
	AssessmentID uint       `gorm:"not null;index:idx_invitation_pair" json:"assessment_id"`
	Status       string     `gorm:"size:32;not null;index" json:"status"`
	InvitedAt    time.Time  `gorm:"not null" json:"invited_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Score        *float64   `json:"score,omitempty"`
	MaxScore     *float64   `json:"max_score,omitempty"`
	ActiveKey    *string    `gorm:"size:64;uniqueIndex" json:"-"`
	Assessment   Assessment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the invitation can no longer change state.
func (i Invitation) IsTerminal() bool {
	return i.Status == InvitationStatusCompleted || i.Status == InvitationStatusExpired
}

// IsExpiredAt reports whether a non-terminal invitation has passed its expiry.
func (i Invitation) IsExpiredAt(now time.Time) bool {
	return !i.IsTerminal() && i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// PairKey returns the (candidate, assessment) key shared by invitations and sessions.
func PairKey(candidateID, assessmentID uint) string {
	return fmt.Sprintf("%d:%d", candidateID, assessmentID)
}
