package models

import "time"

// Test session statuses.
const (
	TestSessionStatusInProgress = "in_progress"
	TestSessionStatusCompleted  = "completed"
)

// TestSession is the tokenized attempt window of one candidate taking one assessment.
// ActiveKey is only populated while the session is in progress.
type TestSession struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CandidateID  uint       `gorm:"not null;index:idx_session_pair" json:"candidate_id"`
	AssessmentID uint       `gorm:"not null;index:idx_session_pair" json:"assessment_id"`
	InvitationID uint       `gorm:"not null;index" json:"invitation_id"`
	SessionToken string     `gorm:"size:128;not null;uniqueIndex" json:"-"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	ActiveKey    *string    `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the session still accepts answers.
func (s TestSession) IsActive() bool {
	return s.Status == TestSessionStatusInProgress
}
