package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses.
const (
	SubmissionStatusPending   = "pending"
	SubmissionStatusPassed    = "passed"
	SubmissionStatusError     = "error"
	SubmissionStatusCompleted = "completed"
)

// Score sources recorded on scored submissions.
const (
	ScoreSourceAI       = "ai"
	ScoreSourceCache    = "cache"
	ScoreSourceFallback = "fallback"
)

// Submission is a candidate's answer to one question of an assessment.
type Submission struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	CandidateID  uint              `gorm:"not null;uniqueIndex:idx_submission_answer" json:"candidate_id"`
	AssessmentID uint              `gorm:"not null;uniqueIndex:idx_submission_answer" json:"assessment_id"`
	QuestionID   uint              `gorm:"not null;uniqueIndex:idx_submission_answer" json:"question_id"`
	Answer       string            `gorm:"type:text" json:"answer"`
	Language     string            `gorm:"size:32" json:"language"`
	Status       string            `gorm:"size:32;not null" json:"status"`
	Score        *float64          `json:"score,omitempty"`
	MaxScore     float64           `gorm:"not null;default:0" json:"max_score"`
	Feedback     string            `gorm:"type:text" json:"feedback"`
	ScoreSource  string            `gorm:"size:16" json:"score_source"`
	Attempts     int               `gorm:"not null;default:0" json:"attempts"`
	Details      datatypes.JSONMap `json:"details"`
	SubmittedAt  time.Time         `gorm:"not null" json:"submitted_at"`
	ExecutedAt   *time.Time        `json:"executed_at,omitempty"`
	Question     Question          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IsScored reports whether the submission already carries a score.
func (s Submission) IsScored() bool {
	return s.Score != nil && s.Status != SubmissionStatusPending
}

// All returns every model managed by the engine, in migration order.
func All() []interface{} {
	return []interface{}{
		&Question{},
		&Assessment{},
		&AssessmentQuestion{},
		&Invitation{},
		&TestSession{},
		&Submission{},
	}
}
