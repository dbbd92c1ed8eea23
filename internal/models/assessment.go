package models

import "time"

// Assessment statuses.
const (
	AssessmentStatusDraft    = "draft"
	AssessmentStatusActive   = "active"
	AssessmentStatusArchived = "archived"
)

// Assessment groups an ordered set of questions a candidate answers within a time budget.
// Duration is expressed in minutes and always equals the sum of the linked questions' time limits.
type Assessment struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	Title       string               `gorm:"size:255;not null" json:"title"`
	Duration    int                  `gorm:"not null;default:0" json:"duration"`
	TotalPoints float64              `gorm:"not null;default:0" json:"total_points"`
	Status      string               `gorm:"size:32;not null;default:draft" json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Questions   []AssessmentQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// DurationLimit returns the allotted time as a duration.
func (a Assessment) DurationLimit() time.Duration {
	return time.Duration(a.Duration) * time.Minute
}

// AssessmentQuestion links a question to an assessment with its position and optional points override.
type AssessmentQuestion struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AssessmentID   uint      `gorm:"not null;uniqueIndex:idx_assessment_question" json:"assessment_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_assessment_question" json:"question_id"`
	OrderIndex     int       `gorm:"not null;default:0" json:"order_index"`
	PointsOverride *float64  `json:"points_override,omitempty"`
	Question       Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
	CreatedAt      time.Time `json:"created_at"`
}

// EffectiveMaxScore returns the points the question is worth inside the assessment.
func (l AssessmentQuestion) EffectiveMaxScore() float64 {
	if l.PointsOverride != nil && *l.PointsOverride > 0 {
		return *l.PointsOverride
	}
	return l.Question.MaxScore
}
