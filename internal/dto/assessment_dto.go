package dto

import (
	"github.com/jinzhu/copier"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// LinkQuestionRequest attaches a question to an assessment.
type LinkQuestionRequest struct {
	QuestionID     uint     `json:"question_id" validate:"required,gt=0"`
	OrderIndex     int      `json:"order_index" validate:"gte=0"`
	PointsOverride *float64 `json:"points_override" validate:"omitempty,gt=0"`
}

// QuestionLite summarizes a question inside an assessment.
type QuestionLite struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Language  string  `json:"language"`
	MaxScore  float64 `json:"max_score"`
	TimeLimit int     `json:"time_limit"`
}

// AssessmentQuestionResponse is one linked question with its position and points.
type AssessmentQuestionResponse struct {
	QuestionID     uint         `json:"question_id"`
	OrderIndex     int          `json:"order_index"`
	PointsOverride *float64     `json:"points_override,omitempty"`
	Points         float64      `json:"points"`
	Question       QuestionLite `json:"question"`
}

// AssessmentResponse describes an assessment and its derived totals.
type AssessmentResponse struct {
	ID          uint                         `json:"id"`
	Title       string                       `json:"title"`
	Duration    int                          `json:"duration"`
	TotalPoints float64                      `json:"total_points"`
	Status      string                       `json:"status"`
	Questions   []AssessmentQuestionResponse `json:"questions"`
}

// NewAssessmentResponse converts an Assessment model into a DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	var response AssessmentResponse
	_ = copier.Copy(&response, &model)
	response.Questions = make([]AssessmentQuestionResponse, 0, len(model.Questions))
	for _, link := range model.Questions {
		var item AssessmentQuestionResponse
		_ = copier.Copy(&item, &link)
		item.Points = link.EffectiveMaxScore()
		response.Questions = append(response.Questions, item)
	}
	return response
}
