package dto

// ScoreAnswerRequest asks the scoring engine to grade a single answer outside of a session.
type ScoreAnswerRequest struct {
	QuestionTitle string  `json:"question_title" validate:"omitempty,max=255"`
	Question      string  `json:"question" validate:"required,max=20000"`
	Language      string  `json:"language" validate:"omitempty,max=32"`
	Answer        string  `json:"answer" validate:"max=20000"`
	MaxScore      float64 `json:"max_score" validate:"gt=0,lte=1000"`
}

// ScoreBatchRequest grades several answers sequentially.
type ScoreBatchRequest struct {
	Items []ScoreAnswerRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// ScoreResponse is a graded answer with the source that produced the grade.
type ScoreResponse struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Source   string  `json:"source"`
}
