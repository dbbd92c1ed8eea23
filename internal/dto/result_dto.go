package dto

// QuestionResult is the outcome of one question. Percentage is nil for unanswered questions.
type QuestionResult struct {
	QuestionID  uint     `json:"question_id"`
	Title       string   `json:"title"`
	OrderIndex  int      `json:"order_index"`
	MaxScore    float64  `json:"max_score"`
	Answered    bool     `json:"answered"`
	Score       *float64 `json:"score"`
	Percentage  *float64 `json:"percentage"`
	Feedback    string   `json:"feedback,omitempty"`
	ScoreSource string   `json:"score_source,omitempty"`
}

// AssessmentResult aggregates a candidate's submissions for one assessment.
// AverageScore averages the percentages of answered questions only.
type AssessmentResult struct {
	AssessmentID        uint             `json:"assessment_id"`
	CandidateID         uint             `json:"candidate_id"`
	TotalQuestions      int              `json:"total_questions"`
	AnsweredQuestions   int              `json:"answered_questions"`
	UnansweredQuestions int              `json:"unanswered_questions"`
	AverageScore        float64          `json:"average_score"`
	TotalScore          float64          `json:"total_score"`
	MaxScore            float64          `json:"max_score"`
	PerQuestion         []QuestionResult `json:"per_question"`
}
