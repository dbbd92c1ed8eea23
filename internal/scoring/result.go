// Package scoring turns free-form candidate answers into bounded numeric grades.
//
// Answers are judged by an external generative model through JudgeClient; its text verdict is
// parsed by ParseScore. Whenever the judge is unreachable or its verdict carries no number,
// FallbackScore produces a deterministic heuristic grade so scoring never fails outright.
package scoring

import (
	"errors"
	"math"
)

// ErrJudgeUnavailable reports a network error, timeout or non-success response from the judge.
var ErrJudgeUnavailable = errors.New("judge unavailable")

// ErrParseAmbiguous reports a judge verdict without any extractable integer.
var ErrParseAmbiguous = errors.New("judge verdict has no score")

// DefaultFeedback is used when neither a feedback label nor any remaining text is available.
const DefaultFeedback = "Answer evaluated automatically."

// ScoreResult is a clamped score together with its feedback.
type ScoreResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

func clamp(value, maxScore float64) float64 {
	if maxScore < 0 {
		maxScore = 0
	}
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	if value > maxScore {
		return maxScore
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
