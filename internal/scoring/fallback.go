package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Heuristic weights, expressed as a fraction of the maximum score.
const (
	shortAnswerBonus   = 0.30
	longAnswerBonus    = 0.20
	structureBonus     = 0.30
	outputKeywordBonus = 0.20

	shortAnswerLength = 10
	longAnswerLength  = 50
)

var (
	structureKeywords = regexp.MustCompile(`(?i)\b(?:function|def|class)\b`)
	outputKeywords    = regexp.MustCompile(`(?i)\b(?:return|select|print)\b`)
)

// FallbackScore grades an answer without the judge. It is deterministic and never touches the network.
func FallbackScore(answer string, maxScore float64) ScoreResult {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return ScoreResult{Score: 0, Feedback: "No answer was provided."}
	}

	length := utf8.RuneCountInString(trimmed)
	var ratio float64
	var signals []string

	if length > shortAnswerLength {
		ratio += shortAnswerBonus
	}
	if length > longAnswerLength {
		ratio += longAnswerBonus
		signals = append(signals, "substantial answer")
	}
	if structureKeywords.MatchString(trimmed) {
		ratio += structureBonus
		signals = append(signals, "structured code")
	}
	if outputKeywords.MatchString(trimmed) {
		ratio += outputKeywordBonus
		signals = append(signals, "produces a result")
	}

	score := clamp(round2(ratio*maxScore), maxScore)

	feedback := "Automatic evaluation: the AI judge was unavailable, a heuristic score was applied."
	if len(signals) > 0 {
		feedback = fmt.Sprintf("%s Detected: %s.", feedback, strings.Join(signals, ", "))
	}

	return ScoreResult{Score: score, Feedback: feedback}
}
