package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	labelledFeedbackLimit  = 200
	remainderFeedbackLimit = 150
)

var (
	labelledScorePattern = regexp.MustCompile(`(?i)score\s*:\s*(-?\d+)`)
	fractionPattern      = regexp.MustCompile(`(-?\d+)\s*/\s*(\d+)`)
	pointsPattern        = regexp.MustCompile(`(?i)(-?\d+)\s*points?\b`)
	loneIntegerPattern   = regexp.MustCompile(`(?m)^[ \t]*(-?\d+)[ \t]*\r?$`)
	anyIntegerPattern    = regexp.MustCompile(`-?\d+`)
)

// feedbackPatterns are tried in order. Each captures the rest of the labelled line only.
var feedbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)\bfeedback\s*:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)\bexplication\s*:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)\bjustification\s*:[ \t]*(.+)$`),
}

// scoreMatch is a located integer and the span of text it was extracted from.
type scoreMatch struct {
	value int
	start int
	end   int
}

// scoreMatcher looks for a score in a verdict. The boolean is false when the pattern is absent.
type scoreMatcher func(text string) (scoreMatch, bool)

// scoreMatchers are tried in order; the first hit wins.
var scoreMatchers = []scoreMatcher{
	submatchMatcher(labelledScorePattern),
	submatchMatcher(fractionPattern),
	submatchMatcher(pointsPattern),
	submatchMatcher(loneIntegerPattern),
	wholeMatcher(anyIntegerPattern),
}

func submatchMatcher(pattern *regexp.Regexp) scoreMatcher {
	return func(text string) (scoreMatch, bool) {
		loc := pattern.FindStringSubmatchIndex(text)
		if loc == nil || len(loc) < 4 {
			return scoreMatch{}, false
		}
		value, ok := atoi(text[loc[2]:loc[3]])
		if !ok {
			return scoreMatch{}, false
		}
		return scoreMatch{value: value, start: loc[0], end: loc[1]}, true
	}
}

func wholeMatcher(pattern *regexp.Regexp) scoreMatcher {
	return func(text string) (scoreMatch, bool) {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			return scoreMatch{}, false
		}
		value, ok := atoi(text[loc[0]:loc[1]])
		if !ok {
			return scoreMatch{}, false
		}
		return scoreMatch{value: value, start: loc[0], end: loc[1]}, true
	}
}

// atoi saturates instead of failing on integers too large for int.
func atoi(digits string) (int, bool) {
	value, err := strconv.Atoi(digits)
	if err == nil {
		return value, true
	}
	if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
		if strings.HasPrefix(digits, "-") {
			return -int(^uint(0)>>1) - 1, true
		}
		return int(^uint(0) >> 1), true
	}
	return 0, false
}

// ParseScore extracts a score and feedback from a judge verdict.
// It returns ErrParseAmbiguous when the verdict carries no integer at all.
func ParseScore(raw string, maxScore float64) (ScoreResult, error) {
	match, found := findScore(raw)
	if !found {
		return ScoreResult{}, ErrParseAmbiguous
	}

	return ScoreResult{
		Score:    clamp(float64(match.value), maxScore),
		Feedback: extractFeedback(raw, match),
	}, nil
}

func findScore(text string) (scoreMatch, bool) {
	for _, matcher := range scoreMatchers {
		if match, ok := matcher(text); ok {
			return match, true
		}
	}
	return scoreMatch{}, false
}

func extractFeedback(raw string, match scoreMatch) string {
	for _, pattern := range feedbackPatterns {
		loc := pattern.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}
		if labelled := strings.TrimSpace(raw[loc[2]:loc[3]]); labelled != "" {
			return strings.TrimSpace(truncateRunes(labelled, labelledFeedbackLimit))
		}
	}

	remainder := strings.TrimSpace(raw[:match.start] + raw[match.end:])
	if remainder != "" {
		return strings.TrimSpace(truncateRunes(remainder, remainderFeedbackLimit))
	}

	return DefaultFeedback
}
