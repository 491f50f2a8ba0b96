// Package interpreter extracts a bounded score and feedback text from raw
// model output. Generative models are asked for strict JSON but routinely
// wrap it in prose, truncate it, or skip it entirely, so extraction degrades
// through decreasingly strict strategies instead of failing.
package interpreter

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const DefaultFeedback = "No feedback provided"

var (
	// Greedy across newlines: first "{" to the last "}".
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
	digitRun   = regexp.MustCompile(`[0-9]+`)
)

// Interpret turns raw model output into a score in [0,100] and a feedback
// string. It is total: any input, including the empty string, yields a result.
//
// Strategies, first success wins:
//  1. the whole input is a JSON object with a "score" key
//  2. the first {...} span in the input is such an object, tolerating
//     trailing garbage after a valid prefix
//  3. the first standalone integer of at most 3 digits
//  4. the first integer of any length, else score 0
func Interpret(raw string) (int, string) {
	if score, feedback, ok := fromObjectBytes([]byte(raw)); ok {
		return score, feedback
	}

	if span := objectSpan.FindString(raw); span != "" {
		if score, feedback, ok := fromObjectBytes([]byte(span)); ok {
			return score, feedback
		}
		if score, feedback, ok := fromObjectPrefix([]byte(span)); ok {
			return score, feedback
		}
	}

	trimmed := strings.TrimSpace(raw)

	if score, ok := firstInteger(raw, 3); ok {
		return clamp(score), trimmed
	}
	if score, ok := firstInteger(raw, 0); ok {
		return clamp(score), trimmed
	}

	return 0, trimmed
}

func fromObjectBytes(data []byte) (int, string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return 0, "", false
	}
	return fromObject(obj)
}

// fromObjectPrefix retries a span whose parse failed on trailing content
// after a valid JSON value, truncating at the reported error offset.
func fromObjectPrefix(data []byte) (int, string, bool) {
	var obj map[string]any
	err := json.Unmarshal(data, &obj)
	if err == nil {
		return fromObject(obj)
	}

	var synErr *json.SyntaxError
	if !errors.As(err, &synErr) {
		return 0, "", false
	}
	if synErr.Offset <= 1 || synErr.Offset > int64(len(data)) {
		return 0, "", false
	}

	return fromObjectBytes(data[:synErr.Offset-1])
}

func fromObject(obj map[string]any) (int, string, bool) {
	score, ok := scoreValue(obj)
	if !ok {
		return 0, "", false
	}

	feedback := feedbackValue(obj)
	if feedback == "" {
		feedback = DefaultFeedback
	}

	return clamp(score), feedback, true
}

func scoreValue(obj map[string]any) (int, bool) {
	for _, key := range []string{"score", "Score"} {
		value, present := obj[key]
		if !present {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int(v), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func feedbackValue(obj map[string]any) string {
	for _, key := range []string{"feedback", "Feedback"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// firstInteger finds the first maximal digit run in text. With maxLen > 0,
// longer runs are skipped; with maxLen == 0 any run is accepted. A run too
// long to fit in an int is necessarily above the score cap.
func firstInteger(text string, maxLen int) (int, bool) {
	for _, loc := range digitRun.FindAllStringIndex(text, -1) {
		run := text[loc[0]:loc[1]]
		if maxLen > 0 && len(run) > maxLen {
			continue
		}
		n, err := strconv.Atoi(run)
		if err != nil {
			return 100, true
		}
		return n, true
	}
	return 0, false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
