package models

import (
	"encoding/json"
	"fmt"
)

// SubmissionEvent is one student-answer grading request delivered over the broker.
type SubmissionEvent struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	Question   string `json:"question"`
	AnswerText string `json:"answer_text"`
}

// Publishers disagree on field casing, so each logical field is looked up
// under an ordered list of candidate keys; the first non-empty value wins.
var (
	idKeys         = []string{"Id", "id"}
	studentIDKeys  = []string{"StudentId", "studentId"}
	questionKeys   = []string{"Question", "question"}
	answerTextKeys = []string{"AnswerText", "answerText", "Answer"}
)

func DecodeSubmissionEvent(body []byte) (SubmissionEvent, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return SubmissionEvent{}, fmt.Errorf("failed to unmarshal submission event: %w", err)
	}

	return SubmissionEvent{
		ID:         firstString(raw, idKeys),
		StudentID:  firstString(raw, studentIDKeys),
		Question:   firstString(raw, questionKeys),
		AnswerText: firstString(raw, answerTextKeys),
	}, nil
}

func firstString(raw map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}

		// Numeric ids are accepted and rendered as strings.
		var n json.Number
		if err := json.Unmarshal(value, &n); err == nil {
			return n.String()
		}
	}

	return ""
}
