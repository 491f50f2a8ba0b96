package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubmissionEvent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want SubmissionEvent
	}{
		{
			name: "pascal case fields",
			body: `{"Id": "42", "StudentId": "s-1", "Question": "Q?", "AnswerText": "apply pressure"}`,
			want: SubmissionEvent{ID: "42", StudentID: "s-1", Question: "Q?", AnswerText: "apply pressure"},
		},
		{
			name: "camel case fields",
			body: `{"id": "7", "studentId": "s-2", "question": "Q?", "answerText": "tourniquet"}`,
			want: SubmissionEvent{ID: "7", StudentID: "s-2", Question: "Q?", AnswerText: "tourniquet"},
		},
		{
			name: "legacy Answer key",
			body: `{"Id": "9", "Answer": "elevate the limb"}`,
			want: SubmissionEvent{ID: "9", AnswerText: "elevate the limb"},
		},
		{
			name: "numeric id",
			body: `{"Id": 42, "AnswerText": "x"}`,
			want: SubmissionEvent{ID: "42", AnswerText: "x"},
		},
		{
			name: "first non-empty key wins",
			body: `{"AnswerText": "", "answerText": "fallback", "Answer": "ignored"}`,
			want: SubmissionEvent{AnswerText: "fallback"},
		},
		{
			name: "all fields absent default to empty",
			body: `{}`,
			want: SubmissionEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeSubmissionEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, event)
		})
	}
}

func TestDecodeSubmissionEventInvalidBody(t *testing.T) {
	_, err := DecodeSubmissionEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeSubmissionEvent([]byte(`[1, 2]`))
	assert.Error(t, err)
}
