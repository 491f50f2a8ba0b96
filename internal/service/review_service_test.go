package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/models"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/readiness"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/service/integration"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultKeywords = []string{"tourniquet", "pressure"}

type stubScorer struct {
	result models.ScoreResult
	err    error
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, question, answer string) (models.ScoreResult, error) {
	s.calls++
	return s.result, s.err
}

type recordedReview struct {
	submissionID string
	result       models.ScoreResult
}

type recordingGateway struct {
	reviews []recordedReview
	err     error
}

func (g *recordingGateway) SubmitReview(ctx context.Context, submissionID string, result models.ScoreResult) error {
	g.reviews = append(g.reviews, recordedReview{submissionID: submissionID, result: result})
	return g.err
}

func TestHandleSubmissionCreatedModelPath(t *testing.T) {
	scorer := &stubScorer{result: models.ScoreResult{Score: 85, Feedback: "Good"}}
	gateway := &recordingGateway{}
	svc := NewReviewService(scorer, gateway, defaultKeywords, zerolog.Nop())

	svc.HandleSubmissionCreated(context.Background(), []byte(`{"Id": "42", "AnswerText": "apply a tourniquet"}`))

	require.Len(t, gateway.reviews, 1)
	assert.Equal(t, "42", gateway.reviews[0].submissionID)
	assert.Equal(t, 85, gateway.reviews[0].result.Score)
	assert.Equal(t, "Good", gateway.reviews[0].result.Feedback)
}

func TestHandleSubmissionCreatedKeywordFallback(t *testing.T) {
	tests := []struct {
		name         string
		answer       string
		wantScore    int
		wantFeedback string
	}{
		{"tourniquet keyword", "I would apply a TOURNIQUET above the wound", 100, "Keywords matched"},
		{"pressure keyword", "apply direct pressure", 100, "Keywords matched"},
		{"no keywords", "call for help and wait", 0, "No keywords matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &stubScorer{err: errors.New("backend down")}
			gateway := &recordingGateway{}
			svc := NewReviewService(scorer, gateway, defaultKeywords, zerolog.Nop())

			body, _ := json.Marshal(map[string]string{"Id": "7", "AnswerText": tt.answer})
			svc.HandleSubmissionCreated(context.Background(), body)

			require.Len(t, gateway.reviews, 1)
			assert.Equal(t, tt.wantScore, gateway.reviews[0].result.Score)
			assert.Equal(t, tt.wantFeedback, gateway.reviews[0].result.Feedback)
		})
	}
}

func TestHandleSubmissionCreatedWithoutID(t *testing.T) {
	scorer := &stubScorer{result: models.ScoreResult{Score: 50}}
	gateway := &recordingGateway{}
	svc := NewReviewService(scorer, gateway, defaultKeywords, zerolog.Nop())

	svc.HandleSubmissionCreated(context.Background(), []byte(`{"AnswerText": "something"}`))

	assert.Equal(t, 1, scorer.calls)
	assert.Empty(t, gateway.reviews)
}

func TestHandleSubmissionCreatedInvalidBody(t *testing.T) {
	scorer := &stubScorer{}
	gateway := &recordingGateway{}
	svc := NewReviewService(scorer, gateway, defaultKeywords, zerolog.Nop())

	svc.HandleSubmissionCreated(context.Background(), []byte("not json"))

	assert.Zero(t, scorer.calls)
	assert.Empty(t, gateway.reviews)
}

func TestHandleSubmissionCreatedDeliveryFailureSwallowed(t *testing.T) {
	scorer := &stubScorer{result: models.ScoreResult{Score: 10}}
	gateway := &recordingGateway{err: errors.New("gateway down")}
	svc := NewReviewService(scorer, gateway, defaultKeywords, zerolog.Nop())

	assert.NotPanics(t, func() {
		svc.HandleSubmissionCreated(context.Background(), []byte(`{"Id": "1", "AnswerText": "x"}`))
	})
	assert.Len(t, gateway.reviews, 1)
}

// Backend down end to end: real clients, readiness never confirmed, the
// keyword heuristic fires and exactly one review reaches the gateway.
func TestReviewPipelineBackendDown(t *testing.T) {
	var deliveries atomic.Int32
	var gotPath string
	var gotBody models.ReviewRequest

	gatewaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deliveries.Add(1)
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer gatewaySrv.Close()

	state := readiness.NewState() // gate never confirms: backend is down
	scorer := integration.NewOllamaClient("http://127.0.0.1:1", "llama3", time.Second, state, zerolog.Nop())
	gateway := integration.NewGatewayClient(gatewaySrv.URL, 5*time.Second, zerolog.Nop())

	svc := NewReviewService(scorer, gateway, defaultKeywords, zerolog.Nop())
	svc.HandleSubmissionCreated(context.Background(), []byte(`{"Id":"42","AnswerText":"apply direct pressure"}`))

	assert.Equal(t, int32(1), deliveries.Load())
	assert.Equal(t, "/tactical/quiz/42/review", gotPath)
	assert.Equal(t, 100, gotBody.Score)
	assert.Equal(t, "Reviewed", gotBody.Status)
	assert.Equal(t, "Keywords matched", gotBody.Feedback)
}
