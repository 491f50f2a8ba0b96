package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/models"
	"github.com/rs/zerolog"
)

// GatewayClient pushes finished reviews to the API gateway so the UI can
// fetch them. Delivery is best-effort: the caller logs failures and moves on.
type GatewayClient interface {
	SubmitReview(ctx context.Context, submissionID string, result models.ScoreResult) error
}

type gatewayClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewGatewayClient(baseURL string, timeout time.Duration, logger zerolog.Logger) GatewayClient {
	return &gatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *gatewayClient) SubmitReview(ctx context.Context, submissionID string, result models.ScoreResult) error {
	payload, err := json.Marshal(models.ReviewRequest{
		Score:    result.Score,
		Status:   models.ReviewStatusReviewed,
		Feedback: result.Feedback,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal review request: %w", err)
	}

	url := fmt.Sprintf("%s/tactical/quiz/%s/review", c.baseURL, submissionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create review request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push review: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug().
		Str("submission_id", submissionID).
		Int("score", result.Score).
		Msg("Review pushed to gateway")

	return nil
}
