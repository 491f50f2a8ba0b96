package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/interpreter"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/models"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/readiness"
	"github.com/rs/zerolog"
)

// ErrModelNotReady is returned without touching the backend while the
// readiness gate has not confirmed the configured model.
var ErrModelNotReady = errors.New("scoring model is not ready")

type OllamaClient interface {
	Score(ctx context.Context, question, answer string) (models.ScoreResult, error)
}

type ollamaClient struct {
	baseURL string
	model   string
	state   *readiness.State
	client  *http.Client
	logger  zerolog.Logger
}

func NewOllamaClient(baseURL, model string, timeout time.Duration, state *readiness.State, logger zerolog.Logger) OllamaClient {
	return &ollamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		state:   state,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

func (c *ollamaClient) Score(ctx context.Context, question, answer string) (models.ScoreResult, error) {
	if !c.state.Ready() {
		return models.ScoreResult{}, ErrModelNotReady
	}

	payload, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  buildPrompt(question, answer),
		Stream:  false,
		Options: generateOptions{Temperature: 0.0},
	})
	if err != nil {
		return models.ScoreResult{}, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return models.ScoreResult{}, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.ScoreResult{}, fmt.Errorf("failed to call scoring backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ScoreResult{}, fmt.Errorf("failed to read scoring response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.ScoreResult{}, fmt.Errorf("scoring backend returned status %d: %s", resp.StatusCode, string(body))
	}

	score, feedback := interpreter.Interpret(responseText(body))

	c.logger.Debug().
		Int("score", score).
		Str("model", c.model).
		Msg("Model scoring completed")

	return models.ScoreResult{Score: score, Feedback: feedback}, nil
}

func buildPrompt(question, answer string) string {
	return fmt.Sprintf(
		"You are a medical instructor. Evaluate the student's answer to the question below and return a JSON object"+
			" with two keys: \"score\" (an integer 0-100) and \"feedback\" (a short helpful sentence)."+
			" Output must be valid JSON only, for example: {\"score\": 85, \"feedback\": \"Good use of direct pressure...\"}."+
			"\n\nQuestion: %s\n\nStudent Answer: %s\n\n",
		question, answer,
	)
}

// responseText narrows the HTTP body to the generated text when the body is
// a JSON envelope; otherwise the interpreter gets the body as-is.
func responseText(body []byte) string {
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return string(body)
	}

	for _, key := range []string{"response", "output", "text"} {
		if s, ok := envelope[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}

	return string(body)
}
