package readiness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Model-listing endpoints, tried in order. Older Ollama builds expose
// /api/models instead of /api/tags.
var listEndpoints = []string{"/api/tags", "/api/models"}

// Gate polls the scoring backend until the configured model shows up in its
// model listing, then marks the shared State ready and stops. One-shot: the
// gate is never re-armed.
type Gate struct {
	state   *State
	baseURL string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

func NewGate(state *State, baseURL, model string, logger zerolog.Logger) *Gate {
	return &Gate{
		state:   state,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

// Run polls until the model is confirmed or ctx is cancelled. Poll spacing
// is exponential with jitter: 5s initial, doubling, capped at 60s.
func (g *Gate) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Second
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.MaxInterval = 60 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		if g.check(ctx) {
			g.state.setReady()
			g.logger.Info().
				Str("model", g.model).
				Msg("Model is available, accepting submissions for AI review")
			return
		}

		select {
		case <-ctx.Done():
			g.logger.Info().Msg("Stopping readiness gate")
			return
		case <-time.After(b.NextBackOff()):
		}
	}
}

// check performs one poll across the listing endpoints. Any failure means
// "not yet ready"; it never terminates the gate.
func (g *Gate) check(ctx context.Context) bool {
	defer g.state.touch(time.Now())

	for _, endpoint := range listEndpoints {
		names, err := g.listModels(ctx, endpoint)
		if err != nil {
			var statusErr *statusError
			if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
				// Expected while the backend is still starting up.
				g.logger.Debug().Str("endpoint", endpoint).Msg("Model listing endpoint not found yet")
			} else {
				g.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Model listing failed")
			}
			continue
		}

		if matchModel(names, g.model) {
			return true
		}

		g.logger.Debug().
			Str("model", g.model).
			Strs("available", names).
			Msg("Configured model not in listing yet")
		return false
	}

	return false
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (g *Gate) listModels(ctx context.Context, endpoint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query model listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model listing: %w", err)
	}

	return parseModelNames(body), nil
}

// parseModelNames accepts the listing shapes seen across backend versions:
// a flat list of names, a list of {"name": ...} objects, or either of those
// under a "models"/"data"/"tags" wrapper key.
func parseModelNames(body []byte) []string {
	if names := namesFromList(body); names != nil {
		return names
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil
	}

	for _, key := range []string{"models", "data", "tags"} {
		value, ok := wrapper[key]
		if !ok {
			continue
		}
		if names := namesFromList(value); names != nil {
			return names
		}
	}

	return nil
}

func namesFromList(data []byte) []string {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		return flat
	}

	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &objects); err == nil {
		names := make([]string, 0, len(objects))
		for _, o := range objects {
			if o.Name != "" {
				names = append(names, o.Name)
			}
		}
		return names
	}

	return nil
}

// matchModel prefers an exact match, then falls back to substring matching
// either way round so "llama3" matches the "llama3:latest" tag.
func matchModel(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	for _, name := range names {
		if strings.Contains(name, want) || strings.Contains(want, name) {
			return true
		}
	}
	return false
}
