package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/readiness"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	state      *readiness.State
	gatewayURL string
	// streamClient has no timeout: event streams stay open indefinitely
	streamClient *http.Client
	logger       zerolog.Logger
}

func NewHandler(state *readiness.State, gatewayURL string, logger zerolog.Logger) *Handler {
	return &Handler{
		state:        state,
		gatewayURL:   gatewayURL,
		streamClient: &http.Client{},
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router, quizProxy http.Handler) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/quiz", func(r chi.Router) {
		r.Get("/events/{submissionId}", h.StreamQuizEvents)

		// pass-through to the gateway's quiz endpoints
		r.Post("/submit", quizProxy.ServeHTTP)
		r.Get("/", quizProxy.ServeHTTP)
		r.Get("/{submissionId}", quizProxy.ServeHTTP)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}
