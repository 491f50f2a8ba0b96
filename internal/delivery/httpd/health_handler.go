package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snapshot := h.state.Snapshot()

	var lastCheck interface{}
	if !snapshot.LastChecked.IsZero() {
		lastCheck = snapshot.LastChecked.UTC().Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"status":           "ok",
		"service":          "ai-review-service",
		"model_ready":      snapshot.Ready,
		"last_model_check": lastCheck,
	}

	writeJSON(w, http.StatusOK, response)
}
