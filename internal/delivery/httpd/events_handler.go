package httpd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/pkg/sse"
	"github.com/go-chi/chi/v5"
)

// StreamQuizEvents proxies the gateway's per-submission event stream to the
// browser. Upstream chunks split events at arbitrary byte boundaries, so
// frames are reassembled and only complete ones are written through.
func (h *Handler) StreamQuizEvents(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submissionId")

	upstreamURL := fmt.Sprintf("%s/api/quiz/events/%s", strings.TrimRight(h.gatewayURL, "/"), submissionID)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create upstream request")
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := h.streamClient.Do(req)
	if err != nil {
		h.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("Failed to open upstream event stream")
		writeError(w, http.StatusBadGateway, "Upstream event stream unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn().
			Int("status", resp.StatusCode).
			Str("submission_id", submissionID).
			Msg("Upstream event stream returned unexpected status")
		writeError(w, http.StatusBadGateway, "Upstream event stream unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	reassembler := sse.New()
	buf := make([]byte, 4096)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range reassembler.Push(buf[:n]) {
				if _, err := w.Write(frame); err != nil {
					return
				}
				flusher.Flush()
			}
		}
		if readErr != nil {
			// EOF and read errors both end the stream quietly; the client
			// cannot act on the difference
			if rest, ok := reassembler.Flush(); ok {
				w.Write(rest)
				flusher.Flush()
			}
			return
		}
	}
}
