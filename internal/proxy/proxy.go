package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// QuizProxy forwards /api/quiz requests to the gateway's /tactical/quiz
// endpoints so the browser only ever talks to this service.
type QuizProxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	logger zerolog.Logger
}

func NewQuizProxy(targetURL string, logger zerolog.Logger) (*QuizProxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, err
	}

	p := &QuizProxy{
		target: target,
		logger: logger,
	}

	p.proxy = httputil.NewSingleHostReverseProxy(target)
	p.proxy.Director = p.director
	p.proxy.Transport = &http.Transport{
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	p.proxy.ErrorHandler = p.errorHandler
	p.proxy.ModifyResponse = p.modifyResponse

	return p, nil
}

func (p *QuizProxy) director(req *http.Request) {
	originalPath := req.URL.Path

	req.URL.Scheme = p.target.Scheme
	req.URL.Host = p.target.Host
	req.Host = p.target.Host
	req.URL.Path = "/tactical/quiz" + strings.TrimPrefix(originalPath, "/api/quiz")

	p.logger.Debug().
		Str("method", req.Method).
		Str("original_path", originalPath).
		Str("target_path", req.URL.Path).
		Str("target", p.target.String()).
		Msg("Proxying request")

	req.Header.Set("X-Forwarded-Host", req.Host)
	req.Header.Set("X-Forwarded-For", req.RemoteAddr)
	req.Header.Set("X-Forwarded-Proto", req.URL.Scheme)
}

func (p *QuizProxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("target", p.target.String()).
		Msg("Proxy error")

	errorResponse := map[string]interface{}{
		"error":     "Service unavailable",
		"message":   "The requested service is temporarily unavailable. Please try again later.",
		"code":      "SERVICE_UNAVAILABLE",
		"path":      r.URL.Path,
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(errorResponse)
}

func (p *QuizProxy) modifyResponse(resp *http.Response) error {
	p.logger.Debug().
		Str("method", resp.Request.Method).
		Str("path", resp.Request.URL.Path).
		Int("status", resp.StatusCode).
		Str("target", p.target.String()).
		Msg("Proxy response")

	resp.Header.Set("X-Service-Name", p.target.Hostname())

	return nil
}

func (p *QuizProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}
