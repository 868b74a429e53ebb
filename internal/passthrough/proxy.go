// ABOUTME: Reverse proxy from /api/* to the agent backend
// ABOUTME: Injects the backend API key, drops browser cookies and streams responses unbuffered

package passthrough

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/2389/agent-chat/internal/config"
)

// Placeholder stands in for a missing backend URL or key. It is forwarded
// like any other value: a placeholder URL fails in the transport and a
// placeholder key is rejected by the backend.
const Placeholder = "remove-me"

// Prefix is the mount point of the passthrough.
const Prefix = "/api"

// allowedMethods are the methods forwarded to the backend.
var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Proxy forwards requests to the agent backend.
type Proxy struct {
	target  *url.URL
	apiKey  string
	proxy   *httputil.ReverseProxy
	limiter *clientLimiter
	logger  *slog.Logger
}

// New builds the passthrough from the agent configuration. A missing URL
// or key is replaced by Placeholder and logged as a warning.
func New(cfg config.AgentConfig, logger *slog.Logger) (*Proxy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "passthrough")

	apiURL := cfg.LangGraphAPIURL
	if apiURL == "" {
		apiURL = Placeholder
		logger.Warn("agent backend URL not set; /api calls will fail",
			"hint", "set LANGGRAPH_API_URL or agent.langgraph_api_url")
	}
	apiKey := cfg.LangSmithAPIKey
	if apiKey == "" {
		apiKey = Placeholder
		logger.Warn("agent backend key not set; /api calls will be rejected upstream",
			"hint", "set LANGSMITH_API_KEY or agent.langsmith_api_key")
	}

	target, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing agent backend URL: %w", err)
	}

	p := &Proxy{
		target: target,
		apiKey: apiKey,
		logger: logger,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		p.limiter = newClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	p.proxy = &httputil.ReverseProxy{
		Rewrite:       p.rewrite,
		FlushInterval: -1,
		ErrorHandler:  p.handleError,
	}
	return p, nil
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.Out.Header.Del("Cookie")
	pr.Out.Header.Set("X-Api-Key", p.apiKey)
}

// ServeHTTP strips Prefix and forwards the request.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowedMethods[r.Method] {
		w.Header().Set("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if p.limiter != nil && !p.limiter.allow(clientIP(r), time.Now()) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	out := r.Clone(r.Context())
	out.URL.Path = strings.TrimPrefix(r.URL.Path, Prefix)
	if out.URL.RawPath != "" {
		out.URL.RawPath = strings.TrimPrefix(r.URL.RawPath, Prefix)
	}
	if out.URL.Path == "" {
		out.URL.Path = "/"
	}
	p.proxy.ServeHTTP(w, out)
}

// PruneLimiters forgets clients not seen since cutoff.
func (p *Proxy) PruneLimiters(cutoff time.Time) int {
	if p.limiter == nil {
		return 0
	}
	return p.limiter.prune(cutoff)
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("agent backend request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusBadGateway, "agent backend unavailable")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
