// ABOUTME: Web UI package for agent-chat
// ABOUTME: Registers the welcome, auth and chat pages plus the session endpoint

package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"golang.org/x/sync/singleflight"

	"github.com/2389/agent-chat/internal/auth"
	"github.com/2389/agent-chat/internal/config"
	"github.com/2389/agent-chat/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "agent_chat_session"

	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "agent_chat_csrf"

	// OAuthCookieName binds a pending OAuth flow to the browser that started it
	OAuthCookieName = "agent_chat_oauth"

	// SessionDuration is how long an idle session is kept
	SessionDuration = 30 * 24 * time.Hour

	// OAuthFlowDuration is how long the provider has to call back
	OAuthFlowDuration = 10 * time.Minute

	// DefaultSessionCheckTimeout bounds the session check on each page load.
	// Past it the page renders its loading state and polls again.
	DefaultSessionCheckTimeout = 3 * time.Second

	// refreshSkew refreshes access tokens this long before they expire
	refreshSkew = time.Minute

	// refreshTimeout bounds a background token refresh
	refreshTimeout = 30 * time.Second
)

// AuthClient is the subset of the auth provider client the pages use.
type AuthClient interface {
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*auth.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	GetUser(ctx context.Context, accessToken string) (*auth.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Options holds the collaborators of a Handler.
type Options struct {
	Store  store.Store
	Auth   AuthClient
	Logger *slog.Logger

	// Verifier checks access tokens locally. Optional.
	Verifier auth.TokenVerifier

	// SessionCheckTimeout defaults to DefaultSessionCheckTimeout.
	SessionCheckTimeout time.Duration
}

// Handler serves the agent-chat pages.
type Handler struct {
	cfg      *config.Config
	store    store.Store
	auth     AuthClient
	verifier auth.TokenVerifier
	logger   *slog.Logger

	pages       map[string]*template.Template
	description template.HTML

	sessionCheckTimeout time.Duration
	refreshes           singleflight.Group
	now                 func() time.Time
}

// New creates the page handler. The configuration is read once and never
// modified.
func New(cfg *config.Config, opts Options) (*Handler, error) {
	if opts.Store == nil {
		return nil, errors.New("web: store is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("web: auth client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		cfg:                 cfg,
		store:               opts.Store,
		auth:                opts.Auth,
		verifier:            opts.Verifier,
		logger:              logger.With("component", "web"),
		sessionCheckTimeout: opts.SessionCheckTimeout,
		now:                 time.Now,
	}
	if h.sessionCheckTimeout <= 0 {
		h.sessionCheckTimeout = DefaultSessionCheckTimeout
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	h.pages = pages

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(cfg.UI.AppDescription), &buf); err != nil {
		h.logger.Error("failed to convert app description markdown", "error", err)
		buf.Reset()
		template.HTMLEscape(&buf, []byte(cfg.UI.AppDescription))
	}
	h.description = template.HTML(buf.String()) //nolint:gosec // goldmark escapes raw HTML by default

	return h, nil
}

// RegisterRoutes registers all page routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /{$}", h.page(h.handleWelcome))
	mux.Handle("GET /auth", h.page(h.handleAuthPage))
	mux.Handle("GET /chat", h.page(h.handleChat))
	mux.Handle("GET /session", h.withSession(http.HandlerFunc(h.handleSession)))

	mux.HandleFunc("POST /auth/password", h.handlePasswordSignIn)
	mux.HandleFunc("POST /auth/signout", h.handleSignOut)
	mux.HandleFunc("POST /auth/{provider}", h.handleOAuthStart)
	mux.HandleFunc("GET /auth/callback", h.handleOAuthCallback)
}

// page wraps a page handler with session resolution and security headers.
func (h *Handler) page(fn http.HandlerFunc) http.Handler {
	return securityHeaders(h.withSession(fn))
}

// securityHeaders sets headers every HTML page carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// baseURL is the externally visible origin used for OAuth redirects.
func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg.Server.BaseURL != "" {
		return strings.TrimRight(h.cfg.Server.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// secureCookies reports whether cookies should carry the Secure flag.
func (h *Handler) secureCookies(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.HasPrefix(h.cfg.Server.BaseURL, "https://")
}
