// ABOUTME: Server orchestrator that assembles the pages, passthrough and static assets
// ABOUTME: Manages the store, HTTP server, janitor and config watcher lifecycle

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/agent-chat/internal/assets"
	"github.com/2389/agent-chat/internal/auth"
	"github.com/2389/agent-chat/internal/config"
	"github.com/2389/agent-chat/internal/passthrough"
	"github.com/2389/agent-chat/internal/store"
	"github.com/2389/agent-chat/internal/web"
)

const (
	// DefaultJanitorInterval is how often expired sessions and flows are purged.
	DefaultJanitorInterval = 10 * time.Minute

	// limiterIdle is how long an idle client keeps its rate limit bucket.
	limiterIdle = 30 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// Options adjusts how New assembles the server. The zero value opens the
// SQLite database named in the config and talks to the configured auth
// provider.
type Options struct {
	// Ephemeral keeps sessions in memory; they are lost on restart.
	Ephemeral bool

	// Store replaces the configured store.
	Store store.Store

	// AuthClient replaces the auth provider client.
	AuthClient web.AuthClient

	// WatchPaths are files whose edits are reported as needing a restart.
	WatchPaths []string

	// JanitorInterval defaults to DefaultJanitorInterval.
	JanitorInterval time.Duration
}

// Server runs the agent-chat HTTP service.
type Server struct {
	config     *config.Config
	store      store.Store
	web        *web.Handler
	proxy      *passthrough.Proxy
	httpServer *http.Server
	logger     *slog.Logger

	watchPaths      []string
	janitorInterval time.Duration
}

// initStore opens the session store named by the config.
func initStore(cfg *config.Config, opts Options) (store.Store, error) {
	if opts.Store != nil {
		return opts.Store, nil
	}
	if opts.Ephemeral {
		return store.NewMemoryStore(), nil
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Server from the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := initStore(cfg, opts)
	if err != nil {
		return nil, err
	}

	authClient := opts.AuthClient
	if authClient == nil {
		authClient = auth.NewClient(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseAnonKey, logger)
	}

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		logger.Info("local access token verification enabled")
	}

	pages, err := web.New(cfg, web.Options{
		Store:    s,
		Auth:     authClient,
		Verifier: verifier,
		Logger:   logger,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating web handler: %w", err)
	}

	proxy, err := passthrough.New(cfg.Agent, logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating passthrough: %w", err)
	}

	srv := &Server{
		config:          cfg,
		store:           s,
		web:             pages,
		proxy:           proxy,
		logger:          logger.With("component", "server"),
		watchPaths:      opts.WatchPaths,
		janitorInterval: opts.JanitorInterval,
	}
	if srv.janitorInterval <= 0 {
		srv.janitorInterval = DefaultJanitorInterval
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	pages.RegisterRoutes(mux)
	mux.Handle(passthrough.Prefix+"/", proxy)
	mux.Handle("GET /static/", http.StripPrefix("/static/", assets.FileServer()))
	mux.Handle("/", assets.PublicDir(cfg.Server.PublicDir))

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           requestLogger(srv.logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and blocks until ctx is canceled
// or the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.store.Close()
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	go s.runJanitor(bgCtx)
	if len(s.watchPaths) > 0 {
		go func() {
			if err := config.Watch(bgCtx, s.logger, s.watchPaths...); err != nil {
				s.logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}
	stopBackground()

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the caller's is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
