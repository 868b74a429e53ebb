// ABOUTME: Periodic cleanup of expired sessions, stale OAuth flows and idle rate limit buckets
// ABOUTME: Runs until the server's context is canceled

package server

import (
	"context"
	"time"

	"github.com/2389/agent-chat/internal/web"
)

func (s *Server) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

// sweep removes records past their lifetime as of now.
func (s *Server) sweep(ctx context.Context, now time.Time) {
	sessions, err := s.store.DeleteSessionsBefore(ctx, now.Add(-web.SessionDuration))
	if err != nil {
		s.logger.Error("failed to purge expired sessions", "error", err)
	}
	flows, err := s.store.DeleteOAuthFlowsBefore(ctx, now.Add(-web.OAuthFlowDuration))
	if err != nil {
		s.logger.Error("failed to purge stale oauth flows", "error", err)
	}
	clients := s.proxy.PruneLimiters(now.Add(-limiterIdle))

	if sessions > 0 || flows > 0 || clients > 0 {
		s.logger.Debug("janitor sweep",
			"sessions", sessions,
			"oauth_flows", flows,
			"rate_limit_clients", clients,
		)
	}
}
