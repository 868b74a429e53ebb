// ABOUTME: Store interface and data types for agent-chat persistence
// ABOUTME: Defines browser Session and pending OAuthFlow records

package store

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowNotFound is returned when an OAuth state is unknown or already consumed.
var ErrFlowNotFound = errors.New("oauth flow not found")

// Session ties a browser cookie to the auth provider's tokens.
// Tokens never leave the server; the cookie only carries ID.
type Session struct {
	ID              string
	UserID          string
	Email           string
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NeedsRefresh reports whether the access token expires within skew of now.
func (s *Session) NeedsRefresh(now time.Time, skew time.Duration) bool {
	return !now.Add(skew).Before(s.AccessExpiresAt)
}

// OAuthFlow is a sign-in that has been sent to the provider and not yet
// returned. It is consumed exactly once by the callback.
type OAuthFlow struct {
	State        string
	Provider     string
	CodeVerifier string
	RedirectTo   string
	CreatedAt    time.Time
}

// Store defines session persistence.
type Store interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, id string) error
	// DeleteSessionsBefore removes sessions not updated since cutoff.
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CreateOAuthFlow(ctx context.Context, flow *OAuthFlow) error
	// ConsumeOAuthFlow returns and deletes the flow for state.
	ConsumeOAuthFlow(ctx context.Context, state string) (*OAuthFlow, error)
	// DeleteOAuthFlowsBefore removes flows created before cutoff.
	DeleteOAuthFlowsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
