// ABOUTME: In-memory Store implementation
// ABOUTME: Used by tests and by serve --ephemeral when no database file is wanted

package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session   // keyed by session ID
	flows    map[string]*OAuthFlow // keyed by state
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		flows:    make(map[string]*OAuthFlow),
	}
}

// CreateSession stores a copy of session.
func (m *MemoryStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// GetSession returns a copy of the stored session.
func (m *MemoryStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

// UpdateSession replaces an existing session.
func (m *MemoryStore) UpdateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[session.ID]
	if !ok {
		return ErrSessionNotFound
	}
	s := *session
	s.CreatedAt = existing.CreatedAt
	m.sessions[s.ID] = &s
	return nil
}

// DeleteSession removes a session.
func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteSessionsBefore removes sessions not updated since cutoff.
func (m *MemoryStore) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// CreateOAuthFlow stores a copy of flow.
func (m *MemoryStore) CreateOAuthFlow(ctx context.Context, flow *OAuthFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := *flow
	m.flows[f.State] = &f
	return nil
}

// ConsumeOAuthFlow returns and deletes the flow for state.
func (m *MemoryStore) ConsumeOAuthFlow(ctx context.Context, state string) (*OAuthFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.flows[state]
	if !ok {
		return nil, ErrFlowNotFound
	}
	delete(m.flows, state)
	return f, nil
}

// DeleteOAuthFlowsBefore removes flows created before cutoff.
func (m *MemoryStore) DeleteOAuthFlowsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for state, f := range m.flows {
		if f.CreatedAt.Before(cutoff) {
			delete(m.flows, state)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
