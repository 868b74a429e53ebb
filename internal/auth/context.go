// ABOUTME: Per-request session state carried through request handlers
// ABOUTME: Provides WithState/StateFromContext for propagating it via context

package auth

import (
	"context"
)

// State is what a page knows about the current visitor.
//
// Loading means the session check could not finish in time (a slow provider
// during a refresh). Pages must not commit to a session-dependent redirect
// while Loading is set.
type State struct {
	Loading       bool
	Authenticated bool
	User          *User
}

// Email returns the signed-in user's email, or "" when anonymous.
func (s State) Email() string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

// stateContextKey is the key type for storing State in context.Context.
type stateContextKey struct{}

// WithState returns a new context with the State attached.
func WithState(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, state)
}

// StateFromContext retrieves the State from the context. A context without
// one yields the anonymous, settled state.
func StateFromContext(ctx context.Context) State {
	state, _ := ctx.Value(stateContextKey{}).(State)
	return state
}
