// ABOUTME: Session resolution middleware for the web pages
// ABOUTME: Turns the session cookie or bearer token into an auth.State, refreshing tokens as needed

package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2389/agent-chat/internal/auth"
	"github.com/2389/agent-chat/internal/store"
)

// errSessionRevoked means the provider rejected the refresh token.
var errSessionRevoked = errors.New("session revoked by auth provider")

// withSession resolves the visitor's session and stores it in the request
// context. The check is bounded by sessionCheckTimeout; past it the state is
// Loading and the page re-polls.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.sessionCheckTimeout)
		state := h.resolveState(ctx, w, r)
		cancel()

		next.ServeHTTP(w, r.WithContext(auth.WithState(r.Context(), state)))
	})
}

func (h *Handler) resolveState(ctx context.Context, w http.ResponseWriter, r *http.Request) auth.State {
	if token, ok := auth.BearerToken(r); ok {
		return h.stateFromToken(ctx, token)
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.State{}
	}

	sess, err := h.store.GetSession(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			h.clearSessionCookie(w, r)
			return auth.State{}
		}
		if isTimeout(ctx, err) {
			return auth.State{Loading: true}
		}
		h.logger.Error("failed to load session", "error", err)
		return auth.State{}
	}

	if sess.NeedsRefresh(h.now(), refreshSkew) {
		sess, err = h.refresh(ctx, sess)
		switch {
		case err == nil:
		case isTimeout(ctx, err):
			return auth.State{Loading: true}
		case errors.Is(err, errSessionRevoked):
			h.logger.Info("session revoked, signing out", "email", redactEmail(sess.Email))
			h.clearSessionCookie(w, r)
			return auth.State{}
		default:
			h.logger.Warn("failed to refresh session", "error", err)
			return auth.State{}
		}
	}

	if h.verifier != nil {
		if _, err := h.verifier.Verify(sess.AccessToken); err != nil {
			h.logger.Warn("stored access token failed verification", "error", err)
			return auth.State{}
		}
	}

	return auth.State{
		Authenticated: true,
		User:          &auth.User{ID: sess.UserID, Email: sess.Email},
	}
}

// stateFromToken resolves an Authorization: Bearer token. The local verifier
// is used when configured; otherwise the provider is asked.
func (h *Handler) stateFromToken(ctx context.Context, token string) auth.State {
	if h.verifier != nil {
		claims, err := h.verifier.Verify(token)
		if err != nil {
			return auth.State{}
		}
		return auth.State{
			Authenticated: true,
			User:          &auth.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role},
		}
	}

	user, err := h.auth.GetUser(ctx, token)
	if err != nil {
		if isTimeout(ctx, err) {
			return auth.State{Loading: true}
		}
		return auth.State{}
	}
	return auth.State{Authenticated: true, User: user}
}

// refresh exchanges the session's refresh token for new tokens. Concurrent
// requests for the same session share one upstream call. The call outlives
// ctx so a slow provider still persists the new tokens for the next poll.
func (h *Handler) refresh(ctx context.Context, sess *store.Session) (*store.Session, error) {
	detached := context.WithoutCancel(ctx)
	ch := h.refreshes.DoChan(sess.ID, func() (any, error) {
		rctx, cancel := context.WithTimeout(detached, refreshTimeout)
		defer cancel()
		return h.refreshSession(rctx, sess)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return sess, res.Err
		}
		return res.Val.(*store.Session), nil
	case <-ctx.Done():
		return sess, ctx.Err()
	}
}

func (h *Handler) refreshSession(ctx context.Context, sess *store.Session) (*store.Session, error) {
	tokens, err := h.auth.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		var apiErr *auth.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			if delErr := h.store.DeleteSession(ctx, sess.ID); delErr != nil {
				h.logger.Error("failed to delete revoked session", "error", delErr)
			}
			return nil, errSessionRevoked
		}
		return nil, err
	}

	now := h.now()
	updated := *sess
	updated.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		updated.RefreshToken = tokens.RefreshToken
	}
	updated.AccessExpiresAt = tokens.Expiry(now).UTC()
	updated.UpdatedAt = now.UTC()
	if tokens.User.Email != "" {
		updated.Email = tokens.User.Email
	}

	if err := h.store.UpdateSession(ctx, &updated); err != nil {
		return nil, err
	}
	h.logger.Debug("refreshed session", "email", redactEmail(updated.Email))
	return &updated, nil
}

// startSession stores tokens from a successful sign-in and sets the cookie.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, tokens *auth.Session) error {
	id, err := auth.NewToken(32)
	if err != nil {
		return err
	}

	now := h.now().UTC()
	sess := &store.Session{
		ID:              id,
		UserID:          tokens.User.ID,
		Email:           tokens.User.Email,
		AccessToken:     tokens.AccessToken,
		RefreshToken:    tokens.RefreshToken,
		AccessExpiresAt: tokens.Expiry(now).UTC(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.store.CreateSession(r.Context(), sess); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  now.Add(SessionDuration),
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// isTimeout reports whether err came from the session check deadline.
func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
}

// redactEmail keeps the first character and the domain.
func redactEmail(email string) string {
	at := strings.IndexByte(email, '@')
	switch {
	case email == "":
		return ""
	case at < 0:
		return "***"
	case at == 0:
		return email
	}
	return email[:1] + "***" + email[at:]
}
