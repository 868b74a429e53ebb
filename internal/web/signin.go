// ABOUTME: Sign-in and sign-out handlers for OAuth (PKCE) and email/password
// ABOUTME: Failures are reported to the visitor as toasts on the auth page

package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/2389/agent-chat/internal/auth"
	"github.com/2389/agent-chat/internal/store"
)

// signOutTimeout bounds the best-effort upstream revocation.
const signOutTimeout = 5 * time.Second

var (
	errFlowExpired        = errors.New("sign-in session expired, please try again")
	errMissingCode        = errors.New("missing authorization code")
	errMissingCredentials = errors.New("email and password are required")
)

// handleOAuthStart records a pending flow and sends the browser to the provider.
func (h *Handler) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	provider := r.PathValue("provider")
	if !providerEnabled(h.cfg.Auth.Providers, provider) {
		http.NotFound(w, r)
		return
	}
	title := "Failed to sign in with " + providerName(provider)

	verifier, err := auth.NewCodeVerifier()
	if err != nil {
		h.failSignIn(w, r, title, err)
		return
	}
	state, err := auth.NewToken(32)
	if err != nil {
		h.failSignIn(w, r, title, err)
		return
	}

	flow := &store.OAuthFlow{
		State:        state,
		Provider:     provider,
		CodeVerifier: verifier,
		RedirectTo:   "/",
		CreatedAt:    h.now().UTC(),
	}
	if err := h.store.CreateOAuthFlow(r.Context(), flow); err != nil {
		h.failSignIn(w, r, title, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     OAuthCookieName,
		Value:    state,
		Path:     "/auth/callback",
		MaxAge:   int(OAuthFlowDuration / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})

	callback := h.baseURL(r) + "/auth/callback"
	h.logger.Info("starting oauth sign-in", "provider", provider)
	http.Redirect(w, r, h.auth.AuthorizeURL(provider, callback, auth.CodeChallenge(verifier)), http.StatusSeeOther)
}

// handleOAuthCallback completes a flow started by handleOAuthStart.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(OAuthCookieName)
	http.SetCookie(w, &http.Cookie{
		Name:     OAuthCookieName,
		Value:    "",
		Path:     "/auth/callback",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil || cookie.Value == "" {
		h.failSignIn(w, r, "Sign in failed", errFlowExpired)
		return
	}

	flow, err := h.store.ConsumeOAuthFlow(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, store.ErrFlowNotFound) {
			err = errFlowExpired
		}
		h.failSignIn(w, r, "Sign in failed", err)
		return
	}
	title := "Failed to sign in with " + providerName(flow.Provider)

	if h.now().Sub(flow.CreatedAt) > OAuthFlowDuration {
		h.failSignIn(w, r, title, errFlowExpired)
		return
	}

	q := r.URL.Query()
	if msg := q.Get("error_description"); msg != "" || q.Get("error") != "" {
		if msg == "" {
			msg = q.Get("error")
		}
		h.failSignIn(w, r, title, &auth.APIError{Status: http.StatusBadRequest, Code: q.Get("error"), Message: msg})
		return
	}
	code := q.Get("code")
	if code == "" {
		h.failSignIn(w, r, title, errMissingCode)
		return
	}

	tokens, err := h.auth.ExchangeCode(r.Context(), code, flow.CodeVerifier)
	if err != nil {
		h.failSignIn(w, r, title, err)
		return
	}
	if err := h.startSession(w, r, tokens); err != nil {
		h.failSignIn(w, r, title, err)
		return
	}

	h.logger.Info("signed in", "provider", flow.Provider, "email", redactEmail(tokens.User.Email))
	redirect := flow.RedirectTo
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handlePasswordSignIn signs in with email and password.
func (h *Handler) handlePasswordSignIn(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	if !h.cfg.Auth.Providers.EmailPassword {
		http.NotFound(w, r)
		return
	}

	const title = "Failed to sign in"
	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.failSignIn(w, r, title, errMissingCredentials)
		return
	}

	tokens, err := h.auth.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		h.failSignIn(w, r, title, err)
		return
	}
	if err := h.startSession(w, r, tokens); err != nil {
		h.failSignIn(w, r, title, err)
		return
	}

	h.logger.Info("signed in", "provider", "email", "email", redactEmail(tokens.User.Email))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSignOut revokes the session upstream (best effort) and forgets it.
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		h.endSession(r.Context(), cookie.Value)
	}
	h.clearSessionCookie(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) endSession(ctx context.Context, id string) {
	sess, err := h.store.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			h.logger.Error("failed to load session for sign-out", "error", err)
		}
		return
	}

	revokeCtx, cancel := context.WithTimeout(ctx, signOutTimeout)
	if err := h.auth.SignOut(revokeCtx, sess.AccessToken); err != nil {
		h.logger.Warn("upstream sign-out failed", "error", err)
	}
	cancel()

	if err := h.store.DeleteSession(ctx, id); err != nil {
		h.logger.Error("failed to delete session", "error", err)
		return
	}
	h.logger.Info("signed out", "email", redactEmail(sess.Email))
}

// failSignIn logs err, queues a toast and returns the visitor to /auth.
func (h *Handler) failSignIn(w http.ResponseWriter, r *http.Request, title string, err error) {
	h.logger.Warn("sign-in failed", "path", r.URL.Path, "error", err)
	h.setFlash(w, r, Toast{Title: title, Description: toastDescription(err)})
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

// toastDescription turns err into text safe to show the visitor.
func toastDescription(err error) string {
	var apiErr *auth.APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "The authentication service took too long to respond."
	case errors.As(err, &urlErr):
		return "Could not reach the authentication service. Check SUPABASE_URL or run agent-chat setup."
	case errors.Is(err, errFlowExpired), errors.Is(err, errMissingCode), errors.Is(err, errMissingCredentials):
		return err.Error()
	}
	return "Please try again."
}
