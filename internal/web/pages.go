// ABOUTME: HTTP handlers for the welcome, auth and chat pages and the session endpoint
// ABOUTME: Each handler renders the view its state machine derives

package web

import (
	"encoding/json"
	"net/http"

	"github.com/2389/agent-chat/internal/auth"
)

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	view := Welcome(h.cfg.Auth, auth.StateFromContext(r.Context()))
	if view.Phase == PhaseLoading {
		h.renderLoading(w)
		return
	}

	data := h.newPageData(w, r, "")
	data.Welcome = view
	h.render(w, "welcome", data)
}

func (h *Handler) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	view := AuthPage(h.cfg.Auth, auth.StateFromContext(r.Context()))
	switch view.Phase {
	case PhaseLoading:
		h.renderLoading(w)
	case PhaseRedirect:
		seeOther(w, view.RedirectTo)
	default:
		data := h.newPageData(w, r, "Sign In")
		data.Auth = view
		h.render(w, "auth", data)
	}
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	view := ChatPage(h.cfg.Auth, auth.StateFromContext(r.Context()))
	switch view.Phase {
	case PhaseLoading:
		h.renderLoading(w)
	case PhaseRedirect:
		seeOther(w, view.RedirectTo)
	default:
		data := h.newPageData(w, r, "Chat")
		data.Chat = h.chatData()
		h.render(w, "chat", data)
	}
}

// seeOther redirects without a body so nothing of the page leaks.
func seeOther(w http.ResponseWriter, to string) {
	w.Header().Set("Location", to)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusSeeOther)
}

// renderLoading shows a spinner that reloads the page. Pending toasts are
// left for the settled render.
func (h *Handler) renderLoading(w http.ResponseWriter) {
	h.render(w, "loading", pageData{Theme: h.theme()})
}

// sessionResponse is the JSON shape of GET /session.
type sessionResponse struct {
	Loading       bool  `json:"loading"`
	Authenticated bool  `json:"authenticated"`
	RequireAuth   bool  `json:"require_auth"`
	User          *user `json:"user,omitempty"`
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	state := auth.StateFromContext(r.Context())
	resp := sessionResponse{
		Loading:       state.Loading,
		Authenticated: state.Authenticated,
		RequireAuth:   h.cfg.Auth.RequireAuth,
	}
	if state.User != nil {
		resp.User = &user{ID: state.User.ID, Email: state.User.Email}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode session", "error", err)
	}
}
