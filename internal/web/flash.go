// ABOUTME: One-shot toast messages carried across a redirect in a cookie
// ABOUTME: Sign-in failures are shown once on the next page render

package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// FlashCookieName carries a pending toast.
const FlashCookieName = "agent_chat_flash"

// Toast is a transient notice shown at the top of the page.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) setFlash(w http.ResponseWriter, r *http.Request, t Toast) {
	data, err := json.Marshal(t)
	if err != nil {
		h.logger.Error("failed to encode toast", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending toast, if any, and clears it.
func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) *Toast {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var t Toast
	if err := json.Unmarshal(data, &t); err != nil || t.Title == "" {
		return nil
	}
	return &t
}
