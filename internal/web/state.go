// ABOUTME: Pure page state machines for the welcome, auth and chat pages
// ABOUTME: Decide what each page shows from configuration and session state alone

package web

import (
	"github.com/2389/agent-chat/internal/auth"
	"github.com/2389/agent-chat/internal/config"
)

// Phase is the state a page renders in.
type Phase int

const (
	// PhaseLoading renders a spinner and re-polls; nothing session-dependent
	// is decided yet.
	PhaseLoading Phase = iota
	// PhaseReady renders the page itself.
	PhaseReady
	// PhaseRedirect sends the browser elsewhere without a body.
	PhaseRedirect
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// WelcomeView is what the welcome page shows.
type WelcomeView struct {
	Phase       Phase
	ShowSignIn  bool
	ShowSignOut bool
}

// Welcome derives the welcome page. "Start Chatting" is always offered.
func Welcome(cfg config.AuthConfig, s auth.State) WelcomeView {
	if s.Loading {
		return WelcomeView{Phase: PhaseLoading}
	}
	return WelcomeView{
		Phase:       PhaseReady,
		ShowSignIn:  cfg.RequireAuth && !s.Authenticated,
		ShowSignOut: s.Authenticated,
	}
}

// Provider is an OAuth sign-in option.
type Provider struct {
	ID    string
	Name  string
	Label string
}

// knownProviders is the display order of OAuth providers.
var knownProviders = []Provider{
	{ID: "google", Name: "Google", Label: "Sign in with Google"},
	{ID: "github", Name: "GitHub", Label: "Sign in with GitHub"},
}

// EnabledProviders returns the OAuth providers switched on in cfg.
func EnabledProviders(cfg config.ProvidersConfig) []Provider {
	var out []Provider
	for _, p := range knownProviders {
		if providerEnabled(cfg, p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func providerEnabled(cfg config.ProvidersConfig, id string) bool {
	switch id {
	case "google":
		return cfg.Google
	case "github":
		return cfg.GitHub
	default:
		return false
	}
}

func providerName(id string) string {
	for _, p := range knownProviders {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// AuthView is what the auth page shows.
type AuthView struct {
	Phase         Phase
	RedirectTo    string
	Providers     []Provider
	EmailPassword bool
}

// AuthPage derives the auth page. When sign-in is not required the page
// redirects home at once, even while the session is still loading.
func AuthPage(cfg config.AuthConfig, s auth.State) AuthView {
	if !cfg.RequireAuth {
		return AuthView{Phase: PhaseRedirect, RedirectTo: "/"}
	}
	if s.Loading {
		return AuthView{Phase: PhaseLoading}
	}
	if s.Authenticated {
		return AuthView{Phase: PhaseRedirect, RedirectTo: "/"}
	}
	return AuthView{
		Phase:         PhaseReady,
		Providers:     EnabledProviders(cfg.Providers),
		EmailPassword: cfg.Providers.EmailPassword,
	}
}

// ChatView is what the chat page shows.
type ChatView struct {
	Phase      Phase
	RedirectTo string
}

// ChatPage derives the chat page. Anonymous visitors are sent to /auth
// only when sign-in is required. With sign-in optional they may chat:
// /auth would bounce them straight back to / and the chat would be
// unreachable.
func ChatPage(cfg config.AuthConfig, s auth.State) ChatView {
	if s.Loading {
		return ChatView{Phase: PhaseLoading}
	}
	if cfg.RequireAuth && !s.Authenticated {
		return ChatView{Phase: PhaseRedirect, RedirectTo: "/auth"}
	}
	return ChatView{Phase: PhaseReady}
}
