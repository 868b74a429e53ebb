// ABOUTME: Template data types and rendering for the web pages
// ABOUTME: Pages are parsed once from the embedded filesystem at startup

package web

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/2389/agent-chat/internal/assets"
	"github.com/2389/agent-chat/internal/auth"
	"github.com/2389/agent-chat/internal/config"
)

// pageNames are the templates layered over base.html.
var pageNames = []string{"welcome", "auth", "chat", "loading"}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

var templateFuncs = template.FuncMap{
	"asset": assets.URL,
}

// theme is the branding every page carries.
type theme struct {
	AppName     string
	Description template.HTML
	Primary     template.CSS
	Secondary   template.CSS
	Accent      template.CSS
	Buttons     config.ButtonsConfig
	Logo        config.LogoConfig
}

// pageData is the root value handed to every template.
type pageData struct {
	Title     string
	Theme     theme
	State     auth.State
	Toast     *Toast
	CSRFToken string

	Welcome WelcomeView
	Auth    AuthView
	Chat    *chatData
}

// chatData configures the chat surface.
type chatData struct {
	Features config.FeaturesConfig
	Client   chatClientConfig
}

// chatClientConfig is serialized into the page for chat.js.
type chatClientConfig struct {
	APIURL          string `json:"apiUrl"`
	AssistantID     string `json:"assistantId"`
	DefaultMessage  string `json:"defaultMessage"`
	Placeholder     string `json:"placeholder"`
	ShowTimestamps  bool   `json:"showTimestamps"`
	ShowAgentTyping bool   `json:"showAgentTyping"`
	MaxMessages     int    `json:"maxMessages"`
	ChatHistory     bool   `json:"chatHistory"`
	ArtifactPanel   bool   `json:"artifactPanel"`
	ThreadNaming    bool   `json:"threadNaming"`
	ExportChat      bool   `json:"exportChat"`
	DeveloperMode   bool   `json:"developerMode"`
}

func (h *Handler) theme() theme {
	ui := h.cfg.UI
	return theme{
		AppName:     ui.AppName,
		Description: h.description,
		Primary:     template.CSS(config.ColorHex(ui.Colors.Primary)),   //nolint:gosec // resolved to #rrggbb
		Secondary:   template.CSS(config.ColorHex(ui.Colors.Secondary)), //nolint:gosec // resolved to #rrggbb
		Accent:      template.CSS(config.ColorHex(ui.Colors.Accent)),    //nolint:gosec // resolved to #rrggbb
		Buttons:     ui.Buttons,
		Logo:        ui.Logo,
	}
}

// newPageData fills the fields shared by every page and pops any toast.
func (h *Handler) newPageData(w http.ResponseWriter, r *http.Request, title string) pageData {
	return pageData{
		Title:     title,
		Theme:     h.theme(),
		State:     auth.StateFromContext(r.Context()),
		Toast:     h.popFlash(w, r),
		CSRFToken: h.ensureCSRFToken(w, r),
	}
}

func (h *Handler) chatData() *chatData {
	agent := h.cfg.Agent
	chat := h.cfg.UI.Chat
	features := h.cfg.Features
	return &chatData{
		Features: features,
		Client: chatClientConfig{
			APIURL:          agent.ClientAPIURL(),
			AssistantID:     agent.ClientAssistantID(),
			DefaultMessage:  chat.DefaultMessage,
			Placeholder:     chat.Placeholder,
			ShowTimestamps:  chat.ShowTimestamps,
			ShowAgentTyping: chat.ShowAgentTyping,
			MaxMessages:     chat.MaxMessages,
			ChatHistory:     features.ChatHistory,
			ArtifactPanel:   features.ArtifactPanel,
			ThreadNaming:    features.ThreadNaming,
			ExportChat:      features.ExportChat,
			DeveloperMode:   features.DeveloperMode,
		},
	}
}

// render executes a parsed page.
func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	tmpl, ok := h.pages[name]
	if !ok {
		h.logger.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
	}
}
