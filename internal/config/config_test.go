// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers defaults, YAML overlay, env var expansion, env overrides and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// clearEnv blanks every variable the overlay reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range envBindings {
		for _, name := range b.names {
			t.Setenv(name, "")
		}
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

auth:
  require_auth: false
  providers:
    google: false
    github: true
    email_password: true

agent:
  default_api_url: "http://agent.internal:2024"
  langgraph_api_url: "https://langgraph.example.com"

ui:
  app_name: "Support Bot"
  colors:
    primary: "indigo"
  chat:
    max_messages: 50

features:
  export_chat: true

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Auth.RequireAuth {
		t.Error("Auth.RequireAuth = true, want false")
	}
	if cfg.Auth.Providers.Google {
		t.Error("Auth.Providers.Google = true, want false")
	}
	if !cfg.Auth.Providers.EmailPassword {
		t.Error("Auth.Providers.EmailPassword = false, want true")
	}
	if cfg.Agent.DefaultAPIURL != "http://agent.internal:2024" {
		t.Errorf("Agent.DefaultAPIURL = %q", cfg.Agent.DefaultAPIURL)
	}
	if cfg.Agent.LangGraphAPIURL != "https://langgraph.example.com" {
		t.Errorf("Agent.LangGraphAPIURL = %q", cfg.Agent.LangGraphAPIURL)
	}
	if cfg.UI.AppName != "Support Bot" {
		t.Errorf("UI.AppName = %q, want %q", cfg.UI.AppName, "Support Bot")
	}
	if cfg.UI.Colors.Primary != "indigo" {
		t.Errorf("UI.Colors.Primary = %q, want %q", cfg.UI.Colors.Primary, "indigo")
	}
	if cfg.UI.Chat.MaxMessages != 50 {
		t.Errorf("UI.Chat.MaxMessages = %d, want 50", cfg.UI.Chat.MaxMessages)
	}
	if !cfg.Features.ExportChat {
		t.Error("Features.ExportChat = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_MissingFieldsKeepDefaults(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, `
ui:
  app_name: "Only Name"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.UI.AppName != "Only Name" {
		t.Errorf("UI.AppName = %q, want %q", cfg.UI.AppName, "Only Name")
	}
	if cfg.UI.AppDescription != def.UI.AppDescription {
		t.Errorf("UI.AppDescription = %q, want default %q", cfg.UI.AppDescription, def.UI.AppDescription)
	}
	if !cfg.Auth.RequireAuth {
		t.Error("Auth.RequireAuth should default to true")
	}
	if cfg.Agent.DefaultAssistantID != "agent" {
		t.Errorf("Agent.DefaultAssistantID = %q, want %q", cfg.Agent.DefaultAssistantID, "agent")
	}
	if cfg.UI.Chat.MaxMessages != 100 {
		t.Errorf("UI.Chat.MaxMessages = %d, want 100", cfg.UI.Chat.MaxMessages)
	}
	if !cfg.Features.ChatHistory || cfg.Features.DeveloperMode {
		t.Errorf("Features = %+v, want defaults", cfg.Features)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_APP_NAME", "Expanded Name")

	configPath := writeConfig(t, `
ui:
  app_name: "${TEST_APP_NAME}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.UI.AppName != "Expanded Name" {
		t.Errorf("UI.AppName = %q, want %q", cfg.UI.AppName, "Expanded Name")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_URL", "https://env.supabase.co")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "legacy-anon-key")
	t.Setenv("LANGSMITH_API_KEY", "lsv2-env")

	configPath := writeConfig(t, `
auth:
  supabase_url: "https://file.supabase.co"
  supabase_anon_key: "file-key"
agent:
  langsmith_api_key: "file-langsmith"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SupabaseURL != "https://env.supabase.co" {
		t.Errorf("Auth.SupabaseURL = %q, want env value", cfg.Auth.SupabaseURL)
	}
	if cfg.Auth.SupabaseAnonKey != "legacy-anon-key" {
		t.Errorf("Auth.SupabaseAnonKey = %q, want legacy alias value", cfg.Auth.SupabaseAnonKey)
	}
	if cfg.Agent.LangSmithAPIKey != "lsv2-env" {
		t.Errorf("Agent.LangSmithAPIKey = %q, want env value", cfg.Agent.LangSmithAPIKey)
	}
}

func TestLoad_EmptyEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, `
agent:
  langgraph_api_url: "https://file.example.com"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.LangGraphAPIURL != "https://file.example.com" {
		t.Errorf("Agent.LangGraphAPIURL = %q, want file value", cfg.Agent.LangGraphAPIURL)
	}
}

func TestLoad_MalformedURLPropagates(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, `
agent:
  langgraph_api_url: "not a url at all"
auth:
  supabase_url: "::::"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() should not validate URLs, got %v", err)
	}
	if cfg.Agent.LangGraphAPIURL != "not a url at all" {
		t.Errorf("Agent.LangGraphAPIURL = %q", cfg.Agent.LangGraphAPIURL)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("error = %v, want reading config file", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "ui: [unclosed")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing config file", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "hex color accepted", mutate: func(c *Config) { c.UI.Colors.Accent = "#12AB9f" }},
		{name: "unknown color", mutate: func(c *Config) { c.UI.Colors.Primary = "mauve" }, wantErr: "ui.colors.primary"},
		{name: "bad hex", mutate: func(c *Config) { c.UI.Colors.Secondary = "#12345" }, wantErr: "ui.colors.secondary"},
		{name: "unknown button variant", mutate: func(c *Config) { c.UI.Buttons.CancelButton = "danger" }, wantErr: "ui.buttons.cancel_button"},
		{name: "zero max messages", mutate: func(c *Config) { c.UI.Chat.MaxMessages = 0 }, wantErr: "max_messages"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "missing http addr", mutate: func(c *Config) { c.Server.HTTPAddr = "" }, wantErr: "server.http_addr"},
		{name: "missing database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "negative rate", mutate: func(c *Config) { c.Agent.RateLimit.RequestsPerSecond = -1 }, wantErr: "requests_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestClientAgentSettings(t *testing.T) {
	a := Default().Agent
	if got := a.ClientAPIURL(); got != "http://localhost:2024" {
		t.Errorf("ClientAPIURL() = %q, want default", got)
	}
	if got := a.ClientAssistantID(); got != "agent" {
		t.Errorf("ClientAssistantID() = %q, want default", got)
	}

	a.APIURL = "/api"
	a.AssistantID = "support"
	if got := a.ClientAPIURL(); got != "/api" {
		t.Errorf("ClientAPIURL() = %q, want /api", got)
	}
	if got := a.ClientAssistantID(); got != "support" {
		t.Errorf("ClientAssistantID() = %q, want support", got)
	}
}

func TestColorHex(t *testing.T) {
	if got := ColorHex("purple"); got != "#a855f7" {
		t.Errorf("ColorHex(purple) = %q", got)
	}
	if got := ColorHex("Blue"); got != "#3b82f6" {
		t.Errorf("ColorHex(Blue) = %q", got)
	}
	if got := ColorHex("#ABCDEF"); got != "#abcdef" {
		t.Errorf("ColorHex(#ABCDEF) = %q", got)
	}
	if got := ColorHex("nope"); got != "#a855f7" {
		t.Errorf("ColorHex(nope) = %q, want purple fallback", got)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	fallback := filepath.Join(dir, ".env")
	missing := filepath.Join(dir, ".env.missing")

	if err := os.WriteFile(local, []byte("AGENT_CHAT_TEST_A=local\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fallback, []byte("AGENT_CHAT_TEST_A=fallback\nAGENT_CHAT_TEST_B=fallback\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// t.Setenv registers cleanup; unset afterwards so godotenv can set them.
	t.Setenv("AGENT_CHAT_TEST_A", "")
	t.Setenv("AGENT_CHAT_TEST_B", "")
	os.Unsetenv("AGENT_CHAT_TEST_A")
	os.Unsetenv("AGENT_CHAT_TEST_B")

	loaded, err := LoadEnvFiles(local, missing, fallback)
	if err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %v, want 2 files", loaded)
	}
	if got := os.Getenv("AGENT_CHAT_TEST_A"); got != "local" {
		t.Errorf("AGENT_CHAT_TEST_A = %q, want local (first file wins)", got)
	}
	if got := os.Getenv("AGENT_CHAT_TEST_B"); got != "fallback" {
		t.Errorf("AGENT_CHAT_TEST_B = %q, want fallback", got)
	}
}

func TestLoadOrDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("LANGGRAPH_API_URL", "http://agent.internal:8123")

	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if found {
		t.Error("found = true for a missing file")
	}
	if cfg.UI.AppName != Default().UI.AppName {
		t.Errorf("UI.AppName = %q, want default", cfg.UI.AppName)
	}
	if cfg.Agent.LangGraphAPIURL != "http://agent.internal:8123" {
		t.Errorf("Agent.LangGraphAPIURL = %q, env overlay not applied", cfg.Agent.LangGraphAPIURL)
	}

	path := writeConfig(t, "ui:\n  app_name: Support Bot\n")
	cfg, found, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if !found || cfg.UI.AppName != "Support Bot" {
		t.Errorf("got found=%v app_name=%q", found, cfg.UI.AppName)
	}

	if _, _, err := LoadOrDefault(writeConfig(t, "ui: [unclosed")); err == nil {
		t.Error("LoadOrDefault() should surface parse errors")
	}
}
