// ABOUTME: Configuration loading and parsing for agent-chat
// ABOUTME: YAML file with ${VAR} expansion, environment overrides and hardcoded defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the complete agent-chat configuration. It is built once at
// startup and handed to every consumer; nothing mutates it afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Agent    AgentConfig    `yaml:"agent"`
	UI       UIConfig       `yaml:"ui"`
	Features FeaturesConfig `yaml:"features"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the external URL used for OAuth redirects.
	// If empty it is derived from the incoming request.
	BaseURL   string `yaml:"base_url"`
	PublicDir string `yaml:"public_dir"`
}

// DatabaseConfig holds the session database location
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig controls how users authenticate with the application
type AuthConfig struct {
	SupabaseURL     string `yaml:"supabase_url"`
	SupabaseAnonKey string `yaml:"supabase_anon_key"`
	// JWTSecret enables local verification of access tokens. Optional.
	JWTSecret   string          `yaml:"jwt_secret"`
	RequireAuth bool            `yaml:"require_auth"`
	Providers   ProvidersConfig `yaml:"providers"`
}

// ProvidersConfig lists the sign-in options shown on the auth page
type ProvidersConfig struct {
	Google        bool `yaml:"google"`
	GitHub        bool `yaml:"github"`
	EmailPassword bool `yaml:"email_password"`
}

// AgentConfig controls how the application connects to the agent backend
type AgentConfig struct {
	DefaultAPIURL      string `yaml:"default_api_url"`
	DefaultAssistantID string `yaml:"default_assistant_id"`

	// Browser-facing overrides
	APIURL      string `yaml:"api_url"`
	AssistantID string `yaml:"assistant_id"`

	// Passthrough target
	LangGraphAPIURL string `yaml:"langgraph_api_url"`
	LangSmithAPIKey string `yaml:"langsmith_api_key"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket for the passthrough.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ClientAPIURL returns the agent API URL the browser should talk to.
func (a AgentConfig) ClientAPIURL() string {
	if a.APIURL != "" {
		return a.APIURL
	}
	return a.DefaultAPIURL
}

// ClientAssistantID returns the assistant the browser should run.
func (a AgentConfig) ClientAssistantID() string {
	if a.AssistantID != "" {
		return a.AssistantID
	}
	return a.DefaultAssistantID
}

// UIConfig holds branding and chat display settings
type UIConfig struct {
	AppName        string        `yaml:"app_name"`
	AppDescription string        `yaml:"app_description"`
	Colors         ColorsConfig  `yaml:"colors"`
	Buttons        ButtonsConfig `yaml:"buttons"`
	Logo           LogoConfig    `yaml:"logo"`
	Chat           ChatConfig    `yaml:"chat"`
}

// ColorsConfig holds palette names (or #rrggbb) for decorative elements
type ColorsConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Accent    string `yaml:"accent"`
}

// ButtonsConfig holds button variants
type ButtonsConfig struct {
	PrimaryButton   string `yaml:"primary_button"`
	SecondaryButton string `yaml:"secondary_button"`
	CancelButton    string `yaml:"cancel_button"`
}

// LogoConfig selects between the built-in mark and custom logo files
type LogoConfig struct {
	UseCustom bool   `yaml:"use_custom"`
	Light     string `yaml:"light"`
	Dark      string `yaml:"dark"`
}

// ChatConfig holds chat surface options
type ChatConfig struct {
	DefaultMessage  string `yaml:"default_message"`
	Placeholder     string `yaml:"placeholder"`
	ShowTimestamps  bool   `yaml:"show_timestamps"`
	ShowAgentTyping bool   `yaml:"show_agent_typing"`
	MaxMessages     int    `yaml:"max_messages"`
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	ChatHistory   bool `yaml:"chat_history"`
	ArtifactPanel bool `yaml:"artifact_panel"`
	ThreadNaming  bool `yaml:"thread_naming"`
	ExportChat    bool `yaml:"export_chat"`
	DeveloperMode bool `yaml:"developer_mode"`
}

// Default returns the hardcoded fallback configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:  "localhost:3000",
			PublicDir: "public",
		},
		Database: DatabaseConfig{
			Path: "data/agent-chat.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			RequireAuth: true,
			Providers: ProvidersConfig{
				Google: true,
				GitHub: true,
			},
		},
		Agent: AgentConfig{
			DefaultAPIURL:      "http://localhost:2024",
			DefaultAssistantID: "agent",
		},
		UI: UIConfig{
			AppName:        "Agent Chat UI",
			AppDescription: "Interact with intelligent agents powered by LangGraph",
			Colors: ColorsConfig{
				Primary:   "purple",
				Secondary: "blue",
				Accent:    "green",
			},
			Buttons: ButtonsConfig{
				PrimaryButton:   "default",
				SecondaryButton: "outline",
				CancelButton:    "secondary",
			},
			Logo: LogoConfig{
				Light: "/logo-light.svg",
				Dark:  "/logo-dark.svg",
			},
			Chat: ChatConfig{
				DefaultMessage:  "How can I help you today?",
				Placeholder:     "Type your message...",
				ShowTimestamps:  true,
				ShowAgentTyping: true,
				MaxMessages:     100,
			},
		},
		Features: FeaturesConfig{
			ChatHistory:   true,
			ArtifactPanel: true,
			ThreadNaming:  true,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Fields missing from the file keep their Default() value. Environment variables
// in the format ${VAR_NAME} are expanded, then well-known environment variables
// override the file (see applyEnv).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load, except that a missing file yields the
// defaults with the environment overlay applied. The boolean reports
// whether the file was found.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	cfg = Default()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("validating config: %w", err)
	}
	return cfg, false, nil
}

// Parse decodes YAML configuration over the defaults without consulting
// environment overrides or validating.
func Parse(data []byte) (*Config, error) {
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
