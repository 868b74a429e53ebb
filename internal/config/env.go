// ABOUTME: Environment overlay for agent-chat configuration
// ABOUTME: Loads .env files via godotenv and applies well-known variables over the YAML values

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names read at startup. Each binding lists its
// preferred name first, followed by legacy aliases.
var envBindings = []struct {
	names []string
	field func(*Config) *string
}{
	{[]string{"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"}, func(c *Config) *string { return &c.Auth.SupabaseURL }},
	{[]string{"SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"}, func(c *Config) *string { return &c.Auth.SupabaseAnonKey }},
	{[]string{"SUPABASE_JWT_SECRET"}, func(c *Config) *string { return &c.Auth.JWTSecret }},
	{[]string{"API_URL", "NEXT_PUBLIC_API_URL"}, func(c *Config) *string { return &c.Agent.APIURL }},
	{[]string{"ASSISTANT_ID", "NEXT_PUBLIC_ASSISTANT_ID"}, func(c *Config) *string { return &c.Agent.AssistantID }},
	{[]string{"LANGGRAPH_API_URL"}, func(c *Config) *string { return &c.Agent.LangGraphAPIURL }},
	{[]string{"LANGSMITH_API_KEY"}, func(c *Config) *string { return &c.Agent.LangSmithAPIKey }},
	{[]string{"AGENT_CHAT_HTTP_ADDR"}, func(c *Config) *string { return &c.Server.HTTPAddr }},
	{[]string{"AGENT_CHAT_BASE_URL"}, func(c *Config) *string { return &c.Server.BaseURL }},
}

// applyEnv overrides configuration fields with non-empty environment values.
func applyEnv(cfg *Config) {
	for _, b := range envBindings {
		if v := firstEnv(b.names...); v != "" {
			*b.field(cfg) = v
		}
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// LoadEnvFiles loads KEY=VALUE files into the process environment.
// Missing files are skipped. Variables already present in the environment
// win over file values, and earlier files win over later ones.
// Returns the paths that were actually loaded.
func LoadEnvFiles(paths ...string) ([]string, error) {
	var loaded []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("checking env file %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("loading env file %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
