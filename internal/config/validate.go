// ABOUTME: Schema validation for agent-chat configuration
// ABOUTME: Checks palette names, button variants and ambient settings; URLs are not validated

package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Palette maps the supported color names to the hex value used in CSS.
var Palette = map[string]string{
	"slate":   "#64748b",
	"gray":    "#6b7280",
	"zinc":    "#71717a",
	"red":     "#ef4444",
	"orange":  "#f97316",
	"amber":   "#f59e0b",
	"yellow":  "#eab308",
	"lime":    "#84cc16",
	"green":   "#22c55e",
	"emerald": "#10b981",
	"teal":    "#14b8a6",
	"cyan":    "#06b6d4",
	"sky":     "#0ea5e9",
	"blue":    "#3b82f6",
	"indigo":  "#6366f1",
	"violet":  "#8b5cf6",
	"purple":  "#a855f7",
	"fuchsia": "#d946ef",
	"pink":    "#ec4899",
	"rose":    "#f43f5e",
}

// ButtonVariants are the accepted values for ui.buttons.*
var ButtonVariants = []string{"default", "secondary", "outline", "ghost", "link"}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ColorHex resolves a palette name or #rrggbb literal to a hex value.
// Unknown names resolve to the purple default.
func ColorHex(name string) string {
	if hexColorPattern.MatchString(name) {
		return strings.ToLower(name)
	}
	if hex, ok := Palette[strings.ToLower(name)]; ok {
		return hex
	}
	return Palette["purple"]
}

// ValidColor reports whether name is a palette name or #rrggbb literal.
func ValidColor(name string) bool {
	if hexColorPattern.MatchString(name) {
		return true
	}
	_, ok := Palette[strings.ToLower(name)]
	return ok
}

// ValidButtonVariant reports whether v is a known button variant.
func ValidButtonVariant(v string) bool {
	for _, b := range ButtonVariants {
		if v == b {
			return true
		}
	}
	return false
}

// PaletteNames returns the sorted palette names, for prompts and errors.
func PaletteNames() []string {
	names := make([]string, 0, len(Palette))
	for name := range Palette {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the configuration matches the schema.
// Returns an error describing the first validation failure encountered.
// Backend URLs and keys are deliberately left unchecked; a bad value
// surfaces as a failed call at request time.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}

	colors := []struct {
		key, value string
	}{
		{"ui.colors.primary", c.UI.Colors.Primary},
		{"ui.colors.secondary", c.UI.Colors.Secondary},
		{"ui.colors.accent", c.UI.Colors.Accent},
	}
	for _, col := range colors {
		if !ValidColor(col.value) {
			return fmt.Errorf("%s %q is not a palette color or #rrggbb value", col.key, col.value)
		}
	}

	buttons := []struct {
		key, value string
	}{
		{"ui.buttons.primary_button", c.UI.Buttons.PrimaryButton},
		{"ui.buttons.secondary_button", c.UI.Buttons.SecondaryButton},
		{"ui.buttons.cancel_button", c.UI.Buttons.CancelButton},
	}
	for _, b := range buttons {
		if !ValidButtonVariant(b.value) {
			return fmt.Errorf("%s %q must be one of %s", b.key, b.value, strings.Join(ButtonVariants, ", "))
		}
	}

	if c.UI.Chat.MaxMessages <= 0 {
		return fmt.Errorf("ui.chat.max_messages must be positive, got %d", c.UI.Chat.MaxMessages)
	}

	if c.Agent.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("agent.rate_limit.requests_per_second must not be negative")
	}
	if c.Agent.RateLimit.Burst < 0 {
		return fmt.Errorf("agent.rate_limit.burst must not be negative")
	}

	return nil
}
