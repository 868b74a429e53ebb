// ABOUTME: Interactive one-shot setup wizard for agent-chat
// ABOUTME: Seeds the env file, prompts for credentials and branding, and patches files best-effort

package setup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/agent-chat/internal/envfile"
)

const banner = `
┌───────────────────────────────────────────────┐
│                                               │
│          agent-chat interactive setup         │
│                                               │
└───────────────────────────────────────────────┘
`

// Options locates the files the wizard touches.
type Options struct {
	EnvTemplate string // copied to EnvFile when EnvFile is missing
	EnvFile     string
	ConfigFile  string
	Out         io.Writer
}

// Status is the result of one wizard step.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one key.
type Outcome struct {
	Key    string
	File   string
	Status Status
	Err    error
}

// Report collects the outcome of every step the wizard attempted.
type Report struct {
	Outcomes []Outcome
}

// Failures returns the outcomes that failed.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Find returns the outcome for key, if the wizard touched it.
func (r *Report) Find(key string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Key == key {
			return o, true
		}
	}
	return Outcome{}, false
}

type wizard struct {
	opts   Options
	p      Prompter
	report *Report

	green  *color.Color
	red    *color.Color
	cyan   *color.Color
	yellow *color.Color
}

// Run walks the operator through setup. Every file error is reported
// against its key and the wizard moves on; only an operator abort stops
// it early. The prompter is always closed before Run returns.
func Run(p Prompter, opts Options) (report *Report, err error) {
	w := &wizard{
		opts:   opts,
		p:      p,
		report: &Report{},
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		cyan:   color.New(color.FgCyan),
		yellow: color.New(color.FgYellow),
	}
	if w.opts.Out == nil {
		w.opts.Out = io.Discard
	}

	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing prompt: %w", cerr)
		}
	}()

	if err := w.run(); err != nil {
		if errors.Is(err, ErrAborted) {
			w.yellow.Fprintln(w.opts.Out, "\n  Setup aborted; remaining steps skipped.")
		}
		return w.report, err
	}
	return w.report, nil
}

func (w *wizard) run() error {
	out := w.opts.Out
	w.cyan.Fprint(out, banner)
	fmt.Fprintln(out, "This will help you configure your agent chat application.")
	fmt.Fprintln(out)

	w.copyEnvFile()

	w.section("Authentication Provider")
	authURL, err := w.ask("Auth provider (Supabase) URL: ")
	if err != nil {
		return err
	}
	authKey, err := w.ask("Auth provider (Supabase) anon key: ")
	if err != nil {
		return err
	}
	w.setEnv("SUPABASE_URL", authURL)
	w.setEnv("SUPABASE_ANON_KEY", authKey)

	w.section("Agent Backend")
	agentURL, err := w.ask("Agent backend (LangGraph) URL: ")
	if err != nil {
		return err
	}
	agentKey, err := w.ask("Agent backend (LangSmith) API key: ")
	if err != nil {
		return err
	}
	w.setEnv("LANGGRAPH_API_URL", agentURL)
	w.setEnv("LANGSMITH_API_KEY", agentKey)

	w.section("Basic UI Customization")
	appName, err := w.ask("Application name (default: Agent Chat UI): ")
	if err != nil {
		return err
	}
	appDesc, err := w.ask("Application description (default: keep existing): ")
	if err != nil {
		return err
	}
	primary, err := w.ask("Primary color (e.g. purple, blue, green; default: purple): ")
	if err != nil {
		return err
	}

	w.section("Authentication Settings")
	requireAuth, err := w.ask("Require authentication? (yes/no, default: yes): ")
	if err != nil {
		return err
	}

	w.patchConfig("ui.app_name", appName)
	w.patchConfig("ui.app_description", appDesc)
	w.patchConfig("ui.colors.primary", primary)
	w.patchRequireAuth(requireAuth)

	fmt.Fprintln(out)
	w.green.Fprintln(out, "  Setup completed!")
	fmt.Fprintln(out)
	w.yellow.Fprintln(out, "  Start the server:")
	fmt.Fprintln(out, "    agent-chat serve")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  More options live in %s\n", w.opts.ConfigFile)
	if n := len(w.report.Failures()); n > 0 {
		w.red.Fprintf(out, "  %d step(s) failed; see messages above\n", n)
	}
	return nil
}

func (w *wizard) section(title string) {
	fmt.Fprintln(w.opts.Out)
	w.cyan.Fprintf(w.opts.Out, "  %s\n", title)
	w.cyan.Fprintf(w.opts.Out, "  %s\n", strings.Repeat("-", len(title)))
}

// ask maps end of input to an empty answer so remaining steps keep defaults.
func (w *wizard) ask(question string) (string, error) {
	answer, err := w.p.Prompt(question)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (w *wizard) record(o Outcome) {
	w.report.Outcomes = append(w.report.Outcomes, o)
	out := w.opts.Out
	name := filepath.Base(o.File)
	switch o.Status {
	case StatusCreated:
		w.green.Fprint(out, "  ✓ ")
		fmt.Fprintf(out, "Created %s\n", name)
	case StatusUpdated:
		w.green.Fprint(out, "  ✓ ")
		fmt.Fprintf(out, "Updated %s in %s\n", o.Key, name)
	case StatusSkipped:
		w.cyan.Fprint(out, "  ℹ ")
		if o.Err != nil {
			fmt.Fprintf(out, "Skipped %s: %v\n", o.Key, o.Err)
		} else {
			fmt.Fprintf(out, "%s already set in %s\n", o.Key, name)
		}
	case StatusFailed:
		w.red.Fprint(out, "  ✗ ")
		fmt.Fprintf(out, "Error updating %s in %s: %v\n", o.Key, name, o.Err)
	}
}

func (w *wizard) copyEnvFile() {
	copied, err := envfile.CopyIfMissing(w.opts.EnvTemplate, w.opts.EnvFile)
	switch {
	case err != nil:
		w.record(Outcome{Key: filepath.Base(w.opts.EnvFile), File: w.opts.EnvFile, Status: StatusFailed, Err: err})
	case copied:
		w.record(Outcome{Key: filepath.Base(w.opts.EnvFile), File: w.opts.EnvFile, Status: StatusCreated})
	default:
		w.cyan.Fprint(w.opts.Out, "  ℹ ")
		fmt.Fprintf(w.opts.Out, "%s already exists, skipping creation\n", w.opts.EnvFile)
	}
}

// setEnv writes a non-empty answer. A blank answer keeps whatever the env
// file already holds, and says so when that is a real value.
func (w *wizard) setEnv(key, value string) {
	if value == "" {
		if data, err := os.ReadFile(w.opts.EnvFile); err == nil {
			if v, ok := envfile.Get(string(data), key); ok && v != "" {
				w.record(Outcome{Key: key, File: w.opts.EnvFile, Status: StatusSkipped})
			}
		}
		return
	}
	if err := envfile.SetFile(w.opts.EnvFile, key, value); err != nil {
		w.record(Outcome{Key: key, File: w.opts.EnvFile, Status: StatusFailed, Err: err})
		return
	}
	w.record(Outcome{Key: key, File: w.opts.EnvFile, Status: StatusUpdated})
}

func (w *wizard) patchConfig(name, value string) {
	if value == "" {
		return
	}
	changed, err := PatchConfigFile(w.opts.ConfigFile, name, value)
	switch {
	case err != nil:
		w.record(Outcome{Key: name, File: w.opts.ConfigFile, Status: StatusFailed, Err: err})
	case changed:
		w.record(Outcome{Key: name, File: w.opts.ConfigFile, Status: StatusUpdated})
	default:
		w.record(Outcome{Key: name, File: w.opts.ConfigFile, Status: StatusSkipped})
	}
}

func (w *wizard) patchRequireAuth(answer string) {
	switch strings.ToLower(answer) {
	case "":
	case "no", "n":
		w.patchConfig("auth.require_auth", "false")
	case "yes", "y":
		w.patchConfig("auth.require_auth", "true")
	default:
		w.record(Outcome{
			Key:    "auth.require_auth",
			File:   w.opts.ConfigFile,
			Status: StatusSkipped,
			Err:    fmt.Errorf("answer %q is not yes or no", answer),
		})
	}
}
