// ABOUTME: Entry point for the agent-chat server and its setup wizard
// ABOUTME: Dispatches serve, setup, health and version subcommands

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/agent-chat/internal/config"
	"github.com/2389/agent-chat/internal/server"
)

// Version is set at build time.
var version = "dev"

const banner = `
                         _            _           _
  __ _  __ _  ___ _ __ | |_      ___| |__   __ _| |_
 / _' |/ _' |/ _ \ '_ \| __|____/ __| '_ \ / _' | __|
| (_| | (_| |  __/ | | | ||_____| (__| | | | (_| | |_
 \__,_|\__, |\___|_| |_|\__|     \___|_| |_|\__,_|\__|
       |___/
`

// envFiles are loaded before the config, most specific first.
var envFiles = []string{".env.local", ".env"}

// getConfigPath returns the config file location.
// Priority: AGENT_CHAT_CONFIG env var > ./config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("AGENT_CHAT_CONFIG"); envPath != "" {
		return envPath
	}
	return "config.yaml"
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: agent-chat <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve [--ephemeral]    Start the chat server")
	fmt.Fprintln(w, "  setup                  Configure credentials and branding interactively")
	fmt.Fprintln(w, "  health                 Check server health")
	fmt.Fprintln(w, "  version                Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "setup":
		err = runSetup(args)
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies the env files and reads the config, falling back to
// the defaults when the file does not exist yet.
func loadConfig(configPath string) (*config.Config, bool, error) {
	if _, err := config.LoadEnvFiles(envFiles...); err != nil {
		return nil, false, err
	}
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, false, fmt.Errorf("loading config: %w", err)
	}
	return cfg, found, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	ephemeral := fs.Bool("ephemeral", false, "keep sessions in memory instead of the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, found, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s", configPath)
	if !found {
		yellow.Print(" [missing, using defaults]")
	}
	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Sessions:  ")
	if *ephemeral {
		yellow.Println("memory (ephemeral)")
	} else {
		fmt.Println(cfg.Database.Path)
	}
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.Auth.RequireAuth {
		fmt.Println("required")
	} else {
		gray.Println("optional")
	}
	fmt.Println()

	logger.Info("starting agent-chat",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"ephemeral", *ephemeral,
	)

	watch := []string{configPath}
	watch = append(watch, envFiles...)

	srv, err := server.New(cfg, logger, server.Options{
		Ephemeral:  *ephemeral,
		WatchPaths: watch,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthy, err := checkHealth(ctx, http.DefaultClient, "http://"+cfg.Server.HTTPAddr)
	if err != nil {
		return err
	}
	if !healthy {
		return fmt.Errorf("server unhealthy")
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Println("healthy")
	return nil
}

// checkHealth asks the server at base for its health status.
func checkHealth(ctx context.Context, client *http.Client, base string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("connecting to server: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
