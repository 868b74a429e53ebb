// ABOUTME: The setup subcommand wiring the interactive wizard to the terminal
// ABOUTME: Uses line editing when a terminal is attached and plain reads for piped input

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/2389/agent-chat/internal/setup"
)

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	opts := setup.Options{Out: os.Stdout}
	fs.StringVar(&opts.EnvTemplate, "env-template", ".env.example", "template copied when the env file is missing")
	fs.StringVar(&opts.EnvFile, "env-file", ".env.local", "env file to update")
	fs.StringVar(&opts.ConfigFile, "config", getConfigPath(), "config file to update")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var p setup.Prompter
	if setup.Interactive(os.Stdin) {
		p = setup.NewLinePrompter()
	} else {
		p = setup.NewReaderPrompter(os.Stdin, os.Stdout)
	}

	report, err := setup.Run(p, opts)
	if errors.Is(err, setup.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	if n := len(report.Failures()); n > 0 {
		return fmt.Errorf("%d setup step(s) failed", n)
	}
	return nil
}
