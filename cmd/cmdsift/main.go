// Package main implements the cmdsift CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmdsift/cmdsift/pkg/config"
	"github.com/cmdsift/cmdsift/pkg/output"
)

var (
	// Version is set at build time
	version = "0.3.0"
	// BuildDate is set at build time
	buildDate = "unknown"
)

// exitError carries a specific process exit code up to main.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmdsift",
		Short: "cmdsift - extract structured command schemas from help output",
		Long: `cmdsift interrogates installed commands for their help output and
distills it into structured JSON schemas: flags, subcommands, and
positional arguments, each with a confidence and coverage score.

Schemas that clear the quality policy are written out for use by
shells, completion engines, and suggestion tooling.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringP("format", "f", "", "Output format (json, yaml, markdown, table)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newParseStdinCmd())
	cmd.AddCommand(newParseFileCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newBundleCmd())

	return cmd
}

// loadSettings loads the merged configuration and validates it.
func loadSettings() (*config.Config, error) {
	loader := config.NewLoader("cmdsift")
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// outputManager builds the output manager for one invocation.
func outputManager(cmd *cobra.Command, cfg *config.Config) (*output.Manager, string) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" && cfg.Output != nil {
		format = cfg.Output.Format
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	colors := !noColor
	if cfg.Output != nil && cfg.Output.Color == "never" {
		colors = false
	}

	manager := output.NewManager()
	manager.SetConfig(output.NewFormatConfig().WithColors(colors))
	return manager, format
}
