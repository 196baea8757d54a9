package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmdsift/cmdsift/internal/extract"
	"github.com/cmdsift/cmdsift/internal/parser"
	"github.com/cmdsift/cmdsift/internal/probe"
	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

func newParseStdinCmd() *cobra.Command {
	var (
		command    string
		withReport bool
	)

	cmd := &cobra.Command{
		Use:   "parse-stdin --command NAME",
		Short: "Parse pre-captured help text from stdin",
		Long: `Parse help text piped on stdin into a schema without probing any
command. Useful for captured output, tests, and remote help text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runParse(cmd, command, string(input), withReport)
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "Name of the command the help text belongs to")
	cmd.Flags().BoolVar(&withReport, "with-report", false, "Emit the extraction report alongside the schema")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}

func newParseFileCmd() *cobra.Command {
	var (
		command    string
		inputPath  string
		withReport bool
	)

	cmd := &cobra.Command{
		Use:   "parse-file --command NAME --input FILE",
		Short: "Parse pre-captured help text from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			return runParse(cmd, command, string(input), withReport)
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "Name of the command the help text belongs to")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "File holding the captured help text")
	cmd.Flags().BoolVar(&withReport, "with-report", false, "Emit the extraction report alongside the schema")
	_ = cmd.MarkFlagRequired("command")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// runParse parses captured help text and renders the schema, with the
// report attached when requested.
func runParse(cmd *cobra.Command, command, input string, withReport bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	manager, format := outputManager(cmd, cfg)

	if !probe.IsHelpOutput(input) {
		rep := report.NewReport(command)
		rep.Fail(report.FailureNotHelpOutput, "input does not look like help output")
		if withReport {
			if format == "markdown" {
				// reports have no markdown rendering
				format = "json"
			}
			if ferr := manager.Format(os.Stdout, rep, format); ferr != nil {
				return ferr
			}
		}
		return fmt.Errorf("input does not look like help output")
	}

	parsed := parser.New().Parse(command, input)
	rep := buildParseReport(command, parsed)

	options := extract.DefaultOptions()
	if cfg.Policy.MinConfidence != nil {
		options.MinConfidence = *cfg.Policy.MinConfidence
	}
	if cfg.Policy.MinCoverage != nil {
		options.MinCoverage = *cfg.Policy.MinCoverage
	}
	if cfg.Policy.AllowLowQuality != nil {
		options.AllowLowQuality = *cfg.Policy.AllowLowQuality
	}
	extract.Grade(rep, parsed.Schema, options)

	if !withReport {
		if !rep.Success {
			return fmt.Errorf("failed to parse help text for %q: %s", command, rep.FailureDetail)
		}
		return manager.Format(os.Stdout, parsed.Schema, format)
	}

	if format == "table" || format == "markdown" {
		if err := manager.Format(os.Stdout, parsed.Schema, format); err != nil {
			return err
		}
		return manager.Format(os.Stdout, rep, "table")
	}

	document := map[string]interface{}{
		"schema": parsed.Schema,
		"report": rep,
	}
	return manager.Format(os.Stdout, document, format)
}

// buildParseReport fills a report from parse diagnostics alone; no
// probing happened, so probe attempts stay empty.
func buildParseReport(command string, parsed parser.Result) *report.ExtractionReport {
	rep := report.NewReport(command)
	rep.SelectedFormat = parsed.SelectedFormat
	rep.FormatScores = parsed.FormatScores
	rep.ParsersUsed = parsed.ParsersUsed
	rep.Confidence = parsed.Confidence
	rep.Coverage = parsed.Coverage
	rep.RelevantLines = parsed.RelevantLines
	rep.RecognizedLines = parsed.RecognizedLines
	rep.UnresolvedLines = parsed.Unresolved
	rep.DetectedVersion = parsed.Version
	parsed.Schema.Version = parsed.Version

	if errs := schema.ValidateSchema(parsed.Schema); len(errs) > 0 {
		for _, verr := range errs {
			rep.ValidationErrors = append(rep.ValidationErrors, verr.Error())
		}
	}
	return rep
}
