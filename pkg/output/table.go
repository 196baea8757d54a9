package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// TableFormatter renders reports and schemas as tables using pterm.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Supports reports whether the formatter can handle the data type.
func (f *TableFormatter) Supports(data interface{}) bool {
	switch data.(type) {
	case *report.Bundle, []report.ExtractionReport, *report.ExtractionReport,
		*schema.CommandSchema, *schema.Package:
		return true
	}
	return false
}

// Format renders the data as a table and writes it to the writer.
func (f *TableFormatter) Format(w io.Writer, data interface{}, config *FormatConfig) error {
	if config == nil {
		config = NewFormatConfig()
	}

	switch v := data.(type) {
	case *report.Bundle:
		if v == nil {
			return fmt.Errorf("cannot format nil bundle as table")
		}
		if err := f.renderReports(w, v.Reports, config); err != nil {
			return err
		}
		return f.renderFailures(w, v.Failures, config)
	case []report.ExtractionReport:
		return f.renderReports(w, v, config)
	case *report.ExtractionReport:
		if v == nil {
			return fmt.Errorf("cannot format nil report as table")
		}
		return f.renderReportDetail(w, v, config)
	case *schema.CommandSchema:
		if v == nil {
			return fmt.Errorf("cannot format nil schema as table")
		}
		return f.renderSchema(w, v, config)
	case *schema.Package:
		if v == nil {
			return fmt.Errorf("cannot format nil package as table")
		}
		return f.renderPackage(w, v, config)
	}
	return fmt.Errorf("unsupported data type for table formatting: %T", data)
}

// renderReports renders one summary row per report.
func (f *TableFormatter) renderReports(w io.Writer, reports []report.ExtractionReport, config *FormatConfig) error {
	tableData := make([][]string, 0, len(reports)+1)
	if config.ShowHeaders {
		tableData = append(tableData, []string{"COMMAND", "TIER", "CONFIDENCE", "COVERAGE", "FORMAT", "FAILURE"})
	}

	for i := range reports {
		rep := &reports[i]
		tableData = append(tableData, []string{
			rep.Command,
			string(rep.QualityTier),
			fmt.Sprintf("%.2f", rep.Confidence),
			fmt.Sprintf("%.2f", rep.Coverage),
			rep.SelectedFormat,
			truncate(string(rep.FailureCode), config.MaxWidth),
		})
	}

	return f.render(w, tableData, config)
}

// renderReportDetail renders a single report as a key-value table.
func (f *TableFormatter) renderReportDetail(w io.Writer, rep *report.ExtractionReport, config *FormatConfig) error {
	rows := [][]string{
		{"command", rep.Command},
		{"success", fmt.Sprintf("%t", rep.Success)},
		{"accepted", fmt.Sprintf("%t", rep.AcceptedForSuggestions)},
		{"quality_tier", string(rep.QualityTier)},
		{"confidence", fmt.Sprintf("%.2f", rep.Confidence)},
		{"coverage", fmt.Sprintf("%.2f", rep.Coverage)},
		{"selected_format", rep.SelectedFormat},
		{"parsers_used", strings.Join(rep.ParsersUsed, ", ")},
		{"probe_attempts", fmt.Sprintf("%d", len(rep.ProbeAttempts))},
	}
	if rep.ResolvedExecutablePath != "" {
		rows = append(rows, []string{"executable", rep.ResolvedExecutablePath})
	}
	if rep.DetectedVersion != "" {
		rows = append(rows, []string{"version", rep.DetectedVersion})
	}
	if rep.FailureCode != "" {
		rows = append(rows, []string{"failure_code", string(rep.FailureCode)})
	}
	if rep.FailureDetail != "" {
		rows = append(rows, []string{"failure_detail", truncate(rep.FailureDetail, config.MaxWidth)})
	}
	if len(rep.QualityReasons) > 0 {
		rows = append(rows, []string{"quality_reasons", truncate(strings.Join(rep.QualityReasons, "; "), config.MaxWidth)})
	}
	if len(rep.Warnings) > 0 {
		rows = append(rows, []string{"warnings", truncate(strings.Join(rep.Warnings, "; "), config.MaxWidth)})
	}

	tableData := make([][]string, 0, len(rows)+1)
	if config.ShowHeaders {
		tableData = append(tableData, []string{"FIELD", "VALUE"})
	}
	tableData = append(tableData, rows...)

	return f.render(w, tableData, config)
}

// renderSchema renders the flags and subcommands of one schema.
func (f *TableFormatter) renderSchema(w io.Writer, s *schema.CommandSchema, config *FormatConfig) error {
	if len(s.GlobalFlags) > 0 {
		tableData := [][]string{}
		if config.ShowHeaders {
			tableData = append(tableData, []string{"FLAG", "SHORT", "VALUE", "DESCRIPTION"})
		}
		for i := range s.GlobalFlags {
			fl := &s.GlobalFlags[i]
			value := ""
			if fl.TakesValue {
				value = string(fl.ValueType.Kind)
			}
			tableData = append(tableData, []string{
				fl.Long, fl.Short, value, truncate(fl.Description, config.MaxWidth),
			})
		}
		if err := f.render(w, tableData, config); err != nil {
			return err
		}
	}

	if len(s.Subcommands) > 0 {
		tableData := [][]string{}
		if config.ShowHeaders {
			tableData = append(tableData, []string{"SUBCOMMAND", "FLAGS", "DESCRIPTION"})
		}
		for i := range s.Subcommands {
			sub := &s.Subcommands[i]
			tableData = append(tableData, []string{
				sub.Name,
				fmt.Sprintf("%d", len(sub.Flags)),
				truncate(sub.Description, config.MaxWidth),
			})
		}
		return f.render(w, tableData, config)
	}

	if len(s.GlobalFlags) == 0 {
		_, err := fmt.Fprintf(w, "%s: no flags or subcommands\n", s.Command)
		return err
	}
	return nil
}

// renderPackage renders a one-row-per-schema package summary.
func (f *TableFormatter) renderPackage(w io.Writer, pkg *schema.Package, config *FormatConfig) error {
	tableData := [][]string{}
	if config.ShowHeaders {
		tableData = append(tableData, []string{"COMMAND", "FLAGS", "SUBCOMMANDS", "VERSION"})
	}
	for i := range pkg.Schemas {
		s := &pkg.Schemas[i]
		tableData = append(tableData, []string{
			s.Command,
			fmt.Sprintf("%d", len(s.GlobalFlags)),
			fmt.Sprintf("%d", len(s.Subcommands)),
			s.Version,
		})
	}
	return f.render(w, tableData, config)
}

// renderFailures renders a bundle's failure summary, sorted by code.
func (f *TableFormatter) renderFailures(w io.Writer, failures map[string]int, config *FormatConfig) error {
	if len(failures) == 0 {
		return nil
	}

	codes := make([]string, 0, len(failures))
	for code := range failures {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	tableData := [][]string{}
	if config.ShowHeaders {
		tableData = append(tableData, []string{"FAILURE", "COUNT"})
	}
	for _, code := range codes {
		tableData = append(tableData, []string{code, fmt.Sprintf("%d", failures[code])})
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return f.render(w, tableData, config)
}

func (f *TableFormatter) render(w io.Writer, tableData [][]string, config *FormatConfig) error {
	if len(tableData) == 0 {
		return nil
	}

	table := pterm.DefaultTable.WithHasHeader(config.ShowHeaders)
	if config.Colors {
		table = table.WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold))
	} else {
		pterm.DisableColor()
		defer pterm.EnableColor()
	}

	rendered, err := table.WithData(tableData).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = w.Write([]byte(rendered))
	return err
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
