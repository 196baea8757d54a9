package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

func testConfigNoColor() *FormatConfig {
	return NewFormatConfig().WithColors(false)
}

func TestTableFormatterSupports(t *testing.T) {
	formatter := NewTableFormatter()

	tests := []struct {
		name     string
		data     interface{}
		expected bool
	}{
		{"bundle", &report.Bundle{}, true},
		{"report slice", []report.ExtractionReport{}, true},
		{"single report", report.NewReport("git"), true},
		{"schema", schema.NewCommandSchema("git", schema.SourceHelpCommand), true},
		{"package", &schema.Package{}, true},
		{"string", "plain", false},
		{"map", map[string]string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if formatter.Supports(tt.data) != tt.expected {
				t.Errorf("Expected Supports(%T) to be %v", tt.data, tt.expected)
			}
		})
	}
}

func TestTableFormatterReports(t *testing.T) {
	ok := report.NewReport("git")
	ok.Success = true
	ok.QualityTier = report.TierHigh
	ok.Confidence = 0.91
	ok.Coverage = 0.74
	ok.SelectedFormat = "gnu"

	failed := report.NewReport("ghost")
	failed.Fail(report.FailureNotInstalled, "not on PATH")

	var buf bytes.Buffer
	err := NewTableFormatter().Format(&buf, []report.ExtractionReport{*ok, *failed}, testConfigNoColor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"COMMAND", "git", "high", "0.91", "ghost", "not_installed"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in table:\n%s", want, output)
		}
	}
}

func TestTableFormatterBundleFailureSummary(t *testing.T) {
	failed := report.NewReport("ghost")
	failed.Fail(report.FailureNotInstalled, "not on PATH")

	bundle := report.NewBundle("0.3.0", "2026-08-28T00:00:00Z", []report.ExtractionReport{*failed})

	var buf bytes.Buffer
	if err := NewTableFormatter().Format(&buf, bundle, testConfigNoColor()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "FAILURE") || !strings.Contains(output, "not_installed") {
		t.Errorf("Expected failure summary in output:\n%s", output)
	}
}

func TestTableFormatterReportDetail(t *testing.T) {
	rep := report.NewReport("git")
	rep.Success = true
	rep.QualityTier = report.TierMedium
	rep.DetectedVersion = "2.39.2"
	rep.Warnings = []string{"subcommand recursion budget exhausted"}

	var buf bytes.Buffer
	if err := NewTableFormatter().Format(&buf, rep, testConfigNoColor()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"quality_tier", "medium", "2.39.2", "warnings"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in detail table:\n%s", want, output)
		}
	}
}

func TestTableFormatterSchema(t *testing.T) {
	s := schema.NewCommandSchema("git", schema.SourceHelpCommand)
	s.GlobalFlags = append(s.GlobalFlags,
		schema.BooleanFlag("-v", "--verbose").WithDescription("be verbose"),
		schema.ValueFlag("-C", "--directory", schema.Kind(schema.ValueDirectory)),
	)
	commit := schema.NewSubcommand("commit")
	commit.Description = "Record changes"
	s.Subcommands = append(s.Subcommands, commit)

	var buf bytes.Buffer
	if err := NewTableFormatter().Format(&buf, s, testConfigNoColor()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"--verbose", "be verbose", "directory", "commit", "Record changes"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in schema table:\n%s", want, output)
		}
	}
}

func TestTableFormatterTruncatesLongCells(t *testing.T) {
	s := schema.NewCommandSchema("widget", schema.SourceHelpCommand)
	long := strings.Repeat("description ", 20)
	s.GlobalFlags = append(s.GlobalFlags, schema.BooleanFlag("", "--flag").WithDescription(long))

	var buf bytes.Buffer
	config := testConfigNoColor().WithMaxWidth(20)
	if err := NewTableFormatter().Format(&buf, s, config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "...") {
		t.Error("Expected truncated cell marker")
	}
}

func TestTableFormatterUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTableFormatter().Format(&buf, 42, testConfigNoColor()); err == nil {
		t.Error("Expected error for unsupported type")
	}
}
