package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cmdsift/cmdsift/pkg/report"
)

func TestYAMLFormatterName(t *testing.T) {
	formatter := NewYAMLFormatter()
	if formatter.Name() != "yaml" {
		t.Errorf("Expected name 'yaml', got '%s'", formatter.Name())
	}
}

func TestYAMLFormatterFormat(t *testing.T) {
	formatter := NewYAMLFormatter()

	var buf bytes.Buffer
	data := map[string]interface{}{
		"command":    "git",
		"confidence": 0.85,
	}
	if err := formatter.Format(&buf, data, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "command: git") {
		t.Errorf("Expected 'command: git' in output:\n%s", output)
	}
	if !strings.Contains(output, "confidence: 0.85") {
		t.Errorf("Expected 'confidence: 0.85' in output:\n%s", output)
	}
}

func TestYAMLFormatterNil(t *testing.T) {
	var buf bytes.Buffer
	if err := NewYAMLFormatter().Format(&buf, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "null\n" {
		t.Errorf("Expected 'null', got %q", buf.String())
	}
}

func TestYAMLFormatterReport(t *testing.T) {
	rep := report.NewReport("tar")
	rep.Fail(report.FailureTimeout, "probe timed out")

	var buf bytes.Buffer
	if err := NewYAMLFormatter().Format(&buf, rep, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "failure_code: timeout") {
		t.Errorf("Expected snake_case failure code in output:\n%s", output)
	}
}
