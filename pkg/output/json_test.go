package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cmdsift/cmdsift/pkg/report"
)

func TestJSONFormatterName(t *testing.T) {
	formatter := NewJSONFormatter()
	if formatter.Name() != "json" {
		t.Errorf("Expected name 'json', got '%s'", formatter.Name())
	}
}

func TestJSONFormatterFormat(t *testing.T) {
	formatter := NewJSONFormatter()

	tests := []struct {
		name   string
		data   interface{}
		config *FormatConfig
		check  func(t *testing.T, output string)
	}{
		{
			name:   "pretty map",
			data:   map[string]string{"key": "value"},
			config: NewFormatConfig().WithPretty(true),
			check: func(t *testing.T, output string) {
				var result map[string]string
				if err := json.Unmarshal([]byte(output), &result); err != nil {
					t.Errorf("Failed to unmarshal JSON: %v", err)
				}
				if result["key"] != "value" {
					t.Errorf("Expected key=value, got %v", result)
				}
				if !strings.Contains(output, "\n  ") {
					t.Error("Expected indented output")
				}
			},
		},
		{
			name:   "compact map",
			data:   map[string]string{"key": "value"},
			config: NewFormatConfig().WithCompact(true),
			check: func(t *testing.T, output string) {
				if strings.Contains(strings.TrimRight(output, "\n"), "\n") {
					t.Error("Expected single-line output")
				}
			},
		},
		{
			name:   "nil data",
			data:   nil,
			config: nil,
			check: func(t *testing.T, output string) {
				if output != "null\n" {
					t.Errorf("Expected 'null', got %q", output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := formatter.Format(&buf, tt.data, tt.config); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}

func TestJSONFormatterReport(t *testing.T) {
	rep := report.NewReport("git")
	rep.Success = true
	rep.QualityTier = report.TierHigh
	rep.Confidence = 0.91

	var buf bytes.Buffer
	if err := NewJSONFormatter().Format(&buf, rep, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{`"command": "git"`, `"quality_tier": "high"`, `"confidence": 0.91`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got:\n%s", want, output)
		}
	}
}

func TestJSONFormatterFormatError(t *testing.T) {
	var buf bytes.Buffer
	err := NewJSONFormatter().FormatError(&buf, errors.New("probe timed out"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"success": false`) || !strings.Contains(output, "probe timed out") {
		t.Errorf("Expected error envelope, got:\n%s", output)
	}
}
