// Package helpers holds shared fixtures for end-to-end tests: fake
// executables that answer help probes, and assertions over schemas and
// extraction reports.
package helpers

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// AssertNoError fails the test when err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertErrorContains fails unless err is non-nil and mentions substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error %v does not contain %q", err, substr)
	}
}

// AssertGlobalFlag fails unless the schema carries a global flag whose
// canonical name matches.
func AssertGlobalFlag(t *testing.T, s *schema.CommandSchema, canonical string) {
	t.Helper()
	if s == nil {
		t.Fatal("schema is nil")
	}
	for i := range s.GlobalFlags {
		if s.GlobalFlags[i].CanonicalName() == canonical {
			return
		}
	}
	t.Fatalf("flag %q missing from %q: %+v", canonical, s.Command, s.GlobalFlags)
}

// AssertSubcommand fails unless the schema lists the subcommand, and
// returns it for further checks.
func AssertSubcommand(t *testing.T, s *schema.CommandSchema, name string) *schema.SubcommandSchema {
	t.Helper()
	if s == nil {
		t.Fatal("schema is nil")
	}
	sub := s.FindSubcommand(name)
	if sub == nil {
		t.Fatalf("subcommand %q missing from %q", name, s.Command)
	}
	return sub
}

// AssertAccepted fails unless the report passed the quality policy.
func AssertAccepted(t *testing.T, rep *report.ExtractionReport) {
	t.Helper()
	if rep == nil {
		t.Fatal("report is nil")
	}
	if !rep.Success {
		t.Fatalf("extraction failed: %s (%s)", rep.FailureCode, rep.FailureDetail)
	}
	if !rep.AcceptedForSuggestions {
		t.Fatalf("extraction rejected: %v", rep.QualityReasons)
	}
}

// AssertFailureCode fails unless the report carries the given code.
func AssertFailureCode(t *testing.T, rep *report.ExtractionReport, code report.FailureCode) {
	t.Helper()
	if rep == nil {
		t.Fatal("report is nil")
	}
	if rep.FailureCode != code {
		t.Fatalf("failure code = %q, want %q (detail: %s)", rep.FailureCode, code, rep.FailureDetail)
	}
}

// AssertFileExists fails unless path names an existing file.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

// AssertJSONEqual compares two values by their canonical JSON form.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	want := canonicalJSON(t, expected)
	got := canonicalJSON(t, actual)
	if want != got {
		t.Fatalf("JSON mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func canonicalJSON(t *testing.T, value interface{}) string {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(out)
}
