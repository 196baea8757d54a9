// Package report defines the extraction report model.
//
// Every extraction attempt produces exactly one ExtractionReport, whether
// or not it yielded a schema. Reports carry the probe trail, the format
// score table, parser diagnostics, and the quality verdict, and are the
// unit consumers use to decide whether a schema is trustworthy.
package report

import "github.com/cmdsift/cmdsift/pkg/schema"

// FailureCode is the closed set of extraction failure classes.
type FailureCode string

// Failure codes, ordered roughly by how early in the pipeline they occur.
const (
	FailureNotInstalled      FailureCode = "not_installed"
	FailurePermissionBlocked FailureCode = "permission_blocked"
	FailureTimeout           FailureCode = "timeout"
	FailureNotHelpOutput     FailureCode = "not_help_output"
	FailureParseFailed       FailureCode = "parse_failed"
	FailureQualityRejected   FailureCode = "quality_rejected"
)

// QualityTier grades how trustworthy an extracted schema is.
type QualityTier string

// Quality tiers, best first.
const (
	TierHigh   QualityTier = "high"
	TierMedium QualityTier = "medium"
	TierLow    QualityTier = "low"
	TierFailed QualityTier = "failed"
)

// Rank orders tiers for comparison; higher is better.
func (t QualityTier) Rank() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// OutputSource names which stream the accepted help text came from.
type OutputSource string

// Output sources.
const (
	SourceStdout OutputSource = "stdout"
	SourceStderr OutputSource = "stderr"
)

// ProbeAttempt records one help invocation attempt against a command.
type ProbeAttempt struct {
	// Help flag or probe label that was tried (e.g. "--help", "man")
	HelpFlag string `json:"help_flag" yaml:"help_flag"`
	// Full argv of the attempt
	Argv []string `json:"argv" yaml:"argv"`
	// Exit code, absent when the process never ran
	ExitCode *int `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	// Whether the attempt hit the per-attempt timeout
	TimedOut bool `json:"timed_out" yaml:"timed_out"`
	// Spawn or wait error, if any
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Why the output was rejected as help text, if it was
	RejectionReason string `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
	// Which stream supplied the candidate output
	OutputSource OutputSource `json:"output_source,omitempty" yaml:"output_source,omitempty"`
	// Byte length of the candidate output
	OutputLen int `json:"output_len" yaml:"output_len"`
	// First non-empty line, truncated to 160 characters
	OutputPreview string `json:"output_preview,omitempty" yaml:"output_preview,omitempty"`
	// Whether this attempt produced the accepted help text
	Accepted bool `json:"accepted" yaml:"accepted"`
}

// FormatScore is one row of the format score table.
type FormatScore struct {
	Format string  `json:"format" yaml:"format"`
	Score  float64 `json:"score" yaml:"score"`
}

// ExtractionReport is the full record of one extraction attempt.
type ExtractionReport struct {
	// Command as requested (basename)
	Command string `json:"command" yaml:"command"`
	// Resolved executable path, when resolution succeeded
	ResolvedExecutablePath string `json:"resolved_executable_path,omitempty" yaml:"resolved_executable_path,omitempty"`
	// Whether the pipeline completed without a hard failure
	Success bool `json:"success" yaml:"success"`
	// Whether the schema passed the quality policy
	AcceptedForSuggestions bool `json:"accepted_for_suggestions" yaml:"accepted_for_suggestions"`
	// Quality grade for the extracted schema
	QualityTier QualityTier `json:"quality_tier" yaml:"quality_tier"`
	// Which policy criteria failed, empty when accepted
	QualityReasons []string `json:"quality_reasons,omitempty" yaml:"quality_reasons,omitempty"`
	// Failure class, absent on acceptance
	FailureCode FailureCode `json:"failure_code,omitempty" yaml:"failure_code,omitempty"`
	// Human-readable failure detail
	FailureDetail string `json:"failure_detail,omitempty" yaml:"failure_detail,omitempty"`
	// Version string detected from the binary, when any
	DetectedVersion string `json:"detected_version,omitempty" yaml:"detected_version,omitempty"`
	// Winning help format label
	SelectedFormat string `json:"selected_format,omitempty" yaml:"selected_format,omitempty"`
	// Full format score table, sorted descending
	FormatScores []FormatScore `json:"format_scores,omitempty" yaml:"format_scores,omitempty"`
	// Parse strategies that contributed, plus the confidence verdict
	ParsersUsed []string `json:"parsers_used" yaml:"parsers_used"`
	// Schema confidence in [0, 1]
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// recognized_lines / relevant_lines; 1.0 when nothing was relevant
	Coverage float64 `json:"coverage" yaml:"coverage"`
	// Structural lines the parser should have handled
	RelevantLines int `json:"relevant_lines" yaml:"relevant_lines"`
	// Structural lines a strategy actually claimed
	RecognizedLines int `json:"recognized_lines" yaml:"recognized_lines"`
	// Relevant lines no strategy claimed, verbatim
	UnresolvedLines []string `json:"unresolved_lines,omitempty" yaml:"unresolved_lines,omitempty"`
	// Probe trail in the order attempted
	ProbeAttempts []ProbeAttempt `json:"probe_attempts" yaml:"probe_attempts"`
	// Parser warnings
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// Schema validation errors, rendered
	ValidationErrors []string `json:"validation_errors,omitempty" yaml:"validation_errors,omitempty"`
}

// NewReport creates a report for the given command with the failed tier
// preset; the pipeline upgrades it as stages succeed.
func NewReport(command string) *ExtractionReport {
	return &ExtractionReport{
		Command:       command,
		QualityTier:   TierFailed,
		ParsersUsed:   []string{},
		ProbeAttempts: []ProbeAttempt{},
	}
}

// Fail marks the report as failed with the given code and detail.
func (r *ExtractionReport) Fail(code FailureCode, detail string) {
	r.Success = false
	r.AcceptedForSuggestions = false
	r.QualityTier = TierFailed
	r.FailureCode = code
	r.FailureDetail = detail
}

// Bundle aggregates reports for a whole batch run.
type Bundle struct {
	// Schema contract version
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`
	// ISO-8601 timestamp for bundle creation
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	// Tool version that produced the bundle
	Version string `json:"version" yaml:"version"`
	// Per-command reports, sorted by command name
	Reports []ExtractionReport `json:"reports" yaml:"reports"`
	// failure_code -> count over all reports
	Failures map[string]int `json:"failures" yaml:"failures"`
}

// NewBundle assembles a bundle from reports, computing the failure
// summary. Reports are expected to be pre-sorted by command.
func NewBundle(version, generatedAt string, reports []ExtractionReport) *Bundle {
	failures := make(map[string]int)
	for i := range reports {
		if reports[i].FailureCode != "" {
			failures[string(reports[i].FailureCode)]++
		}
	}
	return &Bundle{
		SchemaVersion: schema.ContractVersion,
		GeneratedAt:   generatedAt,
		Version:       version,
		Reports:       reports,
		Failures:      failures,
	}
}
