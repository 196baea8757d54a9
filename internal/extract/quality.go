package extract

import (
	"fmt"
	"strings"

	"github.com/cmdsift/cmdsift/internal/parser"
	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// High tier requires near-certain parses with most structural lines
// accounted for.
const (
	highTierConfidence = 0.85
	highTierCoverage   = 0.6
)

// Grade applies the acceptance policy to a report built outside the
// probe pipeline, such as pre-captured help text.
func Grade(rep *report.ExtractionReport, s *schema.CommandSchema, options Options) {
	gradeReport(rep, s, options)
}

// gradeReport decides whether a parse counts as an extraction at all,
// then applies the acceptance policy.
//
// A schema with no flags, subcommands, or positionals is a parse
// failure, not a low-quality success; so is one with validation
// errors. Past that gate, a schema below the policy thresholds is
// still a successful extraction and only excluded from suggestion use.
func gradeReport(rep *report.ExtractionReport, s *schema.CommandSchema, options Options) {
	if len(rep.ValidationErrors) > 0 {
		rep.Fail(report.FailureParseFailed, "schema validation failed: "+strings.Join(rep.ValidationErrors, "; "))
		return
	}
	if !schemaHasEntities(s) {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("extracted schema for %q contains no flags, subcommands, or positional arguments", rep.Command))
		if rep.SelectedFormat == parser.FormatUnknown || rep.SelectedFormat == "" {
			rep.Fail(report.FailureNotHelpOutput, "output matched no known help format and produced no entities")
			return
		}
		rep.Fail(report.FailureParseFailed, "parsed schema contains no entities")
		return
	}

	var reasons []string
	if rep.Confidence < options.MinConfidence {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below threshold %.2f", rep.Confidence, options.MinConfidence))
	}
	if rep.Coverage < options.MinCoverage {
		reasons = append(reasons, fmt.Sprintf("coverage %.2f below threshold %.2f", rep.Coverage, options.MinCoverage))
	}

	switch {
	case len(reasons) == 0 &&
		rep.Confidence >= highTierConfidence &&
		rep.Coverage >= highTierCoverage:
		rep.QualityTier = report.TierHigh
	case len(reasons) == 0:
		rep.QualityTier = report.TierMedium
	default:
		rep.QualityTier = report.TierLow
	}

	rep.Success = true
	if rep.QualityTier == report.TierLow && !options.AllowLowQuality {
		rep.AcceptedForSuggestions = false
		rep.QualityReasons = reasons
		rep.FailureCode = report.FailureQualityRejected
		rep.FailureDetail = "schema parsed but was rejected by the quality policy"
		return
	}
	rep.AcceptedForSuggestions = true
	rep.QualityReasons = reasons
}

// schemaHasEntities reports whether the parse recovered anything a
// consumer could act on.
func schemaHasEntities(s *schema.CommandSchema) bool {
	if s == nil {
		return false
	}
	return len(s.GlobalFlags) > 0 || len(s.Subcommands) > 0 || len(s.Positional) > 0
}
