package probe

import (
	"strings"

	"github.com/cmdsift/cmdsift/pkg/report"
)

// Rejection reasons recorded on probe attempts.
const (
	RejectEnvironmentBlocked = "environment-blocked"
	RejectOptionError        = "option-error-output"
	RejectNotInstalled       = "not-installed-output"
	RejectNotHelpOutput      = "not-help-output"
)

// IsHelpOutput decides whether captured output reads as a help screen
// rather than an error message or normal program output.
func IsHelpOutput(output string) bool {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) < 30 {
		return false
	}

	lower := strings.ToLower(trimmed)
	score := 0
	for _, marker := range []string{"usage:", "usage ", "synopsis", "options:", "options\n", "flags:", "commands:", "arguments:", "--help"} {
		if strings.Contains(lower, marker) {
			score++
		}
	}

	flagRows := 0
	lines := strings.Split(trimmed, "\n")
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "-") && len(t) > 1 && t[1] != '-' || strings.HasPrefix(t, "--") {
			flagRows++
		}
	}
	if flagRows >= 3 {
		score += 2
	} else if flagRows >= 1 {
		score++
	}

	if len(lines) >= 8 {
		score++
	}
	return score >= 2
}

// ClassifyRejection names why a capture was not accepted as help
// output.
func ClassifyRejection(res Capture) string {
	output, _ := res.Output()
	lower := strings.ToLower(output)

	switch {
	case strings.Contains(lower, "cannot open display") ||
		strings.Contains(lower, "no display") ||
		strings.Contains(lower, "could not connect to") ||
		strings.Contains(lower, "permission denied"):
		return RejectEnvironmentBlocked
	case strings.Contains(lower, "command not found") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "not installed"):
		return RejectNotInstalled
	case looksLikeOptionError(lower):
		return RejectOptionError
	default:
		return RejectNotHelpOutput
	}
}

// looksLikeOptionError matches the short complaint a tool prints when
// it does not understand the probe flag.
func looksLikeOptionError(lower string) bool {
	for _, marker := range []string{
		"unknown option", "invalid option", "unrecognized option",
		"illegal option", "unknown flag", "invalid argument",
		"unexpected argument", "bad option",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// DeriveProbeFailure folds the attempt history into a single failure
// code and a human readable detail. The ladder, strongest signal
// first: every attempt failed to launch, any attempt timed out, any
// output indicates a blocked environment, repeated not-installed
// output, plain rejection.
func DeriveProbeFailure(attempts []report.ProbeAttempt) (report.FailureCode, string) {
	if len(attempts) == 0 {
		return report.FailureNotHelpOutput, "no probe attempts were made"
	}

	launchFailures := 0
	for _, attempt := range attempts {
		if attemptNeverLaunched(attempt) {
			launchFailures++
		}
	}
	if launchFailures == len(attempts) {
		return report.FailureNotInstalled, "command not found on the system"
	}

	for _, attempt := range attempts {
		if attempt.TimedOut {
			return report.FailureTimeout, "a probe attempt timed out without any acceptance"
		}
	}
	for _, attempt := range attempts {
		if attempt.RejectionReason == RejectEnvironmentBlocked {
			return report.FailurePermissionBlocked, "probe output indicates a blocked environment"
		}
	}

	notInstalledHits := 0
	for _, attempt := range attempts {
		if attempt.RejectionReason == RejectNotInstalled {
			notInstalledHits++
		}
	}
	if notInstalledHits >= 2 {
		return report.FailureNotInstalled, "probe output indicates the command is not installed"
	}

	return report.FailureNotHelpOutput, "no probe produced recognizable help output"
}

// attemptNeverLaunched reports whether the child process never ran:
// either the spawn itself errored, or there is no exit code, output,
// error, or timeout at all.
func attemptNeverLaunched(attempt report.ProbeAttempt) bool {
	if strings.Contains(strings.ToLower(attempt.Error), "spawn failed") ||
		strings.Contains(strings.ToLower(attempt.Error), "not found") {
		return true
	}
	return attempt.ExitCode == nil && attempt.OutputLen == 0 && attempt.Error == "" && !attempt.TimedOut
}
