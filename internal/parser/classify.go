package parser

import (
	"sort"
	"strings"

	"github.com/cmdsift/cmdsift/pkg/report"
)

// Help format labels used in format score tables and reports.
const (
	FormatClap     = "clap"
	FormatCobra    = "cobra"
	FormatGnu      = "gnu"
	FormatArgparse = "argparse"
	FormatDocopt   = "docopt"
	FormatBsd      = "bsd"
	FormatMan      = "man"
	FormatUnknown  = "unknown"
)

// classifyFormats scores the help output against known format markers
// and returns the score table sorted descending.
func classifyFormats(lines []string) []report.FormatScore {
	output := strings.Join(lines, "\n")

	scores := []report.FormatScore{
		{Format: FormatClap, Score: scoreClap(output)},
		{Format: FormatCobra, Score: scoreCobra(output)},
		{Format: FormatGnu, Score: scoreGnu(output, lines)},
		{Format: FormatArgparse, Score: scoreArgparse(output)},
		{Format: FormatDocopt, Score: scoreDocopt(output)},
		{Format: FormatBsd, Score: scoreBsd(output)},
		{Format: FormatMan, Score: scoreMan(lines)},
		{Format: FormatUnknown, Score: 0.05},
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

func scoreClap(output string) float64 {
	var s float64
	if strings.Contains(output, "USAGE:") {
		s += 0.35
	}
	if strings.Contains(output, "FLAGS:") {
		s += 0.25
	}
	if strings.Contains(output, "OPTIONS:") {
		s += 0.2
	}
	if strings.Contains(output, "SUBCOMMANDS:") || strings.Contains(output, "Commands:") {
		s += 0.2
	}
	return s
}

func scoreCobra(output string) float64 {
	var s float64
	if strings.Contains(output, "Available Commands:") {
		s += 0.5
	}
	if strings.Contains(output, `Use "`) && strings.Contains(output, "--help") {
		s += 0.35
	}
	if strings.Contains(output, "Flags:") {
		s += 0.15
	}
	return s
}

func scoreGnu(output string, lines []string) float64 {
	var s float64
	if strings.Contains(output, "Usage:") {
		s += 0.25
	}
	if strings.Contains(output, "--help") {
		s += 0.2
	}
	if strings.Contains(output, "--version") {
		s += 0.2
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "-") {
			s += 0.2
			break
		}
	}
	return s
}

func scoreArgparse(output string) float64 {
	var s float64
	if strings.Contains(output, "positional arguments:") {
		s += 0.45
	}
	if strings.Contains(output, "optional arguments:") {
		s += 0.45
	}
	return s
}

func scoreDocopt(output string) float64 {
	if strings.HasPrefix(output, "Usage:") {
		return 0.75
	}
	return 0
}

func scoreBsd(output string) float64 {
	if strings.Contains(output, "SYNOPSIS") || strings.Contains(output, "DESCRIPTION") {
		return 0.45
	}
	return 0
}

func scoreMan(lines []string) float64 {
	rawMacroCount := 0
	for i, line := range lines {
		if i >= 20 {
			break
		}
		if isRoffMacroLine(line) {
			rawMacroCount++
		}
	}

	var score float64
	switch {
	case rawMacroCount >= 3:
		score = 0.95
	case rawMacroCount >= 2:
		score = 0.90
	}
	if score > 0 {
		for _, line := range lines {
			lower := strings.ToLower(line)
			if strings.HasPrefix(lower, ".dt ") || strings.HasPrefix(lower, ".dd ") {
				score += 0.05
				break
			}
		}
		for _, line := range lines {
			lower := strings.ToLower(line)
			if strings.HasPrefix(lower, ".th ") || strings.HasPrefix(lower, ".tp") {
				score += 0.05
				break
			}
		}
		return clamp01(score)
	}

	renderedHeaderHits := 0
	for i, line := range lines {
		if i >= 12 {
			break
		}
		if looksLikeManTitleLine(strings.TrimSpace(line)) {
			renderedHeaderHits++
		}
	}
	sectionHits := 0
	for _, line := range lines {
		if isRenderedManSectionHeader(strings.TrimSpace(line)) {
			sectionHits++
		}
	}

	if renderedHeaderHits > 0 {
		score += 0.80
	}
	if sectionHits > 4 {
		sectionHits = 4
	}
	score += float64(sectionHits) * 0.10
	return clamp01(score)
}

func isRoffMacroLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) < 3 {
		return false
	}
	if trimmed[0] != '.' && trimmed[0] != '\'' {
		return false
	}
	return isASCIILetter(trimmed[1]) && isASCIILetter(trimmed[2])
}

// looksLikeManTitleLine reports whether the line starts with a rendered
// man page title token like "GIT-REBASE(1)" or "STAT(1)".
func looksLikeManTitleLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	first := strings.Fields(trimmed)[0]
	if !strings.HasSuffix(first, ")") {
		return false
	}
	parenIdx := strings.LastIndexByte(first, '(')
	if parenIdx <= 0 {
		return false
	}
	name := first[:parenIdx]
	section := first[parenIdx+1 : len(first)-1]
	if name == "" || section == "" {
		return false
	}
	for _, ch := range name {
		if !isAlphanumericRune(ch) && ch != '-' && ch != '_' && ch != '.' && ch != '+' {
			return false
		}
	}
	for _, ch := range section {
		if !isAlphanumericRune(ch) {
			return false
		}
	}
	return true
}

var manSectionNames = map[string]bool{
	"NAME": true, "SYNOPSIS": true, "DESCRIPTION": true, "OPTIONS": true,
	"EXIT STATUS": true, "ENVIRONMENT": true, "FILES": true, "EXAMPLES": true,
	"SEE ALSO": true, "AUTHOR": true, "BUGS": true, "COMMANDS": true,
}

func isRenderedManSectionHeader(trimmed string) bool {
	return manSectionNames[trimmed]
}

// isPlaceholderToken reports whether text is a common usage placeholder
// (COMMAND, FILE, ARG and friends) rather than a real name.
func isPlaceholderToken(text string) bool {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "COMMAND", "FILE", "PATH", "URL", "ARG", "OPTION", "SUBCOMMAND", "CMD", "ARGS", "OPTIONS":
		return true
	}
	return false
}

// isEnvVarRow reports whether the line looks like an environment
// variable assignment row (export FOO=bar, MY_VAR=value).
func isEnvVarRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "export ") {
		return true
	}
	left, _, found := strings.Cut(trimmed, "=")
	if !found {
		return false
	}
	key := strings.TrimSpace(left)
	if key == "" {
		return false
	}
	for _, ch := range key {
		if !(ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_') {
			return false
		}
	}
	return true
}

// isKeybindingRow reports whether the line describes a key chord
// rather than a command. Chord syntax (Ctrl+X, ^X, Esc-x) matches
// anywhere; bare key names match only as the capitalized leading
// token, so commands that happen to be named delete or backspace-word
// survive.
func isKeybindingRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "ctrl+") || strings.Contains(lower, "esc-") {
		return true
	}

	fields := strings.Fields(trimmed)
	for _, field := range fields {
		if len(field) >= 2 && len(field) <= 4 && field[0] == '^' {
			return true
		}
	}

	switch strings.TrimRight(fields[0], ",:") {
	case "Arrow", "Backspace", "Delete", "Del", "Insert", "Home", "End",
		"PgUp", "PgDn", "PageUp", "PageDown", "Enter", "Return", "Tab",
		"Esc", "Escape", "Space", "Up", "Down", "Left", "Right":
		return true
	}
	return false
}

// isProseHeader reports whether the line is a table column header
// ("name  description" and friends) rather than data.
func isProseHeader(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "name  description", "name description",
		"command  description", "command description",
		"option  description", "option description":
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isASCIILetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isAlphanumericRune(ch rune) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}
