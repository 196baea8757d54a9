package parser

import "strings"

// Diagnostics carries coverage accounting over the normalized help
// output: which lines looked parseable and which of those a strategy
// actually consumed.
type Diagnostics struct {
	RelevantLines   int
	RecognizedLines int
	Unresolved      []string
	ParsersUsed     []string
}

// Coverage returns the recognized share of relevant lines. Output with
// nothing parseable is fully covered by definition.
func (d Diagnostics) Coverage() float64 {
	if d.RelevantLines == 0 {
		return 1.0
	}
	cov := float64(d.RecognizedLines) / float64(d.RelevantLines)
	return clamp01(cov)
}

// buildDiagnostics classifies every normalized line as relevant or
// not, then matches against the recognized index set.
func buildDiagnostics(lines []indexedLine, recognized map[int]bool, parsersUsed []string, confidence float64) Diagnostics {
	diag := Diagnostics{ParsersUsed: parsersUsed}
	if len(diag.ParsersUsed) == 0 {
		diag.ParsersUsed = []string{"none"}
	}
	switch {
	case confidence >= 0.85:
		diag.ParsersUsed = append(diag.ParsersUsed, "confidence:auto-accept")
	case confidence >= 0.65:
		diag.ParsersUsed = append(diag.ParsersUsed, "confidence:draft")
	default:
		diag.ParsersUsed = append(diag.ParsersUsed, "confidence:reject")
	}

	for _, line := range lines {
		if !isRelevantLine(line.text) {
			continue
		}
		diag.RelevantLines++
		if recognized[line.index] {
			diag.RecognizedLines++
		} else {
			diag.Unresolved = append(diag.Unresolved, strings.TrimSpace(line.text))
		}
	}
	return diag
}

// isRelevantLine decides whether a line carries structure a parser
// should have consumed: usage lines, section headers, flag rows, and
// structured two-column rows.
func isRelevantLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed == "---" {
		return false
	}
	if lineOfDashesRe.MatchString(trimmed) {
		return false
	}
	if isKeybindingRow(trimmed) {
		return false
	}
	if strings.HasPrefix(trimmed, "-<") {
		return false
	}
	if isUsageLine(trimmed) {
		return true
	}
	upper := strings.ToUpper(trimmed)
	if upper == "SYNOPSIS" || strings.HasPrefix(upper, "SYNOPSIS ") {
		return true
	}
	if isSectionHeaderLine(trimmed) {
		return true
	}
	if looksLikeFlagRowStart(trimmed) {
		return true
	}
	if looksLikeStructuredTwoColumn(trimmed) {
		return true
	}
	return looksLikeCommaCommandList(trimmed)
}

func isSectionHeaderLine(trimmed string) bool {
	return detectSectionHeader(trimmed) != sectionNone || looksLikeSubcommandSectionHeader(trimmed)
}

// looksLikeStructuredTwoColumn matches indentation-free structure: a
// plausible name column followed by prose.
func looksLikeStructuredTwoColumn(trimmed string) bool {
	left, right, ok := splitTwoColumns(trimmed)
	if !ok || right == "" {
		return false
	}
	name := strings.TrimSuffix(strings.Fields(left)[0], ",")
	if strings.HasPrefix(name, "-") {
		return true
	}
	return isPlausibleSubcommandName(name)
}

func looksLikeCommaCommandList(trimmed string) bool {
	if !strings.Contains(trimmed, ",") {
		return false
	}
	tokens := strings.Split(trimmed, ",")
	if len(tokens) < 3 {
		return false
	}
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if !isPlausibleSubcommandName(token) {
			return false
		}
	}
	return true
}
