package parser

import (
	"regexp"
	"strings"
)

var (
	ansiEscapeRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	overstrikeRe = regexp.MustCompile(`.\x08`)
)

// indexedLine is one normalized line together with its index in the
// normalized output. Coverage accounting is keyed on these indices.
type indexedLine struct {
	index int
	text  string
}

// normalizeHelpOutput strips ANSI escapes and backspace overstrike,
// unifies line endings, and joins wrapped continuation lines back onto
// the flag or subcommand row they belong to.
func normalizeHelpOutput(raw string) string {
	cleaned := ansiEscapeRe.ReplaceAllString(raw, "")
	for overstrikeRe.MatchString(cleaned) {
		cleaned = overstrikeRe.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")

	var normalized []string
	for _, line := range strings.Split(cleaned, "\n") {
		trimmedEnd := strings.TrimRight(line, " \t")
		trimmedStart := strings.TrimLeft(trimmedEnd, " \t")

		if trimmedEnd == "" {
			normalized = append(normalized, "")
			continue
		}

		if len(normalized) > 0 && strings.HasPrefix(line, " ") && !strings.HasSuffix(trimmedStart, ":") {
			prev := strings.TrimSpace(normalized[len(normalized)-1])
			prevIsFlag := looksLikeFlagRowStart(prev)
			prevIsTwoColumnSubcommand := false
			if left, _, ok := splitTwoColumns(prev); ok {
				prevIsTwoColumnSubcommand = !strings.HasPrefix(left, "-") && startsAlphanumeric(left)
			}
			startsNewFlagRow := looksLikeFlagRowStart(trimmedStart)
			looksLikeSubcommand := looksLikeSubcommandEntry(trimmedStart)

			wrapped := (prevIsFlag || prevIsTwoColumnSubcommand) &&
				prev != "" &&
				(!strings.HasSuffix(prev, ":") || prevIsFlag) &&
				(!looksLikeSubcommand || prevIsFlag) &&
				!startsNewFlagRow
			if wrapped {
				normalized[len(normalized)-1] += " " + trimmedStart
				continue
			}
		}

		normalized = append(normalized, trimmedEnd)
	}

	return strings.Join(normalized, "\n")
}

func toIndexedLines(normalized string) []indexedLine {
	raw := strings.Split(normalized, "\n")
	lines := make([]indexedLine, len(raw))
	for i, text := range raw {
		lines[i] = indexedLine{index: i, text: text}
	}
	return lines
}

func startsAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	ch := s[0]
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}
