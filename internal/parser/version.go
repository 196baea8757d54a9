package parser

import (
	"strconv"
	"strings"
)

// ExtractVersion scans version or help output for the most plausible
// version string of the named command. It returns "" when no candidate
// clears the acceptance score.
func ExtractVersion(output, command string) string {
	lines := strings.Split(output, "\n")
	bestScore := 0.0
	best := ""

	for lineIdx, line := range lines {
		for _, loc := range versionNumberRe.FindAllStringSubmatchIndex(line, -1) {
			raw := line[loc[2]:loc[3]]
			if rejectVersionCandidate(line, loc[2], raw) {
				continue
			}
			score := scoreVersionCandidate(line, lineIdx, raw, command)
			if score > bestScore {
				bestScore = score
				best = raw
			}
		}
	}
	if bestScore < 0.4 {
		return ""
	}
	return strings.TrimPrefix(best, "v")
}

func scoreVersionCandidate(line string, lineIdx int, raw string, command string) float64 {
	score := 0.3
	lower := strings.ToLower(line)
	if strings.Contains(lower, "version") {
		score += 0.4
	}
	if command != "" && strings.Contains(lower, strings.ToLower(command)) {
		score += 0.2
	}
	if idx := strings.Index(line, raw); idx > 0 && line[idx-1] == 'v' {
		score += 0.1
	}
	if lineIdx < 3 {
		score += 0.1
	}
	if strings.Count(raw, ".") == 2 {
		score += 0.1
	}
	return score
}

// rejectVersionCandidate filters numbers that match the version shape
// but are dates, IP addresses, or path components.
func rejectVersionCandidate(line string, start int, raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) == 2 {
		major, err1 := strconv.Atoi(parts[0])
		minor, err2 := strconv.Atoi(parts[1])
		if err1 == nil && err2 == nil && major >= 1900 && major <= 2100 && minor >= 1 && minor <= 12 {
			return true
		}
	}
	// A fourth dotted octet right after the match means an IP address.
	end := start + len(raw)
	if end < len(line) && line[end] == '.' {
		rest := line[end+1:]
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits > 0 && len(parts) >= 3 {
			return true
		}
	}
	if start > 0 && line[start-1] == '/' {
		return true
	}
	return false
}

// extractBannerVersion looks for a "tool 1.2.3" banner in the first
// lines of help output.
func extractBannerVersion(lines []indexedLine) string {
	for i, line := range lines {
		if i >= 5 {
			break
		}
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" || isUsageLine(trimmed) {
			continue
		}
		if m := bannerVersionRe.FindStringSubmatch(trimmed); m != nil {
			return m[1]
		}
	}
	return ""
}
