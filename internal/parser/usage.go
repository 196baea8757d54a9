package parser

import (
	"strings"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

// isUsageLine reports whether the line opens a usage synopsis.
func isUsageLine(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "usage:") || strings.HasPrefix(lower, "usage ") ||
		strings.HasPrefix(lower, "synopsis:")
}

// usageIntroPayload strips the "usage:" prefix and the command name,
// leaving the grammar tokens.
func usageIntroPayload(trimmed, command string) string {
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"usage:", "synopsis:", "usage"} {
		if strings.HasPrefix(lower, prefix) {
			trimmed = strings.TrimSpace(trimmed[len(prefix):])
			break
		}
	}
	fields := strings.Fields(trimmed)
	if len(fields) > 0 {
		first := fields[0]
		base := first
		if idx := strings.LastIndexByte(first, '/'); idx >= 0 {
			base = first[idx+1:]
		}
		if command == "" || base == command || strings.HasPrefix(base, command) {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, first))
		}
	}
	return trimmed
}

// isUsageContinuation reports whether an indented line continues a
// multi-line synopsis block.
func isUsageContinuation(line string) bool {
	if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
		return false
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	// Continuations are grammar, not two-column rows.
	if _, right, ok := splitTwoColumns(trimmed); ok && right != "" {
		return false
	}
	return strings.ContainsAny(trimmed, "[]<>|") || strings.HasPrefix(trimmed, "-") ||
		strings.HasPrefix(trimmed, "or:")
}

// collectUsageIndices returns the indices of the synopsis lines: every
// usage opener plus its indented continuations.
func collectUsageIndices(lines []indexedLine) []int {
	var indices []int
	inUsage := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		if isUsageLine(trimmed) {
			indices = append(indices, line.index)
			inUsage = true
			continue
		}
		if inUsage && isUsageContinuation(line.text) {
			indices = append(indices, line.index)
			continue
		}
		inUsage = false
	}
	return indices
}

// collectUsageLikeText joins all synopsis lines into one string for
// grammar scanning.
func collectUsageLikeText(lines []indexedLine, command string) string {
	var parts []string
	byIndex := map[int]indexedLine{}
	for _, line := range lines {
		byIndex[line.index] = line
	}
	for _, idx := range collectUsageIndices(lines) {
		line := byIndex[idx]
		trimmed := strings.TrimSpace(line.text)
		if isUsageLine(trimmed) {
			parts = append(parts, usageIntroPayload(trimmed, command))
		} else {
			parts = append(parts, strings.TrimPrefix(strings.TrimSpace(trimmed), "or: "))
		}
	}
	return strings.Join(parts, " ")
}

// normalizeLongFlagToken cleans a long flag token lifted from usage
// grammar.
func normalizeLongFlagToken(token string) string {
	name, _ := normalizeFlagToken(token)
	if !strings.HasPrefix(name, "--") || len(name) < 3 {
		return ""
	}
	return name
}

// trimValueSuffix removes an attached value marker from a usage token
// and reports whether one was present.
func trimValueSuffix(token string) (string, bool) {
	if idx := strings.IndexAny(token, "=<"); idx > 0 {
		return token[:idx], true
	}
	if idx := strings.Index(token, "["); idx > 0 {
		return token[:idx], true
	}
	return token, false
}

// parseUsageFlagAtom parses one grammar atom like "--color[=WHEN]",
// "-o FILE", or "-v" into a flag.
func parseUsageFlagAtom(atom string) (schema.FlagSchema, bool) {
	atom = strings.TrimSpace(atom)
	if atom == "" || atom[0] != '-' {
		return schema.FlagSchema{}, false
	}
	fields := strings.Fields(atom)
	token, hadValue := trimValueSuffix(fields[0])
	if len(fields) > 1 && !strings.HasPrefix(fields[1], "-") {
		hadValue = true
	}

	var flag schema.FlagSchema
	if strings.HasPrefix(token, "--") {
		name := normalizeLongFlagToken(token)
		if name == "" {
			return schema.FlagSchema{}, false
		}
		flag.Long = name
	} else {
		name, _ := normalizeFlagToken(token)
		if len(name) != 2 {
			return schema.FlagSchema{}, false
		}
		flag.Short = name
	}
	flag.TakesValue = hadValue
	if hadValue {
		flag.ValueType = schema.String()
	} else {
		flag.ValueType = schema.Bool()
	}
	return flag, true
}

// parseUsageCompactFlags extracts flags from synopsis grammar: bracket
// groups, brace alternations like {-v | --version}, inline flag
// references, and compact short clusters like -2CDlNuVv.
func parseUsageCompactFlags(lines []indexedLine, command string) []schema.FlagSchema {
	text := collectUsageLikeText(lines, command)
	if text == "" {
		return nil
	}

	var flags []schema.FlagSchema
	add := func(flag schema.FlagSchema, ok bool) {
		if ok {
			flags = append(flags, flag)
		}
	}

	for _, m := range bracketGroupRe.FindAllStringSubmatch(text, -1) {
		group := m[1]
		for _, alt := range strings.Split(group, "|") {
			alt = strings.TrimSpace(alt)
			if alt == "" {
				continue
			}
			if cluster, ok := expandShortCluster(alt); ok {
				flags = append(flags, cluster...)
				continue
			}
			add(parseUsageFlagAtom(alt))
		}
	}
	for _, m := range braceGroupRe.FindAllStringSubmatch(text, -1) {
		for _, alt := range strings.Split(m[1], "|") {
			add(parseUsageFlagAtom(strings.TrimSpace(alt)))
		}
	}
	for _, m := range inlineLongFlagRe.FindAllStringSubmatch(text, -1) {
		add(parseUsageFlagAtom(m[1]))
	}
	for _, m := range inlineShortFlagRe.FindAllStringSubmatch(text, -1) {
		add(parseUsageFlagAtom(m[1]))
	}
	return flags
}

// expandShortCluster expands a compact bare cluster like "-2CDlNuVv"
// into one boolean flag per character. Two-character tokens are left to
// the atom parser.
func expandShortCluster(token string) ([]schema.FlagSchema, bool) {
	if !strings.HasPrefix(token, "-") || strings.HasPrefix(token, "--") {
		return nil, false
	}
	body := token[1:]
	if len(body) < 3 || strings.ContainsAny(body, "=<[ ") {
		return nil, false
	}
	for _, ch := range body {
		if !isAlphanumericRune(ch) {
			return nil, false
		}
	}
	flags := make([]schema.FlagSchema, 0, len(body))
	for _, ch := range body {
		flags = append(flags, schema.BooleanFlag("-"+string(ch), ""))
	}
	return flags, true
}

// parseUsagePositionals lifts positional placeholders from the
// synopsis, skipping flag atoms and the option sentinel.
func parseUsagePositionals(lines []indexedLine, command string) []schema.ArgSchema {
	text := collectUsageLikeText(lines, command)
	if text == "" {
		return nil
	}
	// Strip bracket groups that hold flags so their payloads do not
	// register as positionals.
	text = bracketGroupRe.ReplaceAllStringFunc(text, func(group string) string {
		inner := strings.Trim(group, "[]")
		if strings.HasPrefix(strings.TrimSpace(inner), "-") {
			return ""
		}
		return group
	})

	var args []schema.ArgSchema
	seen := map[string]bool{}
	for _, token := range strings.Fields(text) {
		if strings.HasPrefix(token, "-") || token == "|" || token == "..." {
			continue
		}
		optional := strings.HasPrefix(token, "[")
		variadic := strings.Contains(token, "...")
		name := strings.Trim(token, "[]<>.")
		name = strings.TrimSuffix(name, "...")
		if name == "" || !looksLikeArgumentPlaceholder(token) && !(strings.HasPrefix(token, "<") || optional) {
			continue
		}
		if !looksLikeArgumentName(name) {
			continue
		}
		lower := strings.ToLower(name)
		if lower == "options" || lower == "option" || lower == "flags" {
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true
		args = append(args, schema.ArgSchema{
			Name:      lower,
			Required:  !optional,
			Multiple:  variadic,
			ValueType: inferArgumentValueType(lower),
		})
	}
	return args
}
