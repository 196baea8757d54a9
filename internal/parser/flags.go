package parser

import (
	"strings"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

// looksLikeFlagRowStart reports whether a trimmed line begins with a
// flag token in any of the recognized shapes.
func looksLikeFlagRowStart(trimmed string) bool {
	if trimmed == "" || trimmed[0] != '-' {
		return false
	}
	return combinedFlagRe.MatchString(trimmed) ||
		longFlagRe.MatchString(trimmed) ||
		singleDashWordFlagRe.MatchString(trimmed) ||
		shortFlagRe.MatchString(trimmed)
}

// splitTwoColumns splits a row at the first run of two or more spaces
// or a tab into a name column and a description column.
func splitTwoColumns(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", "", false
	}
	loc := columnBreakRe.FindStringIndex(trimmed)
	if loc == nil {
		return trimmed, "", false
	}
	left := strings.TrimSpace(trimmed[:loc[0]])
	right := strings.TrimSpace(trimmed[loc[1]:])
	if left == "" {
		return "", "", false
	}
	return left, right, true
}

// splitDashSeparator handles rows that separate the flag column from
// the description with " - " instead of column whitespace.
func splitDashSeparator(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	idx := strings.Index(trimmed, " - ")
	if idx <= 0 {
		return "", "", false
	}
	left := strings.TrimSpace(trimmed[:idx])
	right := strings.TrimSpace(trimmed[idx+3:])
	if left == "" || right == "" {
		return "", "", false
	}
	if !looksLikeFlagRowStart(left) {
		return "", "", false
	}
	return left, right, true
}

// splitPackedOptionEntries splits a single help row that documents
// several unrelated options separated by "; " into one entry each.
func splitPackedOptionEntries(line string) []string {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, ";") || !looksLikeFlagRowStart(trimmed) {
		return []string{line}
	}
	parts := strings.Split(trimmed, ";")
	flagStarts := 0
	for _, part := range parts {
		if looksLikeFlagRowStart(strings.TrimSpace(part)) {
			flagStarts++
		}
	}
	if flagStarts < 2 {
		return []string{line}
	}
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			entries = append(entries, part)
		}
	}
	return entries
}

// normalizeFlagToken strips decorations from a raw flag token: value
// suffixes, "[no-]" optional-negation prefixes, and a trailing
// ellipsis. The returned multiple flag is true when the token carried
// an ellipsis.
func normalizeFlagToken(token string) (string, bool) {
	cleaned := strings.TrimSpace(token)
	cleaned = strings.TrimSuffix(cleaned, ",")

	multiple := false
	if strings.HasSuffix(cleaned, "...") {
		cleaned = strings.TrimSuffix(cleaned, "...")
		multiple = true
	}

	cleaned = strings.Replace(cleaned, "--[no-]", "--", 1)
	cleaned = strings.Replace(cleaned, "--[no]", "--", 1)

	if idx := strings.IndexAny(cleaned, "=[<"); idx > 0 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned), multiple
}

// parseFlagLine parses one help row into a flag schema. It recognizes
// combined short/long forms, long-only, single-dash long words, and
// bare short flags, in that order.
func parseFlagLine(line string) (schema.FlagSchema, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] != '-' {
		return schema.FlagSchema{}, false
	}

	var short, long, rest string

	if m := combinedFlagRe.FindStringSubmatchIndex(trimmed); m != nil {
		short = trimmed[m[2]:m[3]]
		long = trimmed[m[4]:m[5]]
		rest = trimmed[m[5]:]
	} else if m := longFlagRe.FindStringSubmatchIndex(trimmed); m != nil {
		long = trimmed[m[2]:m[3]]
		rest = trimmed[m[3]:]
	} else if m := singleDashWordFlagRe.FindStringSubmatchIndex(trimmed); m != nil {
		long = trimmed[m[2]:m[3]]
		rest = trimmed[m[3]:]
	} else if m := shortFlagRe.FindStringSubmatchIndex(trimmed); m != nil {
		short = trimmed[m[2]:m[3]]
		rest = trimmed[m[3]:]
	} else {
		return schema.FlagSchema{}, false
	}

	var multiple bool
	if long != "" {
		long, multiple = normalizeFlagToken(long)
	}
	if short != "" {
		var shortMultiple bool
		short, shortMultiple = normalizeFlagToken(short)
		multiple = multiple || shortMultiple
	}
	if short == "" && long == "" {
		return schema.FlagSchema{}, false
	}

	takesValue, placeholder := flagValueFromRest(trimmed, rest)
	description := flagDescriptionFromRest(rest)

	flag := schema.FlagSchema{
		Short:       short,
		Long:        long,
		TakesValue:  takesValue,
		Description: description,
		Multiple:    multiple || inferMultipleFlagOccurrences(description),
	}
	if takesValue {
		flag.ValueType = inferValueType(placeholder, description)
	} else {
		flag.ValueType = schema.Bool()
	}
	flag.ConflictsWith, flag.Requires = extractFlagRelationships(description)
	return flag, true
}

// flagValueFromRest checks the flag row for a value placeholder:
// =VALUE, <value>, [value], or a trailing ALLCAPS word right after the
// flag token.
func flagValueFromRest(full, rest string) (bool, string) {
	head := rest
	if left, _, ok := splitTwoColumns(full); ok {
		head = left
		if idx := strings.IndexAny(left, "=<["); idx >= 0 {
			head = left[idx:]
		}
	}
	for _, probe := range []string{head, rest} {
		m := flagWithValueRe.FindStringSubmatch(probe)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			group = strings.TrimSpace(group)
			if group != "" {
				return true, group
			}
		}
	}
	// Bare uppercase placeholder immediately after the flag token.
	fields := strings.Fields(rest)
	if len(fields) > 0 && !strings.HasPrefix(rest, "  ") {
		first := strings.Trim(fields[0], ",")
		if isGoFlagTypeWord(first) {
			return true, first
		}
		if len(first) >= 2 && first == strings.ToUpper(first) && startsAlphanumeric(first) && !strings.HasPrefix(first, "-") {
			allCaps := true
			for _, ch := range first {
				if !(ch >= 'A' && ch <= 'Z' || ch == '_' || ch >= '0' && ch <= '9') {
					allCaps = false
					break
				}
			}
			if allCaps {
				return true, first
			}
		}
	}
	return false, ""
}

// isGoFlagTypeWord matches the lowercase type annotations pflag prints
// after value flags, like "--namespace string".
func isGoFlagTypeWord(word string) bool {
	switch word {
	case "string", "strings", "stringArray", "stringSlice", "stringToString",
		"int", "ints", "intSlice", "int32", "int64", "uint", "uint32", "uint64",
		"float", "float32", "float64", "duration", "bytes", "count", "ip", "ipNet":
		return true
	}
	return false
}

func flagDescriptionFromRest(rest string) string {
	if _, right, ok := splitTwoColumns("x" + rest); ok && right != "" {
		return sanitizeDescriptionText(right)
	}
	trimmed := strings.TrimSpace(rest)
	trimmed = strings.TrimPrefix(trimmed, "=")
	// Drop a leading placeholder token before prose.
	fields := strings.Fields(trimmed)
	if len(fields) > 1 {
		first := strings.Trim(fields[0], "<>[]")
		if first == strings.ToUpper(first) && len(first) >= 2 && startsAlphanumeric(first) {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
		}
	}
	return sanitizeDescriptionText(trimmed)
}

// parseFlagEntriesFromLine splits packed rows and parses each entry.
func parseFlagEntriesFromLine(line string) []schema.FlagSchema {
	var flags []schema.FlagSchema
	for _, entry := range splitPackedOptionEntries(line) {
		if flag, ok := parseFlagLine(entry); ok {
			flags = append(flags, flag)
		}
	}
	return flags
}

// parseCompactShortClusterFlags expands rows like
// "-2CDlNuVv    assorted toggles" or "-a or -A  list entries" into one
// boolean flag per letter.
func parseCompactShortClusterFlags(line string) []schema.FlagSchema {
	left, right, ok := splitTwoColumns(line)
	if !ok {
		return nil
	}
	var flags []schema.FlagSchema
	for _, alt := range strings.Split(left, " or ") {
		alt = strings.TrimSpace(alt)
		if len(alt) < 2 || alt[0] != '-' || strings.HasPrefix(alt, "--") {
			continue
		}
		cluster := alt[1:]
		if len(cluster) < 2 {
			if len(cluster) == 1 && isAlphanumericRune(rune(cluster[0])) {
				flags = append(flags, schema.BooleanFlag("-"+cluster, "").WithDescription(sanitizeDescriptionText(right)))
			}
			continue
		}
		ok := true
		for _, ch := range cluster {
			if !isAlphanumericRune(ch) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, ch := range cluster {
			flags = append(flags, schema.BooleanFlag("-"+string(ch), "").WithDescription(sanitizeDescriptionText(right)))
		}
	}
	return flags
}

// looksLikeCompactOptionRow matches single-letter left columns like
// "a    append mode" from tools that document options without dashes.
func looksLikeCompactOptionRow(line string) bool {
	left, right, ok := splitTwoColumns(line)
	if !ok || right == "" {
		return false
	}
	return len(left) == 1 && isASCIILetter(left[0])
}

func looksLikeSymbolicOptionRow(line string) bool {
	left, right, ok := splitTwoColumns(line)
	if !ok || right == "" {
		return false
	}
	if len(left) != 1 {
		return false
	}
	switch left[0] {
	case '#', '%', '@', '+', '!', '=':
		return true
	}
	return false
}

// parseCompactOptionRowAsFlag promotes a dashless single-letter row
// into a short flag.
func parseCompactOptionRowAsFlag(line string) (schema.FlagSchema, bool) {
	if !looksLikeCompactOptionRow(line) {
		return schema.FlagSchema{}, false
	}
	left, right, _ := splitTwoColumns(line)
	return schema.BooleanFlag("-"+left, "").WithDescription(sanitizeDescriptionText(right)), true
}

// inferMultipleFlagOccurrences detects description phrasing that marks
// a repeatable flag.
func inferMultipleFlagOccurrences(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "multiple times") ||
		strings.Contains(lower, "more than once") ||
		strings.Contains(lower, "repeatable") ||
		strings.Contains(lower, "may be repeated")
}

var conflictKeywords = []string{
	"conflicts with", "conflict with", "cannot be used with",
	"mutually exclusive with", "incompatible with", "overrides",
}

var requireKeywords = []string{
	"requires", "require", "must be used with", "only with",
	"equivalent to specifying both",
}

// extractFlagRelationships scans the description for conflict and
// requirement phrasing and collects the flags referenced after it.
func extractFlagRelationships(description string) (conflicts, requires []string) {
	lower := strings.ToLower(description)
	collect := func(keywords []string) []string {
		var out []string
		seen := map[string]bool{}
		for _, kw := range keywords {
			idx := strings.Index(lower, kw)
			if idx < 0 {
				continue
			}
			tail := description[idx+len(kw):]
			if end := strings.IndexAny(tail, ".;"); end >= 0 {
				tail = tail[:end]
			}
			for _, m := range flagRefRe.FindAllString(tail, -1) {
				name, _ := normalizeFlagToken(m)
				if name != "" && !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
		return out
	}
	return collect(conflictKeywords), collect(requireKeywords)
}

// inferValueType guesses a value type from the placeholder name and
// the surrounding description.
func inferValueType(placeholder, description string) schema.ValueType {
	lower := strings.ToLower(placeholder)
	switch {
	case strings.Contains(lower, "file") || strings.Contains(lower, "path"):
		return schema.ValueType{Kind: schema.ValueFile}
	case strings.Contains(lower, "dir") || strings.Contains(lower, "directory"):
		return schema.ValueType{Kind: schema.ValueDirectory}
	case strings.Contains(lower, "url") || strings.Contains(lower, "uri"):
		return schema.ValueType{Kind: schema.ValueURL}
	case strings.Contains(lower, "number") || strings.Contains(lower, "count") || strings.Contains(lower, "num"):
		return schema.ValueType{Kind: schema.ValueNumber}
	}
	if m := choiceValuesRe.FindStringSubmatch(description); m != nil {
		if values := parseChoiceTokens(m[1]); len(values) >= 2 {
			return schema.Choice(values...)
		}
	}
	return schema.String()
}

// parseChoiceTokens splits a comma or pipe delimited token list into
// clean choice values.
func parseChoiceTokens(list string) []string {
	sep := ","
	if !strings.Contains(list, ",") && strings.Contains(list, "|") {
		sep = "|"
	}
	var values []string
	for _, token := range strings.Split(list, sep) {
		token = strings.TrimSpace(strings.Trim(strings.TrimSpace(token), `"'`))
		if token == "" || strings.ContainsAny(token, " \t") {
			continue
		}
		values = append(values, token)
	}
	return values
}

// applyFlagChoiceHints scans for "Valid arguments for --flag:" tables
// and attaches the listed values to the named flag.
func applyFlagChoiceHints(lines []indexedLine, flags []schema.FlagSchema) {
	for i, line := range lines {
		m := validArgumentsForRe.FindStringSubmatch(strings.TrimSpace(line.text))
		if m == nil {
			continue
		}
		values := collectChoiceBlockValues(lines, i+1)
		if len(values) < 2 {
			continue
		}
		name, _ := normalizeFlagToken(m[1])
		for fi := range flags {
			if flags[fi].Long == name || flags[fi].Short == name {
				flags[fi].ValueType = schema.Choice(values...)
				flags[fi].TakesValue = true
			}
		}
	}
}

// applyChoiceTableHints resolves "PLACEHOLDER is one of the following:"
// tables back to the flag documented with that placeholder.
func applyChoiceTableHints(lines []indexedLine, flags []schema.FlagSchema) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		var placeholder string
		if m := placeholderValuesRe.FindStringSubmatch(trimmed); m != nil {
			placeholder = m[1]
		} else if m := placeholderDeterminesRe.FindStringSubmatch(trimmed); m != nil {
			placeholder = m[1]
		} else {
			continue
		}
		values := collectChoiceBlockValues(lines, i+1)
		if len(values) < 2 {
			continue
		}
		if fi := resolveFlagForPlaceholder(lines, i, placeholder, flags); fi >= 0 {
			flags[fi].ValueType = schema.Choice(values...)
			flags[fi].TakesValue = true
		}
	}
}

// resolveFlagForPlaceholder finds the flag whose row mentions the
// uppercase placeholder, preferring the row closest above the table.
func resolveFlagForPlaceholder(lines []indexedLine, tableIdx int, placeholder string, flags []schema.FlagSchema) int {
	for i := tableIdx; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i].text)
		if !looksLikeFlagRowStart(trimmed) || !strings.Contains(trimmed, placeholder) {
			continue
		}
		flag, ok := parseFlagLine(trimmed)
		if !ok {
			continue
		}
		for fi := range flags {
			if flags[fi].CanonicalName() == flag.CanonicalName() {
				return fi
			}
		}
	}
	return -1
}

// collectChoiceBlockValues reads the indented single-token rows that
// follow a choice table header.
func collectChoiceBlockValues(lines []indexedLine, start int) []string {
	var values []string
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i].text)
		if trimmed == "" {
			if len(values) > 0 {
				break
			}
			continue
		}
		if !strings.HasPrefix(lines[i].text, " ") && !strings.HasPrefix(lines[i].text, "\t") {
			break
		}
		left := trimmed
		if l, _, ok := splitTwoColumns(trimmed); ok {
			left = l
		}
		left = strings.TrimSuffix(left, ",")
		if left == "" || strings.HasPrefix(left, "-") || strings.ContainsAny(left, " \t") {
			break
		}
		values = append(values, left)
	}
	return values
}
