package parser

import (
	"strings"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

// isValidCommandName accepts lowercase identifiers with internal
// dashes, underscores, dots, or colons, rejecting placeholders.
func isValidCommandName(name string) bool {
	if name == "" || len(name) > 40 {
		return false
	}
	first := name[0]
	if !(first >= 'a' && first <= 'z' || first >= '0' && first <= '9') {
		return false
	}
	for _, ch := range name {
		if !(ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' || ch == '-' || ch == '_' || ch == '.' || ch == ':' || ch == '+') {
			return false
		}
	}
	return !isPlaceholderKeyword(name)
}

// isPlausibleSubcommandName applies the stricter rules used outside
// declared command sections, where false positives are costlier.
func isPlausibleSubcommandName(name string) bool {
	if !isValidCommandName(name) {
		return false
	}
	if len(name) < 2 {
		return false
	}
	return !looksLikeNonCommandValueToken(name)
}

// looksLikePlaceholderSubcommandToken matches grammar placeholders that
// sometimes land in command columns, like "<command>" or "COMMAND".
func looksLikePlaceholderSubcommandToken(token string) bool {
	if strings.HasPrefix(token, "<") || strings.HasPrefix(token, "[") {
		return true
	}
	return isPlaceholderToken(token)
}

// looksLikeNonCommandValueToken filters tokens that read as data values
// rather than command names: sizes, durations, pure numbers, version
// strings.
func looksLikeNonCommandValueToken(token string) bool {
	if versionNumberRe.MatchString(token) {
		return true
	}
	digits := 0
	for _, ch := range token {
		if ch >= '0' && ch <= '9' {
			digits++
		}
	}
	if digits > 0 && digits >= len(token)-1 {
		return true
	}
	switch token {
	case "true", "false", "yes", "no", "on", "off", "auto", "always", "never", "none":
		return true
	}
	return false
}

// isNonCommandBlockHeader matches sub-headers inside command listings
// that introduce something other than commands.
func isNonCommandBlockHeader(trimmed string) bool {
	lower := strings.ToLower(strings.TrimSuffix(trimmed, ":"))
	switch lower {
	case "examples", "example", "environment", "environment variables",
		"files", "notes", "see also", "learn more", "aliases",
		"configuration", "exit status", "exit codes":
		return true
	}
	return strings.HasSuffix(trimmed, ":") && !looksLikeSubcommandSectionHeader(trimmed) &&
		detectSectionHeader(trimmed) == sectionNone &&
		len(strings.Fields(trimmed)) > 3
}

// blockLooksLikeKeybindingTable reports whether a candidate command
// block is dominated by keybinding rows.
func blockLooksLikeKeybindingTable(body []indexedLine) bool {
	rows, hits := 0, 0
	for _, line := range body {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		rows++
		if isKeybindingRow(trimmed) {
			hits++
		}
	}
	return rows > 0 && hits*2 >= rows
}

// looksLikeKeybindingDocument reports whether the whole output reads as
// pager or editor keybinding help rather than a command surface.
func looksLikeKeybindingDocument(lines []indexedLine) bool {
	rows, hits := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		rows++
		if isKeybindingRow(trimmed) {
			hits++
		}
	}
	return rows >= 10 && hits*3 >= rows
}

// isSubcommandNameColumn checks a two-column block's left columns for a
// consistent command-name shape.
func isSubcommandNameColumn(body []indexedLine) bool {
	rows, valid := 0, 0
	for _, line := range body {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		left, right, ok := splitTwoColumns(trimmed)
		if !ok || right == "" {
			continue
		}
		rows++
		name := strings.TrimSuffix(strings.Fields(left)[0], ",")
		if isPlausibleSubcommandName(name) {
			valid++
		}
	}
	return rows >= 2 && valid*4 >= rows*3
}

// parseTwoColumnSubcommands finds unlabeled indented two-column blocks
// whose left columns look like command names, as printed by tools that
// list commands without a section header.
func parseTwoColumnSubcommands(lines []indexedLine) ([]schema.SubcommandSchema, []int) {
	var subs []schema.SubcommandSchema
	var recognized []int

	var block []indexedLine
	introIsValueTable := false
	flush := func() {
		if !introIsValueTable && len(block) >= 2 && isSubcommandNameColumn(block) && !blockLooksLikeKeybindingTable(block) {
			parsed, rec := parseSectionSubcommands(block, "")
			subs = append(subs, parsed...)
			recognized = append(recognized, rec...)
		}
		block = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		indented := strings.HasPrefix(line.text, " ") || strings.HasPrefix(line.text, "\t")
		if trimmed == "" || !indented || trimmed[0] == '-' {
			flush()
			if trimmed != "" && !indented {
				introIsValueTable = looksLikeValueTableIntro(trimmed)
			}
			continue
		}
		left, right, ok := splitTwoColumns(trimmed)
		if !ok || right == "" || looksLikePlaceholderSubcommandToken(left) {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()
	return subs, recognized
}

// looksLikeValueTableIntro matches headers that introduce a table of
// flag values rather than commands.
func looksLikeValueTableIntro(trimmed string) bool {
	return validArgumentsForRe.MatchString(trimmed) ||
		placeholderValuesRe.MatchString(trimmed) ||
		placeholderDeterminesRe.MatchString(trimmed) ||
		genericValuesHeaderRe.MatchString(trimmed)
}

// parseDenseCommandGridSubcommands handles multi-column name grids such
// as git's "add  branch  checkout ..." listings under a commands
// header. primary reports whether the grid sat under an explicit
// commands header.
func parseDenseCommandGridSubcommands(lines []indexedLine) (subs []schema.SubcommandSchema, recognized []int, primary bool) {
	inGrid := false
	seen := map[string]bool{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		if looksLikeSubcommandSectionHeader(trimmed) {
			inGrid = true
			primary = true
			continue
		}
		if !strings.HasPrefix(line.text, " ") && !strings.HasPrefix(line.text, "\t") {
			inGrid = false
			continue
		}
		if !inGrid {
			continue
		}
		names, ok := parseCommandListRow(trimmed)
		if !ok {
			inGrid = false
			continue
		}
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				subs = append(subs, schema.NewSubcommand(name))
			}
		}
		recognized = append(recognized, line.index)
	}
	return subs, recognized, primary
}

// parseNpmStyleCommands handles the "All commands:" comma-separated
// paragraph npm prints.
func parseNpmStyleCommands(lines []indexedLine) ([]schema.SubcommandSchema, []int) {
	var subs []schema.SubcommandSchema
	var recognized []int
	seen := map[string]bool{}

	inList := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			// Blank lines separate the header from the list.
			continue
		}
		if strings.EqualFold(trimmed, "all commands:") {
			inList = true
			recognized = append(recognized, line.index)
			continue
		}
		if !inList {
			continue
		}
		if !strings.Contains(trimmed, ",") {
			inList = false
			continue
		}
		any := false
		for _, token := range strings.Split(trimmed, ",") {
			name := strings.TrimSpace(token)
			if name == "" || !isPlausibleSubcommandName(name) {
				continue
			}
			any = true
			if !seen[name] {
				seen[name] = true
				subs = append(subs, schema.NewSubcommand(name))
			}
		}
		if any {
			recognized = append(recognized, line.index)
		} else {
			inList = false
		}
	}
	return subs, recognized
}

// Named setting rows like stty's "rows N  tell the kernel ..." look a
// lot like subcommand rows. They are only accepted when the right
// column carries setting-style prose.
var namedSettingVerbs = []string{"same as", "print ", "set ", "tell "}

func parseNamedSettingRows(lines []indexedLine) ([]schema.SubcommandSchema, []int) {
	var subs []schema.SubcommandSchema
	var recognized []int

	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		left, right, ok := splitTwoColumns(trimmed)
		if !ok || right == "" {
			continue
		}
		verb := false
		lower := strings.ToLower(right)
		for _, prefix := range namedSettingVerbs {
			if strings.HasPrefix(lower, prefix) {
				verb = true
				break
			}
		}
		if !verb {
			continue
		}
		name := strings.Fields(left)[0]
		if !isPlausibleSubcommandName(name) {
			continue
		}
		sub := schema.NewSubcommand(name)
		sub.Description = sanitizeDescriptionText(right)
		subs = append(subs, sub)
		recognized = append(recognized, line.index)
	}
	return subs, recognized
}

// dedupeSubcommands merges duplicate names, keeping the richest
// description and the union of aliases.
func dedupeSubcommands(subs []schema.SubcommandSchema) []schema.SubcommandSchema {
	index := map[string]int{}
	var out []schema.SubcommandSchema
	for _, sub := range subs {
		if at, ok := index[sub.Name]; ok {
			if len(sub.Description) > len(out[at].Description) {
				out[at].Description = sub.Description
			}
			out[at].Aliases = mergeStringSets(out[at].Aliases, sub.Aliases)
			continue
		}
		index[sub.Name] = len(out)
		out = append(out, sub)
	}
	return out
}

func mergeStringSets(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
