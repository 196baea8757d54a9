package parser

import (
	"strings"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionSubcommands
	sectionFlags
	sectionOptions
	sectionArguments
)

// section is a contiguous block of lines claimed by a recognized
// header. The header line itself is not part of the body.
type section struct {
	kind      sectionKind
	headerIdx int
	body      []indexedLine
}

// identifySections walks the normalized lines and groups indented
// content under each recognized section header. A section ends at the
// next header or at the first non-empty line back at column zero.
func identifySections(lines []indexedLine) []section {
	var sections []section
	var current *section

	for _, line := range lines {
		trimmed := strings.TrimSpace(line.text)
		if kind := detectSectionHeader(trimmed); kind != sectionNone {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &section{kind: kind, headerIdx: line.index}
			continue
		}
		if current == nil {
			continue
		}
		if trimmed == "" {
			current.body = append(current.body, line)
			continue
		}
		if !strings.HasPrefix(line.text, " ") && !strings.HasPrefix(line.text, "\t") {
			sections = append(sections, *current)
			current = nil
			continue
		}
		current.body = append(current.body, line)
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

func detectSectionHeader(trimmed string) sectionKind {
	switch {
	case subcommandsSectionRe.MatchString(trimmed):
		return sectionSubcommands
	case flagsSectionRe.MatchString(trimmed):
		return sectionFlags
	case optionsSectionRe.MatchString(trimmed):
		return sectionOptions
	case argumentsSectionRe.MatchString(trimmed):
		return sectionArguments
	default:
		return sectionNone
	}
}

// looksLikeSubcommandSectionHeader is a looser probe used outside the
// strict section walk, for headers like "Main commands" or
// "Management Commands:".
func looksLikeSubcommandSectionHeader(trimmed string) bool {
	if subcommandsSectionRe.MatchString(trimmed) {
		return true
	}
	lower := strings.ToLower(strings.TrimSuffix(trimmed, ":"))
	if !strings.HasSuffix(lower, "commands") {
		return false
	}
	return len(strings.Fields(lower)) <= 3
}

// looksLikeSubcommandEntry reports whether a trimmed line could be the
// start of a two-column subcommand row.
func looksLikeSubcommandEntry(trimmed string) bool {
	if trimmed == "" || trimmed[0] == '-' {
		return false
	}
	left, right, ok := splitTwoColumns(trimmed)
	if !ok || right == "" {
		return false
	}
	name := strings.TrimSuffix(strings.Fields(left)[0], ",")
	return isValidCommandName(name)
}

// parseSectionSubcommands parses the body of a recognized subcommand
// section. Rows may carry comma separated aliases in the name column.
func parseSectionSubcommands(body []indexedLine, parent string) ([]schema.SubcommandSchema, []int) {
	var subs []schema.SubcommandSchema
	var recognized []int

	for _, line := range body {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" || isNonCommandBlockHeader(trimmed) || isProseHeader(trimmed) {
			continue
		}
		left, right, ok := splitTwoColumns(trimmed)
		if !ok {
			// A name-only row is still a subcommand in sparse listings.
			left, right = trimmed, ""
		}

		// A long comma list or a row whose every column is a command
		// name is a grid row, not a name-plus-description row.
		if names, ok := parseCommandListRow(trimmed); ok {
			for _, name := range names {
				subs = append(subs, schema.NewSubcommand(name))
			}
			recognized = append(recognized, line.index)
			continue
		}

		name, aliases, ok := parseSubcommandNameColumn(left, parent)
		if !ok {
			continue
		}
		sub := schema.NewSubcommand(name)
		sub.Aliases = aliases
		sub.Description = sanitizeDescriptionText(right)
		subs = append(subs, sub)
		recognized = append(recognized, line.index)
	}
	return subs, recognized
}

// parseCommandListRow detects rows that hold only command names: dense
// grids ("add  branch  checkout") and comma paragraphs with three or
// more entries.
func parseCommandListRow(trimmed string) ([]string, bool) {
	if strings.Count(trimmed, ",") >= 2 {
		var names []string
		for _, token := range strings.Split(trimmed, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if !isPlausibleSubcommandName(token) {
				return nil, false
			}
			names = append(names, token)
		}
		if len(names) >= 3 {
			return names, true
		}
		return nil, false
	}
	// Space-separated grids have several wide column breaks; prose
	// descriptions have at most one.
	cells := columnBreakRe.Split(trimmed, -1)
	if len(cells) < 3 {
		return nil, false
	}
	var names []string
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if strings.ContainsAny(cell, " \t") || !isPlausibleSubcommandName(strings.TrimSuffix(cell, ",")) {
			return nil, false
		}
		names = append(names, strings.TrimSuffix(cell, ","))
	}
	if len(names) < 3 {
		return nil, false
	}
	return names, true
}

// parseSubcommandNameColumn validates and normalizes the name column.
// "push, p" yields name push with alias p; "git push" under parent git
// strips the repeated parent prefix.
func parseSubcommandNameColumn(left, parent string) (string, []string, bool) {
	tokens := strings.Split(left, ",")
	var names []string
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		fields := strings.Fields(token)
		name := fields[0]
		if parent != "" && name == parent && len(fields) > 1 {
			name = fields[1]
		} else if len(fields) > 1 {
			// Extra tokens after the name are placeholders; keep the
			// name only when they all look like placeholders.
			for _, extra := range fields[1:] {
				if !looksLikeArgumentPlaceholder(extra) {
					return "", nil, false
				}
			}
		}
		name = strings.TrimSuffix(name, "...")
		if !isValidCommandName(name) {
			return "", nil, false
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", nil, false
	}
	return names[0], names[1:], true
}

// parseArgumentsSection parses a positional arguments section into arg
// schemas, skipping rows that are actually choice listings.
func parseArgumentsSection(body []indexedLine) ([]schema.ArgSchema, []int) {
	var args []schema.ArgSchema
	var recognized []int

	for _, line := range body {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		left, right, ok := splitTwoColumns(trimmed)
		if !ok {
			left, right = trimmed, ""
		}
		parsed := parseArgumentTokens(left, right)
		if len(parsed) == 0 {
			continue
		}
		args = append(args, parsed...)
		recognized = append(recognized, line.index)
	}
	return args, recognized
}

// parseArgumentTokens turns a name column like "[FILE]..." or
// "<src> <dst>" into arg schemas.
func parseArgumentTokens(left, description string) []schema.ArgSchema {
	var args []schema.ArgSchema
	for _, token := range strings.Fields(left) {
		optional := false
		variadic := strings.HasSuffix(token, "...")
		token = strings.TrimSuffix(token, "...")
		if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
			optional = true
			token = strings.Trim(token, "[]")
		}
		token = strings.Trim(token, "<>")
		token = strings.TrimSuffix(token, "...")
		if token == "" || strings.HasPrefix(token, "-") {
			return nil
		}
		if choiceValuesRe.MatchString(token) {
			continue
		}
		if !looksLikeArgumentName(token) {
			return nil
		}
		name := strings.ToLower(token)
		arg := schema.ArgSchema{
			Name:        name,
			Required:    !optional,
			Multiple:    variadic,
			ValueType:   inferArgumentValueType(name),
			Description: sanitizeDescriptionText(description),
		}
		args = append(args, arg)
	}
	return args
}

// inferArgumentValueType guesses a value type from a positional name.
func inferArgumentValueType(name string) schema.ValueType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "file"):
		return schema.ValueType{Kind: schema.ValueFile}
	case strings.Contains(lower, "dir") || strings.Contains(lower, "path"):
		return schema.ValueType{Kind: schema.ValueDirectory}
	case strings.Contains(lower, "url") || strings.Contains(lower, "uri"):
		return schema.ValueType{Kind: schema.ValueURL}
	case strings.Contains(lower, "num") || strings.Contains(lower, "count") || strings.Contains(lower, "size"):
		return schema.ValueType{Kind: schema.ValueNumber}
	default:
		return schema.String()
	}
}

// looksLikeArgumentPlaceholder matches usage placeholders such as
// FILE, <path>, [args...].
func looksLikeArgumentPlaceholder(token string) bool {
	token = strings.TrimSuffix(token, "...")
	if strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">") {
		return true
	}
	if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
		return true
	}
	trimmed := strings.Trim(token, "<>[]")
	if trimmed == "" {
		return false
	}
	return trimmed == strings.ToUpper(trimmed) && startsAlphanumeric(trimmed)
}

func isPlaceholderKeyword(name string) bool {
	switch strings.ToLower(name) {
	case "command", "subcommand", "cmd", "options", "option", "args", "arg",
		"arguments", "flags", "file", "files", "path", "pathname",
		"pattern", "string", "value", "name", "word", "text":
		return true
	}
	return false
}

// looksLikeArgumentName accepts bare lower or upper case identifiers
// with internal dashes, underscores, or dots.
func looksLikeArgumentName(token string) bool {
	if token == "" || !startsAlphanumeric(token) {
		return false
	}
	for _, ch := range token {
		if !isAlphanumericRune(ch) && ch != '-' && ch != '_' && ch != '.' {
			return false
		}
	}
	return true
}
