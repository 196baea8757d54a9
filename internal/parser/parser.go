// Package parser turns captured CLI help output into command schemas.
//
// Parsing runs in stages: the output is normalized, classified against
// known help formats, then walked by a set of strategies that each emit
// scored candidates. Candidates are merged by canonical name and the
// survivors assembled into a schema together with coverage diagnostics.
package parser

import (
	"strings"

	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// Strategy labels recorded in reports.
const (
	strategySectionSubcommands = "section-subcommands"
	strategySectionFlags       = "section-flags"
	strategySectionOptions     = "section-options"
	strategySectionArguments   = "section-arguments"
	strategyNpmCommandList     = "npm-command-list"
	strategyDenseCommandGrid   = "dense-command-grid"
	strategyGenericTwoColumn   = "generic-two-column"
	strategyNamedSettingRows   = "named-setting-rows"
	strategySectionlessFlags   = "sectionless-flags"
	strategyUsageCompactFlags  = "usage-compact-flags"
	strategyUsagePositionals   = "usage-positionals"
)

// Per-strategy base confidences.
const (
	confSectionSubcommands = 0.9
	confSectionFlags       = 0.9
	confSectionOptions     = 0.88
	confSectionArguments   = 0.82
	confNpmCommandList     = 0.88
	confDenseGridPrimary   = 0.9
	confDenseGridSecondary = 0.82
	confGenericTwoColumn   = 0.8
	confNamedSettingRows   = 0.72
	confSectionlessFlags   = 0.85
	confUsageCompactFlags  = 0.75
	confUsagePositionals   = 0.6
)

// minSchemaConfidence is the floor applied to every produced schema.
// Parsing never fails outright; a schema below the floor is still
// returned at the floor and left for the quality gate to judge.
const minSchemaConfidence = 0.5

// Result is the outcome of parsing one help output.
type Result struct {
	Schema         *schema.CommandSchema
	Confidence     float64
	Coverage       float64
	SelectedFormat string
	FormatScores   []report.FormatScore
	ParsersUsed    []string
	Unresolved     []string
	RelevantLines  int
	RecognizedLines int
	Version        string
}

// Parser parses normalized help output into command schemas. The zero
// value is ready to use.
type Parser struct{}

// New returns a ready Parser.
func New() *Parser { return &Parser{} }

// Parse extracts a command schema from help output. It always returns
// a schema; confidence and coverage tell the caller how much to trust
// it.
func (p *Parser) Parse(command, output string) Result {
	normalized := normalizeHelpOutput(output)
	lines := toIndexedLines(normalized)
	rawLines := make([]string, len(lines))
	for i, line := range lines {
		rawLines[i] = line.text
	}

	formatScores := classifyFormats(rawLines)
	selected := formatScores[0].Format
	if formatScores[0].Score < 0.3 {
		selected = FormatUnknown
	}

	var (
		flagCands []flagCandidate
		subCands  []subcommandCandidate
		argCands  []argCandidate
		used      []string
		recognized = map[int]bool{}
	)
	use := func(label string) {
		for _, existing := range used {
			if existing == label {
				return
			}
		}
		used = append(used, label)
	}
	mark := func(indices []int) {
		for _, idx := range indices {
			recognized[idx] = true
		}
	}

	sections := identifySections(lines)
	sectionBodies := map[int]bool{}
	sawCommandSection := false
	for _, sec := range sections {
		recognized[sec.headerIdx] = true
		for _, line := range sec.body {
			sectionBodies[line.index] = true
		}
		switch sec.kind {
		case sectionSubcommands:
			subs, rec := parseSectionSubcommands(sec.body, command)
			if len(subs) > 0 {
				sawCommandSection = true
				use(strategySectionSubcommands)
				mark(rec)
				for _, sub := range subs {
					subCands = append(subCands, subcommandCandidate{
						sub:        sub,
						confidence: scoreSubcommandCandidate(sub, confSectionSubcommands),
						strategy:   strategySectionSubcommands,
					})
				}
			}
		case sectionFlags:
			cands, rec := parseFlagRows(sec.body, confSectionFlags, strategySectionFlags)
			if len(cands) > 0 {
				use(strategySectionFlags)
				mark(rec)
				flagCands = append(flagCands, cands...)
			}
		case sectionOptions:
			cands, rec := parseFlagRows(sec.body, confSectionOptions, strategySectionOptions)
			if len(cands) > 0 {
				use(strategySectionOptions)
				mark(rec)
				flagCands = append(flagCands, cands...)
			}
		case sectionArguments:
			args, rec := parseArgumentsSection(sec.body)
			if len(args) > 0 {
				use(strategySectionArguments)
				mark(rec)
				for _, arg := range args {
					argCands = append(argCands, argCandidate{
						arg:        arg,
						confidence: scoreArgCandidate(arg, confSectionArguments),
						strategy:   strategySectionArguments,
					})
				}
			}
		}
	}

	if subs, rec := parseNpmStyleCommands(lines); len(subs) > 0 {
		use(strategyNpmCommandList)
		mark(rec)
		for _, sub := range subs {
			subCands = append(subCands, subcommandCandidate{
				sub:        sub,
				confidence: scoreSubcommandCandidate(sub, confNpmCommandList),
				strategy:   strategyNpmCommandList,
			})
		}
	}

	if subs, rec, primary := parseDenseCommandGridSubcommands(lines); len(subs) > 0 {
		base := confDenseGridSecondary
		if primary {
			base = confDenseGridPrimary
		}
		use(strategyDenseCommandGrid)
		mark(rec)
		for _, sub := range subs {
			subCands = append(subCands, subcommandCandidate{
				sub:        sub,
				confidence: scoreSubcommandCandidate(sub, base),
				strategy:   strategyDenseCommandGrid,
			})
		}
	}

	if !sawCommandSection && !looksLikeKeybindingDocument(lines) {
		if subs, rec := parseTwoColumnSubcommands(unclaimedLines(lines, sectionBodies)); len(subs) > 0 {
			use(strategyGenericTwoColumn)
			mark(rec)
			for _, sub := range subs {
				subCands = append(subCands, subcommandCandidate{
					sub:        sub,
					confidence: scoreSubcommandCandidate(sub, confGenericTwoColumn),
					strategy:   strategyGenericTwoColumn,
				})
			}
		}
	}

	if len(subCands) == 0 {
		if subs, rec := parseNamedSettingRows(lines); len(subs) > 0 {
			use(strategyNamedSettingRows)
			mark(rec)
			for _, sub := range subs {
				subCands = append(subCands, subcommandCandidate{
					sub:        sub,
					confidence: scoreSubcommandCandidate(sub, confNamedSettingRows),
					strategy:   strategyNamedSettingRows,
				})
			}
		}
	}

	// Flag rows outside any declared section, as printed by classic
	// GNU tools whose whole output is one option listing.
	if cands, rec := parseFlagRows(unclaimedLines(lines, sectionBodies), confSectionlessFlags, strategySectionlessFlags); len(cands) > 0 {
		use(strategySectionlessFlags)
		mark(rec)
		flagCands = append(flagCands, cands...)
	}

	usageIndices := collectUsageIndices(lines)
	mark(usageIndices)
	if flags := parseUsageCompactFlags(lines, command); len(flags) > 0 {
		use(strategyUsageCompactFlags)
		for _, flag := range flags {
			flagCands = append(flagCands, flagCandidate{
				flag:       flag,
				confidence: scoreFlagCandidate(flag, confUsageCompactFlags),
				strategy:   strategyUsageCompactFlags,
			})
		}
	}
	if args := parseUsagePositionals(lines, command); len(args) > 0 {
		use(strategyUsagePositionals)
		for _, arg := range args {
			argCands = append(argCands, argCandidate{
				arg:        arg,
				confidence: scoreArgCandidate(arg, confUsagePositionals),
				strategy:   strategyUsagePositionals,
			})
		}
	}

	flags := mergeFlagCandidates(flagCands)
	applyFlagChoiceHints(lines, flags)
	applyChoiceTableHints(lines, flags)
	subs := dedupeSubcommands(mergeSubcommandCandidates(subCands))
	args := mergeArgCandidates(argCands)

	out := schema.NewCommandSchema(command, schema.SourceHelpCommand)
	out.Description = extractDescription(lines, command)
	out.GlobalFlags = flags
	out.Subcommands = subs
	if len(subs) == 0 {
		out.Positional = args
	}
	out.Version = extractBannerVersion(lines)
	finalizeSchema(out)

	confidence := calculateConfidence(out, selected)
	if confidence < minSchemaConfidence {
		confidence = minSchemaConfidence
	}
	out.Confidence = confidence

	diag := buildDiagnostics(lines, recognized, used, confidence)

	return Result{
		Schema:          out,
		Confidence:      confidence,
		Coverage:        diag.Coverage(),
		SelectedFormat:  selected,
		FormatScores:    formatScores,
		ParsersUsed:     diag.ParsersUsed,
		Unresolved:      diag.Unresolved,
		RelevantLines:   diag.RelevantLines,
		RecognizedLines: diag.RecognizedLines,
		Version:         out.Version,
	}
}

// parseFlagRows parses flag rows from a block of lines, handling packed
// entries, dash separators, compact clusters, and dashless single
// letter rows.
func parseFlagRows(body []indexedLine, base float64, strategy string) ([]flagCandidate, []int) {
	var cands []flagCandidate
	var recognized []int

	add := func(flag schema.FlagSchema, idx int) {
		cands = append(cands, flagCandidate{
			flag:       flag,
			confidence: scoreFlagCandidate(flag, base),
			strategy:   strategy,
		})
		recognized = append(recognized, idx)
	}

	for _, line := range body {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		if left, right, ok := splitDashSeparator(trimmed); ok {
			if flag, ok := parseFlagLine(left + "  " + right); ok {
				add(flag, line.index)
				continue
			}
		}
		if looksLikeFlagRowStart(trimmed) {
			if flags := parseCompactShortClusterFlags(trimmed); len(flags) > 1 {
				for _, flag := range flags {
					add(flag, line.index)
				}
				continue
			}
			parsed := parseFlagEntriesFromLine(trimmed)
			for _, flag := range parsed {
				add(flag, line.index)
			}
			continue
		}
		if strategy != strategySectionlessFlags && (looksLikeCompactOptionRow(trimmed) || looksLikeSymbolicOptionRow(trimmed)) {
			if flag, ok := parseCompactOptionRowAsFlag(trimmed); ok {
				add(flag, line.index)
			}
		}
	}
	return cands, recognized
}

// unclaimedLines filters out lines already claimed by a section body.
func unclaimedLines(lines []indexedLine, claimed map[int]bool) []indexedLine {
	if len(claimed) == 0 {
		return lines
	}
	var out []indexedLine
	for _, line := range lines {
		if !claimed[line.index] {
			out = append(out, line)
		}
	}
	return out
}

// extractDescription picks the first prose line before any section,
// skipping usage grammar and banner noise.
func extractDescription(lines []indexedLine, command string) string {
	inUsage := false
	for i, line := range lines {
		if i >= 12 {
			break
		}
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			inUsage = false
			continue
		}
		if isUsageLine(trimmed) {
			inUsage = true
			continue
		}
		if inUsage && isUsageContinuation(line.text) {
			continue
		}
		inUsage = false
		if isSectionHeaderLine(trimmed) {
			break
		}
		if isRenderedManSectionHeader(trimmed) {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || looksLikeFlagRowStart(trimmed) {
			continue
		}
		if bannerVersionRe.MatchString(trimmed) {
			continue
		}
		if _, right, ok := splitTwoColumns(trimmed); ok && right != "" {
			continue
		}
		if !startsAlphanumeric(trimmed) {
			continue
		}
		if command != "" && strings.EqualFold(trimmed, command) {
			continue
		}
		return sanitizeDescriptionText(trimmed)
	}
	return ""
}

// sanitizeDescriptionText cleans a description cell: dot leaders,
// trailing option sentinels, collapsed whitespace.
func sanitizeDescriptionText(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = dotLeaderPrefixRe.ReplaceAllString(cleaned, "")
	cleaned = inlineDoubleDashSentinelRe.ReplaceAllString(cleaned, "")
	cleaned = multiWhitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// calculateConfidence scores how much schema structure was recovered.
func calculateConfidence(s *schema.CommandSchema, format string) float64 {
	confidence := 0.5
	if len(s.Subcommands) > 0 {
		confidence += 0.2
	}
	if len(s.GlobalFlags) > 3 {
		confidence += 0.15
	}
	if len(s.Positional) > 0 {
		confidence += 0.1
	}
	if format != FormatUnknown {
		confidence += 0.1
	}
	if s.Description != "" {
		confidence += 0.05
	}
	return clamp01(confidence)
}
