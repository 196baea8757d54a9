package parser

import "regexp"

// Compiled patterns shared across parse strategies. All of these are
// constants; a panic at init indicates a programmer error in the
// pattern, not a runtime condition.
var (
	// -v, -x, -4, -0, -?, -@
	shortFlagRe = regexp.MustCompile(`^\s*(-[a-zA-Z0-9?@])(\s|,|\[|\||$)`)
	// -chdir, -log-level (single-dash long options used by some CLIs)
	singleDashWordFlagRe = regexp.MustCompile(`^\s*(-[a-zA-Z][a-zA-Z0-9-]+)(\s|,|=|<|\[|\||$)`)
	// --verbose, --help
	longFlagRe = regexp.MustCompile(`^\s*(--[a-zA-Z][-a-zA-Z0-9.]*)(\s|=|\[|,|\||\)|$)`)
	// -v, --verbose  OR  -v/--verbose
	combinedFlagRe = regexp.MustCompile(`^\s*(-[a-zA-Z0-9?@]{1,3})(?:\s*,\s*|\s*/\s*|\s+)(--[a-zA-Z][-a-zA-Z0-9.]*)`)
	// --flag=VALUE, --flag <value>, --flag [value], -f VALUE
	flagWithValueRe = regexp.MustCompile(`=([A-Za-z_]+)|[<\[]([A-Za-z_]+)[>\]]|(?:--[a-zA-Z][-a-zA-Z0-9.]*|-[a-zA-Z0-9]{1,3})\s+([A-Z][A-Z_]+)(\s|$)`)

	// Section headers (case insensitive)
	subcommandsSectionRe = regexp.MustCompile(`(?i)^(commands|all commands|subcommands|available commands|sub-commands)\s*:?\s*$`)
	flagsSectionRe       = regexp.MustCompile(`(?i)^(flags|global flags)\s*:?\s*$`)
	optionsSectionRe     = regexp.MustCompile(`(?i)^(options|optional arguments|opts)\s*:?\s*$`)
	argumentsSectionRe   = regexp.MustCompile(`(?i)^(arguments|positional arguments|args)\s*:?\s*$`)
	columnBreakRe        = regexp.MustCompile(`\t+| {2,}`)

	// Choice values: {a,b,c}
	choiceValuesRe = regexp.MustCompile(`\{([^}]+)\}`)

	lineOfDashesRe = regexp.MustCompile(`^-{8,}$`)

	// Version extraction
	versionNumberRe = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)
	// Generic banner style: "apt 2.8.3 (amd64)"
	bannerVersionRe = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9+._-]*\s+(\d+\.\d+(?:\.\d+)?)\b`)

	// Usage grammar helpers
	bracketGroupRe    = regexp.MustCompile(`\[([^\]]+)\]`)
	braceGroupRe      = regexp.MustCompile(`\{([^}]+)\}`)
	inlineLongFlagRe  = regexp.MustCompile(`(?:^|[\s{\[(|,])(--[a-zA-Z][-a-zA-Z0-9.]*)(?:$|[\s}\])|,])`)
	inlineShortFlagRe = regexp.MustCompile(`(?:^|[\s{\[(|,])(-[a-zA-Z0-9?@](?:\[[^\]\s]+\])?)(?:$|[\s}\])|,])`)

	// Flag references inside descriptions
	flagRefRe = regexp.MustCompile(`(--[a-zA-Z][-a-zA-Z0-9.]*|-[a-zA-Z0-9?@]{1,3})`)

	// Choice table headers
	validArgumentsForRe    = regexp.MustCompile(`(?i)^valid arguments for\s+((?:--?)[a-zA-Z0-9?@][a-zA-Z0-9?@.-]*)\s*:\s*$`)
	placeholderValuesRe    = regexp.MustCompile(`^([A-Z][A-Z0-9_-]+)\s+is one of the following\s*:\s*$`)
	placeholderDeterminesRe = regexp.MustCompile(`^([A-Z][A-Z0-9_-]+)\s+determines\b.*:\s*$`)
	genericValuesHeaderRe  = regexp.MustCompile(`(?i)(here are the values|possible values|available values)`)

	// Description cleanup
	dotLeaderPrefixRe          = regexp.MustCompile(`^(\.+\s+)+`)
	inlineDoubleDashSentinelRe = regexp.MustCompile(`\s--\s{2,}.*$`)
	multiWhitespaceRe          = regexp.MustCompile(`\s+`)
)
