package parser

import (
	"sort"
	"strings"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

// Merge thresholds. Flags and subcommands need the high bar; positional
// arguments get a lower one because usage grammar is noisier.
const (
	mergeHighThreshold   = 0.7
	mergeMediumThreshold = 0.5
)

// flagCandidate is one parsed flag with the confidence of the strategy
// that produced it, adjusted by per-candidate scoring.
type flagCandidate struct {
	flag       schema.FlagSchema
	confidence float64
	strategy   string
}

type subcommandCandidate struct {
	sub        schema.SubcommandSchema
	confidence float64
	strategy   string
}

type argCandidate struct {
	arg        schema.ArgSchema
	confidence float64
	strategy   string
}

func (c flagCandidate) canonicalKey() string {
	if c.flag.Long != "" {
		return c.flag.Long
	}
	return c.flag.Short
}

// scoreFlagCandidate adjusts a base strategy confidence for one flag.
// Value-taking flags are slightly more trustworthy; placeholder names
// get rejected hard.
func scoreFlagCandidate(flag schema.FlagSchema, base float64) float64 {
	score := base
	if flag.TakesValue {
		score += 0.05
	}
	if strings.Contains(flag.Description, "=") {
		score += 0.1
	}
	name := strings.TrimLeft(flag.CanonicalName(), "-")
	if isPlaceholderToken(name) {
		score -= 0.5
	}
	return clamp01(score)
}

func scoreSubcommandCandidate(sub schema.SubcommandSchema, base float64) float64 {
	score := base
	if looksLikePlaceholderSubcommandToken(sub.Name) || isPlaceholderKeyword(sub.Name) {
		score -= 0.7
	}
	if isEnvVarRow(sub.Name + "=" + sub.Description) && strings.Contains(sub.Description, "=") {
		score -= 0.7
	}
	if isKeybindingRow(sub.Name + "  " + sub.Description) {
		score -= 0.5
	}
	return clamp01(score)
}

func scoreArgCandidate(arg schema.ArgSchema, base float64) float64 {
	score := base
	if isPlaceholderKeyword(arg.Name) {
		score -= 0.45
	}
	return clamp01(score)
}

// isValidFlagSchema is the final structural gate before a flag enters
// the schema.
func isValidFlagSchema(flag schema.FlagSchema) bool {
	if flag.Short == "" && flag.Long == "" {
		return false
	}
	if flag.Short != "" {
		if !strings.HasPrefix(flag.Short, "-") || strings.HasPrefix(flag.Short, "--") || len(flag.Short) < 2 {
			return false
		}
	}
	if flag.Long != "" {
		// Single-dash long words are allowed; double-dash needs length.
		if !strings.HasPrefix(flag.Long, "-") {
			return false
		}
		if strings.HasPrefix(flag.Long, "--") && len(flag.Long) < 3 {
			return false
		}
	}
	return true
}

// chooseBestFlagCandidate merges a group of candidates for the same
// canonical flag into one schema: highest confidence wins the shape,
// richer metadata is folded in from the rest.
func chooseBestFlagCandidate(group []flagCandidate) schema.FlagSchema {
	sort.SliceStable(group, func(i, j int) bool { return group[i].confidence > group[j].confidence })
	best := group[0].flag
	for _, cand := range group[1:] {
		if best.Short == "" && cand.flag.Short != "" {
			best.Short = cand.flag.Short
		}
		if best.Long == "" && cand.flag.Long != "" {
			best.Long = cand.flag.Long
		}
		if len(cand.flag.Description) > len(best.Description) {
			best.Description = cand.flag.Description
		}
		if cand.flag.TakesValue && !best.TakesValue {
			best.TakesValue = true
			best.ValueType = cand.flag.ValueType
		}
		if cand.flag.ValueType.Kind == schema.ValueChoice && best.ValueType.Kind != schema.ValueChoice {
			best.ValueType = cand.flag.ValueType
			best.TakesValue = true
		}
		best.Multiple = best.Multiple || cand.flag.Multiple
		best.ConflictsWith = mergeStringSets(best.ConflictsWith, cand.flag.ConflictsWith)
		best.Requires = mergeStringSets(best.Requires, cand.flag.Requires)
	}
	if best.ValueType.IsZero() {
		if best.TakesValue {
			best.ValueType = schema.String()
		} else {
			best.ValueType = schema.Bool()
		}
	}
	return best
}

// mergeFlagCandidates groups by canonical key and keeps groups whose
// best candidate clears the high threshold.
func mergeFlagCandidates(candidates []flagCandidate) []schema.FlagSchema {
	groups := map[string][]flagCandidate{}
	var order []string
	for _, cand := range candidates {
		key := cand.canonicalKey()
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], cand)
	}

	var flags []schema.FlagSchema
	for _, key := range order {
		group := groups[key]
		best := 0.0
		for _, cand := range group {
			if cand.confidence > best {
				best = cand.confidence
			}
		}
		if best < mergeHighThreshold {
			continue
		}
		flag := chooseBestFlagCandidate(group)
		if isValidFlagSchema(flag) {
			flags = append(flags, flag)
		}
	}
	return flags
}

func mergeSubcommandCandidates(candidates []subcommandCandidate) []schema.SubcommandSchema {
	groups := map[string][]subcommandCandidate{}
	var order []string
	for _, cand := range candidates {
		if cand.sub.Name == "" {
			continue
		}
		if _, ok := groups[cand.sub.Name]; !ok {
			order = append(order, cand.sub.Name)
		}
		groups[cand.sub.Name] = append(groups[cand.sub.Name], cand)
	}

	var subs []schema.SubcommandSchema
	for _, name := range order {
		group := groups[name]
		sort.SliceStable(group, func(i, j int) bool { return group[i].confidence > group[j].confidence })
		if group[0].confidence < mergeHighThreshold {
			continue
		}
		best := group[0].sub
		for _, cand := range group[1:] {
			if len(cand.sub.Description) > len(best.Description) {
				best.Description = cand.sub.Description
			}
			best.Aliases = mergeStringSets(best.Aliases, cand.sub.Aliases)
		}
		subs = append(subs, best)
	}
	return subs
}

func mergeArgCandidates(candidates []argCandidate) []schema.ArgSchema {
	groups := map[string][]argCandidate{}
	var order []string
	for _, cand := range candidates {
		if cand.arg.Name == "" {
			continue
		}
		if _, ok := groups[cand.arg.Name]; !ok {
			order = append(order, cand.arg.Name)
		}
		groups[cand.arg.Name] = append(groups[cand.arg.Name], cand)
	}

	var args []schema.ArgSchema
	for _, name := range order {
		group := groups[name]
		sort.SliceStable(group, func(i, j int) bool { return group[i].confidence > group[j].confidence })
		if group[0].confidence < mergeMediumThreshold {
			continue
		}
		best := group[0].arg
		for _, cand := range group[1:] {
			if len(cand.arg.Description) > len(best.Description) {
				best.Description = cand.arg.Description
			}
			best.Multiple = best.Multiple || cand.arg.Multiple
		}
		args = append(args, best)
	}
	return args
}

// finalizeSchema sorts the schema into its deterministic output order:
// flags by canonical name, subcommands and positionals by name.
func finalizeSchema(s *schema.CommandSchema) {
	sort.SliceStable(s.GlobalFlags, func(i, j int) bool {
		return s.GlobalFlags[i].CanonicalName() < s.GlobalFlags[j].CanonicalName()
	})
	sort.SliceStable(s.Subcommands, func(i, j int) bool {
		return s.Subcommands[i].Name < s.Subcommands[j].Name
	})
	sort.SliceStable(s.Positional, func(i, j int) bool {
		return s.Positional[i].Name < s.Positional[j].Name
	})
	for i := range s.Subcommands {
		finalizeSubcommand(&s.Subcommands[i])
	}
}

func finalizeSubcommand(s *schema.SubcommandSchema) {
	sort.SliceStable(s.Flags, func(i, j int) bool {
		return s.Flags[i].CanonicalName() < s.Flags[j].CanonicalName()
	})
	sort.SliceStable(s.Subcommands, func(i, j int) bool {
		return s.Subcommands[i].Name < s.Subcommands[j].Name
	})
	for i := range s.Subcommands {
		finalizeSubcommand(&s.Subcommands[i])
	}
}
