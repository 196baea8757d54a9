// Package extract orchestrates schema extraction for one command:
// probing for help output, parsing it, walking subcommands, deriving a
// version, and grading the result against the acceptance policy.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cmdsift/cmdsift/internal/parser"
	"github.com/cmdsift/cmdsift/internal/probe"
	"github.com/cmdsift/cmdsift/pkg/cache"
	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// recursionBudget bounds the total number of subcommand help probes in
// one extraction, cycles included.
const recursionBudget = 4096

// maxRecursionDepth bounds how deep the subcommand walk goes.
const maxRecursionDepth = 3

// Prober is the probe surface the extractor drives. *probe.Prober
// satisfies it.
type Prober interface {
	Resolve(command string) (string, error)
	Run(ctx context.Context, argv []string) probe.Capture
	RunMan(ctx context.Context, command string) probe.Capture
	RunShell(ctx context.Context, command, helpFlag string) probe.Capture
}

// Options configure one extraction run.
type Options struct {
	// MinConfidence is the acceptance threshold (default 0.6)
	MinConfidence float64
	// MinCoverage is the acceptance threshold (default 0.2)
	MinCoverage float64
	// AllowLowQuality accepts results below the thresholds
	AllowLowQuality bool
	// Recurse walks subcommands and extracts their flags
	Recurse bool
	// ProbeMan tries the man page before help flags
	ProbeMan bool
	// ShellFallback retries through a login shell when direct probes
	// produce nothing
	ShellFallback bool
}

// DefaultOptions returns the standard acceptance policy.
func DefaultOptions() Options {
	return Options{
		MinConfidence: 0.6,
		MinCoverage:   0.2,
		Recurse:       true,
		ProbeMan:      true,
		ShellFallback: true,
	}
}

func (o Options) policy() cache.Policy {
	return cache.Policy{
		MinConfidence:   o.MinConfidence,
		MinCoverage:     o.MinCoverage,
		AllowLowQuality: o.AllowLowQuality,
	}
}

// Result pairs the extracted schema with its report. Schema is nil
// when extraction failed outright.
type Result struct {
	Schema *schema.CommandSchema
	Report *report.ExtractionReport
}

// Extractor runs extractions.
type Extractor struct {
	prober  Prober
	parser  *parser.Parser
	cache   *cache.ExtractionCache
	options Options
}

// New creates an extractor with the given options and no cache.
func New(options Options) *Extractor {
	return &Extractor{
		prober:  probe.New(),
		parser:  parser.New(),
		options: options,
	}
}

// WithProber replaces the prober, for tests and custom transports.
func (e *Extractor) WithProber(p Prober) *Extractor {
	e.prober = p
	return e
}

// WithCache attaches a result cache.
func (e *Extractor) WithCache(c *cache.ExtractionCache) *Extractor {
	e.cache = c
	return e
}

// Extract probes a command and builds its schema and report.
func (e *Extractor) Extract(ctx context.Context, command string) Result {
	rep := report.NewReport(command)

	path, err := e.prober.Resolve(command)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "permission") {
			rep.Fail(report.FailurePermissionBlocked, err.Error())
		} else {
			rep.Fail(report.FailureNotInstalled, fmt.Sprintf("%s is not on PATH", command))
		}
		return Result{Report: rep}
	}
	rep.ResolvedExecutablePath = path

	key, haveKey := e.cacheKey(command, path)
	if haveKey {
		if cached := e.lookupCache(ctx, command, key); cached != nil {
			return *cached
		}
	}

	result := e.extractFresh(ctx, command, path, rep)

	if haveKey && e.cache != nil && result.Report.Success {
		entry := &cache.Entry{
			Schema:          result.Schema,
			Report:          result.Report,
			DetectedVersion: result.Report.DetectedVersion,
			ProbeMode:       probeModeOf(result.Report),
		}
		// Cache write failures leave a warning, not an error.
		if err := e.cache.Set(ctx, key, entry); err != nil {
			result.Report.Warnings = append(result.Report.Warnings, fmt.Sprintf("cache write failed: %v", err))
		}
	}
	return result
}

func (e *Extractor) extractFresh(ctx context.Context, command, path string, rep *report.ExtractionReport) Result {
	capture, ok := e.probeHelp(ctx, command, rep)
	if !ok {
		code, detail := probe.DeriveProbeFailure(rep.ProbeAttempts)
		rep.Fail(code, detail)
		return Result{Report: rep}
	}

	output, _ := capture.Output()
	parsed := e.parser.Parse(command, output)
	if capture.HelpFlag == "man" {
		parsed.Schema.Source = schema.SourceManPage
	}

	rep.SelectedFormat = parsed.SelectedFormat
	rep.FormatScores = parsed.FormatScores
	rep.ParsersUsed = parsed.ParsersUsed
	rep.Confidence = parsed.Confidence
	rep.Coverage = parsed.Coverage
	rep.RelevantLines = parsed.RelevantLines
	rep.RecognizedLines = parsed.RecognizedLines
	rep.UnresolvedLines = parsed.Unresolved

	if e.options.Recurse && len(parsed.Schema.Subcommands) > 0 {
		budget := recursionBudget
		e.expandSubcommands(ctx, command, parsed.Schema.Subcommands, output, []string{command}, 1, &budget, rep)
	}

	version := e.detectVersion(ctx, command)
	if version == "" {
		version = parsed.Version
	}
	parsed.Schema.Version = version
	rep.DetectedVersion = version

	if errs := schema.ValidateSchema(parsed.Schema); len(errs) > 0 {
		for _, verr := range errs {
			rep.ValidationErrors = append(rep.ValidationErrors, verr.Error())
		}
	}

	gradeReport(rep, parsed.Schema, e.options)
	result := Result{Report: rep}
	if rep.QualityTier != report.TierFailed {
		result.Schema = parsed.Schema
	}
	return result
}

// probeHelp runs probe candidates in order until one capture passes
// the help classifier: man page (when enabled), help flags, a bare
// help subcommand, then the shell fallback.
func (e *Extractor) probeHelp(ctx context.Context, command string, rep *report.ExtractionReport) (probe.Capture, bool) {
	accept := func(res probe.Capture) (probe.Capture, bool) {
		output, _ := res.Output()
		if probe.IsHelpOutput(output) {
			rep.ProbeAttempts = append(rep.ProbeAttempts, res.Attempt(true, ""))
			return res, true
		}
		rep.ProbeAttempts = append(rep.ProbeAttempts, res.Attempt(false, probe.ClassifyRejection(res)))
		return res, false
	}

	if e.options.ProbeMan {
		if res, ok := accept(e.prober.RunMan(ctx, command)); ok {
			return res, true
		}
	}
	for _, argv := range probe.HelpArgv(command) {
		if res, ok := accept(e.prober.Run(ctx, argv)); ok {
			return res, true
		}
	}
	if res, ok := accept(e.prober.Run(ctx, []string{command, "help"})); ok {
		return res, true
	}
	if e.options.ShellFallback {
		if res, ok := accept(e.prober.RunShell(ctx, command, probe.HelpFlags[0])); ok {
			return res, true
		}
	}
	return probe.Capture{}, false
}

// expandSubcommands probes each subcommand's help and attaches parsed
// flags and nested subcommands. Children with no help of their own
// (help, version, completion) and children echoing the parent's help
// are dropped from the walk.
func (e *Extractor) expandSubcommands(ctx context.Context, command string, subs []schema.SubcommandSchema, parentOutput string, path []string, depth int, budget *int, rep *report.ExtractionReport) {
	if depth > maxRecursionDepth {
		return
	}
	siblings := make(map[string]bool, len(subs))
	for i := range subs {
		siblings[strings.ToLower(subs[i].Name)] = true
	}
	for i := range subs {
		if *budget <= 0 {
			rep.Warnings = append(rep.Warnings, "subcommand recursion budget exhausted")
			return
		}
		*budget--

		name := subs[i].Name
		if skipSubcommandProbe(name) {
			continue
		}
		if inPath(path, name) {
			continue
		}

		argv := append(append([]string{}, path...), name, "--help")
		res := e.prober.Run(ctx, argv)
		output, _ := res.Output()
		if !probe.IsHelpOutput(output) {
			continue
		}
		// Tools without per-subcommand help echo the top screen back.
		if strings.TrimSpace(output) == strings.TrimSpace(parentOutput) {
			continue
		}

		parsed := e.parser.Parse(name, output)
		if isParentHelpEcho(name, parsed.Schema, siblings) {
			continue
		}
		subs[i].Flags = parsed.Schema.GlobalFlags
		subs[i].Args = parsed.Schema.Positional
		if subs[i].Description == "" {
			subs[i].Description = parsed.Schema.Description
		}
		if len(parsed.Schema.Subcommands) > 0 {
			subs[i].Subcommands = mergeChildSubcommands(subs[i].Subcommands, parsed.Schema.Subcommands)
			e.expandSubcommands(ctx, command, subs[i].Subcommands, output, append(path, name), depth+1, budget, rep)
		}
	}
}

func mergeChildSubcommands(existing, parsed []schema.SubcommandSchema) []schema.SubcommandSchema {
	seen := map[string]bool{}
	out := append([]schema.SubcommandSchema{}, existing...)
	for _, sub := range out {
		seen[sub.Name] = true
	}
	for _, sub := range parsed {
		if !seen[sub.Name] {
			seen[sub.Name] = true
			out = append(out, sub)
		}
	}
	return out
}

// skipSubcommandProbe filters children that have no meaningful help
// screen of their own.
func skipSubcommandProbe(name string) bool {
	switch name {
	case "help", "version", "completion", "completions":
		return true
	}
	return false
}

// isParentHelpEcho detects tools that answer "<cmd> <sub> --help" with
// a restyled parent screen: the parse lists the probed child itself
// plus several of its siblings. Attaching that output would inject the
// sibling command list into every child.
func isParentHelpEcho(name string, parsed *schema.CommandSchema, siblings map[string]bool) bool {
	if parsed == nil || len(parsed.Subcommands) < 2 {
		return false
	}
	foundSelf := false
	overlap := 0
	for i := range parsed.Subcommands {
		n := strings.ToLower(parsed.Subcommands[i].Name)
		if n == strings.ToLower(name) {
			foundSelf = true
		}
		if siblings[n] {
			overlap++
		}
	}
	return foundSelf && overlap >= 3
}

func inPath(path []string, name string) bool {
	for _, segment := range path {
		if segment == name {
			return true
		}
	}
	return false
}

// detectVersion runs a quick --version probe.
func (e *Extractor) detectVersion(ctx context.Context, command string) string {
	res := e.prober.Run(ctx, []string{command, "--version"})
	output, _ := res.Output()
	return parser.ExtractVersion(output, command)
}

func (e *Extractor) cacheKey(command, path string) (cache.Key, bool) {
	if e.cache == nil {
		return cache.Key{}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return cache.Key{}, false
	}
	return cache.NewKey(command, path, info.ModTime(), info.Size(), e.options.policy()), true
}

// lookupCache returns a cached result when the fingerprint matches,
// the entry is still inside the TTL, and the binary still reports the
// version stored with the entry.
func (e *Extractor) lookupCache(ctx context.Context, command string, key cache.Key) *Result {
	entry, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	if !e.cache.IsValid(entry, 0) {
		_ = e.cache.Invalidate(ctx, key)
		return nil
	}
	if entry.DetectedVersion != "" {
		if current := e.detectVersion(ctx, command); current != "" && current != entry.DetectedVersion {
			_ = e.cache.Invalidate(ctx, key)
			return nil
		}
	}
	return &Result{Schema: entry.Schema, Report: entry.Report}
}

func probeModeOf(rep *report.ExtractionReport) string {
	for _, attempt := range rep.ProbeAttempts {
		if attempt.Accepted {
			if attempt.HelpFlag == "man" {
				return "man_page"
			}
			return "help_flag"
		}
	}
	return ""
}
