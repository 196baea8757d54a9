package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/cmdsift/cmdsift/internal/probe"
	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

type fakeProber struct {
	resolveErr error
	outputs    map[string]probe.Capture
	calls      []string
}

func (f *fakeProber) Resolve(command string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return "/usr/bin/" + command, nil
}

func (f *fakeProber) Run(ctx context.Context, argv []string) probe.Capture {
	key := strings.Join(argv, " ")
	f.calls = append(f.calls, key)
	if res, ok := f.outputs[key]; ok {
		if res.ExitCode == nil && !res.TimedOut && res.Err == "" {
			zero := 0
			res.ExitCode = &zero
		}
		res.Argv = argv
		if res.HelpFlag == "" && len(argv) > 1 {
			res.HelpFlag = argv[len(argv)-1]
		}
		return res
	}
	code := 1
	return probe.Capture{Argv: argv, ExitCode: &code, Stderr: "unknown option\n"}
}

func (f *fakeProber) RunMan(ctx context.Context, command string) probe.Capture {
	key := "man " + command
	f.calls = append(f.calls, key)
	res := f.outputs[key]
	res.Argv = []string{"man", command}
	res.HelpFlag = "man"
	return res
}

func (f *fakeProber) RunShell(ctx context.Context, command, helpFlag string) probe.Capture {
	key := "shell " + command + " " + helpFlag
	f.calls = append(f.calls, key)
	res := f.outputs[key]
	res.Argv = []string{command, helpFlag}
	res.HelpFlag = helpFlag
	return res
}

const widgetHelp = `A fast tool for managing widgets.

Usage:
  widgetctl [command]

Available Commands:
  apply       Apply a configuration to widgets
  delete      Delete widgets by name
  get         Display one or many widgets

Flags:
  -h, --help              help for widgetctl
  -n, --namespace string  Namespace scope for this request
  -v, --verbose           Enable verbose output
`

const widgetGetHelp = `Display one or many widgets.

Usage:
  widgetctl get [flags]

Flags:
  -o, --output string   Output format (json, yaml)
  -w, --watch           Watch for changes
  -h, --help            help for get
`

func testOptions() Options {
	o := DefaultOptions()
	o.ProbeMan = false
	o.ShellFallback = false
	return o
}

func TestExtractSuccess(t *testing.T) {
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"widgetctl --help":     {Stdout: widgetHelp},
		"widgetctl --version":  {Stdout: "widgetctl version 1.2.3\n"},
		"widgetctl get --help": {Stdout: widgetGetHelp},
	}}
	e := New(testOptions()).WithProber(fake)

	result := e.Extract(context.Background(), "widgetctl")
	rep := result.Report

	if !rep.Success {
		t.Fatalf("success = false: %+v", rep)
	}
	if !rep.AcceptedForSuggestions {
		t.Errorf("not accepted: reasons = %v", rep.QualityReasons)
	}
	if result.Schema == nil {
		t.Fatal("schema missing")
	}
	if result.Schema.Version != "1.2.3" {
		t.Errorf("version = %q", result.Schema.Version)
	}
	if rep.ResolvedExecutablePath != "/usr/bin/widgetctl" {
		t.Errorf("resolved path = %q", rep.ResolvedExecutablePath)
	}

	get := result.Schema.FindSubcommand("get")
	if get == nil {
		t.Fatal("get subcommand missing")
	}
	found := false
	for _, f := range get.Flags {
		if f.CanonicalName() == "--output" {
			found = true
		}
	}
	if !found {
		t.Errorf("recursed flags missing: %+v", get.Flags)
	}
}

func TestExtractResolveFailure(t *testing.T) {
	fake := &fakeProber{resolveErr: errNotFound("executable file not found in $PATH")}
	e := New(testOptions()).WithProber(fake)

	result := e.Extract(context.Background(), "ghost")
	rep := result.Report
	if rep.Success {
		t.Error("success = true for unresolved command")
	}
	if rep.FailureCode != report.FailureNotInstalled {
		t.Errorf("failure code = %q", rep.FailureCode)
	}
	if result.Schema != nil {
		t.Error("schema present for failed extraction")
	}
}

type errNotFound string

func (e errNotFound) Error() string { return string(e) }

func TestExtractAllProbesTimeout(t *testing.T) {
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"tarpit --help": {TimedOut: true, Err: "probe timed out"},
		"tarpit -h":     {TimedOut: true, Err: "probe timed out"},
		"tarpit -?":     {TimedOut: true, Err: "probe timed out"},
		"tarpit help":   {TimedOut: true, Err: "probe timed out"},
	}}
	e := New(testOptions()).WithProber(fake)

	rep := e.Extract(context.Background(), "tarpit").Report
	if rep.FailureCode != report.FailureTimeout {
		t.Errorf("failure code = %q, want timeout", rep.FailureCode)
	}
	if len(rep.ProbeAttempts) == 0 {
		t.Error("probe attempts not recorded")
	}
}

func TestExtractQualityRejection(t *testing.T) {
	// Thin output parses at floor confidence, which a strict policy
	// rejects without calling the run a failure.
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"thin --help": {Stdout: "Usage: thin [options] file\n\nOptions:\n  -v, --verbose  Enable verbose output\n\nSome prose about the tool goes here.\nMore prose follows on another line.\nStill more prose to pass the size gate.\nAnd a closing line, with a --help mention.\nSixth line.\nSeventh line.\nEighth line.\n"},
	}}
	options := testOptions()
	options.MinConfidence = 0.9
	options.Recurse = false
	e := New(options).WithProber(fake)

	rep := e.Extract(context.Background(), "thin").Report
	if !rep.Success {
		t.Fatal("quality rejection must not clear success")
	}
	if rep.AcceptedForSuggestions {
		t.Error("accepted despite threshold")
	}
	if rep.FailureCode != report.FailureQualityRejected {
		t.Errorf("failure code = %q", rep.FailureCode)
	}
	if len(rep.QualityReasons) == 0 {
		t.Error("quality reasons missing")
	}
}

func TestExtractEntityFreeParseFails(t *testing.T) {
	// Help-shaped output whose sections are all empty parses to a
	// schema with no flags, subcommands, or positionals. That is a
	// parse failure, not a gradable result.
	noEntities := "noent reference page\n\nusage: noent\n\npositional arguments:\n\noptional arguments:\n\nThis tool takes no options and no arguments.\nIt simply runs and prints a fixed greeting.\n"
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"noent --help": {Stdout: noEntities},
	}}
	options := testOptions()
	options.Recurse = false
	e := New(options).WithProber(fake)

	result := e.Extract(context.Background(), "noent")
	rep := result.Report
	if rep.Success {
		t.Fatal("success = true for entity-free schema")
	}
	if rep.FailureCode != report.FailureParseFailed {
		t.Errorf("failure code = %q, want parse_failed", rep.FailureCode)
	}
	if rep.QualityTier != report.TierFailed {
		t.Errorf("tier = %q, want failed", rep.QualityTier)
	}
	if result.Schema != nil {
		t.Error("schema present for failed extraction")
	}
	found := false
	for _, w := range rep.Warnings {
		if strings.Contains(w, "no flags, subcommands, or positional arguments") {
			found = true
		}
	}
	if !found {
		t.Errorf("entity warning missing: %v", rep.Warnings)
	}
}

func TestExtractUnrecognizedFormatFails(t *testing.T) {
	// Prose that squeaks past the probe classifier but matches no help
	// format and yields no entities reports not_help_output.
	prose := "noent greeting tool\n\nUsage: noent\n\nIt prints a fixed greeting when run.\nThere are no options to configure.\nThe exit status is always zero.\nSee the project page for more details.\n"
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"noent --help": {Stdout: prose},
	}}
	options := testOptions()
	options.Recurse = false
	e := New(options).WithProber(fake)

	rep := e.Extract(context.Background(), "noent").Report
	if rep.Success {
		t.Fatal("success = true for unrecognized output")
	}
	if rep.FailureCode != report.FailureNotHelpOutput {
		t.Errorf("failure code = %q, want not_help_output", rep.FailureCode)
	}
}

func TestExtractValidationErrorsFail(t *testing.T) {
	rep := report.NewReport("broken")
	rep.SelectedFormat = "gnu"
	rep.Confidence = 0.9
	rep.Coverage = 0.8
	rep.ValidationErrors = []string{"flag --output: conflicts_with references unknown flag --format"}

	s := schema.NewCommandSchema("broken", schema.SourceHelpCommand)
	s.GlobalFlags = []schema.FlagSchema{{Long: "--output", TakesValue: true, ValueType: schema.String()}}

	gradeReport(rep, s, DefaultOptions())
	if rep.Success {
		t.Fatal("success = true despite validation errors")
	}
	if rep.FailureCode != report.FailureParseFailed {
		t.Errorf("failure code = %q, want parse_failed", rep.FailureCode)
	}
	if !strings.Contains(rep.FailureDetail, "validation failed") {
		t.Errorf("failure detail = %q", rep.FailureDetail)
	}
}

func TestExtractAllowLowQuality(t *testing.T) {
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"thin --help": {Stdout: "Usage: thin [options] file\n\nOptions:\n  -v, --verbose  Enable verbose output\n\nSome prose about the tool goes here.\nMore prose follows on another line.\nStill more prose to pass the size gate.\nAnd a closing line, with a --help mention.\nSixth line.\nSeventh line.\nEighth line.\n"},
	}}
	options := testOptions()
	options.MinConfidence = 0.9
	options.AllowLowQuality = true
	options.Recurse = false
	e := New(options).WithProber(fake)

	rep := e.Extract(context.Background(), "thin").Report
	if !rep.AcceptedForSuggestions {
		t.Error("low tier not accepted despite allow_low_quality")
	}
	if rep.QualityTier != report.TierLow {
		t.Errorf("tier = %q, want low", rep.QualityTier)
	}
}

func TestExtractManPreferred(t *testing.T) {
	manOutput := `STAT(1)                 User Commands                 STAT(1)

NAME
       stat - display file status

SYNOPSIS
       stat [OPTION]... FILE...

DESCRIPTION
       Display file or file system status.

       -L, --dereference
              follow links
       -f, --file-system
              display file system status instead of file status
`
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"man stat": {Stdout: manOutput},
	}}
	options := testOptions()
	options.ProbeMan = true
	options.Recurse = false
	e := New(options).WithProber(fake)

	result := e.Extract(context.Background(), "stat")
	if result.Schema == nil {
		t.Fatalf("schema missing: %+v", result.Report)
	}
	if result.Schema.Source != schema.SourceManPage {
		t.Errorf("source = %q, want man_page", result.Schema.Source)
	}
	if len(fake.calls) == 0 || fake.calls[0] != "man stat" {
		t.Errorf("man probe not first: %v", fake.calls)
	}
}

func TestExtractSkipsHelpLikeSubcommands(t *testing.T) {
	toolHelp := `A tool with utility subcommands.

Usage:
  tool [command]

Available Commands:
  build       Build the project
  completion  Generate shell completion scripts
  help        Help about any command
  version     Print the version number

Flags:
  -h, --help   help for tool
`
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"tool --help": {Stdout: toolHelp},
	}}
	e := New(testOptions()).WithProber(fake)

	result := e.Extract(context.Background(), "tool")
	if result.Schema == nil {
		t.Fatalf("schema missing: %+v", result.Report)
	}

	for _, call := range fake.calls {
		switch call {
		case "tool help --help", "tool version --help", "tool completion --help":
			t.Errorf("probed skip-listed subcommand: %q", call)
		}
	}
	probedBuild := false
	for _, call := range fake.calls {
		if call == "tool build --help" {
			probedBuild = true
		}
	}
	if !probedBuild {
		t.Error("build subcommand was not probed")
	}
}

func TestExtractRestyledParentEchoSkipped(t *testing.T) {
	// The echoed screen differs from the parent's byte for byte, so
	// only the sibling-overlap check can catch it.
	echo := widgetHelp + "\nUse \"widgetctl [command] --help\" for more information.\n"
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"widgetctl --help":        {Stdout: widgetHelp},
		"widgetctl apply --help":  {Stdout: echo},
		"widgetctl delete --help": {Stdout: echo},
		"widgetctl get --help":    {Stdout: echo},
	}}
	e := New(testOptions()).WithProber(fake)

	result := e.Extract(context.Background(), "widgetctl")
	if result.Schema == nil {
		t.Fatal("schema missing")
	}
	for _, sub := range result.Schema.Subcommands {
		if len(sub.Flags) != 0 {
			t.Errorf("echoed output attached flags to %q", sub.Name)
		}
		if len(sub.Subcommands) != 0 {
			t.Errorf("echoed output attached nested subcommands to %q", sub.Name)
		}
	}
}

func TestExtractParentEchoSkipped(t *testing.T) {
	fake := &fakeProber{outputs: map[string]probe.Capture{
		"widgetctl --help": {Stdout: widgetHelp},
		// Every subcommand echoes the parent help screen back.
		"widgetctl apply --help":  {Stdout: widgetHelp},
		"widgetctl delete --help": {Stdout: widgetHelp},
		"widgetctl get --help":    {Stdout: widgetHelp},
	}}
	e := New(testOptions()).WithProber(fake)

	result := e.Extract(context.Background(), "widgetctl")
	if result.Schema == nil {
		t.Fatal("schema missing")
	}
	for _, sub := range result.Schema.Subcommands {
		if len(sub.Flags) != 0 {
			t.Errorf("echoed output attached flags to %q", sub.Name)
		}
	}
}
