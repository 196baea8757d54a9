package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmdsift/cmdsift/internal/extract"
	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

func writeExecutable(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0755))
}

func TestScanPathFindsExecutables(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "mytool")
	writeExecutable(t, dir, "another-tool")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	commands, err := ScanPath(ScanOptions{Paths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, []string{"another-tool", "mytool"}, commands)
}

func TestScanPathExcludeAndLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"aa", "bb", "cc", "dd"} {
		writeExecutable(t, dir, name)
	}

	commands, err := ScanPath(ScanOptions{Paths: []string{dir}, Exclude: []string{"bb"}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "cc"}, commands)
}

func TestScanPathDeduplicatesAcrossDirs(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeExecutable(t, dirA, "tool")
	writeExecutable(t, dirB, "tool")

	commands, err := ScanPath(ScanOptions{Paths: []string{dirA, dirB}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tool"}, commands)
}

func TestScanPathSkipsMissingDirs(t *testing.T) {
	commands, err := ScanPath(ScanOptions{Paths: []string{"/does/not/exist"}})
	require.NoError(t, err)
	assert.Empty(t, commands)
}

func TestFilterInstalled(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "git" || name == "tar" {
			return "/usr/bin/" + name, nil
		}
		return "", fmt.Errorf("not found")
	}
	installed := FilterInstalled([]string{"git", "ghost", "tar"}, lookPath)
	assert.Equal(t, []string{"git", "tar"}, installed)
}

func TestDefaultJobs(t *testing.T) {
	assert.LessOrEqual(t, DefaultJobs(10), 12)
	assert.LessOrEqual(t, DefaultJobs(1000), 8)
	assert.GreaterOrEqual(t, DefaultJobs(1), 1)
}

// fakeExtractor produces canned reports keyed by command name.
type fakeExtractor struct {
	mu      sync.Mutex
	calls   []string
	reports map[string]*report.ExtractionReport
}

func (f *fakeExtractor) Extract(ctx context.Context, command string) extract.Result {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	f.mu.Unlock()

	rep, ok := f.reports[command]
	if !ok {
		rep = report.NewReport(command)
		rep.Success = true
		rep.AcceptedForSuggestions = true
		rep.QualityTier = report.TierHigh
		rep.Confidence = 0.9
		rep.Coverage = 0.8
	}
	var s *schema.CommandSchema
	if rep.Success && rep.FailureCode == "" {
		s = schema.NewCommandSchema(command, schema.SourceHelpCommand)
	}
	return extract.Result{Schema: s, Report: rep}
}

func TestRunnerRunsAllAndSorts(t *testing.T) {
	fake := &fakeExtractor{reports: map[string]*report.ExtractionReport{}}
	runner := &Runner{Extractor: fake, Jobs: 4}

	outcomes, err := runner.Run(context.Background(), []string{"zsh", "git", "tar", "npm"})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var names []string
	for _, outcome := range outcomes {
		names = append(names, outcome.Command)
	}
	assert.Equal(t, []string{"git", "npm", "tar", "zsh"}, names)
	assert.Len(t, fake.calls, 4)
}

func TestRunnerAcceptExpr(t *testing.T) {
	low := report.NewReport("lowconf")
	low.Success = true
	low.AcceptedForSuggestions = false
	low.QualityTier = report.TierLow
	low.Confidence = 0.5
	low.Coverage = 0.9

	fake := &fakeExtractor{reports: map[string]*report.ExtractionReport{"lowconf": low}}
	runner := &Runner{
		Extractor:  fake,
		Jobs:       2,
		AcceptExpr: `confidence >= 0.8 && quality_tier != "low"`,
	}

	// Every command keeps its report; the expression only flips the
	// acceptance bit.
	outcomes, err := runner.Run(context.Background(), []string{"git", "lowconf"})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "git", outcomes[0].Command)
	assert.True(t, outcomes[0].Report.AcceptedForSuggestions)
	assert.Equal(t, "lowconf", outcomes[1].Command)
	assert.False(t, outcomes[1].Report.AcceptedForSuggestions)
}

func TestRunnerAcceptExprDemotesPassingReport(t *testing.T) {
	fake := &fakeExtractor{reports: map[string]*report.ExtractionReport{}}
	runner := &Runner{
		Extractor:  fake,
		Jobs:       1,
		AcceptExpr: `confidence >= 0.95`,
	}

	outcomes, err := runner.Run(context.Background(), []string{"git"})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Report.Success)
	assert.False(t, outcomes[0].Report.AcceptedForSuggestions)
}

func TestRunnerBadAcceptExpr(t *testing.T) {
	runner := &Runner{
		Extractor:  &fakeExtractor{reports: map[string]*report.ExtractionReport{}},
		AcceptExpr: `confidence >=`,
	}
	_, err := runner.Run(context.Background(), []string{"git"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accept expression")
}

func TestRunnerProgressCallback(t *testing.T) {
	fake := &fakeExtractor{reports: map[string]*report.ExtractionReport{}}
	var mu sync.Mutex
	seen := map[string]bool{}
	runner := &Runner{
		Extractor: fake,
		Jobs:      2,
		Progress: func(command string, rep *report.ExtractionReport) {
			mu.Lock()
			seen[command] = true
			mu.Unlock()
		},
	}

	_, err := runner.Run(context.Background(), []string{"git", "tar"})
	require.NoError(t, err)
	assert.True(t, seen["git"] && seen["tar"])
}

func TestBuildBundleFailureSummary(t *testing.T) {
	failed := report.NewReport("ghost")
	failed.Fail(report.FailureNotInstalled, "ghost is not on PATH")

	fake := &fakeExtractor{reports: map[string]*report.ExtractionReport{"ghost": failed}}
	runner := &Runner{Extractor: fake, Jobs: 2}

	outcomes, err := runner.Run(context.Background(), []string{"git", "ghost"})
	require.NoError(t, err)

	bundle := BuildBundle("0.3.0", outcomes)
	assert.Len(t, bundle.Reports, 2)
	assert.Equal(t, 1, bundle.Failures[string(report.FailureNotInstalled)])
}

func TestBuildPackageKeepsAcceptedOnly(t *testing.T) {
	rejected := report.NewReport("meh")
	rejected.Success = true
	rejected.AcceptedForSuggestions = false
	rejected.QualityTier = report.TierLow
	rejected.FailureCode = report.FailureQualityRejected

	fake := &fakeExtractor{reports: map[string]*report.ExtractionReport{"meh": rejected}}
	runner := &Runner{Extractor: fake, Jobs: 1}

	outcomes, err := runner.Run(context.Background(), []string{"git", "meh"})
	require.NoError(t, err)

	pkg := BuildPackage("host-tools", "0.3.0", outcomes)
	assert.Equal(t, []string{"git"}, pkg.CommandNames())
	assert.Equal(t, "host-tools", pkg.Name)
}
