package discover

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/cmdsift/cmdsift/internal/extract"
	"github.com/cmdsift/cmdsift/pkg/report"
	"github.com/cmdsift/cmdsift/pkg/schema"
)

// largeBatchThreshold switches the default pool size down for big
// scans, where probe processes dominate system load.
const largeBatchThreshold = 500

// Outcome is one command's extraction result inside a batch.
type Outcome struct {
	Command string
	Schema  *schema.CommandSchema
	Report  *report.ExtractionReport
}

// Extractor is the single-command extraction surface the runner
// drives. *extract.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, command string) extract.Result
}

// Runner drives a batch of extractions over a worker pool.
type Runner struct {
	// Extractor runs single extractions
	Extractor Extractor
	// Jobs is the pool size; a heuristic default when zero
	Jobs int
	// AcceptExpr optionally filters which reports enter the bundle,
	// e.g. `confidence >= 0.8 && quality_tier != "low"`
	AcceptExpr string
	// Progress, when set, is called once per finished command
	Progress func(command string, rep *report.ExtractionReport)
}

// DefaultJobs picks a pool size for a batch of the given size.
func DefaultJobs(commands int) int {
	limit := 12
	if commands >= largeBatchThreshold {
		limit = 8
	}
	jobs := runtime.NumCPU()
	if jobs > limit {
		jobs = limit
	}
	if jobs < 1 {
		jobs = 1
	}
	return jobs
}

// Run extracts every command and returns the outcomes sorted by
// command name.
func (r *Runner) Run(ctx context.Context, commands []string) ([]Outcome, error) {
	var acceptProgram *vm.Program
	if r.AcceptExpr != "" {
		program, err := expr.Compile(r.AcceptExpr, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile accept expression: %w", err)
		}
		acceptProgram = program
	}

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = DefaultJobs(len(commands))
	}

	work := make(chan string)
	results := make(chan Outcome, len(commands))

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for command := range work {
				result := r.Extractor.Extract(ctx, command)
				if r.Progress != nil {
					r.Progress(command, result.Report)
				}
				results <- Outcome{Command: command, Schema: result.Schema, Report: result.Report}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, command := range commands {
			select {
			case work <- command:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	var outcomes []Outcome
	for outcome := range results {
		// The expression only demotes: every command keeps its report.
		if acceptProgram != nil && outcome.Report != nil && !r.accepted(acceptProgram, outcome.Report) {
			outcome.Report.AcceptedForSuggestions = false
		}
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Command < outcomes[j].Command })

	if err := ctx.Err(); err != nil {
		return outcomes, fmt.Errorf("batch interrupted: %w", err)
	}
	return outcomes, nil
}

// accepted evaluates the accept expression against one report. An
// evaluation error keeps the outcome rather than dropping it silently.
func (r *Runner) accepted(program *vm.Program, rep *report.ExtractionReport) bool {
	env := map[string]interface{}{
		"command":      rep.Command,
		"success":      rep.Success,
		"accepted":     rep.AcceptedForSuggestions,
		"quality_tier": string(rep.QualityTier),
		"confidence":   rep.Confidence,
		"coverage":     rep.Coverage,
		"failure_code": string(rep.FailureCode),
	}
	verdict, err := expr.Run(program, env)
	if err != nil {
		return true
	}
	accepted, ok := verdict.(bool)
	return !ok || accepted
}

// BuildBundle folds outcomes into a report bundle with a failure
// summary.
func BuildBundle(version string, outcomes []Outcome) *report.Bundle {
	reports := make([]report.ExtractionReport, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Report != nil {
			reports = append(reports, *outcome.Report)
		}
	}
	return report.NewBundle(version, time.Now().UTC().Format(time.RFC3339), reports)
}

// BuildPackage folds accepted schemas into a schema package.
func BuildPackage(name, version string, outcomes []Outcome) *schema.Package {
	pkg := schema.NewPackage(version, time.Now().UTC().Format(time.RFC3339))
	pkg.Name = name
	for _, outcome := range outcomes {
		if outcome.Schema != nil && outcome.Report != nil && outcome.Report.AcceptedForSuggestions {
			pkg.Schemas = append(pkg.Schemas, *outcome.Schema)
		}
	}
	return pkg
}
