package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cmdsift/cmdsift/internal/discover"
	"github.com/cmdsift/cmdsift/internal/extract"
	"github.com/cmdsift/cmdsift/internal/probe"
	"github.com/cmdsift/cmdsift/pkg/cache"
	"github.com/cmdsift/cmdsift/pkg/config"
	"github.com/cmdsift/cmdsift/pkg/output"
	"github.com/cmdsift/cmdsift/pkg/report"
)

func newExtractCmd() *cobra.Command {
	var (
		commands        []string
		useAllowlist    bool
		scanPaths       []string
		exclude         []string
		outputDir       string
		minConfidence   float64
		minCoverage     float64
		allowLowQuality bool
		installedOnly   bool
		jobs            int
		cacheDir        string
		noCache         bool
		acceptExpr      string
		noRecurse       bool
		noMan           bool
		limit           int
	)

	cmd := &cobra.Command{
		Use:   "extract [flags]",
		Short: "Probe installed commands and extract their schemas",
		Long: `Probe commands for help output, parse it into schemas, and write
the results to the output directory.

Commands come from --commands, from --scan-path directories, or from
the built-in allowlist of common tools. Each schema that clears the
quality policy is written as its own file; the extraction report for
the whole batch lands next to them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			applyExtractFlags(cmd.Flags(), cfg, minConfidence, minCoverage, allowLowQuality, acceptExpr, jobs, cacheDir, noCache)

			manager, format := outputManager(cmd, cfg)
			if format == "" {
				format = "json"
			}

			if !cmd.Flags().Changed("installed-only") && cfg.Discover.InstalledOnly != nil {
				installedOnly = *cfg.Discover.InstalledOnly
			}
			if !cmd.Flags().Changed("limit") && cfg.Discover.Limit > 0 {
				limit = cfg.Discover.Limit
			}

			targets, err := resolveTargets(commands, useAllowlist, scanPaths, exclude, limit, cfg)
			if err != nil {
				return err
			}
			if installedOnly || len(commands) == 0 {
				targets = discover.FilterInstalled(targets, exec.LookPath)
			}
			if len(targets) == 0 {
				return fmt.Errorf("no commands to extract")
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Extracting %d command(s)\n", len(targets))
			}

			extractor, err := buildExtractor(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var done atomic.Int64
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(os.Stderr))
			spin.Suffix = fmt.Sprintf(" extracting 0/%d", len(targets))
			spin.Start()

			runner := &discover.Runner{
				Extractor:  extractor,
				Jobs:       cfg.Discover.Jobs,
				AcceptExpr: cfg.Policy.AcceptExpr,
				Progress: func(command string, rep *report.ExtractionReport) {
					n := done.Add(1)
					spin.Suffix = fmt.Sprintf(" extracting %d/%d (%s)", n, len(targets), command)
				},
			}

			outcomes, err := runner.Run(ctx, targets)
			spin.Stop()
			if err != nil {
				return err
			}

			if outputDir != "" {
				if err := writeOutcomes(outputDir, format, outcomes); err != nil {
					return err
				}
			}

			bundle := discover.BuildBundle(version, outcomes)
			if outputDir != "" {
				// reports are always structured data, never markdown
				reportFormat := "json"
				if format == "yaml" {
					reportFormat = "yaml"
				}
				reportPath := filepath.Join(outputDir, "extraction-report."+reportFormat)
				if err := writeDocument(reportPath, reportFormat, bundle); err != nil {
					return err
				}
				if verbose {
					fmt.Fprintf(os.Stderr, "Wrote %s\n", reportPath)
				}
				// files already carry the data, the terminal gets a summary
				return manager.Format(os.Stdout, bundle.Reports, "table")
			}

			if format == "markdown" {
				// the bundle has no markdown rendering
				format = "json"
			}
			return manager.Format(os.Stdout, bundle, format)
		},
	}

	cmd.Flags().StringSliceVar(&commands, "commands", nil, "Comma-separated commands to extract")
	cmd.Flags().BoolVar(&useAllowlist, "allowlist", false, "Extract the built-in allowlist of common tools")
	cmd.Flags().StringSliceVar(&scanPaths, "scan-path", nil, "Directories to scan for executables")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Commands to skip")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write schemas and the report into")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", config.DefaultMinConfidence, "Minimum schema confidence")
	cmd.Flags().Float64Var(&minCoverage, "min-coverage", config.DefaultMinCoverage, "Minimum parse coverage")
	cmd.Flags().BoolVar(&allowLowQuality, "allow-low-quality", false, "Accept schemas below the quality thresholds")
	cmd.Flags().BoolVar(&installedOnly, "installed-only", false, "Skip commands not found on PATH")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Worker pool size (0 picks a default)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory override")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the schema cache")
	cmd.Flags().StringVar(&acceptExpr, "accept-expr", "", "Expression filtering which reports are kept")
	cmd.Flags().BoolVar(&noRecurse, "no-recurse", false, "Do not probe subcommands")
	cmd.Flags().BoolVar(&noMan, "no-man", false, "Do not consult man pages")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap the number of scanned commands")

	return cmd
}

// applyExtractFlags folds explicit command-line flags over the loaded
// configuration.
func applyExtractFlags(flags *pflag.FlagSet, cfg *config.Config, minConfidence, minCoverage float64, allowLowQuality bool, acceptExpr string, jobs int, cacheDir string, noCache bool) {
	if flags.Changed("min-confidence") {
		cfg.Policy.MinConfidence = &minConfidence
	}
	if flags.Changed("min-coverage") {
		cfg.Policy.MinCoverage = &minCoverage
	}
	if flags.Changed("allow-low-quality") {
		cfg.Policy.AllowLowQuality = &allowLowQuality
	}
	if flags.Changed("accept-expr") {
		cfg.Policy.AcceptExpr = acceptExpr
	}
	if flags.Changed("jobs") {
		cfg.Discover.Jobs = jobs
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = cacheDir
	}
	if noCache {
		disabled := false
		cfg.Cache.Enabled = &disabled
	}
	if noRecurse, _ := flags.GetBool("no-recurse"); noRecurse {
		off := false
		cfg.Probe.Recurse = &off
	}
	if noMan, _ := flags.GetBool("no-man"); noMan {
		off := false
		cfg.Probe.Man = &off
	}
}

// resolveTargets decides which commands the batch covers.
func resolveTargets(commands []string, useAllowlist bool, scanPaths, exclude []string, limit int, cfg *config.Config) ([]string, error) {
	if len(commands) > 0 {
		return dropExcluded(commands, exclude), nil
	}

	excluded := append(append([]string(nil), exclude...), configExcludes(cfg)...)
	if useAllowlist {
		return dropExcluded(discover.DefaultAllowlist, excluded), nil
	}

	paths := scanPaths
	if len(paths) == 0 && cfg.Discover != nil {
		paths = cfg.Discover.Paths
	}
	if len(paths) > 0 {
		targets, err := discover.ScanPath(discover.ScanOptions{
			Paths:   paths,
			Exclude: excluded,
			Limit:   limit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan paths: %w", err)
		}
		return targets, nil
	}

	// nothing was given, fall back to the allowlist
	return dropExcluded(discover.DefaultAllowlist, excluded), nil
}

func configExcludes(cfg *config.Config) []string {
	if cfg.Discover == nil {
		return nil
	}
	return cfg.Discover.Exclude
}

func dropExcluded(commands, exclude []string) []string {
	if len(exclude) == 0 {
		return commands
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	kept := make([]string, 0, len(commands))
	for _, name := range commands {
		if !skip[name] {
			kept = append(kept, name)
		}
	}
	return kept
}

// buildExtractor assembles the extractor from the merged settings.
func buildExtractor(cfg *config.Config) (*extract.Extractor, error) {
	options := extract.DefaultOptions()
	if cfg.Policy.MinConfidence != nil {
		options.MinConfidence = *cfg.Policy.MinConfidence
	}
	if cfg.Policy.MinCoverage != nil {
		options.MinCoverage = *cfg.Policy.MinCoverage
	}
	if cfg.Policy.AllowLowQuality != nil {
		options.AllowLowQuality = *cfg.Policy.AllowLowQuality
	}
	if cfg.Probe.Recurse != nil {
		options.Recurse = *cfg.Probe.Recurse
	}
	if cfg.Probe.Man != nil {
		options.ProbeMan = *cfg.Probe.Man
	}
	if cfg.Probe.ShellFallback != nil {
		options.ShellFallback = *cfg.Probe.ShellFallback
	}

	extractor := extract.New(options)

	prober := probe.New()
	if cfg.Probe.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Probe.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse probe timeout: %w", err)
		}
		prober.Timeout = timeout
	}
	extractor.WithProber(prober)

	if cfg.Cache.Enabled == nil || *cfg.Cache.Enabled {
		var store *cache.ExtractionCache
		var err error
		if cfg.Cache.Dir != "" {
			store, err = cache.NewExtractionCacheAt("cmdsift", cfg.Cache.Dir)
		} else {
			store, err = cache.NewExtractionCache("cmdsift")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		if cfg.Cache.TTL != "" {
			ttl, err := time.ParseDuration(cfg.Cache.TTL)
			if err != nil {
				return nil, fmt.Errorf("failed to parse cache ttl: %w", err)
			}
			store.DefaultTTL = ttl
		}
		extractor.WithCache(store)
	}

	return extractor, nil
}

// writeOutcomes writes one schema file per accepted outcome.
func writeOutcomes(outputDir, format string, outcomes []discover.Outcome) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := fileExt(format)
	for _, outcome := range outcomes {
		if outcome.Schema == nil || outcome.Report == nil || !outcome.Report.AcceptedForSuggestions {
			continue
		}
		path := filepath.Join(outputDir, outcome.Command+"."+ext)
		if err := writeDocument(path, format, outcome.Schema); err != nil {
			return err
		}
	}
	return nil
}

// writeDocument renders one document to a file in the given format.
func writeDocument(path, format string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	manager := output.NewManager()
	manager.SetConfig(output.NewFormatConfig().WithColors(false))
	if err := manager.Format(f, data, fileFormat(format)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// fileExt maps an output format to a file extension.
func fileExt(format string) string {
	switch format {
	case "yaml":
		return "yaml"
	case "markdown":
		return "md"
	default:
		return "json"
	}
}

// fileFormat maps an output format to the serialization used on disk.
// Table output is terminal-only, files fall back to JSON.
func fileFormat(format string) string {
	switch format {
	case "yaml", "markdown":
		return format
	default:
		return "json"
	}
}
