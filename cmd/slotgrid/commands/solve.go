package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/display"
	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/logger"
	"github.com/teranos/slotgrid/schedule"
	"github.com/teranos/slotgrid/solver"
	"github.com/teranos/slotgrid/store"
	"github.com/teranos/slotgrid/sym"
)

// Report is what solve prints for one configuration file
type Report struct {
	Source   string             `json:"source" yaml:"source" toml:"source"`
	Backend  string             `json:"backend" yaml:"backend" toml:"backend"`
	Rules    []string           `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
	Solution *schedule.Solution `json:"solution" yaml:"solution" toml:"solution"`
}

type solveOptions struct {
	format             display.Format
	backend            string        // overrides solver.backend
	timeout            time.Duration // overrides solver.time_limit_seconds
	noStore            bool
	maxSolvesPerMinute int
	verbosity          int
}

func newSolveCmd() *cobra.Command {
	var (
		opts   solveOptions
		format string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "solve [config]...",
		Short: sym.Short("solve"),
		Long: sym.Solve + ` solve — Solve job configurations

Each configuration file holds one job: the grid counts, groups, the group
load bound and the rules. Several files are solved concurrently. With no
argument the nearest slotgrid.toml (or .yaml, .json) above the working
directory is used.

Successful solves are recorded in the run store named by store.path unless
--no-store is given.

Examples:
  slotgrid solve job.toml
  slotgrid solve job.toml --backend search --timeout 10s
  slotgrid solve a.toml b.toml --format json
  slotgrid solve job.toml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := display.ParseFormat(format)
			if err != nil {
				return err
			}
			opts.format = f
			opts.verbosity = verbosity(cmd)

			paths := args
			if len(paths) == 0 {
				path, err := am.Resolve("")
				if err != nil {
					return err
				}
				paths = []string{path}
			}

			if watch {
				if len(paths) != 1 {
					return errors.WithHint(errors.New("--watch takes exactly one configuration file"),
						"run one slotgrid solve --watch per file")
				}
				return watchSolve(cmd, paths[0], opts)
			}
			return solveFiles(cmd, paths, opts)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(display.FormatTable), "Output format: table, json, yaml, toml")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Solver backend, overriding the configuration: "+strings.Join(schedule.Backends, ", "))
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Solve time limit, overriding the configuration (e.g. 30s)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not record runs")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-solve whenever the configuration file changes")
	cmd.Flags().IntVar(&opts.maxSolvesPerMinute, "max-solves-per-minute", 30, "Rate limit for --watch re-solves")
	return cmd
}

// solveFiles loads every file, applies their log settings, then solves
// them concurrently and prints the reports in argument order. The first
// failure cancels the others.
func solveFiles(cmd *cobra.Command, paths []string, opts solveOptions) error {
	configs := make([]*am.Config, len(paths))
	for i, path := range paths {
		cfg, err := am.Load(path)
		if err != nil {
			return err
		}
		configs[i] = cfg
	}
	applyLogConfig(cmd, mergeLogConfigs(configs))

	reports := make([]*Report, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range paths {
		g.Go(func() error {
			report, err := solveConfig(ctx, path, configs[i], opts)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, report := range reports {
		if err := writeReport(cmd.OutOrStdout(), report, opts); err != nil {
			return err
		}
		if !opts.noStore {
			recordRun(cmd.Context(), configs[i], report)
		}
	}
	return nil
}

// mergeLogConfigs combines the log settings of files solved together into
// one: the highest verbosity, and JSON when any file asks for it
func mergeLogConfigs(configs []*am.Config) am.LogConfig {
	var merged am.LogConfig
	for _, cfg := range configs {
		merged.JSON = merged.JSON || cfg.Log.JSON
		merged.Verbosity = max(merged.Verbosity, cfg.Log.Verbosity)
	}
	return merged
}

// solveConfig builds and solves one job. A returned solution always passes
// schedule.Verify.
func solveConfig(ctx context.Context, source string, cfg *am.Config, opts solveOptions) (*Report, error) {
	backend := cfg.Solver.Backend
	if opts.backend != "" {
		backend = opts.backend
	}
	timeLimit := cfg.Solver.TimeLimit()
	if opts.timeout > 0 {
		timeLimit = opts.timeout
	}

	log := logger.ComponentLogger("schedule").With(logger.FieldFile, source, logger.FieldBackend, backend)

	model, err := schedule.NewModel(backend)
	if err != nil {
		return nil, err
	}
	js, err := schedule.NewJobSolver(cfg.Job, model, schedule.WithLogger(log))
	if err != nil {
		return nil, withRuleSource(err, source, cfg.Job.Rules)
	}

	sol, err := js.Solve(ctx, solver.SolveOptions{TimeLimit: timeLimit, Logger: log})
	if err != nil {
		return nil, errors.Wrapf(err, "%s", source)
	}

	if sol.Status.HasSolution() {
		if violations := schedule.Verify(cfg.Job, js.Comparisons(), sol.Slots()); len(violations) > 0 {
			return nil, errors.AssertionFailedf("%s backend returned an assignment that breaks %s", backend, violations[0].String())
		}
	}

	report := &Report{Source: source, Backend: backend, Solution: sol}
	for _, c := range js.Comparisons() {
		report.Rules = append(report.Rules, c.String())
	}
	return report, nil
}

func writeReport(w io.Writer, r *Report, opts solveOptions) error {
	return display.Write(w, r, opts.format, func() string {
		var b strings.Builder
		fmt.Fprintln(&b, pterm.Cyan(r.Source))
		b.WriteString(display.SolutionTable(r.Solution))
		if logger.ShouldOutput(opts.verbosity, logger.OutputStats) {
			fmt.Fprintf(&b, "%s backend: %s\n", r.Backend, display.StatsLine(r.Solution))
		}
		if logger.ShouldOutput(opts.verbosity, logger.OutputRunID) {
			fmt.Fprintf(&b, "run %s\n", r.Solution.RunID)
		}
		if logger.ShouldOutput(opts.verbosity, logger.OutputRules) {
			for i, rule := range r.Rules {
				fmt.Fprintf(&b, "rule %d: %s\n", i+1, rule)
			}
		}
		return b.String()
	})
}

// recordRun stores the report in cfg's run store. Failures are logged and
// do not fail the solve.
func recordRun(ctx context.Context, cfg *am.Config, r *Report) {
	if cfg.Store.Path == "" {
		return
	}
	log := logger.ComponentLogger("store")
	db, err := store.OpenWithMigrations(cfg.Store.Path, log)
	if err != nil {
		log.Warnw("Failed to open run store", "path", cfg.Store.Path, logger.FieldError, err)
		return
	}
	defer db.Close()

	run := store.NewRun(r.Solution, r.Source, r.Backend, cfg.Job.ResourceCount)
	if err := store.NewRunStore(db, log).Record(ctx, run); err != nil {
		log.Warnw("Failed to record run", logger.FieldRunID, run.ID, logger.FieldError, err)
	}
}

// watchSolve solves path, then again on every change, until interrupted.
// Re-solves are rate limited; a failing solve is reported and watching
// continues.
func watchSolve(cmd *cobra.Command, path string, opts solveOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	solveOnce := func(cfg *am.Config) error {
		mu.Lock()
		defer mu.Unlock()
		report, err := solveConfig(ctx, path, cfg, opts)
		if err != nil {
			RenderError(cmd.ErrOrStderr(), err)
			return err
		}
		if err := writeReport(cmd.OutOrStdout(), report, opts); err != nil {
			return err
		}
		if !opts.noStore {
			recordRun(ctx, cfg, report)
		}
		return nil
	}

	cfg, err := am.Load(path)
	if err != nil {
		return err
	}
	applyLogConfig(cmd, cfg.Log)
	_ = solveOnce(cfg)

	watcher, err := am.NewConfigWatcher(path)
	if err != nil {
		return err
	}
	defer watcher.Stop()
	am.SetGlobalWatcher(watcher)
	defer am.SetGlobalWatcher(nil)

	perMinute := opts.maxSolvesPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
	watcher.OnReload(func(cfg *am.Config) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		return solveOnce(cfg)
	})
	watcher.Start()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl-C to stop)\n", path)
	<-ctx.Done()
	return nil
}
