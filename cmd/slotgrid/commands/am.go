package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/display"
	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/job"
	"github.com/teranos/slotgrid/schedule"
	"github.com/teranos/slotgrid/sym"
	"github.com/teranos/slotgrid/version"
)

func newAmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "am",
		Short: sym.Short("am"),
		Long: sym.AM + ` am — Show and validate configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags (solve --backend, --timeout)
2. Environment variables (SLOTGRID_* prefix, e.g. SLOTGRID_SOLVER_BACKEND)
3. The configuration file (TOML, or YAML/JSON by extension)
4. Default values

Examples:
  slotgrid am show                    # Show the nearest slotgrid.toml
  slotgrid am show job.toml -f json   # Show configuration as JSON
  slotgrid am show --sources          # Show where every setting comes from
  slotgrid am validate job.toml       # Validate configuration and rules
  slotgrid am init                    # Write a starter slotgrid.toml`,
	}
	cmd.AddCommand(newAmShowCmd())
	cmd.AddCommand(newAmValidateCmd())
	cmd.AddCommand(newAmInitCmd())
	return cmd
}

func newAmShowCmd() *cobra.Command {
	var (
		format  string
		sources bool
	)
	cmd := &cobra.Command{
		Use:   "show [config]",
		Short: "Show effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := am.Resolve(firstArg(args))
			if err != nil {
				return err
			}
			return runAmShow(cmd.OutOrStdout(), path, format, sources)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "Output format: toml, json, yaml")
	cmd.Flags().BoolVar(&sources, "sources", false, "Show the source of every setting")
	return cmd
}

func runAmShow(w io.Writer, path, format string, sources bool) error {
	v, err := am.NewViper(path)
	if err != nil {
		return err
	}

	if sources {
		ci := am.Introspect(v)
		summary := ci.Summary()
		fmt.Fprintf(w, "%s %s\n", sym.AM, ci.ConfigFile)
		fmt.Fprintf(w, "%d from file, %d from environment, %d defaults\n",
			summary[am.SourceFile], summary[am.SourceEnvironment], summary[am.SourceDefault])
		_, err := io.WriteString(w, display.SettingsTable(ci))
		return err
	}

	f, err := am.ParseFormat(format)
	if err != nil {
		return err
	}
	cfg, err := am.LoadWithViper(v)
	if err != nil {
		return err
	}
	data, err := am.Marshal(cfg, f)
	if err != nil {
		return err
	}
	if f != am.FormatJSON {
		fmt.Fprintf(w, "# slotgrid configuration (%s)\n", path)
	}
	_, err = w.Write(data)
	return err
}

func newAmValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate configuration and rules",
		Long: `Validate a configuration file: field ranges and cross-field rules, the
solver backend, and the rules themselves (lexing, parsing and references).
Keys no setting reads are reported as warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := am.Resolve(firstArg(args))
			if err != nil {
				return err
			}
			return runAmValidate(cmd.OutOrStdout(), path)
		},
	}
}

func runAmValidate(w io.Writer, path string) error {
	cfg, err := am.Load(path)
	if err != nil {
		return err
	}

	model, err := schedule.NewModel(cfg.Solver.Backend)
	if err != nil {
		return err
	}
	js, err := schedule.NewJobSolver(cfg.Job, model)
	if err != nil {
		return withRuleSource(err, path, cfg.Job.Rules)
	}

	unknown, err := am.UnknownKeys(path)
	if err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	for _, key := range unknown {
		fmt.Fprintln(w, pterm.Yellow(fmt.Sprintf("warning: unknown key %q is ignored", key)))
	}

	fmt.Fprintf(w, "%s Configuration is valid: %s, %d resources, %d groups, %d rules\n",
		pterm.Green(sym.OK), js.Layout(), cfg.Job.ResourceCount, cfg.Job.GroupCount, len(js.Comparisons()))
	return nil
}

func newAmInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration",
		Long: `Write a starter configuration with an example job to path (default
slotgrid.toml). The format follows the extension. An existing file is only
replaced with --force, and is then kept as path.back1 (up to three backups).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			if path == "" {
				path = am.DefaultFileName
			}
			return runAmInit(cmd.OutOrStdout(), path, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file")
	return cmd
}

func runAmInit(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(errors.Newf("%s already exists", path),
			"pass --force to replace it; the old file is kept as "+path+".back1")
	}
	if err := am.Save(starterConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Wrote %s\n", pterm.Green(sym.OK), path)
	return nil
}

// starterConfig is a small feasible job exercising groups and every rule kind
func starterConfig() *am.Config {
	maxPerRound := 3
	return &am.Config{
		Job: job.Configuration{
			SchemaVersion:              "^" + version.SchemaVersion,
			PipelineCount:              4,
			PhaseCount:                 4,
			ResourceCount:              40,
			RoundCount:                 4,
			GroupCount:                 1,
			RuleCount:                  2,
			MaxAllowedResourcePerRound: &maxPerRound,
			Groups:                     [][]int{{1, 2, 3, 4}},
			Rules:                      "RESOURCE_2 > 30\nGROUP_1 = PHASE_4\n",
		},
		Solver: am.SolverConfig{Backend: am.DefaultBackend},
		Store:  am.StoreConfig{Path: am.DefaultStorePath},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
