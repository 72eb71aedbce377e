// Package commands implements the slotgrid command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/logger"
)

// NewRootCommand builds the slotgrid command tree. Each call returns fresh
// commands with fresh flag state.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "slotgrid",
		Short: "slotgrid - Rule-driven slot scheduling",
		Long: `slotgrid - Rule-driven slot scheduling

slotgrid places resources into the slots of a round × pipeline × phase grid
so that every rule of a job holds. Rules are written in a small comparison
language, e.g. "RESOURCE_2 > 30" or "GROUP_1 = PHASE_4".

Available commands:
  solve   - Solve job configurations
  parse   - Parse rule text and show its canonical form
  am      - Show and validate configuration
  runs    - Inspect recorded solves
  lsp     - Serve the rule language over stdio
  version - Show version information

Examples:
  slotgrid solve                        # Solve ./slotgrid.toml (or the nearest one above)
  slotgrid solve a.toml b.yaml -f json  # Solve two jobs concurrently, print JSON
  slotgrid solve job.toml --watch       # Re-solve whenever job.toml changes
  slotgrid parse rules.txt --tokens     # Show tokens and parsed rules
  slotgrid runs ls                      # List recorded solves`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbosity, _ := cmd.Flags().GetCount("verbose")
			jsonLogs, _ := cmd.Flags().GetBool("json-logs")
			if err := logger.Initialize(jsonLogs, verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Cleanup()
		},
	}

	root.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	root.PersistentFlags().Bool("json-logs", false, "Write logs as JSON to stderr")

	root.AddCommand(newSolveCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newAmCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newLspCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// verbosity returns the -v count of cmd
func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// applyLogConfig re-initializes the logger when a configuration file asks
// for more than the command line did
func applyLogConfig(cmd *cobra.Command, cfg am.LogConfig) {
	v := verbosity(cmd)
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	if cfg.Verbosity <= v && (!cfg.JSON || jsonLogs) {
		return
	}
	if cfg.Verbosity > v {
		v = cfg.Verbosity
	}
	if err := logger.Initialize(jsonLogs || cfg.JSON, v); err != nil {
		logger.Warnw("Failed to apply log configuration", logger.FieldError, err)
	}
}
