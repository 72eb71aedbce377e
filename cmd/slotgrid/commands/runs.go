package commands

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/display"
	"github.com/teranos/slotgrid/logger"
	"github.com/teranos/slotgrid/store"
	"github.com/teranos/slotgrid/sym"
)

func newRunsCmd() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: sym.Short("runs"),
		Long: sym.Runs + ` runs — Inspect recorded solves

Every successful slotgrid solve records a run: the source file, backend,
status, grid, statistics and the assignment. Runs live in the SQLite file
named by store.path of the nearest configuration, or --store.

Examples:
  slotgrid runs ls                 # Most recent runs
  slotgrid runs show 3f2a          # One run, by ID or unique ID prefix
  slotgrid runs prune --keep 100   # Delete all but the 100 most recent runs`,
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "Run store path (default: store.path of the nearest configuration)")

	open := func() (*sql.DB, *store.RunStore, error) {
		path := resolveStorePath(storePath)
		log := logger.ComponentLogger("store")
		db, err := store.OpenWithMigrations(path, log)
		if err != nil {
			return nil, nil, err
		}
		return db, store.NewRunStore(db, log), nil
	}

	var (
		limit  int
		format string
	)
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List recorded runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := display.ParseFormat(format)
			if err != nil {
				return err
			}
			db, runs, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return display.Write(cmd.OutOrStdout(), list, f, func() string { return display.RunsTable(list) })
		},
	}
	ls.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	ls.Flags().StringVarP(&format, "format", "f", string(display.FormatTable), "Output format: table, json, yaml, toml")

	var showFormat string
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run with its assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := display.ParseFormat(showFormat)
			if err != nil {
				return err
			}
			db, runs, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := runs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return display.Write(cmd.OutOrStdout(), run, f, func() string { return runDetail(run) })
		},
	}
	show.Flags().StringVarP(&showFormat, "format", "f", string(display.FormatTable), "Output format: table, json, yaml, toml")

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, runs, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := runs.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs\n", n)
			return nil
		},
	}
	prune.Flags().IntVar(&keep, "keep", 100, "Number of most recent runs to keep")

	cmd.AddCommand(ls, show, prune)
	return cmd
}

// resolveStorePath prefers an explicit path, then store.path of the
// nearest configuration, then am.DefaultStorePath
func resolveStorePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path, err := am.Resolve(""); err == nil {
		if v, err := am.NewViper(path); err == nil {
			if cfg, err := am.LoadWithViper(v); err == nil && cfg.Store.Path != "" {
				return cfg.Store.Path
			}
		}
	}
	return am.DefaultStorePath
}

func runDetail(run store.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", run.ID)
	fmt.Fprintf(&b, "created %s from %s with %s in %s\n",
		run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Source, run.Backend, run.WallTime)
	fmt.Fprintf(&b, "%d variables, %d constraints, %d rules\n", run.Variables, run.Constraints, run.Rules)
	b.WriteString(display.SolutionTable(run.Solution()))
	return b.String()
}
