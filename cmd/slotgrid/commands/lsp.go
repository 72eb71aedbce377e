package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/job"
	"github.com/teranos/slotgrid/logger"
	"github.com/teranos/slotgrid/lsp"
	"github.com/teranos/slotgrid/sym"
)

func newLspCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: sym.Short("lsp"),
		Long: sym.LSP + ` lsp — Serve the rule language over stdio

Starts a Language Server Protocol server on stdin/stdout providing
diagnostics, semantic tokens, hover and completion for rule text. With
--config, references are also checked against the job's counts.

Logs go to stderr so they never mix with the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *job.Configuration
			if configPath != "" {
				loaded, err := am.Load(configPath)
				if err != nil {
					return err
				}
				cfg = &loaded.Job
			}
			log := logger.ComponentLogger("lsp")
			log.Infow("Starting language server", "config", configPath)
			return lsp.Serve(cmd.Context(), lsp.NewService(cfg), log)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration whose job bounds references")
	return cmd
}
