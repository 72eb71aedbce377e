package commands

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/display"
	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/rules"
	"github.com/teranos/slotgrid/sym"
)

func newParseCmd() *cobra.Command {
	var showTokens bool

	cmd := &cobra.Command{
		Use:   "parse <rules-file|config|->",
		Short: sym.Short("parse"),
		Long: sym.Parse + ` parse — Parse rule text and show its canonical form

Reads rules from a plain text file, from the job.rules of a configuration
file (.toml, .yaml, .yml, .json), or from stdin when the argument is "-".
Prints one comparison per line, or the first error with its position.

Examples:
  slotgrid parse rules.txt
  slotgrid parse slotgrid.toml --tokens
  echo "RESOURCE_2 > 30" | slotgrid parse -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.OutOrStdout(), cmd.InOrStdin(), args[0], showTokens)
		},
	}
	cmd.Flags().BoolVarP(&showTokens, "tokens", "t", false, "Also print the token table")
	return cmd
}

func runParse(w io.Writer, stdin io.Reader, arg string, showTokens bool) error {
	text, err := readRules(stdin, arg)
	if err != nil {
		return err
	}

	if showTokens {
		tokens, err := rules.Tokenize(text)
		if err != nil {
			return withRuleSource(err, arg, text)
		}
		if _, err := io.WriteString(w, display.TokensTable(tokens)); err != nil {
			return err
		}
	}

	comparisons, err := rules.Parse(text)
	if err != nil {
		return withRuleSource(err, arg, text)
	}
	_, err = io.WriteString(w, rules.Format(comparisons))
	return err
}

// readRules returns the rule text named by arg
func readRules(stdin io.Reader, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(data), nil
	}

	switch strings.ToLower(filepath.Ext(arg)) {
	case ".toml", ".yaml", ".yml", ".json":
		v, err := am.NewViper(arg)
		if err != nil {
			return "", err
		}
		cfg, err := am.LoadWithViper(v)
		if err != nil {
			return "", err
		}
		return cfg.Job.Rules, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", arg)
	}
	return string(data), nil
}
