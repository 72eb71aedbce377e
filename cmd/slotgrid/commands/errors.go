package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/rules"
)

// ruleSourceError carries the rule text a positioned error points into
type ruleSourceError struct {
	cause error
	file  string
	text  string
}

func (e *ruleSourceError) Error() string {
	return e.file + ": " + e.cause.Error()
}

func (e *ruleSourceError) Unwrap() error {
	return e.cause
}

func withRuleSource(err error, file, text string) error {
	if err == nil {
		return nil
	}
	return &ruleSourceError{cause: err, file: file, text: text}
}

// ranged is implemented by every error that points into rule text
type ranged interface {
	Range() rules.Range
}

// RenderError writes err for a terminal: the stage, the message, a snippet
// of the offending rule text when known, and any hints
func RenderError(w io.Writer, err error) {
	var (
		src      *ruleSourceError
		lexErr   *rules.LexError
		parseErr *rules.ParseError
		rng      ranged
	)

	msg := err.Error()
	errors.As(err, &src)
	switch {
	case errors.As(err, &parseErr):
		msg = parseErr.FormatError(rules.ErrorContextTerminal)
	case errors.As(err, &lexErr):
		msg = lexErr.FormatError(rules.ErrorContextTerminal)
	}
	if src != nil && (parseErr != nil || lexErr != nil) {
		msg = src.file + ": " + msg
	}

	label := "Error"
	if stage := errors.Stage(err); stage != "" {
		label = strings.ToUpper(stage[:1]) + stage[1:] + " error"
	}
	fmt.Fprintf(w, "%s %s\n", pterm.Red(label+":"), msg)

	if src != nil && errors.As(err, &rng) {
		if snippet := rules.Snippet(src.text, rng.Range()); snippet != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, snippet)
		}
	}

	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "%s %s\n", pterm.Green("Hint:"), hint)
	}
}
