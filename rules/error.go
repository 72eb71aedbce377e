package rules

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/slotgrid/errors"
)

// ErrorContext indicates the environment where rule errors will be displayed
type ErrorContext string

const (
	// ErrorContextTerminal renders with ANSI colors for the CLI
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain renders without ANSI codes (logs, LSP, tests)
	ErrorContextPlain ErrorContext = "plain"
)

// LexError reports the first character the lexer could not match.
// It unwraps to errors.ErrLex.
type LexError struct {
	Char     rune     // Offending character, 0 at end of input
	Lexeme   string   // Offending text when longer than one character
	Reason   string   // "illegal character", "integer literal out of range", "expected digits after GROUP_, found"
	Position Position // Where the offending text starts
}

func (e *LexError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// Unwrap for errors.Is(err, errors.ErrLex)
func (e *LexError) Unwrap() error {
	return errors.ErrLex
}

// Range spans the offending text
func (e *LexError) Range() Range {
	width := 1
	if e.Lexeme != "" {
		width = len([]rune(e.Lexeme))
	}
	end := e.Position
	if e.Char == 0 && e.Lexeme == "" {
		return Range{Start: e.Position, End: end}
	}
	end.Character += width
	end.Offset += len(e.Lexeme)
	if e.Lexeme == "" {
		end.Offset += len(string(e.Char))
	}
	return Range{Start: e.Position, End: end}
}

// FormatError generates a context-appropriate message
func (e *LexError) FormatError(ctx ErrorContext) string {
	subject := fmt.Sprintf("%q", e.Char)
	switch {
	case e.Lexeme != "":
		subject = fmt.Sprintf("%q", e.Lexeme)
	case e.Char == 0:
		subject = "end of input"
	}
	msg := fmt.Sprintf("%s %s at %s", e.Reason, subject, e.Position)
	if ctx == ErrorContextPlain {
		return msg
	}
	return pterm.Red(msg)
}

// ParseError reports a grammar violation. It unwraps to errors.ErrParse.
type ParseError struct {
	Expected    string   // Grammar element that was required
	Found       Token    // Token actually read (TokenEOF at end of input)
	Index       int      // 0-based index of the comparison being parsed
	Suggestions []string // Possible fixes
}

func newParseError(expected string, found Token, index int) *ParseError {
	return &ParseError{Expected: expected, Found: found, Index: index}
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ParseError) WithSuggestion(suggestion string) *ParseError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func (e *ParseError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// Unwrap for errors.Is(err, errors.ErrParse)
func (e *ParseError) Unwrap() error {
	return errors.ErrParse
}

// Range spans the offending token
func (e *ParseError) Range() Range {
	return e.Found.Range
}

// FormatError generates a context-appropriate message
func (e *ParseError) FormatError(ctx ErrorContext) string {
	msg := fmt.Sprintf("expected %s, found %s at %s (rule %d)",
		e.Expected, e.Found.Describe(), e.Found.Range.Start, e.Index+1)
	if ctx == ErrorContextPlain {
		if len(e.Suggestions) > 0 {
			msg += ". Suggestions: " + strings.Join(e.Suggestions, ", ")
		}
		return msg
	}

	var b strings.Builder
	b.WriteString(pterm.Red(msg))
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\n")
		b.WriteString(pterm.Green("Suggestions:"))
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}
	return b.String()
}

// Snippet renders the source line containing r with a caret marker under
// the span, for terminal error output.
func Snippet(source string, r Range) string {
	lines := strings.Split(source, "\n")
	if r.Start.Line < 1 || r.Start.Line > len(lines) {
		return ""
	}
	line := lines[r.Start.Line-1]
	width := 1
	if r.End.Line == r.Start.Line && r.End.Character > r.Start.Character {
		width = r.End.Character - r.Start.Character
	}
	gutter := fmt.Sprintf("%4d | ", r.Start.Line)
	marker := strings.Repeat(" ", len(gutter)+r.Start.Character) + strings.Repeat("^", width)
	return gutter + line + "\n" + marker
}
