// Package lsp provides language intelligence for slotgrid rule text:
// diagnostics, semantic tokens, hover and completion, and a stdio
// Language Server Protocol server built on them.
package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/job"
	"github.com/teranos/slotgrid/rules"
)

// Service analyses rule text. With a job attached, references are also
// checked against its counts.
type Service struct {
	job *job.Configuration
}

// NewService creates a language service. cfg may be nil.
func NewService(cfg *job.Configuration) *Service {
	return &Service{job: cfg}
}

// SemanticToken is one classified token
type SemanticToken struct {
	Text  string      `json:"text"`
	Type  uint32      `json:"type"`
	Range rules.Range `json:"range"`
	Token rules.Token `json:"-"`
}

// Diagnostic represents a lex or parse error, or a reference warning
type Diagnostic struct {
	Range       rules.Range `json:"range"`
	Severity    string      `json:"severity"`
	Message     string      `json:"message"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// Analysis is the result of Analyze
type Analysis struct {
	Tokens      []SemanticToken    `json:"tokens"`
	Diagnostics []Diagnostic       `json:"diagnostics"`
	Comparisons []rules.Comparison `json:"-"`
}

// Analyze tokenizes and parses text. Tokens are reported up to the first
// lexical error; a lex or parse error becomes a single error diagnostic.
func (s *Service) Analyze(ctx context.Context, text string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Analysis{}
	for tok, err := range rules.NewLexer(text).Tokens() {
		if err != nil {
			break
		}
		out.Tokens = append(out.Tokens, SemanticToken{
			Text:  tok.Text,
			Type:  tokenType(tok),
			Range: tok.Range,
			Token: tok,
		})
	}

	comparisons, err := rules.Parse(text)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, errorDiagnostic(err))
		return out, nil
	}
	out.Comparisons = comparisons
	out.Diagnostics = append(out.Diagnostics, s.referenceDiagnostics(comparisons, out.Tokens)...)
	return out, nil
}

func errorDiagnostic(err error) Diagnostic {
	var lexErr *rules.LexError
	var parseErr *rules.ParseError
	switch {
	case errors.As(err, &lexErr):
		return Diagnostic{Range: lexErr.Range(), Severity: SeverityError, Message: lexErr.Error()}
	case errors.As(err, &parseErr):
		return Diagnostic{
			Range:       parseErr.Range(),
			Severity:    SeverityError,
			Message:     fmt.Sprintf("expected %s, found %s", parseErr.Expected, parseErr.Found.Describe()),
			Suggestions: parseErr.Suggestions,
		}
	default:
		return Diagnostic{Severity: SeverityError, Message: err.Error()}
	}
}

// referenceDiagnostics flags resources and groups beyond the job's counts
// as errors, and structural coordinates outside the grid as warnings.
// Every comparison is exactly three tokens, so comparison i spans tokens
// 3i to 3i+2.
func (s *Service) referenceDiagnostics(comparisons []rules.Comparison, tokens []SemanticToken) []Diagnostic {
	if s.job == nil {
		return nil
	}
	layout := s.job.Layout()
	var out []Diagnostic
	for i, c := range comparisons {
		for side, e := range []rules.Entity{c.Left, c.Right} {
			var bound int
			severity := SeverityError
			switch e.Kind {
			case rules.KindResource:
				bound = s.job.ResourceCount
			case rules.KindGroup:
				bound = s.job.GroupCount
			case rules.KindPhase:
				bound, severity = layout.Phases, SeverityWarning
			case rules.KindPipeline:
				bound, severity = layout.Pipelines, SeverityWarning
			case rules.KindRound:
				bound, severity = layout.Rounds, SeverityWarning
			default:
				continue
			}
			if e.Value >= 1 && e.Value <= bound {
				continue
			}
			r := c.Range
			if t := 3*i + 2*side; t < len(tokens) {
				r = tokens[t].Range
			}
			out = append(out, Diagnostic{
				Range:    r,
				Severity: severity,
				Message:  fmt.Sprintf("%s out of range, %s count is %d", e, strings.ToLower(e.Kind.String()), bound),
			})
		}
	}
	return out
}

// Hover describes the token at a 1-based line and 0-based character, or
// returns "" when there is none
func (s *Service) Hover(ctx context.Context, text string, line, character int) (string, error) {
	a, err := s.Analyze(ctx, text)
	if err != nil {
		return "", err
	}
	for _, t := range a.Tokens {
		if t.Range.Start.Line != line || character < t.Range.Start.Character || character > t.Range.End.Character {
			continue
		}
		return s.describe(t.Token), nil
	}
	return "", nil
}

func (s *Service) describe(tok rules.Token) string {
	if tok.Type == rules.TokenOperator {
		return fmt.Sprintf("**%s** %s", tok.Text, tok.Op.Name())
	}
	e := tok.Entity
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", tok.Text)
	switch e.Kind {
	case rules.KindNumber:
		fmt.Fprintf(&b, " slot %d", e.Value)
	case rules.KindResource:
		fmt.Fprintf(&b, " resource %d", e.Value)
	case rules.KindGroup:
		fmt.Fprintf(&b, " group %d", e.Value)
		if s.job != nil {
			if members := s.job.Members(e.Value); members != nil {
				fmt.Fprintf(&b, ": resources %v", members)
			}
		}
	case rules.KindPhase:
		fmt.Fprintf(&b, " phase %d: slots x with (x-1) mod phases = %d", e.Value, e.Value-1)
	case rules.KindPipeline:
		fmt.Fprintf(&b, " pipeline %d: slots x with ((x-1) div phases) mod pipelines = %d", e.Value, e.Value-1)
	case rules.KindRound:
		fmt.Fprintf(&b, " round %d: slots x with (x-1) div (pipelines·phases) = %d", e.Value, e.Value-1)
	}
	return b.String()
}

// CompletionItem is one suggestion
type CompletionItem struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"` // operator, entity
	Detail     string `json:"detail,omitempty"`
	InsertText string `json:"insert_text,omitempty"`
}

// Complete suggests what may follow the text before the cursor: a left
// operand at the start of a comparison, an operator after it, any operand
// after the operator
func (s *Service) Complete(ctx context.Context, text string, line, character int) ([]CompletionItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := textBefore(text, line, character)

	// n counts complete tokens. A lex error means the cursor sits in an
	// unfinished identifier, and a token touching the cursor is still
	// being typed; neither counts.
	n, lastEnd := 0, -1
	for tok, err := range rules.NewLexer(prefix).Tokens() {
		if err != nil {
			lastEnd = -1
			break
		}
		if tok.Type != rules.TokenEOF {
			n++
			lastEnd = tok.Range.End.Offset
		}
	}
	if lastEnd == len(prefix) {
		n--
	}

	switch n % 3 {
	case 1:
		return operatorItems(), nil
	case 2:
		return s.entityItems(rules.KindNumber, rules.KindPhase, rules.KindPipeline, rules.KindRound, rules.KindResource, rules.KindGroup), nil
	default:
		return s.entityItems(rules.KindResource, rules.KindGroup), nil
	}
}

func operatorItems() []CompletionItem {
	items := make([]CompletionItem, len(rules.Operators))
	for i, op := range rules.Operators {
		items[i] = CompletionItem{Label: op.String(), Kind: "operator", Detail: op.Name()}
	}
	return items
}

func (s *Service) entityItems(kinds ...rules.Kind) []CompletionItem {
	var items []CompletionItem
	for _, k := range kinds {
		if k == rules.KindNumber {
			continue
		}
		label := k.Prefix() + "1"
		item := CompletionItem{Label: label, Kind: "entity", Detail: strings.ToLower(k.String()), InsertText: label}
		if s.job != nil {
			if bound := s.bound(k); bound > 0 {
				item.Detail = fmt.Sprintf("%s 1..%d", strings.ToLower(k.String()), bound)
			}
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) bound(k rules.Kind) int {
	switch k {
	case rules.KindResource:
		return s.job.ResourceCount
	case rules.KindGroup:
		return s.job.GroupCount
	case rules.KindPhase:
		return s.job.PhaseCount
	case rules.KindPipeline:
		return s.job.PipelineCount
	case rules.KindRound:
		return s.job.RoundCount
	default:
		return 0
	}
}

// textBefore returns text up to a 1-based line and 0-based character
func textBefore(text string, line, character int) string {
	lines := strings.SplitAfter(text, "\n")
	if line < 1 || line > len(lines) {
		return text
	}
	var b strings.Builder
	for _, l := range lines[:line-1] {
		b.WriteString(l)
	}
	runes := []rune(lines[line-1])
	if character > len(runes) {
		character = len(runes)
	}
	b.WriteString(string(runes[:character]))
	return b.String()
}

func tokenType(tok rules.Token) uint32 {
	if tok.Type == rules.TokenOperator {
		return TokenTypeOperator
	}
	switch tok.Entity.Kind {
	case rules.KindNumber:
		return TokenTypeNumber
	case rules.KindResource:
		return TokenTypeVariable
	case rules.KindGroup:
		return TokenTypeNamespace
	default:
		return TokenTypeProperty
	}
}

// EncodeSemanticTokens converts tokens to the LSP wire format: 5-tuples
// (deltaLine, deltaStart, length, tokenType, tokenModifiers) relative to
// the previous token, with 0-based lines
func EncodeSemanticTokens(tokens []SemanticToken) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	var prevLine, prevChar uint32

	for _, token := range tokens {
		line := uint32(token.Range.Start.Line - 1)
		char := uint32(token.Range.Start.Character)

		deltaLine := line - prevLine
		deltaStart := char
		if deltaLine == 0 {
			deltaStart = char - prevChar
		}
		data = append(data, deltaLine, deltaStart, uint32(len([]rune(token.Text))), token.Type, 0)

		prevLine = line
		prevChar = char
	}
	return data
}
