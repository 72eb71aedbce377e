package rules

const (
	expectLeftarg  = "RESOURCE_ID or GROUP_ID"
	expectOperator = "operator"
	expectFactor   = "NUMBER, PHASE_ID, ROUND_ID, PIPELINE_ID, RESOURCE_ID or GROUP_ID"
)

// Parser turns rule text into comparisons. It keeps no state between calls;
// the zero value is ready to use and one Parser may serve concurrent callers.
type Parser struct{}

// NewParser returns a Parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse is a convenience for NewParser().Parse(text)
func Parse(text string) ([]Comparison, error) {
	return NewParser().Parse(text)
}

// Parse reads every comparison in text. Any lexical or grammatical error
// aborts the parse: the result is then nil and the error is a *LexError or
// a *ParseError.
func (p *Parser) Parse(text string) ([]Comparison, error) {
	st := &parseState{lex: NewLexer(text)}
	return st.program()
}

type parseState struct {
	lex   *Lexer
	index int // comparison being parsed, for diagnostics
}

// program := comparison*
func (s *parseState) program() ([]Comparison, error) {
	var out []Comparison
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return out, nil
		}
		c, err := s.comparison(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		s.index++
	}
}

// comparison := leftarg operator factor
func (s *parseState) comparison(first Token) (Comparison, error) {
	if first.Type != TokenIdent || !first.Entity.Kind.CanLead() {
		perr := newParseError(expectLeftarg, first, s.index)
		if first.Type == TokenIdent && first.Entity.Kind.Structural() {
			perr.WithSuggestion("put the resource or group on the left, e.g. RESOURCE_1 = " + first.Text)
		} else {
			perr.WithSuggestion("every rule starts with RESOURCE_n or GROUP_n")
		}
		return Comparison{}, perr
	}

	opTok, err := s.lex.Next()
	if err != nil {
		return Comparison{}, err
	}
	if opTok.Type != TokenOperator {
		return Comparison{}, newParseError(expectOperator, opTok, s.index).
			WithSuggestion("use one of = != > < >= <=")
	}

	right, err := s.lex.Next()
	if err != nil {
		return Comparison{}, err
	}
	if right.Type != TokenIdent {
		perr := newParseError(expectFactor, right, s.index)
		if right.Type == TokenEOF {
			perr.WithSuggestion("complete the rule, e.g. " + first.Text + " " + opTok.Text + " 1")
		}
		return Comparison{}, perr
	}

	return Comparison{
		Left:  first.Entity,
		Op:    opTok.Op,
		Right: right.Entity,
		Range: Range{Start: first.Range.Start, End: right.Range.End},
	}, nil
}
