package rules

import (
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"
)

// identKinds is the match order for identifier prefixes. No prefix is a
// prefix of another, so order only affects speed.
var identKinds = []Kind{KindResource, KindGroup, KindPhase, KindPipeline, KindRound}

// Lexer splits rule text into tokens. A Lexer is single use: once it has
// returned end of input or an error, every later call returns the same.
type Lexer struct {
	src  string
	pos  positionTracker
	err  error
	done bool
}

// NewLexer creates a lexer over src
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, pos: newPositionTracker()}
}

// Next returns the next token. At end of input it returns a TokenEOF token
// positioned at the end of src. The first unrecognized character produces a
// *LexError and stops the lexer.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	l.skipSeparators()
	start := l.pos.mark()
	if l.done || start.Offset >= len(l.src) {
		l.done = true
		return Token{Type: TokenEOF, Range: Range{Start: start, End: start}}, nil
	}

	rest := l.src[start.Offset:]
	switch c := rest[0]; {
	case c == '=' || c == '>' || c == '<' || c == '!':
		return l.lexOperator(rest, start)
	case isDigit(c):
		return l.lexNumber(rest, start)
	default:
		return l.lexIdent(rest, start)
	}
}

// Tokens returns the remaining tokens as a lazy sequence. The sequence ends
// at end of input, or after yielding a single non-nil error.
func (l *Lexer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if tok.Type == TokenEOF {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// Tokenize lexes all of src. On error it returns the tokens read before the
// offending character together with the error.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	for tok, err := range NewLexer(src).Tokens() {
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

func (l *Lexer) skipSeparators() {
	for l.pos.offset < len(l.src) {
		c := l.src[l.pos.offset]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.pos.advance(l.src[l.pos.offset : l.pos.offset+1])
		case c == '#':
			end := strings.IndexByte(l.src[l.pos.offset:], '\n')
			if end < 0 {
				end = len(l.src) - l.pos.offset
			}
			l.pos.advance(l.src[l.pos.offset : l.pos.offset+end])
		default:
			return
		}
	}
}

func (l *Lexer) lexOperator(rest string, start Position) (Token, error) {
	text := rest[:1]
	if len(rest) > 1 && rest[1] == '=' && rest[0] != '=' {
		text = rest[:2]
	}
	var op Operator
	switch text {
	case "=":
		op = OpEQ
	case "!=":
		op = OpNEQ
	case ">":
		op = OpGT
	case "<":
		op = OpLT
	case ">=":
		op = OpGE
	case "<=":
		op = OpLE
	default:
		return l.fail(&LexError{Char: '!', Reason: "illegal character", Position: start})
	}
	return l.emit(Token{Type: TokenOperator, Op: op, Text: text}, start), nil
}

func (l *Lexer) lexNumber(rest string, start Position) (Token, error) {
	digits := leadingDigits(rest)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return l.fail(&LexError{Char: rune(digits[0]), Lexeme: digits, Reason: "integer literal out of range", Position: start})
	}
	return l.emit(Token{Type: TokenIdent, Entity: Number(n), Text: digits}, start), nil
}

func (l *Lexer) lexIdent(rest string, start Position) (Token, error) {
	for _, k := range identKinds {
		prefix := k.Prefix()
		if !strings.HasPrefix(rest, prefix) {
			continue
		}
		digits := leadingDigits(rest[len(prefix):])
		if digits == "" {
			return l.failMissingDigits(rest, prefix, start)
		}
		text := rest[:len(prefix)+len(digits)]
		n, err := strconv.Atoi(digits)
		if err != nil {
			return l.fail(&LexError{Char: rune(text[0]), Lexeme: text, Reason: "integer literal out of range", Position: start})
		}
		return l.emit(Token{Type: TokenIdent, Entity: Entity{Kind: k, Value: n}, Text: text}, start), nil
	}
	ch, _ := utf8.DecodeRuneInString(rest)
	return l.fail(&LexError{Char: ch, Reason: "illegal character", Position: start})
}

// failMissingDigits reports the character after an identifier prefix that
// should have been followed by digits
func (l *Lexer) failMissingDigits(rest, prefix string, start Position) (Token, error) {
	at := Position{
		Line:      start.Line,
		Character: start.Character + len(prefix),
		Offset:    start.Offset + len(prefix),
	}
	ch, _ := utf8.DecodeRuneInString(rest[len(prefix):])
	if len(rest) == len(prefix) {
		ch = 0
	}
	return l.fail(&LexError{Char: ch, Reason: "expected digits after " + prefix + ", found", Position: at})
}

func (l *Lexer) emit(tok Token, start Position) Token {
	l.pos.advance(tok.Text)
	tok.Range = Range{Start: start, End: l.pos.mark()}
	return tok
}

func (l *Lexer) fail(err *LexError) (Token, error) {
	l.err = err
	return Token{}, err
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
