package rules

import "fmt"

// TokenType distinguishes operator tokens from identifier tokens
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenOperator
	TokenIdent
)

// Token is one lexical unit of rule text. Identifier tokens carry an
// Entity (numbers included); operator tokens carry an Operator.
type Token struct {
	Type   TokenType
	Op     Operator
	Entity Entity
	Text   string
	Range  Range
}

// Describe names the token for diagnostics: `RESOURCE_ID "RESOURCE_2"`,
// `operator ">="` or `end of input`.
func (t Token) Describe() string {
	switch t.Type {
	case TokenOperator:
		return fmt.Sprintf("operator %q", t.Text)
	case TokenIdent:
		return fmt.Sprintf("%s %q", t.Entity.Kind.TokenName(), t.Text)
	default:
		return "end of input"
	}
}
