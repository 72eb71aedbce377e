package rules

import "fmt"

// Operator is a comparison operator. The set is closed.
type Operator uint8

const (
	OpEQ Operator = iota + 1
	OpNEQ
	OpGT
	OpLT
	OpGE
	OpLE
)

// Operators lists every Operator in declaration order
var Operators = []Operator{OpEQ, OpNEQ, OpGT, OpLT, OpGE, OpLE}

// String returns the operator as written in rule text
func (op Operator) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNEQ:
		return "!="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpGE:
		return ">="
	case OpLE:
		return "<="
	default:
		return fmt.Sprintf("Operator(%d)", uint8(op))
	}
}

// Name is the symbolic name used in diagnostics and JSON (EQ, NEQ, ...)
func (op Operator) Name() string {
	switch op {
	case OpEQ:
		return "EQ"
	case OpNEQ:
		return "NEQ"
	case OpGT:
		return "GT"
	case OpLT:
		return "LT"
	case OpGE:
		return "GE"
	case OpLE:
		return "LE"
	default:
		return "UNKNOWN"
	}
}

// Holds evaluates a op b
func (op Operator) Holds(a, b int) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNEQ:
		return a != b
	case OpGT:
		return a > b
	case OpLT:
		return a < b
	case OpGE:
		return a >= b
	case OpLE:
		return a <= b
	default:
		return false
	}
}

// MarshalText renders the operator symbol
func (op Operator) MarshalText() ([]byte, error) {
	if op < OpEQ || op > OpLE {
		return nil, fmt.Errorf("invalid operator %d", uint8(op))
	}
	return []byte(op.String()), nil
}
