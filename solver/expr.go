package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// IntVar is a handle on an integer variable of one Model
type IntVar struct {
	id     int
	lo, hi int64
	name   string
}

// ID is the variable's index in its model
func (v IntVar) ID() int { return v.id }

// Name is the label given at creation
func (v IntVar) Name() string { return v.name }

// Bounds returns the inclusive domain
func (v IntVar) Bounds() (lo, hi int64) { return v.lo, v.hi }

// DomainSize is the number of values in the domain, 0 when empty
func (v IntVar) DomainSize() int64 {
	if v.hi < v.lo {
		return 0
	}
	return v.hi - v.lo + 1
}

func (v IntVar) String() string {
	if v.name != "" {
		return v.name
	}
	return "v" + strconv.Itoa(v.id)
}

// BoolVar is an integer variable over {0, 1}
type BoolVar struct {
	IntVar
}

// Op is a comparison relation between a linear expression and a constant
type Op uint8

const (
	OpEQ Op = iota + 1
	OpNEQ
	OpGT
	OpLT
	OpGE
	OpLE
)

func (op Op) String() string {
	switch op {
	case OpEQ:
		return "=="
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
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Holds evaluates a op b
func (op Op) Holds(a, b int64) bool {
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

func (op Op) valid() bool {
	return op >= OpEQ && op <= OpLE
}

// Term is Coef·Var
type Term struct {
	Var  IntVar
	Coef int64
}

// LinearExpr is Σ Coef·Var + Const
type LinearExpr struct {
	Terms []Term
	Const int64
}

// VarExpr is the expression 1·v
func VarExpr(v IntVar) LinearExpr {
	return LinearExpr{Terms: []Term{{Var: v, Coef: 1}}}
}

// Affine is the expression coef·v + c
func Affine(v IntVar, coef, c int64) LinearExpr {
	return LinearExpr{Terms: []Term{{Var: v, Coef: coef}}, Const: c}
}

// Constant is an expression without variables
func Constant(c int64) LinearExpr {
	return LinearExpr{Const: c}
}

// SumBools is the number of true variables among bs
func SumBools(bs ...BoolVar) LinearExpr {
	e := LinearExpr{Terms: make([]Term, len(bs))}
	for i, b := range bs {
		e.Terms[i] = Term{Var: b.IntVar, Coef: 1}
	}
	return e
}

// Minus returns e - o
func (e LinearExpr) Minus(o LinearExpr) LinearExpr {
	out := LinearExpr{Terms: make([]Term, 0, len(e.Terms)+len(o.Terms)), Const: e.Const - o.Const}
	out.Terms = append(out.Terms, e.Terms...)
	for _, t := range o.Terms {
		out.Terms = append(out.Terms, Term{Var: t.Var, Coef: -t.Coef})
	}
	return out
}

// Normalize merges terms over the same variable and drops zero
// coefficients. Term order follows first occurrence.
func (e LinearExpr) Normalize() LinearExpr {
	out := LinearExpr{Const: e.Const}
	index := make(map[int]int, len(e.Terms))
	for _, t := range e.Terms {
		if i, ok := index[t.Var.id]; ok {
			out.Terms[i].Coef += t.Coef
			continue
		}
		index[t.Var.id] = len(out.Terms)
		out.Terms = append(out.Terms, t)
	}
	kept := out.Terms[:0]
	for _, t := range out.Terms {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	out.Terms = kept
	return out
}

// Eval computes the expression under an assignment indexed by variable ID
func (e LinearExpr) Eval(values []int64) int64 {
	sum := e.Const
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var.id]
	}
	return sum
}

func (e LinearExpr) String() string {
	var b strings.Builder
	for i, t := range e.Terms {
		coef := t.Coef
		switch {
		case i > 0 && coef < 0:
			b.WriteString(" - ")
			coef = -coef
		case i > 0:
			b.WriteString(" + ")
		case coef == -1:
			b.WriteString("-")
			coef = 1
		}
		if coef != 1 {
			b.WriteString(strconv.FormatInt(coef, 10) + "·")
		}
		b.WriteString(t.Var.String())
	}
	switch {
	case len(e.Terms) == 0:
		b.WriteString(strconv.FormatInt(e.Const, 10))
	case e.Const > 0:
		b.WriteString(" + " + strconv.FormatInt(e.Const, 10))
	case e.Const < 0:
		b.WriteString(" - " + strconv.FormatInt(-e.Const, 10))
	}
	return b.String()
}

// Linear is the constraint Expr Op RHS
type Linear struct {
	Expr LinearExpr
	Op   Op
	RHS  int64
}

// Compare builds a op b as (a - b) op 0
func Compare(a LinearExpr, op Op, b LinearExpr) Linear {
	d := a.Minus(b)
	rhs := -d.Const
	d.Const = 0
	return Linear{Expr: d, Op: op, RHS: rhs}
}

// Holds evaluates the constraint under an assignment indexed by variable ID
func (c Linear) Holds(values []int64) bool {
	return c.Op.Holds(c.Expr.Eval(values), c.RHS)
}

func (c Linear) String() string {
	return c.Expr.String() + " " + c.Op.String() + " " + strconv.FormatInt(c.RHS, 10)
}
