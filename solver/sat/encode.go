package sat

import (
	"context"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/solver"
)

// maxDomain bounds the literals allocated for one integer variable
const maxDomain = 1 << 20

// pairwiseLimit is the largest group encoded with pairwise at-most-one
// clauses; larger groups use a sequential counter.
const pairwiseLimit = 6

// encoder translates a recorded model into CNF. Literals come from a logic
// circuit so cardinality networks and plain clauses share one variable
// space.
type encoder struct {
	ctx     context.Context
	c       *logic.C
	vars    []solver.IntVar
	lits    [][]z.Lit // lits[id][value-lo]
	ladders [][]z.Lit // ladders[id][t-lo-1] is value >= t, built on demand
	clauses [][]z.Lit
	unsat   bool  // an empty clause was derived while encoding
	err     error // ctx ended before encoding finished
}

// encode translates r into CNF. It returns ctx's error when ctx ends
// first.
func encode(ctx context.Context, r *solver.Recorder) (*encoder, error) {
	e := &encoder{ctx: ctx, c: logic.NewC(), vars: r.Vars()}
	e.lits = make([][]z.Lit, len(e.vars))
	e.ladders = make([][]z.Lit, len(e.vars))

	for _, v := range e.vars {
		if e.interrupted() {
			return nil, e.err
		}
		n := v.DomainSize()
		if n == 0 {
			e.unsat = true
			return e, nil
		}
		if n > maxDomain {
			return nil, errors.Mark(
				errors.Newf("sat backend cannot encode %s: domain of %d values", v, n),
				errors.ErrUnsupported)
		}
		ls := make([]z.Lit, n)
		for i := range ls {
			ls[i] = e.c.Lit()
		}
		e.lits[v.ID()] = ls
		e.addClause(ls...)
		e.atMostOne(ls)
	}

	for _, c := range r.Constraints() {
		if e.interrupted() {
			return nil, e.err
		}
		e.constraint(c)
		if e.unsat {
			break
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e, nil
}

func (e *encoder) interrupted() bool {
	if e.err == nil {
		e.err = e.ctx.Err()
	}
	return e.err != nil
}

func (e *encoder) constraint(c solver.Constraint) {
	var guard []z.Lit
	if c.Enforce != nil {
		guard = []z.Lit{e.lits[c.Enforce.ID()][1].Not()}
	}

	switch c.Kind {
	case solver.ConstraintAllDifferent:
		e.allDifferent(c.Vars)
	case solver.ConstraintLinear:
		e.linear(c.Linear, guard)
	case solver.ConstraintModulo:
		e.arith(c, func(x int64) int64 { return x % c.Divisor })
	case solver.ConstraintDivision:
		e.arith(c, func(x int64) int64 { return x / c.Divisor })
	}
}

// allDifferent allows at most one variable per value
func (e *encoder) allDifferent(vars []solver.IntVar) {
	if len(vars) < 2 {
		return
	}
	lo, hi := vars[0].Bounds()
	for _, v := range vars[1:] {
		vlo, vhi := v.Bounds()
		lo, hi = min(lo, vlo), max(hi, vhi)
	}
	group := make([]z.Lit, 0, len(vars))
	for val := lo; val <= hi; val++ {
		if e.interrupted() {
			return
		}
		group = group[:0]
		for _, v := range vars {
			if m, ok := e.lit(v, val); ok {
				group = append(group, m)
			}
		}
		e.atMostOne(group)
	}
}

func (e *encoder) linear(l solver.Linear, guard []z.Lit) {
	expr := l.Expr.Normalize()
	k := l.RHS - expr.Const

	switch len(expr.Terms) {
	case 0:
		if !l.Op.Holds(0, k) {
			e.addClause(guard...)
		}
	case 1:
		t := expr.Terms[0]
		lo, hi := t.Var.Bounds()
		for val := lo; val <= hi; val++ {
			if !l.Op.Holds(t.Coef*val, k) {
				m, _ := e.lit(t.Var, val)
				e.addClause(append(guard, m.Not())...)
			}
		}
	case 2:
		a, b := expr.Terms[0], expr.Terms[1]
		if unitDifference(expr) {
			if a.Coef < 0 {
				a, b = b, a
			}
			e.difference(a.Var, b.Var, l.Op, k, guard)
			return
		}
		alo, ahi := a.Var.Bounds()
		blo, bhi := b.Var.Bounds()
		for av := alo; av <= ahi; av++ {
			if e.interrupted() {
				return
			}
			ma, _ := e.lit(a.Var, av)
			for bv := blo; bv <= bhi; bv++ {
				if !l.Op.Holds(a.Coef*av+b.Coef*bv, k) {
					mb, _ := e.lit(b.Var, bv)
					e.addClause(append(guard, ma.Not(), mb.Not())...)
				}
			}
		}
	default:
		e.cardinality(expr, l.Op, int(k), guard)
	}
}

// difference encodes x - y op k: for each value w of y, y = w implies
// x op w+k, stated on x's ladder.
func (e *encoder) difference(x, y solver.IntVar, op solver.Op, k int64, guard []z.Lit) {
	lo, hi := y.Bounds()
	for w := lo; w <= hi; w++ {
		my, _ := e.lit(y, w)
		premise := make([]z.Lit, 0, len(guard)+2)
		premise = append(premise, guard...)
		premise = append(premise, my.Not())
		e.implyBound(x, op, w+k, premise)
	}
}

// implyBound adds premise ∨ (x op c)
func (e *encoder) implyBound(x solver.IntVar, op solver.Op, c int64, premise []z.Lit) {
	switch op {
	case solver.OpEQ:
		if m, ok := e.lit(x, c); ok {
			e.addClause(append(premise, m)...)
		} else {
			e.addClause(premise...)
		}
	case solver.OpNEQ:
		if m, ok := e.lit(x, c); ok {
			e.addClause(append(premise, m.Not())...)
		}
	case solver.OpGE, solver.OpGT:
		if op == solver.OpGT {
			c++
		}
		m, known, holds := e.atLeast(x, c)
		switch {
		case !known:
			e.addClause(append(premise, m)...)
		case !holds:
			e.addClause(premise...)
		}
	case solver.OpLE, solver.OpLT:
		if op == solver.OpLT {
			c--
		}
		m, known, holds := e.atLeast(x, c+1)
		switch {
		case !known:
			e.addClause(append(premise, m.Not())...)
		case holds:
			e.addClause(premise...)
		}
	}
}

// atLeast returns the literal for v >= t. When the bound is decided by
// v's domain alone, known is true and holds gives its value.
func (e *encoder) atLeast(v solver.IntVar, t int64) (m z.Lit, known, holds bool) {
	lo, hi := v.Bounds()
	switch {
	case t <= lo:
		return z.LitNull, true, true
	case t > hi:
		return z.LitNull, true, false
	}
	return e.ladder(v)[t-lo-1], false, false
}

// ladder builds the order literals of v from its one-hot literals:
// ge[i] holds iff v >= lo+i+1, that is ms[i+1] ∨ ge[i+1].
func (e *encoder) ladder(v solver.IntVar) []z.Lit {
	if ge := e.ladders[v.ID()]; ge != nil {
		return ge
	}
	ms := e.lits[v.ID()]
	n := len(ms) - 1
	ge := make([]z.Lit, n)
	for i := range ge {
		ge[i] = e.c.Lit()
	}
	for i := n - 1; i >= 0; i-- {
		e.addClause(ms[i+1].Not(), ge[i])
		if i == n-1 {
			e.addClause(ge[i].Not(), ms[i+1])
			continue
		}
		e.addClause(ge[i+1].Not(), ge[i])
		e.addClause(ge[i].Not(), ms[i+1], ge[i+1])
	}
	e.ladders[v.ID()] = ge
	return ge
}

// cardinality encodes Σ bools op k with a sorting network
func (e *encoder) cardinality(expr solver.LinearExpr, op solver.Op, k int, guard []z.Lit) {
	ms := make([]z.Lit, len(expr.Terms))
	for i, t := range expr.Terms {
		ms[i] = e.lits[t.Var.ID()][1]
	}
	cs := e.c.CardSort(ms)

	switch op {
	case solver.OpEQ:
		e.addClause(append(guard, cs.Leq(k))...)
		e.addClause(append(guard, cs.Geq(k))...)
	case solver.OpNEQ:
		e.addClause(append(guard, cs.Leq(k-1), cs.Geq(k+1))...)
	case solver.OpGT:
		e.addClause(append(guard, cs.Geq(k+1))...)
	case solver.OpLT:
		e.addClause(append(guard, cs.Leq(k-1))...)
	case solver.OpGE:
		e.addClause(append(guard, cs.Geq(k))...)
	case solver.OpLE:
		e.addClause(append(guard, cs.Leq(k))...)
	}
}

// arith encodes result == f(dividend) value by value of the dividend's
// single variable
func (e *encoder) arith(c solver.Constraint, f func(int64) int64) {
	expr := c.Dividend.Normalize()
	if len(expr.Terms) == 0 {
		if m, ok := e.lit(c.Result, f(expr.Const)); ok {
			e.addClause(m)
		} else {
			e.addClause()
		}
		return
	}

	t := expr.Terms[0]
	lo, hi := t.Var.Bounds()
	for val := lo; val <= hi; val++ {
		if val&0xfff == 0 && e.interrupted() {
			return
		}
		m, _ := e.lit(t.Var, val)
		if r, ok := e.lit(c.Result, f(t.Coef*val+expr.Const)); ok {
			e.addClause(m.Not(), r)
		} else {
			e.addClause(m.Not())
		}
	}
}

// atMostOne uses pairwise clauses for small groups and Sinz's sequential
// counter otherwise
func (e *encoder) atMostOne(ms []z.Lit) {
	n := len(ms)
	if n < 2 {
		return
	}
	if n <= pairwiseLimit {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				e.addClause(ms[i].Not(), ms[j].Not())
			}
		}
		return
	}

	s := make([]z.Lit, n-1)
	for i := range s {
		s[i] = e.c.Lit()
	}
	e.addClause(ms[0].Not(), s[0])
	for i := 1; i < n-1; i++ {
		e.addClause(ms[i].Not(), s[i])
		e.addClause(s[i-1].Not(), s[i])
		e.addClause(ms[i].Not(), s[i-1].Not())
	}
	e.addClause(ms[n-1].Not(), s[n-2].Not())
}

func (e *encoder) lit(v solver.IntVar, val int64) (z.Lit, bool) {
	lo, hi := v.Bounds()
	if val < lo || val > hi {
		return z.LitNull, false
	}
	return e.lits[v.ID()][val-lo], true
}

func (e *encoder) addClause(ms ...z.Lit) {
	if len(ms) == 0 {
		e.unsat = true
		return
	}
	e.clauses = append(e.clauses, append([]z.Lit(nil), ms...))
}

func (e *encoder) clauseCount() int {
	return len(e.clauses)
}

// load teaches the circuit's gate definitions and the clauses to g,
// returning ctx's error if it ends first
func (e *encoder) load(ctx context.Context, g inter.Adder) error {
	e.c.ToCnf(g)
	for i, clause := range e.clauses {
		if i&0xffff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for _, m := range clause {
			g.Add(m)
		}
		g.Add(z.LitNull)
	}
	return nil
}

// decode reads the value of every integer variable from a SAT model
func (e *encoder) decode(g inter.Model) []int64 {
	values := make([]int64, len(e.vars))
	for _, v := range e.vars {
		lo, _ := v.Bounds()
		for i, m := range e.lits[v.ID()] {
			if g.Value(m) {
				values[v.ID()] = lo + int64(i)
				break
			}
		}
	}
	return values
}
