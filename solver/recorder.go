package solver

import (
	"fmt"
	"strings"

	"github.com/teranos/slotgrid/errors"
)

// ConstraintKind tags a recorded constraint
type ConstraintKind uint8

const (
	ConstraintAllDifferent ConstraintKind = iota + 1
	ConstraintLinear
	ConstraintModulo
	ConstraintDivision
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintAllDifferent:
		return "all_different"
	case ConstraintLinear:
		return "linear"
	case ConstraintModulo:
		return "modulo"
	case ConstraintDivision:
		return "division"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", uint8(k))
	}
}

// Constraint is one recorded constraint. Which fields are set depends on
// Kind. Modulo and division truncate toward zero, like Go's % and /.
type Constraint struct {
	Kind     ConstraintKind
	Vars     []IntVar   // all_different
	Linear   Linear     // linear
	Result   IntVar     // modulo, division
	Dividend LinearExpr // modulo, division
	Divisor  int64      // modulo, division
	Enforce  *BoolVar   // nil unless posted with AddConditional
}

// Holds evaluates the constraint under a complete assignment indexed by
// variable ID. A conditional constraint holds trivially when its enforcing
// variable is 0.
func (c Constraint) Holds(values []int64) bool {
	if c.Enforce != nil && values[c.Enforce.id] == 0 {
		return true
	}
	switch c.Kind {
	case ConstraintAllDifferent:
		seen := make(map[int64]struct{}, len(c.Vars))
		for _, v := range c.Vars {
			if _, dup := seen[values[v.id]]; dup {
				return false
			}
			seen[values[v.id]] = struct{}{}
		}
		return true
	case ConstraintLinear:
		return c.Linear.Holds(values)
	case ConstraintModulo:
		return values[c.Result.id] == c.Dividend.Eval(values)%c.Divisor
	case ConstraintDivision:
		return values[c.Result.id] == c.Dividend.Eval(values)/c.Divisor
	default:
		return false
	}
}

// Scope returns the IDs of every variable the constraint reads
func (c Constraint) Scope() []int {
	var ids []int
	switch c.Kind {
	case ConstraintAllDifferent:
		for _, v := range c.Vars {
			ids = append(ids, v.id)
		}
	case ConstraintLinear:
		for _, t := range c.Linear.Expr.Terms {
			ids = append(ids, t.Var.id)
		}
	case ConstraintModulo, ConstraintDivision:
		ids = append(ids, c.Result.id)
		for _, t := range c.Dividend.Terms {
			ids = append(ids, t.Var.id)
		}
	}
	if c.Enforce != nil {
		ids = append(ids, c.Enforce.id)
	}
	return ids
}

func (c Constraint) String() string {
	var s string
	switch c.Kind {
	case ConstraintAllDifferent:
		names := make([]string, len(c.Vars))
		for i, v := range c.Vars {
			names[i] = v.String()
		}
		s = "all_different(" + strings.Join(names, ", ") + ")"
	case ConstraintLinear:
		s = c.Linear.String()
	case ConstraintModulo:
		s = fmt.Sprintf("%s == (%s) mod %d", c.Result, c.Dividend, c.Divisor)
	case ConstraintDivision:
		s = fmt.Sprintf("%s == (%s) div %d", c.Result, c.Dividend, c.Divisor)
	default:
		s = c.Kind.String()
	}
	if c.Enforce != nil {
		s += " if " + c.Enforce.String()
	}
	return s
}

// Recorder implements every Model method except Solve by recording
// variables and constraints. Backends embed it and encode the recording
// when solving.
type Recorder struct {
	vars        []IntVar
	constraints []Constraint
}

// NewIntVar creates a variable over [lo, hi]. An empty domain makes the
// model infeasible.
func (r *Recorder) NewIntVar(lo, hi int64, name string) IntVar {
	v := IntVar{id: len(r.vars), lo: lo, hi: hi, name: name}
	r.vars = append(r.vars, v)
	return v
}

// NewBoolVar creates a variable over {0, 1}
func (r *Recorder) NewBoolVar(name string) BoolVar {
	return BoolVar{IntVar: r.NewIntVar(0, 1, name)}
}

// AllDifferent requires pairwise distinct values
func (r *Recorder) AllDifferent(vars ...IntVar) error {
	for _, v := range vars {
		if err := r.owns(v); err != nil {
			return err
		}
	}
	r.constraints = append(r.constraints, Constraint{
		Kind: ConstraintAllDifferent,
		Vars: append([]IntVar(nil), vars...),
	})
	return nil
}

// AddLinear posts c
func (r *Recorder) AddLinear(c Linear) error {
	if err := r.checkLinear(c); err != nil {
		return err
	}
	r.constraints = append(r.constraints, Constraint{Kind: ConstraintLinear, Linear: c})
	return nil
}

// AddConditional posts c, enforced only when enforce is 1
func (r *Recorder) AddConditional(c Linear, enforce BoolVar) error {
	if err := r.checkLinear(c); err != nil {
		return err
	}
	if err := r.owns(enforce.IntVar); err != nil {
		return err
	}
	e := enforce
	r.constraints = append(r.constraints, Constraint{Kind: ConstraintLinear, Linear: c, Enforce: &e})
	return nil
}

// AddModuloEquality posts result == dividend mod divisor
func (r *Recorder) AddModuloEquality(result IntVar, dividend LinearExpr, divisor int64) error {
	return r.addArith(ConstraintModulo, result, dividend, divisor)
}

// AddDivisionEquality posts result == dividend div divisor
func (r *Recorder) AddDivisionEquality(result IntVar, dividend LinearExpr, divisor int64) error {
	return r.addArith(ConstraintDivision, result, dividend, divisor)
}

func (r *Recorder) addArith(kind ConstraintKind, result IntVar, dividend LinearExpr, divisor int64) error {
	if divisor <= 0 {
		return errors.Newf("%s by non-positive divisor %d", kind, divisor)
	}
	if err := r.owns(result); err != nil {
		return err
	}
	for _, t := range dividend.Terms {
		if err := r.owns(t.Var); err != nil {
			return err
		}
	}
	r.constraints = append(r.constraints, Constraint{
		Kind:     kind,
		Result:   result,
		Dividend: dividend,
		Divisor:  divisor,
	})
	return nil
}

// Vars returns every variable in creation order; the index is the ID
func (r *Recorder) Vars() []IntVar {
	return r.vars
}

// Constraints returns every constraint in posting order
func (r *Recorder) Constraints() []Constraint {
	return r.constraints
}

// Size reports the recorded variable and constraint counts
func (r *Recorder) Size() (variables, constraints int) {
	return len(r.vars), len(r.constraints)
}

// Dump renders the model one constraint per line
func (r *Recorder) Dump() string {
	var b strings.Builder
	for _, v := range r.vars {
		fmt.Fprintf(&b, "var %s in [%d, %d]\n", v, v.lo, v.hi)
	}
	for _, c := range r.constraints {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Recorder) checkLinear(c Linear) error {
	if !c.Op.valid() {
		return errors.Newf("invalid comparison operator %d", uint8(c.Op))
	}
	for _, t := range c.Expr.Terms {
		if err := r.owns(t.Var); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) owns(v IntVar) error {
	if v.id < 0 || v.id >= len(r.vars) || r.vars[v.id] != v {
		return errors.AssertionFailedf("variable %s does not belong to this model", v)
	}
	return nil
}
