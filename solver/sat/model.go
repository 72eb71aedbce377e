// Package sat solves slotgrid models with the gini SAT solver.
//
// Integer variables are one-hot encoded: one literal per domain value and
// an exactly-one constraint per variable. Comparisons x - y op k between
// two variables go through order literals (x >= v) derived from the
// one-hot ones, so they grow linearly with the domain. Other constraints
// over one or two integer variables forbid every violating value tuple.
// Sums of boolean variables use gini's sorting-network cardinality
// constraints. Modulo and division equalities need a dividend over at
// most one variable.
package sat

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"go.uber.org/zap"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/logger"
	"github.com/teranos/slotgrid/solver"
)

// Name identifies this backend in configuration
const Name = "sat"

// maxTableTuples bounds the value pairs enumerated for one binary
// constraint that is not a unit difference
const maxTableTuples = 1 << 22

// pollInterval is how often a background solve is checked for completion
const pollInterval = 5 * time.Millisecond

// Model is a solver.Model backed by gini
type Model struct {
	solver.Recorder
}

var _ solver.Model = (*Model)(nil)

// New creates an empty model
func New() *Model {
	return &Model{}
}

// AddLinear posts c, rejecting shapes this backend cannot encode
func (m *Model) AddLinear(c solver.Linear) error {
	if err := encodable(c); err != nil {
		return err
	}
	return m.Recorder.AddLinear(c)
}

// AddConditional posts c guarded by enforce
func (m *Model) AddConditional(c solver.Linear, enforce solver.BoolVar) error {
	if err := encodable(c); err != nil {
		return err
	}
	return m.Recorder.AddConditional(c, enforce)
}

// AddModuloEquality posts result == dividend mod divisor
func (m *Model) AddModuloEquality(result solver.IntVar, dividend solver.LinearExpr, divisor int64) error {
	if err := affine(dividend); err != nil {
		return err
	}
	return m.Recorder.AddModuloEquality(result, dividend, divisor)
}

// AddDivisionEquality posts result == dividend div divisor
func (m *Model) AddDivisionEquality(result solver.IntVar, dividend solver.LinearExpr, divisor int64) error {
	if err := affine(dividend); err != nil {
		return err
	}
	return m.Recorder.AddDivisionEquality(result, dividend, divisor)
}

// Solve encodes the recorded model to CNF and runs gini in the background
// until it finishes, the time limit passes or ctx is cancelled. The time
// limit covers encoding. A model without an objective that is satisfiable
// reports StatusOptimal.
func (m *Model) Solve(ctx context.Context, opts solver.SolveOptions) (*solver.Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Logger
	}
	start := time.Now()

	parent := ctx
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	stats := solver.Stats{Variables: len(m.Vars())}
	enc, err := encode(ctx, &m.Recorder)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return stopped(parent, stats, start, log)
		}
		return nil, err
	}

	stats.Clauses = enc.clauseCount()
	if enc.unsat {
		stats.WallTime = time.Since(start)
		log.Debugw("model trivially infeasible", logger.FieldBackend, Name)
		return solver.NewResult(solver.StatusInfeasible, nil, stats), nil
	}

	g := gini.New()
	if err := enc.load(ctx, g); err != nil {
		return stopped(parent, stats, start, log)
	}
	log.Debugw("encoded model",
		logger.FieldBackend, Name,
		logger.FieldVariables, len(m.Vars()),
		"literals", int(g.MaxVar()),
		"clauses", stats.Clauses,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	res := run(ctx, g)

	switch res {
	case 1:
		stats.WallTime = time.Since(start)
		values := enc.decode(g)
		return solver.NewResult(solver.StatusOptimal, values, stats), nil
	case -1:
		stats.WallTime = time.Since(start)
		return solver.NewResult(solver.StatusInfeasible, nil, stats), nil
	default:
		return stopped(parent, stats, start, log)
	}
}

// stopped reports a solve that ended undecided. Cancelling parent is an
// error; running out of time is not.
func stopped(parent context.Context, stats solver.Stats, start time.Time, log *zap.SugaredLogger) (*solver.Result, error) {
	stats.WallTime = time.Since(start)
	result := solver.NewResult(solver.StatusUnknown, nil, stats)
	if err := parent.Err(); err != nil {
		return result, errors.Wrap(err, "sat solve interrupted")
	}
	log.Infow("time limit reached", logger.FieldBackend, Name, logger.FieldDurationMS, stats.WallTime.Milliseconds())
	return result, nil
}

// run drives gini's background solve, stopping it when ctx is done.
// It returns 1 for SAT, -1 for UNSAT and 0 when stopped undecided.
func run(ctx context.Context, g *gini.Gini) int {
	if ctx.Err() != nil {
		return 0
	}
	s := g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, done := s.Test(); done {
			return res
		}
		select {
		case <-ctx.Done():
			return s.Stop()
		case <-ticker.C:
		}
	}
}

// encodable reports whether c has a shape this backend supports: a unit
// difference of two variables, at most two integer variables within the
// tuple bound, or a sum of boolean variables with unit coefficients.
func encodable(c solver.Linear) error {
	e := c.Expr.Normalize()
	if unitDifference(e) {
		return nil
	}
	if len(e.Terms) <= 2 {
		tuples := int64(1)
		for _, t := range e.Terms {
			tuples *= t.Var.DomainSize()
		}
		if tuples > maxTableTuples {
			return errors.Mark(
				errors.Newf("sat backend cannot encode %s: %d value pairs", c, tuples),
				errors.ErrUnsupported)
		}
		return nil
	}
	if boolSum(e) {
		return nil
	}
	return errors.Mark(
		errors.Newf("sat backend cannot encode %s: more than two integer variables", c),
		errors.ErrUnsupported)
}

func affine(e solver.LinearExpr) error {
	if len(e.Normalize().Terms) > 1 {
		return errors.Mark(
			errors.Newf("sat backend cannot encode arithmetic over %s: dividend must use one variable", e),
			errors.ErrUnsupported)
	}
	return nil
}

// unitDifference reports whether e is x - y plus a constant
func unitDifference(e solver.LinearExpr) bool {
	if len(e.Terms) != 2 {
		return false
	}
	a, b := e.Terms[0].Coef, e.Terms[1].Coef
	return a == -b && (a == 1 || a == -1)
}

func boolSum(e solver.LinearExpr) bool {
	for _, t := range e.Terms {
		lo, hi := t.Var.Bounds()
		if t.Coef != 1 || lo != 0 || hi != 1 {
			return false
		}
	}
	return true
}
