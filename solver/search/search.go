// Package search solves slotgrid models by exhaustive backtracking.
//
// Variables are assigned in creation order, smallest value first. A
// constraint is checked as soon as every variable it reads is assigned;
// all-different constraints are checked pairwise on each assignment. The
// backend accepts every constraint shape and is meant for small models,
// tests and cross-checking the sat backend.
package search

import (
	"context"
	"time"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/logger"
	"github.com/teranos/slotgrid/solver"
)

// Name identifies this backend in configuration
const Name = "search"

// cancelCheckEvery is the number of branches between context checks
const cancelCheckEvery = 1024

// Model is a solver.Model solved by backtracking
type Model struct {
	solver.Recorder
}

var _ solver.Model = (*Model)(nil)

// New creates an empty model
func New() *Model {
	return &Model{}
}

// Solve returns the first assignment found in search order. Like the sat
// backend it reports StatusOptimal for a satisfiable model.
func (m *Model) Solve(ctx context.Context, opts solver.SolveOptions) (*solver.Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Logger
	}
	parent := ctx
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	s := newSearch(&m.Recorder)
	var solution []int64
	_, err := s.run(ctx, func(values []int64) bool {
		solution = append([]int64(nil), values...)
		return false
	})
	stats := s.stats()
	log.Debugw("search finished",
		logger.FieldBackend, Name,
		"branches", stats.Branches,
		"conflicts", stats.Conflicts,
		logger.FieldDurationMS, stats.WallTime.Milliseconds())

	switch {
	case solution != nil:
		return solver.NewResult(solver.StatusOptimal, solution, stats), nil
	case err != nil:
		result := solver.NewResult(solver.StatusUnknown, nil, stats)
		if perr := parent.Err(); perr != nil {
			return result, errors.Wrap(perr, "search interrupted")
		}
		return result, nil
	default:
		return solver.NewResult(solver.StatusInfeasible, nil, stats), nil
	}
}

// Enumerate calls fn with every satisfying assignment, indexed by variable
// ID, until fn returns false or limit assignments were seen (limit <= 0
// means no limit). The slice passed to fn is reused between calls. It
// returns the number of assignments passed to fn.
func (m *Model) Enumerate(ctx context.Context, limit int, fn func(values []int64) bool) (int, error) {
	s := newSearch(&m.Recorder)
	return s.run(ctx, func(values []int64) bool {
		if !fn(values) {
			return false
		}
		return limit <= 0 || s.found < limit
	})
}

// Count returns the number of satisfying assignments
func (m *Model) Count(ctx context.Context) (int, error) {
	return m.Enumerate(ctx, 0, func([]int64) bool { return true })
}

type search struct {
	vars   []solver.IntVar
	static []solver.Constraint   // constraints reading no variable
	checks [][]solver.Constraint // checks[id]: constraints whose last variable is id
	diffs  [][]int               // diffs[id]: earlier variables id must differ from
	values []int64

	found     int
	branches  int64
	conflicts int64
	start     time.Time
}

func newSearch(r *solver.Recorder) *search {
	vars := r.Vars()
	s := &search{
		vars:   vars,
		checks: make([][]solver.Constraint, len(vars)),
		diffs:  make([][]int, len(vars)),
		values: make([]int64, len(vars)),
		start:  time.Now(),
	}
	for _, c := range r.Constraints() {
		if c.Kind == solver.ConstraintAllDifferent {
			for i, a := range c.Vars {
				for _, b := range c.Vars[:i] {
					switch {
					case a.ID() > b.ID():
						s.diffs[a.ID()] = append(s.diffs[a.ID()], b.ID())
					case b.ID() > a.ID():
						s.diffs[b.ID()] = append(s.diffs[b.ID()], a.ID())
					}
				}
			}
			continue
		}
		scope := c.Scope()
		if len(scope) == 0 {
			s.static = append(s.static, c)
			continue
		}
		last := scope[0]
		for _, id := range scope[1:] {
			last = max(last, id)
		}
		s.checks[last] = append(s.checks[last], c)
	}
	return s
}

// run walks the search tree depth first with an explicit stack of next
// values, one slot per variable.
func (s *search) run(ctx context.Context, fn func([]int64) bool) (int, error) {
	for _, c := range s.static {
		if !c.Holds(s.values) {
			return 0, nil
		}
	}
	n := len(s.vars)
	if n == 0 {
		s.found++
		fn(s.values)
		return s.found, nil
	}

	next := make([]int64, n)
	next[0], _ = s.vars[0].Bounds()
	depth := 0
	for depth >= 0 {
		if s.branches%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return s.found, err
			}
		}

		_, hi := s.vars[depth].Bounds()
		if next[depth] > hi {
			depth--
			continue
		}
		s.values[depth] = next[depth]
		next[depth]++
		s.branches++

		if !s.consistent(depth) {
			s.conflicts++
			continue
		}
		if depth == n-1 {
			s.found++
			if !fn(s.values) {
				return s.found, nil
			}
			continue
		}
		depth++
		next[depth], _ = s.vars[depth].Bounds()
	}
	return s.found, nil
}

func (s *search) consistent(id int) bool {
	for _, other := range s.diffs[id] {
		if s.values[other] == s.values[id] {
			return false
		}
	}
	for _, c := range s.checks[id] {
		if !c.Holds(s.values) {
			return false
		}
	}
	return true
}

func (s *search) stats() solver.Stats {
	return solver.Stats{
		Conflicts: s.conflicts,
		Branches:  s.branches,
		WallTime:  time.Since(s.start),
		Variables: len(s.vars),
	}
}
