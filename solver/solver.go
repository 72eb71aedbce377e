// Package solver defines the constraint model the scheduler builds and the
// backends solve.
//
// A Model records integer variables and constraints; a backend turns the
// recorded model into its own encoding at Solve time. Two backends ship
// with slotgrid: solver/sat (CNF via gini) and solver/search (exhaustive
// backtracking).
package solver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Model is the narrow interface the scheduler depends on. Constraint
// methods return an error when a handle does not belong to the model or
// when the backend cannot encode the constraint (errors.ErrUnsupported).
type Model interface {
	NewIntVar(lo, hi int64, name string) IntVar
	NewBoolVar(name string) BoolVar
	AllDifferent(vars ...IntVar) error
	AddLinear(c Linear) error
	AddModuloEquality(result IntVar, dividend LinearExpr, divisor int64) error
	AddDivisionEquality(result IntVar, dividend LinearExpr, divisor int64) error
	// AddConditional posts c, enforced only when enforce is true
	AddConditional(c Linear, enforce BoolVar) error
	Solve(ctx context.Context, opts SolveOptions) (*Result, error)

	// Size reports the recorded variable and constraint counts
	Size() (variables, constraints int)
}

// SolveOptions is passed through to the backend untouched
type SolveOptions struct {
	TimeLimit time.Duration // 0 means no limit
	Logger    *zap.SugaredLogger
}

// Status is the terminal state of a solve
type Status uint8

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "OPTIMAL":
		*s = StatusOptimal
	case "FEASIBLE":
		*s = StatusFeasible
	case "INFEASIBLE":
		*s = StatusInfeasible
	case "UNKNOWN":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown solve status %q", b)
	}
	return nil
}

// HasSolution reports whether variable values are available
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Stats are informational and backend specific. Counters a backend cannot
// observe stay zero.
type Stats struct {
	Conflicts int64         `json:"conflicts" yaml:"conflicts" toml:"conflicts"`
	Branches  int64         `json:"branches" yaml:"branches" toml:"branches"`
	WallTime  time.Duration `json:"wall_time" yaml:"wall_time" toml:"wall_time"`
	Variables int           `json:"variables" yaml:"variables" toml:"variables"`
	Clauses   int           `json:"clauses" yaml:"clauses" toml:"clauses"`
}

// Result of a solve. Values are only meaningful when Status.HasSolution().
type Result struct {
	Status Status
	Stats  Stats
	values []int64
}

// NewResult is used by backends. values is indexed by variable ID.
func NewResult(status Status, values []int64, stats Stats) *Result {
	return &Result{Status: status, Stats: stats, values: values}
}

// Value returns the value assigned to v
func (r *Result) Value(v IntVar) int64 {
	if r == nil || v.id < 0 || v.id >= len(r.values) {
		return 0
	}
	return r.values[v.id]
}

// BoolValue returns the value assigned to b
func (r *Result) BoolValue(b BoolVar) bool {
	return r.Value(b.IntVar) == 1
}

// Values returns the assignment indexed by variable ID
func (r *Result) Values() []int64 {
	return r.values
}
