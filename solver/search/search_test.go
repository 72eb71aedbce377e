package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/solver"
)

func distinctModel(n int, hi int64) (*Model, []solver.IntVar) {
	m := New()
	vars := make([]solver.IntVar, n)
	for i := range vars {
		vars[i] = m.NewIntVar(1, hi, "")
	}
	_ = m.AllDifferent(vars...)
	return m, vars
}

func TestCount_DistinctAssignments(t *testing.T) {
	tests := []struct {
		n    int
		hi   int64
		want int
	}{
		{4, 8, 8 * 7 * 6 * 5},
		{3, 3, 6},
		{1, 5, 5},
		{5, 4, 0},
	}
	for _, tt := range tests {
		m, _ := distinctModel(tt.n, tt.hi)
		got, err := m.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d vars over [1,%d]", tt.n, tt.hi)
	}
}

func TestSolve_FirstInSearchOrder(t *testing.T) {
	m, vars := distinctModel(4, 8)
	res, err := m.Solve(context.Background(), solver.SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, res.Status)
	for i, v := range vars {
		assert.Equal(t, int64(i+1), res.Value(v))
	}
	assert.Equal(t, int64(4)+int64(1+2+3), res.Stats.Branches, "one branch per value tried")
	assert.Equal(t, int64(6), res.Stats.Conflicts)
}

func TestSolve_Infeasible(t *testing.T) {
	m := New()
	x := m.NewIntVar(1, 8, "x")
	require.NoError(t, m.AddLinear(solver.Linear{Expr: solver.VarExpr(x), Op: solver.OpGT, RHS: 30}))

	res, err := m.Solve(context.Background(), solver.SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, res.Status)
	assert.Equal(t, int64(8), res.Stats.Conflicts)
}

func TestSolve_ArithmeticAndConditional(t *testing.T) {
	m := New()
	x := m.NewIntVar(1, 8, "x")
	phase := m.NewIntVar(0, 1, "phase")
	in := m.NewBoolVar("in")
	require.NoError(t, m.AddModuloEquality(phase, solver.Affine(x, 1, -1), 2))
	require.NoError(t, m.AddLinear(solver.Linear{Expr: solver.VarExpr(phase), Op: solver.OpEQ, RHS: 1}))
	require.NoError(t, m.AddConditional(solver.Linear{Expr: solver.VarExpr(x), Op: solver.OpGE, RHS: 5}, in))
	require.NoError(t, m.AddLinear(solver.Linear{Expr: solver.VarExpr(in.IntVar), Op: solver.OpEQ, RHS: 1}))

	var xs []int64
	n, err := m.Enumerate(context.Background(), 0, func(values []int64) bool {
		xs = append(xs, values[x.ID()])
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{6, 8}, xs)
}

func TestSolve_SumOfManyVariables(t *testing.T) {
	m := New()
	terms := make([]solver.Term, 3)
	for i := range terms {
		terms[i] = solver.Term{Var: m.NewIntVar(1, 4, ""), Coef: 1}
	}
	require.NoError(t, m.AddLinear(solver.Linear{Expr: solver.LinearExpr{Terms: terms}, Op: solver.OpEQ, RHS: 12}))

	n, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEnumerate_Limit(t *testing.T) {
	m, _ := distinctModel(3, 5)
	n, err := m.Enumerate(context.Background(), 7, func([]int64) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSolve_StaticConstraint(t *testing.T) {
	m := New()
	m.NewIntVar(1, 3, "x")
	require.NoError(t, m.AddLinear(solver.Linear{Expr: solver.Constant(1), Op: solver.OpEQ, RHS: 2}))
	n, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSolve_Cancelled(t *testing.T) {
	m, _ := distinctModel(4, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := m.Solve(ctx, solver.SolveOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, solver.StatusUnknown, res.Status)
}
