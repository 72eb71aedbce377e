package display

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/grid"
	"github.com/teranos/slotgrid/rules"
	"github.com/teranos/slotgrid/schedule"
	"github.com/teranos/slotgrid/solver"
	"github.com/teranos/slotgrid/store"
)

func init() {
	pterm.DisableStyling()
}

func sampleSolution() *schedule.Solution {
	return &schedule.Solution{
		RunID:  "0b6f1c2a-1111-4222-8333-444455556666",
		Status: solver.StatusOptimal,
		Layout: grid.Layout{Pipelines: 2, Phases: 2, Rounds: 2},
		Assignments: []schedule.Assignment{
			{Resource: 1, Slot: 1},
			{Resource: 2, Slot: 8, Coord: grid.Coord{Round: 1, Pipeline: 1, Phase: 1}},
		},
		Stats: solver.Stats{Branches: 4, WallTime: 1500 * time.Microsecond},
		Build: schedule.BuildStats{Rules: 1, Variables: 2, Constraints: 3},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "table", want: FormatTable},
		{in: "TABLE", want: FormatTable},
		{in: "json", want: Format(am.FormatJSON)},
		{in: "yml", want: Format(am.FormatYAML)},
		{in: "toml", want: Format(am.FormatTOML)},
		{in: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite(t *testing.T) {
	sol := sampleSolution()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sol, FormatTable, func() string { return SolutionTable(sol) }))
		out := buf.String()
		assert.Contains(t, out, "OPTIMAL")
		assert.Contains(t, out, "2 pipelines × 2 phases × 2 rounds")
		assert.Contains(t, out, "RESOURCE_2")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sol, Format(am.FormatJSON), nil))
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "OPTIMAL", decoded["status"])
		assert.Len(t, decoded["assignments"], 2)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sol, Format(am.FormatYAML), nil))
		assert.Contains(t, buf.String(), "status: OPTIMAL")
	})

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sol, Format(am.FormatTOML), nil))
		assert.Regexp(t, `status = ['"]OPTIMAL['"]`, buf.String())
	})
}

func TestSolutionTable_Infeasible(t *testing.T) {
	sol := &schedule.Solution{Status: solver.StatusInfeasible, Layout: grid.Layout{Pipelines: 1, Phases: 1, Rounds: 1}}
	out := SolutionTable(sol)
	assert.Contains(t, out, "INFEASIBLE")
	assert.NotContains(t, out, "Resource")
}

func TestSolutionTable_OneBasedCoordinates(t *testing.T) {
	out := SolutionTable(sampleSolution())
	require.Contains(t, out, "RESOURCE_1")
	// R2 sits in slot 8: round, pipeline and phase 2
	assert.Regexp(t, `RESOURCE_2\s*\|\s*8\s*\|\s*2\s*\|\s*2\s*\|\s*2`, out)
}

func TestStatsLine(t *testing.T) {
	assert.Equal(t, "variables=2 constraints=3 rules=1 conflicts=0 branches=4 wall=1.5ms", StatsLine(sampleSolution()))
}

func TestRunsTable(t *testing.T) {
	assert.Equal(t, "No runs recorded yet\n", RunsTable(nil))

	out := RunsTable([]store.Run{{
		ID:        "0b6f1c2a-1111-4222-8333-444455556666",
		CreatedAt: time.Now(),
		Source:    "slotgrid.toml",
		Backend:   "sat",
		Status:    solver.StatusInfeasible,
		Layout:    grid.Layout{Pipelines: 4, Phases: 4, Rounds: 4},
		Resources: 40,
	}})
	assert.Contains(t, out, "0b6f1c2a")
	assert.NotContains(t, out, "0b6f1c2a-1111")
	assert.Contains(t, out, "4×4×4")
	assert.Contains(t, out, "INFEASIBLE")
}

func TestTokensTable(t *testing.T) {
	tokens, err := rules.Tokenize("RESOURCE_2 > 30\nGROUP_1 = PHASE_4")
	require.NoError(t, err)
	out := TokensTable(tokens)
	assert.Contains(t, out, "RESOURCE_ID")
	assert.Contains(t, out, "operator")
	assert.Contains(t, out, "NUMBER")
	assert.Contains(t, out, "PHASE_ID")
}

func TestSettingsTable(t *testing.T) {
	out := SettingsTable(&am.ConfigIntrospection{Settings: []am.SettingInfo{
		{Key: "solver.backend", Value: "sat", Source: am.SourceDefault},
		{Key: "solver.time_limit_seconds", Value: 5, Source: am.SourceEnvironment, SourcePath: "SLOTGRID_SOLVER_TIME_LIMIT_SECONDS"},
	}})
	assert.Contains(t, out, "solver.backend")
	assert.Contains(t, out, "environment (SLOTGRID_SOLVER_TIME_LIMIT_SECONDS)")
}

func TestStatus(t *testing.T) {
	assert.Contains(t, Status(solver.StatusFeasible), "✓")
	assert.Contains(t, Status(solver.StatusInfeasible), "✗")
	assert.Contains(t, Status(solver.StatusUnknown), "?")
}
