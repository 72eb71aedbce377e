package schedule

import (
	"github.com/google/uuid"

	"github.com/teranos/slotgrid/grid"
	"github.com/teranos/slotgrid/solver"
)

// Assignment places one resource
type Assignment struct {
	Resource int        `json:"resource" yaml:"resource" toml:"resource"`
	Slot     int        `json:"slot" yaml:"slot" toml:"slot"`
	Coord    grid.Coord `json:"coord" yaml:"coord" toml:"coord"`
}

// Solution is the outcome of one solve. Assignments is empty unless the
// status has a solution, and is ordered by resource.
type Solution struct {
	RunID       string        `json:"run_id" yaml:"run_id" toml:"run_id"`
	Status      solver.Status `json:"status" yaml:"status" toml:"status"`
	Layout      grid.Layout   `json:"layout" yaml:"layout" toml:"layout"`
	Assignments []Assignment  `json:"assignments" yaml:"assignments" toml:"assignments"`
	Stats       solver.Stats  `json:"stats" yaml:"stats" toml:"stats"`
	Build       BuildStats    `json:"build" yaml:"build" toml:"build"`
}

func newSolution(layout grid.Layout, res *solver.Result, build BuildStats) *Solution {
	return &Solution{
		RunID:  uuid.NewString(),
		Status: res.Status,
		Layout: layout,
		Stats:  res.Stats,
		Build:  build,
	}
}

// Slots maps resource index to slot
func (s *Solution) Slots() map[int]int {
	slots := make(map[int]int, len(s.Assignments))
	for _, a := range s.Assignments {
		slots[a.Resource] = a.Slot
	}
	return slots
}
