package grid

import "fmt"

// Axis names one of the three coordinates
type Axis uint8

const (
	AxisPhase Axis = iota + 1
	AxisPipeline
	AxisRound
)

// Axes lists every Axis
var Axes = []Axis{AxisPhase, AxisPipeline, AxisRound}

func (a Axis) String() string {
	switch a {
	case AxisPhase:
		return "phase"
	case AxisPipeline:
		return "pipeline"
	case AxisRound:
		return "round"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// Coord is a 0-based (round, pipeline, phase) position
type Coord struct {
	Round    int `json:"round" yaml:"round" toml:"round"`
	Pipeline int `json:"pipeline" yaml:"pipeline" toml:"pipeline"`
	Phase    int `json:"phase" yaml:"phase" toml:"phase"`
}

// Get returns the coordinate on axis a
func (c Coord) Get(a Axis) int {
	switch a {
	case AxisPhase:
		return c.Phase
	case AxisPipeline:
		return c.Pipeline
	case AxisRound:
		return c.Round
	default:
		panic(fmt.Sprintf("grid: unknown axis %d", a))
	}
}

// String renders the coordinate with 1-based numbers, matching the
// ROUND_n, PIPELINE_n and PHASE_n identifiers of rule text.
func (c Coord) String() string {
	return fmt.Sprintf("ROUND_%d/PIPELINE_%d/PHASE_%d", c.Round+1, c.Pipeline+1, c.Phase+1)
}
