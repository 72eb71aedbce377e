// Package grid maps flat slot numbers to (round, pipeline, phase)
// coordinates and back.
//
// Slots are numbered from 1. Phases vary fastest, then pipelines, then
// rounds:
//
//	phase(x)    = (x-1) mod Phases
//	pipeline(x) = ((x-1) div Phases) mod Pipelines
//	round(x)    = (x-1) div (Phases * Pipelines)
//
// Coordinates are 0-based. Every other package derives coordinates through
// this one.
package grid

import (
	"fmt"
	"math"

	"github.com/teranos/slotgrid/errors"
)

// Layout is the shape of the schedule grid
type Layout struct {
	Pipelines int `json:"pipelines" yaml:"pipelines" toml:"pipelines"`
	Phases    int `json:"phases" yaml:"phases" toml:"phases"`
	Rounds    int `json:"rounds" yaml:"rounds" toml:"rounds"`
}

// NewLayout builds a validated Layout
func NewLayout(pipelines, phases, rounds int) (Layout, error) {
	l := Layout{Pipelines: pipelines, Phases: phases, Rounds: rounds}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks that every dimension is positive and that the slot count
// fits in an int32, the widest domain the solver backends accept.
func (l Layout) Validate() error {
	if l.Pipelines < 1 || l.Phases < 1 || l.Rounds < 1 {
		return errors.Mark(
			errors.Newf("grid dimensions must be positive, got %d pipelines × %d phases × %d rounds",
				l.Pipelines, l.Phases, l.Rounds),
			errors.ErrConfiguration)
	}
	if int64(l.Pipelines)*int64(l.Phases) > math.MaxInt32 ||
		int64(l.Pipelines)*int64(l.Phases)*int64(l.Rounds) > math.MaxInt32 {
		return errors.Mark(
			errors.Newf("grid of %d × %d × %d slots is too large", l.Pipelines, l.Phases, l.Rounds),
			errors.ErrConfiguration)
	}
	return nil
}

// Size is the number of slots, the upper bound of the slot domain
func (l Layout) Size() int {
	return l.Pipelines * l.Phases * l.Rounds
}

// SlotsPerRound is the number of slots sharing one round
func (l Layout) SlotsPerRound() int {
	return l.Pipelines * l.Phases
}

// Contains reports whether x is a slot of this layout
func (l Layout) Contains(x int) bool {
	return x >= 1 && x <= l.Size()
}

// Decompose returns the coordinate of slot x
func (l Layout) Decompose(x int) (Coord, error) {
	if !l.Contains(x) {
		return Coord{}, errors.Newf("slot %d outside [1, %d]", x, l.Size())
	}
	return Coord{
		Round:    l.Derive(AxisRound).Apply(x),
		Pipeline: l.Derive(AxisPipeline).Apply(x),
		Phase:    l.Derive(AxisPhase).Apply(x),
	}, nil
}

// Compose returns the slot at c. It is the inverse of Decompose.
func (l Layout) Compose(c Coord) (int, error) {
	if c.Round < 0 || c.Round >= l.Rounds ||
		c.Pipeline < 0 || c.Pipeline >= l.Pipelines ||
		c.Phase < 0 || c.Phase >= l.Phases {
		return 0, errors.Newf("coordinate %s outside %s", c, l)
	}
	return c.Round*l.SlotsPerRound() + c.Pipeline*l.Phases + c.Phase + 1, nil
}

// RoundSpan returns the first and last slot of 0-based round r. Spans of
// consecutive rounds partition [1, Size()].
func (l Layout) RoundSpan(r int) (lo, hi int) {
	per := l.SlotsPerRound()
	return r*per + 1, (r + 1) * per
}

// Derive returns how the coordinate on axis a is computed from a slot
func (l Layout) Derive(a Axis) Derivation {
	switch a {
	case AxisPhase:
		return Derivation{Divisor: 1, Modulus: l.Phases}
	case AxisPipeline:
		return Derivation{Divisor: l.Phases, Modulus: l.Pipelines}
	case AxisRound:
		return Derivation{Divisor: l.SlotsPerRound()}
	default:
		panic(fmt.Sprintf("grid: unknown axis %d", a))
	}
}

// Extent is the number of distinct coordinates on axis a
func (l Layout) Extent(a Axis) int {
	switch a {
	case AxisPhase:
		return l.Phases
	case AxisPipeline:
		return l.Pipelines
	case AxisRound:
		return l.Rounds
	default:
		panic(fmt.Sprintf("grid: unknown axis %d", a))
	}
}

func (l Layout) String() string {
	return fmt.Sprintf("%d pipelines × %d phases × %d rounds", l.Pipelines, l.Phases, l.Rounds)
}

// Derivation computes one coordinate from a slot x as
// ((x-1) div Divisor) mod Modulus. Modulus is 0 when no reduction is
// needed (the round axis).
type Derivation struct {
	Divisor int
	Modulus int
}

// Apply evaluates the derivation for slot x
func (d Derivation) Apply(x int) int {
	v := (x - 1) / d.Divisor
	if d.Modulus > 0 {
		v %= d.Modulus
	}
	return v
}
