package schedule

import (
	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/solver"
	"github.com/teranos/slotgrid/solver/sat"
	"github.com/teranos/slotgrid/solver/search"
)

// DefaultBackend is used when no backend is configured
const DefaultBackend = sat.Name

// Backends lists the names NewModel accepts
var Backends = []string{sat.Name, search.Name}

// NewModel returns an empty model for the named backend
func NewModel(backend string) (solver.Model, error) {
	switch backend {
	case "", sat.Name:
		return sat.New(), nil
	case search.Name:
		return search.New(), nil
	default:
		return nil, errors.WithHintf(
			errors.Mark(errors.Newf("unknown solver backend %q", backend), errors.ErrConfiguration),
			"use one of: %s, %s", sat.Name, search.Name)
	}
}
