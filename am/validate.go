package am

import (
	"slices"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/schedule"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.Job.Validate(); err != nil {
		return err
	}

	// Empty backend falls back to the default
	if c.Solver.Backend != "" && !slices.Contains(schedule.Backends, c.Solver.Backend) {
		return errors.WithHintf(
			errors.Mark(errors.Newf("solver.backend %q is not a known backend", c.Solver.Backend), errors.ErrConfiguration),
			"use one of: %v", schedule.Backends)
	}

	// 0 = no limit, negative = invalid
	if c.Solver.TimeLimitSeconds < 0 {
		return errors.Mark(
			errors.Newf("solver.time_limit_seconds must be >= 0, got %d", c.Solver.TimeLimitSeconds),
			errors.ErrConfiguration)
	}

	if c.Log.Verbosity < 0 {
		return errors.Mark(errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity), errors.ErrConfiguration)
	}
	return nil
}
