// Package am loads slotgrid configuration: one job plus the settings of
// the solver, the run store and logging.
package am

import (
	"time"

	"github.com/teranos/slotgrid/job"
)

// Config represents one slotgrid configuration file
type Config struct {
	Job    job.Configuration `mapstructure:"job" json:"job" yaml:"job" toml:"job"`
	Solver SolverConfig      `mapstructure:"solver" json:"solver" yaml:"solver" toml:"solver"`
	Store  StoreConfig       `mapstructure:"store" json:"store" yaml:"store" toml:"store"`
	Log    LogConfig         `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

// SolverConfig selects and bounds the solver backend
type SolverConfig struct {
	Backend          string `mapstructure:"backend" json:"backend" yaml:"backend" toml:"backend"`                                     // sat | search
	TimeLimitSeconds int    `mapstructure:"time_limit_seconds" json:"time_limit_seconds" yaml:"time_limit_seconds" toml:"time_limit_seconds"` // 0 = no limit
}

// TimeLimit returns the solve budget, 0 meaning none
func (s SolverConfig) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitSeconds) * time.Second
}

// StoreConfig configures run history
type StoreConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" toml:"path"` // empty disables run history
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON      bool `mapstructure:"json" json:"json" yaml:"json" toml:"json"`
	Verbosity int  `mapstructure:"verbosity" json:"verbosity" yaml:"verbosity" toml:"verbosity"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // rwxr-xr-x
	DefaultFilePermissions = 0644 // rw-r--r--
)

// EnvPrefix prefixes every environment override, e.g. SLOTGRID_SOLVER_BACKEND
const EnvPrefix = "SLOTGRID"

// DefaultFileName is looked up when no configuration path is given
const DefaultFileName = "slotgrid.toml"
