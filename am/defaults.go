package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/teranos/slotgrid/solver/sat"
)

// Default values
const (
	DefaultBackend   = sat.Name
	DefaultStorePath = "slotgrid.db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("solver.backend", DefaultBackend)
	v.SetDefault("solver.time_limit_seconds", 0)

	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	// Job counts have no sensible default but must be known to viper for
	// SLOTGRID_JOB_* overrides to apply
	for _, key := range []string{
		"job.pipeline_count", "job.phase_count", "job.resource_count", "job.round_count",
		"job.group_count", "job.rule_count",
	} {
		v.SetDefault(key, 0)
	}
}

// BindEnvVars binds the settings operators usually override per run
func BindEnvVars(v *viper.Viper) {
	for _, key := range []string{"solver.backend", "solver.time_limit_seconds", "store.path", "log.json"} {
		v.BindEnv(key, envName(key))
	}
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Job: %s, %d resources, Solver: %s, Store: %q}",
		c.Job.Layout(), c.Job.ResourceCount, c.Solver.Backend, c.Store.Path)
}
