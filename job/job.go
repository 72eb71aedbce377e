// Package job describes one scheduling problem: the grid shape, the
// resources, the groups and the rule text.
package job

import (
	"github.com/teranos/slotgrid/grid"
)

// Configuration is one scheduling job. Counts are validated by Validate
// before any rule text is parsed.
type Configuration struct {
	// SchemaVersion is a semver constraint the reading build must satisfy,
	// e.g. "^1.0". Empty accepts any build.
	SchemaVersion string `mapstructure:"schema_version" json:"schema_version,omitempty" yaml:"schema_version,omitempty" toml:"schema_version,omitempty" validate:"omitempty,schema_version"`

	PipelineCount int `mapstructure:"pipeline_count" json:"pipeline_count" yaml:"pipeline_count" toml:"pipeline_count" validate:"min=1"`
	PhaseCount    int `mapstructure:"phase_count" json:"phase_count" yaml:"phase_count" toml:"phase_count" validate:"min=1"`
	ResourceCount int `mapstructure:"resource_count" json:"resource_count" yaml:"resource_count" toml:"resource_count" validate:"min=1"`
	RoundCount    int `mapstructure:"round_count" json:"round_count" yaml:"round_count" toml:"round_count" validate:"min=1"`
	GroupCount    int `mapstructure:"group_count" json:"group_count" yaml:"group_count" toml:"group_count" validate:"min=0"`
	RuleCount     int `mapstructure:"rule_count" json:"rule_count" yaml:"rule_count" toml:"rule_count" validate:"min=0"`

	// MaxAllowedResourcePerRound caps, per group and round, how many of the
	// group's resources share the round. Required when GroupCount > 0.
	MaxAllowedResourcePerRound *int `mapstructure:"max_allowed_resource_per_round" json:"max_allowed_resource_per_round,omitempty" yaml:"max_allowed_resource_per_round,omitempty" toml:"max_allowed_resource_per_round,omitempty" validate:"omitempty,min=0"`

	// Rules is rule text, parsed only when RuleCount > 0
	Rules string `mapstructure:"rules" json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`

	// Groups lists the 1-based resource indices of each group
	Groups [][]int `mapstructure:"groups" json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty" validate:"omitempty,dive,dive,min=1"`
}

// Layout is the grid shape of the job
func (c *Configuration) Layout() grid.Layout {
	return grid.Layout{Pipelines: c.PipelineCount, Phases: c.PhaseCount, Rounds: c.RoundCount}
}

// MaxPerRound returns MaxAllowedResourcePerRound, or 0 when unset
func (c *Configuration) MaxPerRound() int {
	if c.MaxAllowedResourcePerRound == nil {
		return 0
	}
	return *c.MaxAllowedResourcePerRound
}

// Members returns the resource indices of 1-based group g
func (c *Configuration) Members(g int) []int {
	if g < 1 || g > len(c.Groups) {
		return nil
	}
	return c.Groups[g-1]
}
