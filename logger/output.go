package logger

// Output controls what categories of information the CLI prints at each
// verbosity level. Unlike log levels, categories select WHAT is shown.
//
//	0 (default) - assignment table, errors with hints, final status
//	1 (-v)      - + solver statistics, run id
//	2 (-vv)     - + model size, timing, config summary
//	3 (-vvv)    - + parsed rules, SQL
//	4 (-vvvv)   - + full data dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Assignment table
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final solver status

	// Level 1 (-v)
	OutputStats // Conflicts, branches, wall time
	OutputRunID // Persisted run identifier

	// Level 2 (-vv)
	OutputModelSize // Variable and clause counts
	OutputTiming    // Build and solve timing
	OutputConfig    // Config values loaded

	// Level 3 (-vvv)
	OutputRules      // Parsed comparisons
	OutputSQLQueries // Individual SQL queries executed

	// Level 4 (-vvvv)
	OutputDataDump // Full data structure contents
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputStats: VerbosityInfo,
	OutputRunID: VerbosityInfo,

	OutputModelSize: VerbosityDebug,
	OutputTiming:    VerbosityDebug,
	OutputConfig:    VerbosityDebug,

	OutputRules:      VerbosityTrace,
	OutputSQLQueries: VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}
