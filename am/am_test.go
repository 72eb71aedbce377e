package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/job"
)

const exampleTOML = `
[job]
pipeline_count = 4
phase_count = 4
resource_count = 40
round_count = 4
group_count = 1
rule_count = 2
max_allowed_resource_per_round = 3
groups = [[1, 2, 3, 4]]
rules = """
RESOURCE_2 > 30
GROUP_1 = PHASE_4
"""

[solver]
backend = "search"
time_limit_seconds = 30

[store]
path = "runs.db"
`

const exampleYAML = `
job:
  pipeline_count: 2
  phase_count: 2
  resource_count: 4
  round_count: 2
solver:
  backend: sat
`

const exampleJSON = `{
  "job": {"pipeline_count": 2, "phase_count": 3, "resource_count": 1, "round_count": 1},
  "log": {"json": true}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultBackend, cfg.Solver.Backend)
	assert.Zero(t, cfg.Solver.TimeLimit())
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.False(t, cfg.Log.JSON)
	assert.Nil(t, cfg.Job.MaxAllowedResourcePerRound)
}

func TestLoad_TOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "slotgrid.toml", exampleTOML))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Job.PipelineCount)
	assert.Equal(t, 40, cfg.Job.ResourceCount)
	assert.Equal(t, 2, cfg.Job.RuleCount)
	require.NotNil(t, cfg.Job.MaxAllowedResourcePerRound)
	assert.Equal(t, 3, *cfg.Job.MaxAllowedResourcePerRound)
	assert.Equal(t, [][]int{{1, 2, 3, 4}}, cfg.Job.Groups)
	assert.Equal(t, "RESOURCE_2 > 30\nGROUP_1 = PHASE_4\n", cfg.Job.Rules)
	assert.Equal(t, "search", cfg.Solver.Backend)
	assert.Equal(t, 30*time.Second, cfg.Solver.TimeLimit())
	assert.Equal(t, "runs.db", cfg.Store.Path)
}

func TestLoad_ByExtension(t *testing.T) {
	yml, err := Load(writeFile(t, "job.yaml", exampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 4, yml.Job.ResourceCount)
	assert.Equal(t, "sat", yml.Solver.Backend)

	js, err := Load(writeFile(t, "job.json", exampleJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, js.Job.PhaseCount)
	assert.True(t, js.Log.JSON)
	assert.Equal(t, DefaultStorePath, js.Store.Path, "defaults fill what the file omits")
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SLOTGRID_SOLVER_BACKEND", "sat")
	t.Setenv("SLOTGRID_STORE_PATH", "")
	t.Setenv("SLOTGRID_JOB_RESOURCE_COUNT", "12")

	cfg, err := Load(writeFile(t, "slotgrid.toml", exampleTOML))
	require.NoError(t, err)
	assert.Equal(t, "sat", cfg.Solver.Backend)
	assert.Equal(t, 12, cfg.Job.ResourceCount)
	assert.Equal(t, "runs.db", cfg.Store.Path, "empty variables do not override")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		is      error
	}{
		{"job missing", "[solver]\nbackend = \"sat\"\n", errors.ErrConfiguration},
		{"unknown backend", strings.Replace(exampleTOML, `"search"`, `"cp-sat"`, 1), errors.ErrConfiguration},
		{"negative time limit", "[job]\npipeline_count = 1\nphase_count = 1\nresource_count = 1\nround_count = 1\n[solver]\ntime_limit_seconds = -1\n", errors.ErrConfiguration},
		{"group member out of range", strings.Replace(exampleTOML, "[[1, 2, 3, 4]]", "[[1, 2, 3, 41]]", 1), errors.ErrConfiguration},
		{"malformed", "[job\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "slotgrid.toml", tt.content))
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := job.Configuration{PipelineCount: 1, PhaseCount: 1, ResourceCount: 1, RoundCount: 1}
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", Config{Job: valid, Solver: SolverConfig{Backend: "sat"}}, false},
		{"empty backend falls back", Config{Job: valid}, false},
		{"search backend", Config{Job: valid, Solver: SolverConfig{Backend: "search"}}, false},
		{"unknown backend", Config{Job: valid, Solver: SolverConfig{Backend: "cp-sat"}}, true},
		{"negative time limit", Config{Job: valid, Solver: SolverConfig{TimeLimitSeconds: -1}}, true},
		{"negative verbosity", Config{Job: valid, Log: LogConfig{Verbosity: -1}}, true},
		{"invalid job", Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("a/b/slotgrid.toml"))
	assert.Equal(t, FormatTOML, FormatOf("noext"))
	assert.Equal(t, FormatYAML, FormatOf("x.YML"))
	assert.Equal(t, FormatJSON, FormatOf("x.json"))

	for _, in := range []string{"toml", "YAML", "yml", "json"} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Load(writeFile(t, "slotgrid.toml", exampleTOML))
	require.NoError(t, err)

	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(cfg, format)
			require.NoError(t, err)

			back, err := Load(writeFile(t, "slotgrid."+string(format), string(data)))
			require.NoError(t, err)
			assert.Equal(t, cfg, back)
		})
	}

	_, err = Marshal(cfg, "xml")
	assert.Error(t, err)
}

func TestSave_RotatesBackups(t *testing.T) {
	path := writeFile(t, "slotgrid.toml", exampleTOML)
	cfg, err := Load(path)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		cfg.Solver.TimeLimitSeconds = i + 1
		require.NoError(t, Save(cfg, path))
	}

	for _, suffix := range []string{".back1", ".back2", ".back3"} {
		assert.FileExists(t, path+suffix)
	}
	assert.NoFileExists(t, path+".back4")

	previous, err := Load(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, 3, previous.Solver.TimeLimitSeconds)

	saved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Solver.TimeLimitSeconds)
}

func TestUnknownKeys(t *testing.T) {
	path := writeFile(t, "slotgrid.toml", exampleTOML+"\n[solvr]\nbackend = \"sat\"\n[job2]\nx = 1\n")
	keys, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Contains(t, keys, "solvr.backend")
	assert.Contains(t, keys, "job2.x")
	assert.NotContains(t, keys, "solver.backend")

	keys, err = UnknownKeys(writeFile(t, "slotgrid.toml", exampleTOML))
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = UnknownKeys(writeFile(t, "job.yaml", "nonsense: 1\n"))
	require.NoError(t, err)
	assert.Empty(t, keys, "only TOML is checked")
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, DefaultDirPermissions))
	assert.Empty(t, FindConfig(nested))

	want := filepath.Join(root, "a", "slotgrid.yaml")
	require.NoError(t, os.WriteFile(want, []byte(exampleYAML), DefaultFilePermissions))
	assert.Equal(t, want, FindConfig(nested))

	got, err := Resolve("explicit.toml")
	require.NoError(t, err)
	assert.Equal(t, "explicit.toml", got)
}

func TestIntrospect(t *testing.T) {
	t.Setenv("SLOTGRID_SOLVER_BACKEND", "sat")
	path := writeFile(t, "slotgrid.toml", exampleTOML)
	v, err := NewViper(path)
	require.NoError(t, err)

	ci := Introspect(v)
	assert.Equal(t, path, ci.ConfigFile)

	sources := make(map[string]ConfigSource)
	for _, s := range ci.Settings {
		sources[s.Key] = s.Source
	}
	assert.Equal(t, SourceEnvironment, sources["solver.backend"])
	assert.Equal(t, SourceFile, sources["job.resource_count"])
	assert.Equal(t, SourceDefault, sources["log.json"])

	summary := ci.Summary()
	assert.Equal(t, len(ci.Settings), summary[SourceDefault]+summary[SourceFile]+summary[SourceEnvironment])
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := writeFile(t, "slotgrid.toml", exampleTOML)

	w, err := NewConfigWatcher(path)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	var limit atomic.Int64
	w.OnReload(func(cfg *Config) error {
		limit.Store(int64(cfg.Solver.TimeLimitSeconds))
		return nil
	})
	w.Start()
	t.Cleanup(func() { w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte(`
[job]
pipeline_count = 1
phase_count = 1
resource_count = 1
round_count = 1

[solver]
time_limit_seconds = 7
`), DefaultFilePermissions))

	assert.Eventually(t, func() bool { return limit.Load() == 7 }, 5*time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_IgnoresInvalidAndOtherFiles(t *testing.T) {
	path := writeFile(t, "slotgrid.toml", exampleTOML)

	w, err := NewConfigWatcher(path)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	var calls atomic.Int32
	w.OnReload(func(*Config) error {
		calls.Add(1)
		return nil
	})
	w.Start()
	t.Cleanup(func() { w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("[job\n"), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte(exampleTOML), DefaultFilePermissions))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestConfigWatcher_OwnWriteFlag(t *testing.T) {
	w, err := NewConfigWatcher(writeFile(t, "slotgrid.toml", exampleTOML))
	require.NoError(t, err)
	defer w.Stop()

	assert.False(t, w.checkOwnWrite())
	w.MarkOwnWrite()
	assert.True(t, w.checkOwnWrite())
	assert.False(t, w.checkOwnWrite(), "the flag covers one write")
}
