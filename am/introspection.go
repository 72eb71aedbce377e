package am

import (
	"os"
	"sort"

	"github.com/spf13/viper"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceFile        ConfigSource = "file"
	SourceEnvironment ConfigSource = "environment" // SLOTGRID_* env vars
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      any          `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"` // File path or env var name
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	ConfigFile string        `json:"config_file" yaml:"config_file"`
	Settings   []SettingInfo `json:"settings" yaml:"settings"`
}

// Introspect reports every effective setting of v, sorted by key, with
// the source it came from. Environment beats file beats default.
func Introspect(v *viper.Viper) *ConfigIntrospection {
	out := &ConfigIntrospection{ConfigFile: v.ConfigFileUsed()}

	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		info := SettingInfo{Key: key, Value: v.Get(key), Source: SourceDefault}
		switch env := envName(key); {
		case os.Getenv(env) != "":
			info.Source = SourceEnvironment
			info.SourcePath = env
		case v.InConfig(key):
			info.Source = SourceFile
			info.SourcePath = out.ConfigFile
		}
		out.Settings = append(out.Settings, info)
	}
	return out
}

// Summary counts settings by source
func (ci *ConfigIntrospection) Summary() map[ConfigSource]int {
	counts := map[ConfigSource]int{SourceDefault: 0, SourceFile: 0, SourceEnvironment: 0}
	for _, s := range ci.Settings {
		counts[s.Source]++
	}
	return counts
}
