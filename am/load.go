package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/slotgrid/errors"
)

// Format is a configuration file encoding
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Formats lists the encodings Load and Marshal accept
var Formats = []Format{FormatTOML, FormatYAML, FormatJSON}

// FormatOf picks the encoding from a file extension, defaulting to TOML
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTOML, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.WithHint(errors.Newf("unknown format %q", s), "use toml, yaml or json")
	}
}

// Load reads the configuration file at path over the defaults and the
// SLOTGRID_* environment, then validates it.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in %s", path)
	}
	return cfg, nil
}

// NewViper returns a viper instance with defaults, environment binding and,
// when path is not empty, the file at path read in
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType(string(FormatOf(path)))
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return v, nil
}

// LoadWithViper unmarshals configuration from a prepared viper instance
// without validating it
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// FindConfig searches for slotgrid.toml, slotgrid.yaml or slotgrid.json by
// walking up from dir. It returns "" when none is found.
func FindConfig(dir string) string {
	names := []string{DefaultFileName, "slotgrid.yaml", "slotgrid.yml", "slotgrid.json"}
	for {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve returns path when set, otherwise the nearest configuration file
// above the working directory
func Resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}
	if found := FindConfig(wd); found != "" {
		return found, nil
	}
	return "", errors.WithHintf(errors.New("no configuration file given"),
		"pass a path, or run slotgrid am init to create %s here", DefaultFileName)
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
