package am

import (
	"encoding/json"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/logger"
)

// Marshal renders v (a *Config, a solve result, anything with
// toml/yaml/json tags) in the given format
func Marshal(v any, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatTOML, "":
		data, err = toml.Marshal(v)
	case FormatYAML:
		data, err = yaml.Marshal(v)
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	default:
		return nil, errors.Newf("unknown format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s", format)
	}
	return data, nil
}

// Save writes cfg to path in the format its extension names, rotating up
// to three backups of the previous file
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg, FormatOf(path))
	if err != nil {
		return err
	}

	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	// Mark this as our own write to prevent reload loops
	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", "file", back3, "error", err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}
