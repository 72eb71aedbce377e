package am

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/slotgrid/errors"
)

// UnknownKeys lists the keys of a TOML configuration file that no Config
// field reads, typically misspellings viper silently ignores. Files in
// other formats report none.
func UnknownKeys(path string) ([]string, error) {
	if FormatOf(path) != FormatTOML {
		return nil, nil
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys, nil
}
