// Package display renders slotgrid results for the terminal: pterm tables
// for people, and json, yaml or toml for scripts.
package display

import (
	"io"
	"strings"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/errors"
)

// Format is an output encoding. FormatTable is human-oriented; the others
// are the configuration encodings of am.
type Format string

// FormatTable renders pterm tables
const FormatTable Format = "table"

// ParseFormat accepts table, json, yaml (or yml) and toml
func ParseFormat(s string) (Format, error) {
	if strings.EqualFold(s, string(FormatTable)) {
		return FormatTable, nil
	}
	f, err := am.ParseFormat(s)
	if err != nil {
		return "", errors.WithHint(errors.Newf("unknown output format %q", s), "use table, json, yaml or toml")
	}
	return Format(f), nil
}

// Write encodes v in format to w. For FormatTable, table is called to
// render v instead.
func Write(w io.Writer, v any, format Format, table func() string) error {
	if format == FormatTable {
		_, err := io.WriteString(w, table())
		return err
	}
	data, err := am.Marshal(v, am.Format(format))
	if err != nil {
		return errors.Wrapf(err, "failed to marshal output to %s", format)
	}
	_, err = w.Write(data)
	return err
}
