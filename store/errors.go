package store

import (
	"strings"

	"github.com/teranos/slotgrid/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// ErrRunNotFound is returned by Get when no run matches the ID
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousID is returned by Get when an ID prefix matches several runs
var ErrAmbiguousID = errors.New("ambiguous run id")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The string fallback covers errors that come straight from the sql driver.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
