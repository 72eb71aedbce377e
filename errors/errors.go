// Package errors provides error handling for slotgrid.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Every fatal failure in the rule compiler is marked with one of the stage
// sentinels below, so callers can tell which stage failed:
//
//	comparisons, err := rules.Parse(text)
//	if errors.Is(err, errors.ErrLex) {
//	    // bad character in rule text
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf    = crdb.AssertionFailedf
	HasAssertionFailure = crdb.HasAssertionFailure
)

// Stage sentinels. Typed errors from the rules, schedule and job packages
// unwrap to exactly one of these.
var (
	// ErrLex indicates an unrecognized character in rule text
	ErrLex = New("lex error")

	// ErrParse indicates a grammar violation in rule text
	ErrParse = New("parse error")

	// ErrInvalidReference indicates a resource or group index outside the configured bounds
	ErrInvalidReference = New("invalid reference")

	// ErrConfiguration indicates a missing or inconsistent job configuration
	ErrConfiguration = New("configuration error")

	// ErrUnsupported indicates a constraint the selected solver backend cannot encode
	ErrUnsupported = New("unsupported constraint")
)

// Stage names the compilation stage an error belongs to, or "" when the
// error carries none of the stage sentinels.
func Stage(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrConfiguration):
		return "configuration"
	case Is(err, ErrLex):
		return "lex"
	case Is(err, ErrParse):
		return "parse"
	case Is(err, ErrInvalidReference):
		return "reference"
	case Is(err, ErrUnsupported):
		return "backend"
	default:
		return ""
	}
}

// IsCompileError reports whether err aborted compilation of rule text
func IsCompileError(err error) bool {
	return err != nil && IsAny(err, ErrLex, ErrParse, ErrInvalidReference)
}
