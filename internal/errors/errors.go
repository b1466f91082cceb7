// Package errors re-exports github.com/cockroachdb/errors so the rest of the
// module has a single import for error construction, wrapping and inspection.
//
//	if err := load(path); err != nil {
//	    return errors.Wrapf(err, "load %s", path)
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping.
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Join         = crdb.Join
)

// User-facing hints and details.
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
	GetAllHints = crdb.GetAllHints
)

// Inspection.
var (
	Is        = crdb.Is
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions mark caller contract violations.
var (
	AssertionFailedf     = crdb.AssertionFailedf
	WithAssertionFailure = crdb.WithAssertionFailure
	IsAssertionFailure   = crdb.IsAssertionFailure
)
