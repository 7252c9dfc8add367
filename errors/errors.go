// Package errors re-exports the subset of github.com/cockroachdb/errors
// this module uses, so every call site gets stack traces, wrapping, and
// operator-facing hints from one import path.
//
// Hints carry the fixed user-visible text tokens the UI resolves to
// localized strings:
//
//	return errors.WithHint(err, "remote_play_client_pair_res_failed_1")
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping.
var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
)

// Operator-facing hints and details.
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Inspection.
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Stack traces for crash reporting.
var (
	GetReportableStackTrace = crdb.GetReportableStackTrace

	// GetStack is a shorter alias for GetReportableStackTrace.
	GetStack = crdb.GetReportableStackTrace
)
