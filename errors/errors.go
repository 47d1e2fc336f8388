// Package errors provides error handling for gridx.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Assertion failures for programming-contract violations
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "run 'gridx formats' to list registered formats")
//
//	// Check errors
//	if errors.Is(err, errors.ErrUnknownFormat) {
//	    // handle unregistered format
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
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll

	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Assertions and panics. AssertionFailedf marks programming-contract
// violations (e.g. unwrapping the absent variant of a Result); these are
// bugs, not runtime conditions, and callers must not recover from them
// into normal control flow.
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	HasAssertionFailure              = crdb.HasAssertionFailure
)

// Sentinel errors for the plugin lifecycle and upgrade pipeline.
// Use with errors.Is() for type-safe checks; wrap with errors.Wrap()
// to add context while preserving the type.
var (
	// ErrUnknownFormat indicates no plugin is registered for the requested
	// format identifier. Non-retryable without registering the plugin.
	ErrUnknownFormat = New("unknown format")

	// ErrDuplicateRegistration indicates a second plugin was registered for
	// an already-occupied (format, capability) slot without override.
	ErrDuplicateRegistration = New("duplicate plugin registration")

	// ErrRegistryFrozen indicates a registration was attempted after the
	// registry entered its read-only phase.
	ErrRegistryFrozen = New("plugin registry is frozen")

	// ErrVersionMismatch indicates a parser found its input at a schema
	// version other than the one it expects.
	ErrVersionMismatch = New("schema version mismatch")

	// ErrStoreMissing indicates a data store's root path does not exist or
	// is not readable.
	ErrStoreMissing = New("data store path missing")
)

// IsUnknownFormat checks if an error is or wraps ErrUnknownFormat.
func IsUnknownFormat(err error) bool {
	return err != nil && Is(err, ErrUnknownFormat)
}

// IsDuplicateRegistration checks if an error is or wraps ErrDuplicateRegistration.
func IsDuplicateRegistration(err error) bool {
	return err != nil && Is(err, ErrDuplicateRegistration)
}

// IsVersionMismatch checks if an error is or wraps ErrVersionMismatch.
func IsVersionMismatch(err error) bool {
	return err != nil && Is(err, ErrVersionMismatch)
}

// IsStoreMissing checks if an error is or wraps ErrStoreMissing.
func IsStoreMissing(err error) bool {
	return err != nil && Is(err, ErrStoreMissing)
}

// NewUnknownFormat creates an unknown-format error naming the format and
// capability that failed to resolve.
func NewUnknownFormat(format, capability string) error {
	return Wrapf(ErrUnknownFormat, "no %s registered for format %q", capability, format)
}

// NewVersionMismatch creates a version-mismatch error naming the expected
// and actual schema versions.
func NewVersionMismatch(format, want, got string) error {
	return Wrapf(ErrVersionMismatch, "%s parser expects schema %s, store is at %s", format, want, got)
}
