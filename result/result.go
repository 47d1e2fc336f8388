// Package result provides the two-variant outcome carrier used across the
// plugin boundary. Every fallible upgrade-step invocation returns a Result
// rather than panicking; no panics cross plugin boundaries in normal
// operation.
//
// A Result holds exactly one of a success value or an error. Accessing the
// absent variant is a programming-contract violation and panics with an
// assertion failure; it never coerces to a zero value.
package result

import (
	"github.com/voltmesh/gridx/errors"
)

// Result carries either a success value of type T or an error, never both.
// The zero value is a success carrying T's zero value; prefer Ok and Err.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a success result wrapping value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err returns an error result. Passing a nil error is a contract violation:
// a Result must hold exactly one variant.
func Err[T any](err error) Result[T] {
	if err == nil {
		panic(errors.AssertionFailedf("result.Err called with nil error"))
	}
	return Result[T]{err: err}
}

// Errf returns an error result from a format string.
func Errf[T any](format string, args ...interface{}) Result[T] {
	return Result[T]{err: errors.Newf(format, args...)}
}

// IsErr reports whether the result holds an error.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Unwrap returns the success value. Calling it on an error result is a
// contract violation and panics with an assertion failure.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(r.err, "Unwrap called on error result"))
	}
	return r.value
}

// UnwrapErr returns the error value. Calling it on a success result is a
// contract violation and panics with an assertion failure.
func (r Result[T]) UnwrapErr() error {
	if r.err == nil {
		panic(errors.AssertionFailedf("UnwrapErr called on success result"))
	}
	return r.err
}

// Get returns the value and error in Go's conventional two-value form,
// for callers at the host boundary that want to leave the Result world.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// ValueOr returns the success value, or fallback if the result is an error.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}
