// Package types provides the shared value types of the smiley substitution engine.
package types

import "fmt"

// Result carries either a value or the error that prevented producing it.
// Pure loaders and parsers return it instead of a (value, error) pair.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the Result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr reports whether the Result holds an error.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Unwrap returns the value and panics on an Err. Callers check IsOk first.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(fmt.Sprintf("called Unwrap on an Err value: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value, or fallback when the Result is an Err.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Error returns the held error, nil for Ok.
func (r Result[T]) Error() error {
	return r.err
}

// Value converts back to the (value, error) convention.
func (r Result[T]) Value() (T, error) {
	return r.value, r.err
}

// OrElse returns r when it is Ok, otherwise the Result produced by f.
func (r Result[T]) OrElse(f func(error) Result[T]) Result[T] {
	if r.err == nil {
		return r
	}
	return f(r.err)
}

// String implements fmt.Stringer.
func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// TryFrom converts a (value, error) pair into a Result.
func TryFrom[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Map transforms the value of an Ok Result and passes errors through.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}
