package models

import "errors"

// Result carries either a value or the error that prevented producing it.
// The zero Result is a failure with no recorded cause.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail wraps an error. A nil err is replaced with a generic one so that a
// failed Result always reports a cause.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result[T]{err: err}
}

// Get returns the value and whether the result succeeded
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// Err returns the failure cause, or nil on success
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return errors.New("result not set")
	}
	return r.err
}

// Status converts the result into a SourceStatus for the named source
func (r Result[T]) Status(source string) SourceStatus {
	if err := r.Err(); err != nil {
		return SourceStatus{Source: source, OK: false, Error: err.Error()}
	}
	return SourceStatus{Source: source, OK: true}
}
