package worker

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// WorkResult is the outcome of exactly one execution: it either succeeded or
// failed with a cause.
type WorkResult struct {
	cause error
}

func Succeeded() WorkResult { return WorkResult{} }

// Failed builds a failed result. A nil cause is replaced by a generic one so
// that a failed result always carries a cause.
func Failed(cause error) WorkResult {
	if cause == nil {
		cause = errors.New("work failed without a cause")
	}
	return WorkResult{cause: cause}
}

// ResultOf turns an action's error into a result.
func ResultOf(err error) WorkResult {
	if err != nil {
		return Failed(err)
	}
	return Succeeded()
}

func (r WorkResult) Success() bool { return r.cause == nil }

func (r WorkResult) Cause() error { return r.cause }

func (r WorkResult) String() string {
	if r.cause == nil {
		return "success"
	}
	return "failure: " + r.cause.Error()
}

// PanicError carries a recovered panic as a failure cause.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
