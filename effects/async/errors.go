package async

import (
	"context"
	"errors"
	"fmt"
)

// ErrAborted matches every *AbortError via errors.Is.
var ErrAborted = errors.New("aborted")

// AbortError is returned by a cancellable wait whose context was, or became,
// done. Reason is context.Cause of that context.
type AbortError struct {
	Reason error
}

func (e *AbortError) Error() string {
	if e.Reason == nil {
		return ErrAborted.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAborted, e.Reason)
}

func (e *AbortError) Unwrap() error {
	return e.Reason
}

func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

func abortErrorOf(ctx context.Context) *AbortError {
	return &AbortError{Reason: context.Cause(ctx)}
}

// IsAbort reports whether err is, or wraps, an *AbortError. Context errors
// returned by a task are task errors like any other.
func IsAbort(err error) bool {
	var abortErr *AbortError
	return errors.As(err, &abortErr)
}

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
