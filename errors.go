package pipeflow

import (
	"errors"
	"fmt"
)

// StreamError wraps a failure injected by a producer via [Subject.Error],
// or raised by an operator's own transform function, together with the
// name of the operator that raised it. It propagates downstream exactly
// once; every subsequent [Pipeline.Continue] call on the same pipeline
// re-raises the identical error.
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("pipeflow: %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsStreamError reports whether err (or any error in its chain) is a
// [*StreamError].
func IsStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}

// wrapStream attaches op to err, or returns nil unchanged.
func wrapStream(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StreamError
	if errors.As(err, &se) {
		return err
	}
	return &StreamError{Op: op, Err: err}
}

// DisposedError is returned from a pending [Subject.Emit] whose
// [EmitSource] was disposed before the value was taken.
type DisposedError struct{ Op string }

func (e *DisposedError) Error() string {
	if e.Op == "" {
		return "pipeflow: emit source disposed"
	}
	return fmt.Sprintf("pipeflow: %s: emit source disposed", e.Op)
}

// IsDisposedError reports whether err (or any error in its chain) is a
// [*DisposedError].
func IsDisposedError(err error) bool {
	var de *DisposedError
	return errors.As(err, &de)
}

// CancelledError is returned from [Pipeline.Continue] when its context
// is cancelled while suspended waiting for a value. CancelledError never
// propagates across the stream: the source is left intact and the value
// (if one was pending) is delivered to the next Continue call.
type CancelledError struct{ Cause error }

func (e *CancelledError) Error() string {
	return fmt.Sprintf("pipeflow: continue cancelled: %v", e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// IsCancelledError reports whether err (or any error in its chain) is a
// [*CancelledError].
func IsCancelledError(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}

// UsageError marks a synchronous programming error: emitting after a
// source has already errored, double-completing a source, deriving a
// second pipeline from a plain [Subject], or issuing overlapping
// [Pipeline.Continue] calls on the same pipeline. The first three are
// raised via panic, since they are bugs in the caller, not runtime
// conditions; an overlapping Continue instead returns
// [ErrConcurrentContinue], which is a *UsageError.
type UsageError struct{ Msg string }

func (e *UsageError) Error() string { return "pipeflow: " + e.Msg }

func usagePanic(msg string) { panic(&UsageError{Msg: msg}) }

// ErrConcurrentContinue is returned by [Pipeline.Continue] when a second
// call arrives while a prior call is still suspended. A Pipeline has at
// most one active consumer; the engine detects and fails the second
// call rather than serializing them.
var ErrConcurrentContinue error = &UsageError{Msg: "concurrent Continue calls on the same pipeline"}
