package pipeflow

import (
	"context"
	"io"
	"sync"
)

// state is the terminal state of an [EmitSource]. Exactly one of
// completed, errored, disposed may ever be reached, and it is permanent.
type state int32

const (
	stateOpen state = iota
	stateCompleted
	stateErrored
	stateDisposed
)

// pendingEmit is a suspended emit: a value that has been offered but not
// yet accepted into the buffer or handed to a waiting consumer.
type pendingEmit[V any] struct {
	val  V
	done chan error // nil written = accepted; non-nil = rejected
}

// EmitSource is the buffered, backpressured hand-off channel that
// connects exactly one producer to exactly one consumer. It owns the
// state machine governing emission, suspension, completion, error, and
// disposal.
//
// An emit is queued as pending only when no consumer is waiting and the
// buffer is at its bound (a value just handed to a waking consumer also
// counts against the bound until it is taken), so the buffer and the
// pending-emit queue can both be non-empty. Continue always takes from
// the buffer before the pending queue, which keeps values in emit order.
type EmitSource[V any] struct {
	mu sync.Mutex

	bufferBound int
	buffer      []V
	waitingEmit []*pendingEmit[V]

	consumerWaiting bool
	consumerWake    chan struct{}

	st  state
	err error

	consumed bool
}

// NewEmitSource creates a hand-off channel with the given buffer bound.
// A bound of 0 (the default) means every emit suspends until a consumer
// takes the value directly (rendezvous mode).
func NewEmitSource[V any](bufferBound int) *EmitSource[V] {
	if bufferBound < 0 {
		bufferBound = 0
	}
	return &EmitSource[V]{bufferBound: bufferBound}
}

// Emit delivers v to the source. It blocks until v has been taken by the
// consumer (rendezvous mode, the default) or, when a positive buffer
// bound is configured, until v has been accepted into the buffer.
//
// Emit returns a [*DisposedError] if the source has been disposed. If
// the source has already completed normally, Emit is a no-op that
// returns nil immediately. Emitting after [EmitSource.Error] is a
// programming error and panics with [*UsageError], matching double
// completion.
func (es *EmitSource[V]) Emit(ctx context.Context, v V) error {
	es.mu.Lock()
	switch es.st {
	case stateDisposed:
		es.mu.Unlock()
		return &DisposedError{}
	case stateErrored:
		es.mu.Unlock()
		usagePanic("emit after error")
	case stateCompleted:
		es.mu.Unlock()
		return nil
	}

	if es.consumerWaiting {
		es.buffer = append(es.buffer, v)
		wake := es.consumerWake
		es.consumerWaiting = false
		es.consumerWake = nil
		es.mu.Unlock()
		close(wake)
		return nil
	}

	if len(es.buffer) < es.bufferBound {
		es.buffer = append(es.buffer, v)
		es.mu.Unlock()
		return nil
	}

	pe := &pendingEmit[V]{val: v, done: make(chan error, 1)}
	es.waitingEmit = append(es.waitingEmit, pe)
	es.mu.Unlock()

	select {
	case err := <-pe.done:
		return err
	case <-ctx.Done():
		es.mu.Lock()
		es.removePending(pe)
		es.mu.Unlock()
		return ctx.Err()
	}
}

func (es *EmitSource[V]) removePending(pe *pendingEmit[V]) {
	for i, w := range es.waitingEmit {
		if w == pe {
			es.waitingEmit = append(es.waitingEmit[:i], es.waitingEmit[i+1:]...)
			return
		}
	}
}

// Complete marks the source terminal-normal. Continue drains any
// buffered values (including values from emits that were suspended at
// the moment of completion, which are folded into the buffer) before
// yielding end-of-stream. Calling Complete twice, or after Error or
// Dispose, is a programming error and panics.
func (es *EmitSource[V]) Complete() {
	es.mu.Lock()
	if es.st != stateOpen {
		es.mu.Unlock()
		usagePanic("double completion of emit source")
	}
	es.st = stateCompleted
	for _, pe := range es.waitingEmit {
		es.buffer = append(es.buffer, pe.val)
		pe.done <- nil
	}
	es.waitingEmit = nil
	wake := es.consumerWake
	es.consumerWaiting = false
	es.consumerWake = nil
	es.mu.Unlock()
	if wake != nil {
		close(wake)
	}
}

// Error marks the source terminal-error. Any consumer currently
// suspended in Continue resumes with err; every pending Emit rejects.
// Buffered values not yet taken are discarded, since the stream has
// failed. Calling Error twice, or after Complete or Dispose, panics.
func (es *EmitSource[V]) Error(err error) {
	es.mu.Lock()
	if es.st != stateOpen {
		es.mu.Unlock()
		usagePanic("error on already-terminal emit source")
	}
	es.st = stateErrored
	es.err = err
	for _, pe := range es.waitingEmit {
		pe.done <- err
	}
	es.waitingEmit = nil
	es.buffer = nil
	wake := es.consumerWake
	es.consumerWaiting = false
	es.consumerWake = nil
	es.mu.Unlock()
	if wake != nil {
		close(wake)
	}
}

// Dispose marks the source disposed: any suspended consumer resumes
// with end-of-stream, and every pending and future Emit rejects with
// [*DisposedError]. Dispose is idempotent: calling it after any terminal
// state (including a prior Dispose) is a silent no-op.
func (es *EmitSource[V]) Dispose() {
	es.mu.Lock()
	if es.st != stateOpen {
		es.mu.Unlock()
		return
	}
	es.st = stateDisposed
	for _, pe := range es.waitingEmit {
		pe.done <- &DisposedError{}
	}
	es.waitingEmit = nil
	es.buffer = nil
	wake := es.consumerWake
	es.consumerWaiting = false
	es.consumerWake = nil
	es.mu.Unlock()
	if wake != nil {
		close(wake)
	}
}

// Destroy releases the producer side. If the source has not reached a
// terminal state, Destroy disposes it (the auto-dispose contract).
func (es *EmitSource[V]) Destroy() {
	es.mu.Lock()
	open := es.st == stateOpen
	es.mu.Unlock()
	if open {
		es.Dispose()
	}
}

// Continue returns the next value. It returns io.EOF once the source is
// terminal and the buffer is empty, or re-raises the source's error if
// it terminated with one. It suspends if neither a value nor a terminal
// state is present, and honors ctx: if ctx is cancelled while suspended,
// Continue returns a [*CancelledError] without consuming a value — the
// next Continue call observes the same pending value.
//
// Continue must not be called concurrently by more than one goroutine
// for the same source. EmitSource.Continue does not detect overlapping
// calls itself; [Pipeline.Continue] does, and fails the second call with
// [ErrConcurrentContinue].
func (es *EmitSource[V]) Continue(ctx context.Context) (V, error) {
	var zero V
	for {
		es.mu.Lock()
		if len(es.buffer) > 0 {
			v := es.buffer[0]
			es.buffer = es.buffer[1:]
			if len(es.waitingEmit) > 0 {
				pe := es.waitingEmit[0]
				es.waitingEmit = es.waitingEmit[1:]
				es.buffer = append(es.buffer, pe.val)
				pe.done <- nil
			}
			es.mu.Unlock()
			return v, nil
		}
		if len(es.waitingEmit) > 0 {
			pe := es.waitingEmit[0]
			es.waitingEmit = es.waitingEmit[1:]
			es.mu.Unlock()
			pe.done <- nil
			return pe.val, nil
		}
		switch es.st {
		case stateCompleted:
			es.consumed = true
			es.mu.Unlock()
			return zero, io.EOF
		case stateErrored:
			err := es.err
			es.mu.Unlock()
			return zero, err
		case stateDisposed:
			es.mu.Unlock()
			return zero, io.EOF
		}

		wake := make(chan struct{})
		es.consumerWaiting = true
		es.consumerWake = wake
		es.mu.Unlock()

		select {
		case <-wake:
			continue
		case <-ctx.Done():
			es.mu.Lock()
			if es.consumerWake == wake {
				es.consumerWaiting = false
				es.consumerWake = nil
			}
			es.mu.Unlock()
			return zero, &CancelledError{Cause: ctx.Err()}
		}
	}
}

// IsComplete reports whether the source has reached terminal-normal.
func (es *EmitSource[V]) IsComplete() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.st == stateCompleted
}

// IsDisposed reports whether the source has been disposed.
func (es *EmitSource[V]) IsDisposed() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.st == stateDisposed
}

// IsErrored reports whether the source terminated with an error.
func (es *EmitSource[V]) IsErrored() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.st == stateErrored
}

// IsConsumed reports whether the consumer has drained a normally
// completed source: every emitted value was delivered and Continue has
// returned end-of-stream. It stays false after an error or disposal.
func (es *EmitSource[V]) IsConsumed() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.consumed
}
