// Package task provides the structured-concurrency runtime that drives
// every pipeflow operator. A [Scope] owns a group of goroutines with a
// coordinated lifecycle: it cancels its context when finalized, recovers
// panics into [*PanicError], and returns the first task error from
// [Scope.Wait].
//
// Each pipeflow operator driver (concurrent, merge, concat, zip, share,
// flatMap, sampleWhen, delayWhen, fromIterable) runs inside its own
// Scope so that downstream disposal cancels the driver's context. The
// outer driver scope is never waited on: the driver hands its terminal
// error to the downstream pipeline itself, while the inner scopes some
// operators create surface their tasks' errors through Scope.Wait.
package task

import (
	"context"
	"sync"
	"sync/atomic"
)

// Func is the signature of work executed inside a [Scope].
type Func func(ctx context.Context) error

// scope holds the shared state for a group of goroutines spawned via Go.
type scope struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	wg sync.WaitGroup

	errOnce  sync.Once
	firstErr atomic.Value // error

	panicMu  sync.Mutex
	firstPan *PanicError

	panicAsErr bool
}

// Scope wraps the internal scope state. Create one via [New]; finalize
// with [Scope.Wait].
type Scope struct {
	s        *scope
	waitOnce sync.Once
	result   error
	panicVal *PanicError
}

// Option configures a [Scope].
type Option func(*scope)

// WithPanicAsError converts panics recovered inside Go-spawned tasks into
// [*PanicError] values returned as ordinary errors, instead of re-raising
// them from [Scope.Wait].
func WithPanicAsError() Option {
	return func(s *scope) { s.panicAsErr = true }
}

// New creates a [Scope] whose context is derived from parent. The context
// is cancelled by [Scope.Wait] once every spawned task has returned, or
// earlier via [Scope.Cancel] / the first task error; a scope that is
// never waited on keeps its context open after its tasks return.
func New(parent context.Context, opts ...Option) *Scope {
	ctx, cancel := context.WithCancelCause(parent)
	s := &scope{ctx: ctx, cancel: cancel}
	for _, opt := range opts {
		opt(s)
	}
	return &Scope{s: s}
}

// Go spawns fn in a new goroutine tied to the scope's lifecycle. A panic
// inside fn is recovered; depending on [WithPanicAsError] it is either
// converted to a returned error or captured and re-raised from Wait.
// The first non-nil error from any task cancels the scope's context,
// unblocking sibling tasks waiting on ctx.Done().
func (sc *Scope) Go(fn Func) {
	sc.s.wg.Add(1)
	go func() {
		defer sc.s.wg.Done()
		err := sc.s.exec(fn)
		if err != nil {
			sc.s.recordError(err)
		}
	}()
}

func (s *scope) exec(fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := newPanicError(r)
			if s.panicAsErr {
				err = pe
				return
			}
			s.panicMu.Lock()
			if s.firstPan == nil {
				s.firstPan = pe
			}
			s.panicMu.Unlock()
			s.cancel(pe)
		}
	}()
	return fn(s.ctx)
}

func (s *scope) recordError(err error) {
	s.errOnce.Do(func() {
		s.firstErr.Store(err)
		s.cancel(err)
	})
}

// Context returns the scope's context. It is cancelled when the scope
// finalizes or [Scope.Cancel] is called.
func (sc *Scope) Context() context.Context { return sc.s.ctx }

// Cancel cancels the scope's context with cause, signalling every spawned
// task to stop.
func (sc *Scope) Cancel(cause error) { sc.s.cancel(cause) }

// Wait blocks until every spawned task has returned, then returns the
// first task error (nil on success). If a task panicked and
// [WithPanicAsError] was not set, Wait re-panics with the captured
// [*PanicError]. Wait is idempotent.
func (sc *Scope) Wait() error {
	sc.waitOnce.Do(func() {
		sc.s.wg.Wait()
		select {
		case <-sc.s.ctx.Done():
		default:
			sc.s.cancel(nil)
		}
		if v := sc.s.firstErr.Load(); v != nil {
			sc.result = v.(error)
		}
		sc.s.panicMu.Lock()
		sc.panicVal = sc.s.firstPan
		sc.s.panicMu.Unlock()
	})
	if sc.panicVal != nil {
		panic(sc.panicVal)
	}
	return sc.result
}
