package pipeflow

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/otabek/pipeflow/internal/task"
)

// ConcurrentOrdered returns the bounded-parallel operator.
// It processes up to sem's capacity upstream values simultaneously, each
// through its own private instance of the ops chain (so stateful
// operators such as [Take] never see another item's state), and emits
// downstream in the same order values were pulled from upstream — a
// slow item holds back the emission of the items behind it, but not
// their processing.
func ConcurrentOrdered[V any](sem Semaphore, ops ...Operator[V, V]) Operator[V, V] {
	return concurrent(true, sem, ops)
}

// ConcurrentUnordered is [ConcurrentOrdered] without the order
// guarantee: results are emitted as soon as their own processing
// finishes, regardless of upstream order.
func ConcurrentUnordered[V any](sem Semaphore, ops ...Operator[V, V]) Operator[V, V] {
	return concurrent(false, sem, ops)
}

func concurrent[V any](ordered bool, sem Semaphore, ops []Operator[V, V]) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return driveCtx("concurrent", 0, p.Dispose, func(sc *task.Scope, sub *Subject[V]) error {
			pool := task.NewPool(int(availableCap(sem)))
			defer pool.Close()

			var wg sync.WaitGroup
			var errOnce sync.Once
			var firstErr error

			// fail cancels a locally-derived context on the first
			// worker error, stopping the dispatcher and every
			// in-flight worker without touching sc's context — that
			// one is reserved for genuine downstream disposal
			// (checked by driveCtx after body returns).
			ctx, cancel := context.WithCancel(sc.Context())
			defer cancel()
			fail := func(err error) {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}

			var prevDone chan struct{}

			for {
				permit, err := sem.Acquire(ctx)
				if err != nil {
					break
				}
				v, err := p.Continue(ctx)
				if err == io.EOF {
					permit.Release()
					break
				}
				if err != nil {
					permit.Release()
					fail(err)
					break
				}

				myDone := make(chan struct{})
				waitFor := prevDone
				prevDone = myDone
				wg.Add(1)

				submitErr := pool.Submit(ctx, func() {
					defer wg.Done()
					defer close(myDone)
					defer permit.Release()

					out, jobErr := runChain(ctx, v, ops)

					if ordered && waitFor != nil {
						select {
						case <-waitFor:
						case <-ctx.Done():
							return
						}
					}

					if jobErr != nil {
						fail(jobErr)
						return
					}
					if err := sub.Emit(ctx, out); err != nil {
						fail(err)
					}
				})
				if submitErr != nil {
					permit.Release()
					close(myDone)
					wg.Done()
					fail(submitErr)
					break
				}
			}

			wg.Wait()
			return firstErr
		})
	}
}

// availableCap reads a semaphore's current capacity for sizing the
// internal worker pool. Every [Semaphore] implementation reports
// Available() before any permit is taken, which for a freshly
// constructed semaphore equals its capacity.
func availableCap(sem Semaphore) int {
	if n := sem.Available(); n > 0 {
		return n
	}
	return 1
}

// runChain feeds v through a private instance of ops — a fresh Subject
// and its own operator chain, so stateful operators don't share state
// across concurrently processed items — and returns the single value it
// yields.
func runChain[V any](ctx context.Context, v V, ops []Operator[V, V]) (V, error) {
	var zero V
	sub := NewSubject[V]()
	pl := sub.AsPipeline()
	for _, op := range ops {
		pl = op(pl)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sub.Emit(ctx, v); err != nil {
			return
		}
		sub.Complete()
	}()

	out, err := pl.Continue(ctx)
	<-done
	pl.Dispose()
	if err == io.EOF {
		return zero, errors.New("pipeflow: concurrent: sub-operator chain produced no value")
	}
	return out, err
}
