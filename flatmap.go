package pipeflow

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/otabek/pipeflow/internal/task"
)

// Stop is a distinguished error a FlatMap mapping function can return
// (alongside any items it already produced for that value) to end the
// stream early and dispose the upstream pipeline. It is the Go
// realization of a stop sentinel: rather than smuggle a
// sentinel through the result slice's element type, the mapper signals
// early termination the same way it signals any other stop condition —
// through its error return.
var Stop = errors.New("pipeflow: flatMap stop")

// FlatMapOrdered maps each upstream value to zero or more downstream
// values via f, running up to concurrency invocations of f at once, and
// interleaves their results in source order: item i's results are all
// emitted before item i+1's, regardless of relative completion time.
func FlatMapOrdered[V, R any](concurrency int, f func(ctx context.Context, v V, i int) ([]R, error)) Operator[V, R] {
	return flatMap[V, R](true, concurrency, f)
}

// FlatMapUnordered is [FlatMapOrdered] without the ordering guarantee:
// each invocation's results are emitted as soon as it finishes.
func FlatMapUnordered[V, R any](concurrency int, f func(ctx context.Context, v V, i int) ([]R, error)) Operator[V, R] {
	return flatMap[V, R](false, concurrency, f)
}

func flatMap[V, R any](ordered bool, concurrency int, f func(ctx context.Context, v V, i int) ([]R, error)) Operator[V, R] {
	if concurrency <= 0 {
		concurrency = 1
	}
	return func(p *Pipeline[V]) *Pipeline[R] {
		return driveCtx[R]("flatMap", 0, p.Dispose, func(sc *task.Scope, sub *Subject[R]) error {
			sem := NewSemaphore(concurrency)
			pool := task.NewPool(concurrency)
			defer pool.Close()

			ctx, cancel := context.WithCancel(sc.Context())
			defer cancel()

			var wg sync.WaitGroup
			var errOnce sync.Once
			var firstErr error
			var stopped bool
			var mu sync.Mutex

			fail := func(err error) {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}

			var prevDone chan struct{}
			idx := 0

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
				i := idx
				idx++
				wg.Add(1)

				submitErr := pool.Submit(ctx, func() {
					defer wg.Done()
					defer close(myDone)
					defer permit.Release()

					items, jobErr := f(ctx, v, i)
					stop := errors.Is(jobErr, Stop)

					if ordered && waitFor != nil {
						select {
						case <-waitFor:
						case <-ctx.Done():
							return
						}
					}

					for _, item := range items {
						if err := sub.Emit(ctx, item); err != nil {
							fail(err)
							return
						}
					}

					if stop {
						mu.Lock()
						stopped = true
						mu.Unlock()
						cancel()
						return
					}
					if jobErr != nil {
						fail(jobErr)
					}
				})
				if submitErr != nil {
					permit.Release()
					close(myDone)
					wg.Done()
					fail(submitErr)
					break
				}

				mu.Lock()
				s := stopped
				mu.Unlock()
				if s {
					break
				}
			}

			wg.Wait()
			if stopped {
				p.Dispose()
			}
			return firstErr
		})
	}
}
