package pipeflow

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/otabek/pipeflow/internal/task"
)

// SampleWhen holds the most-recent upstream value and, each time trigger
// emits, forwards it downstream — but only if it is new since the last
// sample. A trigger firing with nothing new since the previous sample
// produces no emission.
func SampleWhen[V, T any](trigger *Pipeline[T]) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return driveCtx("sampleWhen", 0, func() { p.Dispose(); trigger.Dispose() }, func(sc *task.Scope, sub *Subject[V]) error {
			var mu sync.Mutex
			var latest V
			var hasNew bool
			var upstreamDone bool

			inner := task.New(sc.Context())
			inner.Go(func(ctx context.Context) error {
				for {
					v, err := p.Continue(ctx)
					if err == io.EOF {
						mu.Lock()
						upstreamDone = true
						mu.Unlock()
						inner.Cancel(context.Canceled)
						return nil
					}
					if err != nil {
						return err
					}
					mu.Lock()
					latest = v
					hasNew = true
					mu.Unlock()
				}
			})
			inner.Go(func(ctx context.Context) error {
				for {
					_, err := trigger.Continue(ctx)
					if err == io.EOF {
						return nil
					}
					if err != nil {
						if IsCancelledError(err) {
							mu.Lock()
							done := upstreamDone
							mu.Unlock()
							if done {
								return nil
							}
						}
						return err
					}
					mu.Lock()
					v := latest
					emit := hasNew
					hasNew = false
					mu.Unlock()
					if emit {
						if err := sub.Emit(ctx, v); err != nil {
							return err
						}
					}
				}
			})
			return inner.Wait()
		})
	}
}

// SampleTime is [SampleWhen] with an internal periodic ticker as the
// trigger — the common case of sampling on a wall-clock cadence rather
// than an arbitrary trigger pipeline.
func SampleTime[V any](period time.Duration) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return driveCtx("sampleTime", 0, p.Dispose, func(sc *task.Scope, sub *Subject[V]) error {
			ticker := time.NewTicker(period)
			defer ticker.Stop()

			var mu sync.Mutex
			var latest V
			var hasNew bool

			inner := task.New(sc.Context())
			inner.Go(func(ctx context.Context) error {
				for {
					v, err := p.Continue(ctx)
					if err == io.EOF {
						inner.Cancel(context.Canceled)
						return nil
					}
					if err != nil {
						return err
					}
					mu.Lock()
					latest = v
					hasNew = true
					mu.Unlock()
				}
			})

			ctx := inner.Context()
			for {
				select {
				case <-ctx.Done():
					return inner.Wait()
				case <-ticker.C:
					mu.Lock()
					v := latest
					emit := hasNew
					hasNew = false
					mu.Unlock()
					if emit {
						if err := sub.Emit(ctx, v); err != nil {
							return err
						}
					}
				}
			}
		})
	}
}

// DelayWhen buffers one upstream value at a time and waits for trigger
// to emit before forwarding it. The stream ends as soon as either side
// ends: an ended trigger with an upstream value still
// buffered drops that value, since there is no future trigger firing to
// release it.
func DelayWhen[V, T any](trigger *Pipeline[T]) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return driveCtx("delayWhen", 0, func() { p.Dispose(); trigger.Dispose() }, func(sc *task.Scope, sub *Subject[V]) error {
			ctx := sc.Context()
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if _, err := trigger.Continue(ctx); err != nil {
					if err == io.EOF {
						return nil
					}
					return err
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}
