package pipeflow

import (
	"context"
	"time"

	"github.com/otabek/pipeflow/internal/chanx"
	"github.com/otabek/pipeflow/internal/task"
)

// Debounce forwards a value only after upstream has been quiet for d —
// each new value resets the wait. Unlike [SampleTime], which samples on
// a fixed cadence and can drop a value that never gets a following
// tick, Debounce always eventually forwards the last value once
// upstream goes quiet or ends. Delegates to chanx.Debounce.
func Debounce[V any](d time.Duration) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return driveCtx("debounce", 0, p.Dispose, func(sc *task.Scope, sub *Subject[V]) error {
			inner := task.New(sc.Context())
			ictx := inner.Context()
			in := make(chan V)
			inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, p, in) })

			debounced := chanx.Debounce(ictx, in, d)
			inner.Go(func(ctx context.Context) error {
				for {
					v, ok, err := chanx.Recv(ctx, debounced)
					if err != nil || !ok {
						return nil
					}
					if err := sub.Emit(ctx, v); err != nil {
						return err
					}
				}
			})
			return inner.Wait()
		})
	}
}

// Batch groups upstream values into slices of up to size elements,
// flushing early if timeout elapses since the first item of the current
// batch. Any partial batch is flushed when upstream ends. Delegates to
// chanx.Buffer.
func Batch[V any](size int, timeout time.Duration) Operator[V, []V] {
	return func(p *Pipeline[V]) *Pipeline[[]V] {
		return driveCtx[[]V]("batch", 0, p.Dispose, func(sc *task.Scope, sub *Subject[[]V]) error {
			inner := task.New(sc.Context())
			ictx := inner.Context()
			in := make(chan V)
			inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, p, in) })

			batched := chanx.Buffer(ictx, in, size, timeout)
			inner.Go(func(ctx context.Context) error {
				for {
					b, ok, err := chanx.Recv(ctx, batched)
					if err != nil || !ok {
						return nil
					}
					if err := sub.Emit(ctx, b); err != nil {
						return err
					}
				}
			})
			return inner.Wait()
		})
	}
}

// Window groups upstream values into time-based batches. In
// [chanx.Tumbling] mode each item belongs to exactly one window; in
// [chanx.Sliding] mode each emitted batch contains every item received
// within the trailing duration. Delegates to chanx.Window.
func Window[V any](duration time.Duration, mode chanx.WindowMode) Operator[V, []V] {
	return func(p *Pipeline[V]) *Pipeline[[]V] {
		return driveCtx[[]V]("window", 0, p.Dispose, func(sc *task.Scope, sub *Subject[[]V]) error {
			inner := task.New(sc.Context())
			ictx := inner.Context()
			in := make(chan V)
			inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, p, in) })

			windowed := chanx.Window(ictx, in, duration, mode)
			inner.Go(func(ctx context.Context) error {
				for {
					b, ok, err := chanx.Recv(ctx, windowed)
					if err != nil || !ok {
						return nil
					}
					if err := sub.Emit(ctx, b); err != nil {
						return err
					}
				}
			})
			return inner.Wait()
		})
	}
}

// Partition splits p into two pipelines by pred: values for which pred
// returns true flow to match, the rest to rest. Both must be drained
// concurrently — as with chanx.Partition, reading only one
// side blocks the shared dispatcher and stalls the other. Disposing
// either downstream pipeline disposes p.
func Partition[V any](p *Pipeline[V], pred func(V) bool) (match, rest *Pipeline[V]) {
	sc := task.New(context.Background())
	ctx := sc.Context()
	in := make(chan V)
	sc.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, p, in) })

	matchCh, restCh := chanx.Partition(ctx, in, pred)

	matchSub := NewSubject[V]()
	restSub := NewSubject[V]()
	sc.Go(func(ctx context.Context) error { return forwardChan(ctx, matchCh, matchSub) })
	sc.Go(func(ctx context.Context) error { return forwardChan(ctx, restCh, restSub) })

	dispose := func() {
		sc.Cancel(context.Canceled)
		p.Dispose()
	}
	match = newPipeline(matchSub.source, dispose)
	rest = newPipeline(restSub.source, dispose)
	matchSub.pipelineTaken.Store(true)
	restSub.pipelineTaken.Store(true)
	return match, rest
}

func forwardChan[V any](ctx context.Context, ch <-chan V, sub *Subject[V]) error {
	for {
		v, ok, err := chanx.Recv(ctx, ch)
		if err != nil {
			sub.Error(wrapStream("partition", err))
			return err
		}
		if !ok {
			sub.Complete()
			return nil
		}
		if err := sub.Emit(ctx, v); err != nil {
			return err
		}
	}
}

// Race forwards a single value from whichever source pipeline produces
// one first, then disposes every source, using chanx.First to pick the
// winner. If every source ends or errors without ever producing a
// value, Race waits until the resulting pipeline is disposed.
func Race[V any](sources []*Pipeline[V]) *Pipeline[V] {
	return driveCtx("race", 0, func() {
		for _, s := range sources {
			s.Dispose()
		}
	}, func(sc *task.Scope, sub *Subject[V]) error {
		inner := task.New(sc.Context())
		ictx := inner.Context()

		chs := make([]<-chan V, len(sources))
		for i, src := range sources {
			ch := make(chan V, 1)
			chs[i] = ch
			src := src
			inner.Go(func(ctx context.Context) error {
				v, err := src.Continue(ctx)
				if err != nil {
					return nil
				}
				select {
				case ch <- v:
				case <-ctx.Done():
				}
				return nil
			})
		}

		winner := chanx.First(ictx, chs...)
		v, ok, err := chanx.Recv(ictx, winner)
		for _, src := range sources {
			src.Dispose()
		}
		if err != nil || !ok {
			return err
		}
		return sub.Emit(ictx, v)
	})
}
