package pipeflow

import (
	"context"
	"io"
	"sync"
	"time"
)

// Map returns an operator that transforms every value with fn. An error
// from fn errors the downstream pipeline; the upstream pipeline is not
// disposed at that point, only when the downstream one is.
func Map[A, B any](fn func(context.Context, A) (B, error)) Operator[A, B] {
	return func(p *Pipeline[A]) *Pipeline[B] {
		return drive("map", 0, p.Dispose, func(ctx context.Context, sub *Subject[B]) error {
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				out, err := fn(ctx, v)
				if err != nil {
					return err
				}
				if err := sub.Emit(ctx, out); err != nil {
					return err
				}
			}
		})
	}
}

// Filter returns an operator that passes through only values for which
// pred returns true.
func Filter[V any](pred func(V) bool) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("filter", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if !pred(v) {
					continue
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// Skip returns an operator that discards the first n values.
func Skip[V any](n int) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("skip", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			skipped := 0
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if skipped < n {
					skipped++
					continue
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// Take returns an operator that forwards only the first n values, then
// completes. It stops pulling from the upstream pipeline but does not
// dispose it; that happens only when the downstream one is disposed.
func Take[V any](n int) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("take", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			if n <= 0 {
				return nil
			}
			taken := 0
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
				taken++
				if taken >= n {
					return nil
				}
			}
		})
	}
}

// SkipWhile returns an operator that discards values while pred holds,
// then forwards every value from the first failure onward (pred is not
// re-evaluated after that point).
func SkipWhile[V any](pred func(V) bool) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("skipWhile", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			skipping := true
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if skipping && pred(v) {
					continue
				}
				skipping = false
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// TakeWhile returns an operator that forwards values while pred holds
// and completes as soon as it doesn't. It stops pulling from the
// upstream pipeline but does not dispose it; that happens only when the
// downstream one is disposed.
func TakeWhile[V any](pred func(V) bool) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("takeWhile", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if !pred(v) {
					return nil
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// Tap returns an operator that invokes fn for its side effect on every
// value, then forwards the value unchanged.
func Tap[V any](fn func(V)) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("tap", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				fn(v)
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// Finalize returns an operator that invokes fn exactly once when the
// pipeline reaches any terminal state (normal end, error, or dispose),
// forwarding every value unchanged.
func Finalize[V any](fn func()) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		var once sync.Once
		final := func() { once.Do(fn) }
		return drive("finalize", 0, func() { p.Dispose(); final() }, func(ctx context.Context, sub *Subject[V]) error {
			defer final()
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// Delay returns an operator that forwards every value after waiting d,
// preserving order. Disposal during the wait cancels it promptly; an
// upstream error is seen only on the next pull, after the waiting value
// has been forwarded.
func Delay[V any](d time.Duration) Operator[V, V] {
	return func(p *Pipeline[V]) *Pipeline[V] {
		return drive("delay", 0, p.Dispose, func(ctx context.Context, sub *Subject[V]) error {
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				timer := time.NewTimer(d)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
	}
}

// Scan returns an operator that folds fn cumulatively over the stream,
// emitting each intermediate accumulation. It is the streaming
// counterpart of [Reduce]: Reduce produces one final value, Scan
// produces a running series of them.
func Scan[A, R any](initial R, fn func(R, A) R) Operator[A, R] {
	return func(p *Pipeline[A]) *Pipeline[R] {
		return drive("scan", 0, p.Dispose, func(ctx context.Context, sub *Subject[R]) error {
			acc := initial
			for {
				v, err := p.Continue(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				acc = fn(acc, v)
				if err := sub.Emit(ctx, acc); err != nil {
					return err
				}
			}
		})
	}
}
