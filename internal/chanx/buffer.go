package chanx

import (
	"context"
	"time"
)

// Buffer groups values from in into slices of up to size elements,
// flushing a batch once it reaches size or once timeout elapses since
// the batch's first item, whichever comes first. Any partial batch is
// flushed when in closes. Panics if size or timeout is not positive; a
// nil in closes the output immediately.
func Buffer[T any](ctx context.Context, in <-chan T, size int, timeout time.Duration) <-chan []T {
	if size <= 0 {
		panic("chanx: Buffer requires size > 0")
	}
	if timeout <= 0 {
		panic("chanx: Buffer requires timeout > 0")
	}

	out := make(chan []T)
	if in == nil {
		close(out)
		return out
	}

	go func() {
		defer close(out)

		batch := make([]T, 0, size)
		var timer *time.Timer
		var deadline <-chan time.Time

		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			if Send(ctx, out, batch) != nil {
				return false
			}
			batch = make([]T, 0, size)
			if timer != nil {
				timer.Stop()
				deadline = nil
			}
			return true
		}

		for {
			select {
			case v, ok := <-in:
				if !ok {
					flush()
					return
				}
				batch = append(batch, v)
				if len(batch) == 1 {
					timer = time.NewTimer(timeout)
					deadline = timer.C
				}
				if len(batch) >= size && !flush() {
					return
				}
			case <-deadline:
				if !flush() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
