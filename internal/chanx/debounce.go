package chanx

import (
	"context"
	"time"
)

// Debounce forwards the last value seen on in once it has been quiet
// for d — every new value pushes the deadline back by d. Closing in
// flushes any value still pending. Panics if d <= 0; a nil in closes
// the output immediately.
func Debounce[T any](ctx context.Context, in <-chan T, d time.Duration) <-chan T {
	if d <= 0 {
		panic("chanx: Debounce requires d > 0")
	}
	out := make(chan T)
	if in == nil {
		close(out)
		return out
	}

	go func() {
		defer close(out)

		var pending T
		var armed bool
		var deadline <-chan time.Time
		var timer *time.Timer

		for {
			select {
			case v, ok := <-in:
				if !ok {
					if armed {
						Send(ctx, out, pending)
					}
					return
				}
				pending, armed = v, true
				if timer == nil {
					timer = time.NewTimer(d)
					deadline = timer.C
					continue
				}
				if !timer.Stop() {
					select {
					case <-deadline:
					default:
					}
				}
				timer.Reset(d)
			case <-deadline:
				if !armed {
					continue
				}
				if Send(ctx, out, pending) != nil {
					return
				}
				armed = false
				deadline, timer = nil, nil
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
