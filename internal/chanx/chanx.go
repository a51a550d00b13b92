package chanx

import "context"

// Send delivers v on ch, returning ctx.Err() instead of blocking forever
// once ctx is cancelled.
func Send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv takes the next value off ch. The bool reports whether ch is still
// open — false means ch was closed with no value delivered. Returns
// ctx.Err() if ctx is cancelled before either happens.
func Recv[T any](ctx context.Context, ch <-chan T) (T, bool, error) {
	select {
	case v, ok := <-ch:
		return v, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}
