package chanx

import "context"

// Partition splits items from in into match (pred true) and rest (pred
// false). Both are closed when in closes or ctx is cancelled.
//
// A single dispatcher goroutine drives both outputs, so callers must
// drain match and rest concurrently — reading only one blocks the
// dispatcher and stalls the other. Panics if pred is nil; a nil in
// closes both outputs immediately.
func Partition[T any](ctx context.Context, in <-chan T, pred func(T) bool) (match, rest <-chan T) {
	if pred == nil {
		panic("chanx: Partition requires a non-nil predicate")
	}
	matchCh := make(chan T)
	restCh := make(chan T)

	if in == nil {
		close(matchCh)
		close(restCh)
		return matchCh, restCh
	}

	go func() {
		defer close(matchCh)
		defer close(restCh)
		for {
			v, ok, err := Recv(ctx, in)
			if err != nil || !ok {
				return
			}
			dst := restCh
			if pred(v) {
				dst = matchCh
			}
			if Send(ctx, dst, v) != nil {
				return
			}
		}
	}()

	return matchCh, restCh
}
