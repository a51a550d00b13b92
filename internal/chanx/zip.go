package chanx

import "context"

// Pair holds one value from each side of a [Zip].
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip reads chA and chB in lockstep, emitting a Pair for each aligned
// pair of values and closing as soon as either side closes or ctx is
// cancelled. A nil input closes the output immediately.
func Zip[A, B any](ctx context.Context, chA <-chan A, chB <-chan B) <-chan Pair[A, B] {
	out := make(chan Pair[A, B])
	if chA == nil || chB == nil {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		for {
			a, ok, err := Recv(ctx, chA)
			if err != nil || !ok {
				return
			}
			b, ok, err := Recv(ctx, chB)
			if err != nil || !ok {
				return
			}
			if Send(ctx, out, Pair[A, B]{First: a, Second: b}) != nil {
				return
			}
		}
	}()

	return out
}
