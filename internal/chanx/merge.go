package chanx

import (
	"context"
	"sync"
)

// Merge fans multiple input channels into one output channel, closing it
// once every input is closed or ctx is cancelled. Value order across
// inputs is non-deterministic — this is what gives [Merge] pipelines
// (as opposed to [Concat]) their interleaved delivery.
func Merge[T any](ctx context.Context, chs ...<-chan T) <-chan T {
	out := make(chan T)

	var wg sync.WaitGroup
	wg.Add(len(chs))
	for _, ch := range chs {
		go func(ch <-chan T) {
			defer wg.Done()
			for {
				v, ok, err := Recv(ctx, ch)
				if err != nil || !ok {
					return
				}
				if Send(ctx, out, v) != nil {
					return
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
