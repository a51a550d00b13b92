package chanx

import (
	"context"
	"reflect"
)

// First returns a channel that delivers whichever of chs produces a
// value first, then closes. An empty or all-nil chs, or ctx cancelled
// before anything arrives, closes the output with no value delivered.
//
// The channel count is dynamic, so a single reflect.Select stands in
// for a hand-written select statement. This is fine here since First
// only ever performs one selection per call, never a hot loop.
func First[T any](ctx context.Context, chs ...<-chan T) <-chan T {
	out := make(chan T, 1)

	live := make([]<-chan T, 0, len(chs))
	for _, ch := range chs {
		if ch != nil {
			live = append(live, ch)
		}
	}
	if len(live) == 0 {
		close(out)
		return out
	}

	go func() {
		defer close(out)

		cases := make([]reflect.SelectCase, len(live)+1)
		for i, ch := range live {
			cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)}
		}
		doneCase := len(live)
		cases[doneCase] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}

		winner, value, ok := reflect.Select(cases)
		if winner == doneCase || !ok {
			return
		}
		out <- value.Interface().(T)
	}()
	return out
}
