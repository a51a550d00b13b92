package pipeflow

import (
	"context"
	"io"
)

// FromIterable returns a Pipeline that emits every element of items in
// order, then completes. The producer task is a driver that iterates
// items and calls Yield for each one.
func FromIterable[V any](items []V) *Pipeline[V] {
	return drive[V]("fromIterable", 0, nil, func(ctx context.Context, sub *Subject[V]) error {
		for _, v := range items {
			if err := sub.Yield(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Each drains p, invoking fn for every value, until end-of-stream. It
// returns the pipeline's terminal error, if any (nil on normal
// completion or disposal).
func Each[V any](ctx context.Context, p *Pipeline[V], fn func(V)) error {
	for {
		v, err := p.Continue(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(v)
	}
}

// Reduce drains p, folding fn over every value starting from init, and
// returns the final accumulation. A terminal error on p is returned as
// this call's error.
func Reduce[V, R any](ctx context.Context, p *Pipeline[V], init R, fn func(R, V) R) (R, error) {
	acc := init
	for {
		v, err := p.Continue(ctx)
		if err == io.EOF {
			return acc, nil
		}
		if err != nil {
			return acc, err
		}
		acc = fn(acc, v)
	}
}

// ToSlice drains p into a slice, preserving emission order.
func ToSlice[V any](ctx context.Context, p *Pipeline[V]) ([]V, error) {
	var out []V
	err := Each(ctx, p, func(v V) { out = append(out, v) })
	return out, err
}

// Discard drains p without retaining values, returning the count of
// values seen. Useful for exhausting a pipeline solely for its side
// effects.
func Discard[V any](ctx context.Context, p *Pipeline[V]) (int, error) {
	n := 0
	err := Each(ctx, p, func(V) { n++ })
	return n, err
}
