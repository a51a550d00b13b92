package pipeflow

import (
	"context"
	"runtime"
	"sync/atomic"
)

// Pipeline is the consumer-facing handle around an [EmitSource]: a
// finite, single-pass, single-consumer lazy sequence of values with
// cancellation and disposal affordances.
//
// A Pipeline must, on every code path, either be drained to end-of-stream
// or explicitly [Pipeline.Dispose]d. If the last reference to a Pipeline
// is dropped without either, a finalizer disposes the underlying source
// — a weaker, non-deterministic backstop (Go has no destructors); relying
// on it is discouraged
type Pipeline[V any] struct {
	source *EmitSource[V]

	// onDispose runs additional teardown when Dispose is called, e.g.
	// cancelling an operator's driver scope or disposing an upstream
	// pipeline. nil for a bare Subject-derived pipeline.
	onDispose func()

	consuming atomic.Bool
}

// newPipeline wires a Pipeline around source and arms the auto-dispose
// finalizer.
func newPipeline[V any](source *EmitSource[V], onDispose func()) *Pipeline[V] {
	p := &Pipeline[V]{source: source, onDispose: onDispose}
	runtime.SetFinalizer(p, func(p *Pipeline[V]) {
		p.source.Destroy()
	})
	return p
}

// Continue returns the next value, or io.EOF once the pipeline has
// reached end-of-stream (normal completion or disposal). A terminal
// error is returned as-is (typically a [*StreamError]). Continue honors
// ctx: cancelling it while suspended returns a [*CancelledError] without
// losing the value that eventually arrives — the next Continue call
// observes it.
//
// Continue is not safe to call concurrently on the same Pipeline; an
// overlapping call returns [ErrConcurrentContinue].
func (p *Pipeline[V]) Continue(ctx context.Context) (V, error) {
	if !p.consuming.CompareAndSwap(false, true) {
		var zero V
		return zero, ErrConcurrentContinue
	}
	defer p.consuming.Store(false)
	return p.source.Continue(ctx)
}

// Dispose marks the pipeline abandoned: the underlying source resumes
// any suspended consumer with end-of-stream and rejects pending emits,
// and any operator-specific teardown (cancelling the driver, disposing
// the upstream pipeline) runs. Dispose is idempotent.
func (p *Pipeline[V]) Dispose() {
	p.source.Dispose()
	if p.onDispose != nil {
		p.onDispose()
	}
}

// IsComplete reports whether the pipeline's source has completed normally.
func (p *Pipeline[V]) IsComplete() bool { return p.source.IsComplete() }

// IsDisposed reports whether the pipeline has been disposed.
func (p *Pipeline[V]) IsDisposed() bool { return p.source.IsDisposed() }

// Pipe applies same-type operators in sequence: p.Pipe(a, b, c) applies
// a, then b, then c. For type-changing chains, use the free functions
// [Pipe2], [Pipe3], [Pipe4] — Go's generics have no way to express a
// variadic chain of operators whose input and output types differ at
// each step, so a fixed-arity family of free functions is the idiomatic
// composes ops left to right.
//
// Pipe is associative: p.Pipe(a, b).Pipe(c) yields the same pipeline
// (up to identity of the underlying source) as p.Pipe(a).Pipe(b, c) and
// p.Pipe(a, b, c).
func (p *Pipeline[V]) Pipe(ops ...Operator[V, V]) *Pipeline[V] {
	cur := p
	for _, op := range ops {
		cur = op(cur)
	}
	return cur
}

// Operator is a transform from Pipeline[A] to Pipeline[B]. It is
// stateless at the type level; any per-stream state lives inside the
// task the operator spawns when applied.
type Operator[A, B any] func(*Pipeline[A]) *Pipeline[B]

// Pipe2 applies op1 then op2, changing the pipeline's element type twice.
func Pipe2[A, B, C any](p *Pipeline[A], op1 Operator[A, B], op2 Operator[B, C]) *Pipeline[C] {
	return op2(op1(p))
}

// Pipe3 applies op1, op2, then op3.
func Pipe3[A, B, C, D any](p *Pipeline[A], op1 Operator[A, B], op2 Operator[B, C], op3 Operator[C, D]) *Pipeline[D] {
	return op3(op2(op1(p)))
}

// Pipe4 applies op1, op2, op3, then op4.
func Pipe4[A, B, C, D, E any](p *Pipeline[A], op1 Operator[A, B], op2 Operator[B, C], op3 Operator[C, D], op4 Operator[D, E]) *Pipeline[E] {
	return op4(op3(op2(op1(p))))
}
