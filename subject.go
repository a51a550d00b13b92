package pipeflow

import (
	"context"
	"sync/atomic"
)

// SubjectOption configures a [Subject].
type SubjectOption func(*subjectConfig)

type subjectConfig struct {
	buffer int
}

// WithBuffer sets the hand-off buffer bound. The default, 0, means every
// emit suspends until a consumer takes the value directly.
func WithBuffer(n int) SubjectOption {
	return func(c *subjectConfig) { c.buffer = n }
}

// Subject is the producer-facing handle around an [EmitSource]. At most
// one active consumer [Pipeline] can be derived from a plain Subject;
// [Share] lifts that restriction via multicast.
type Subject[V any] struct {
	source        *EmitSource[V]
	pipelineTaken atomic.Bool
}

// NewSubject creates a Subject with its own [EmitSource].
func NewSubject[V any](opts ...SubjectOption) *Subject[V] {
	cfg := subjectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Subject[V]{source: NewEmitSource[V](cfg.buffer)}
}

// Emit delivers v downstream. See [EmitSource.Emit] for the exact
// blocking and error semantics.
func (s *Subject[V]) Emit(ctx context.Context, v V) error {
	return s.source.Emit(ctx, v)
}

// Yield is emit(v).await under another name: a producer coroutine calls
// Yield to hand a value to its consumer and suspend until it is taken.
func (s *Subject[V]) Yield(ctx context.Context, v V) error {
	return s.source.Emit(ctx, v)
}

// Complete marks the subject terminal-normal.
func (s *Subject[V]) Complete() { s.source.Complete() }

// Error marks the subject terminal-error.
func (s *Subject[V]) Error(err error) { s.source.Error(err) }

// AsPipeline derives the Subject's single consumer [Pipeline]. Calling
// AsPipeline a second time on the same Subject panics with
// [*UsageError]; use [Share] when more than one consumer is needed.
func (s *Subject[V]) AsPipeline() *Pipeline[V] {
	if !s.pipelineTaken.CompareAndSwap(false, true) {
		usagePanic("AsPipeline called more than once on the same subject")
	}
	return newPipeline(s.source, nil)
}

// IsComplete reports whether the subject has completed normally.
func (s *Subject[V]) IsComplete() bool { return s.source.IsComplete() }

// IsDisposed reports whether the subject's consumer has disposed it.
func (s *Subject[V]) IsDisposed() bool { return s.source.IsDisposed() }
