// Package pipeflow provides a pull-based, backpressured asynchronous
// pipeline: producers hand values off one at a time to a single
// consumer, and neither side runs ahead of the other.
//
// # Core Types
//
// [EmitSource] is the low-level hand-off primitive: [EmitSource.Emit]
// suspends until the value is taken by [EmitSource.Continue], or until
// the source reaches a terminal state. Most code does not touch
// EmitSource directly; it sits underneath [Subject] and [Pipeline].
//
// [Subject] is the producer-facing handle. A producer calls
// [Subject.Emit] (or its alias [Subject.Yield]) to hand off values, and
// [Subject.Complete] or [Subject.Error] to end the stream. Exactly one
// consumer [Pipeline] is derived from a Subject via
// [Subject.AsPipeline]; a second call panics with [*UsageError].
//
// [Pipeline] is the consumer-facing handle. [Pipeline.Continue] pulls
// the next value, returning [io.EOF] once the stream has ended
// normally. [Pipeline.Dispose] releases the pipeline and propagates
// upstream, and is safe to call more than once.
//
//	sub := pipeflow.NewSubject[int]()
//	go func() {
//	    defer sub.Complete()
//	    for i := 0; i < 3; i++ {
//	        sub.Yield(ctx, i)
//	    }
//	}()
//	p := sub.AsPipeline()
//	for {
//	    v, err := p.Continue(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    fmt.Println(v)
//	}
//
// # Operators
//
// An [Operator] transforms one Pipeline into another. Trivial operators
// — [Map], [Filter], [Skip], [Take], [SkipWhile], [TakeWhile], [Tap],
// [Finalize], [Delay], [Scan] — each drive a single upstream Pipeline
// into a new Subject. [Pipeline.Pipe] chains same-type operators; the
// free functions [Pipe2], [Pipe3], and [Pipe4] chain operators that
// change the element type at each stage, since Go generics cannot
// express a variadic chain of differing types.
//
// [ConcurrentOrdered] and [ConcurrentUnordered] run an operator chain
// over up to a semaphore's capacity of values in flight at once, either
// preserving input order or emitting as each completes.
// [FlatMapOrdered] and [FlatMapUnordered] map each value to a slice of
// results and forward them, bounded by concurrency the same way, and
// stop early if the mapping function returns [Stop].
//
// [SampleWhen] and [SampleTime] emit the most recent upstream value on
// a trigger. [DelayWhen] holds each value until the next value of a
// single trigger pipeline arrives. [RetryMap] wraps a
// mapping function with retries and backoff.
//
// # Combining Pipelines
//
// [Merge] interleaves multiple pipelines as values arrive from any of
// them. [Concat] drains them one at a time, in order. [Zip] and [Zip2]
// pair values index-for-index across sources, ending as soon as the
// shortest source ends. [Share] turns a single Pipeline into a hot
// multicast [SharedSource]; each call to [SharedSource.AsPipeline]
// returns an independent consumer, and the source blocks on the
// slowest live one.
//
// # Free Functions
//
// [FromIterable] builds a Pipeline over an in-memory slice.
// [Each], [Reduce], [ToSlice], and [Discard] drain a Pipeline to
// completion.
//
// # Errors
//
// A terminal error that passes through an operator is wrapped in
// [*StreamError], naming the operator where it was first wrapped; use
// [IsStreamError] and [errors.Unwrap] to inspect the cause. An error
// passed to [Subject.Error] reaches that Subject's own pipeline
// unwrapped. [*DisposedError] marks
// operations attempted after disposal. [*CancelledError] marks a
// [Pipeline.Continue] cut short by context cancellation, without losing
// the value it was waiting on. [*UsageError] marks a programming
// mistake — a second AsPipeline call on a Subject, or a Continue call
// racing another Continue on the same Pipeline — detected synchronously.
//
// # Concurrency Primitives
//
// [Semaphore] bounds concurrent work; [NewSemaphore] returns the
// default local implementation, and any type satisfying the interface
// can be substituted.
package pipeflow
