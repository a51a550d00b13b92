package pipeflow

import (
	"context"

	"github.com/otabek/pipeflow/internal/task"
)

// drive is the standard operator implementation shape: it
// creates a new Subject, spawns body inside a private [task.Scope] to
// drive it, and wires the resulting Pipeline's Dispose to cancel that
// scope and dispose upstream. The operators in this package other than
// Share and Partition are built on drive or [driveCtx] so the
// termination-propagation rules hold uniformly:
//
//  1. body returning nil (upstream ended) completes the downstream Subject.
//  2. body returning a non-nil error (upstream/own error) errors it,
//     wrapped with opName via [StreamError].
//  3. downstream Dispose cancels body's context and disposes upstream.
//  4. a panic inside body is recovered by the scope and surfaces as (2).
//
// body must return promptly once its context is done.
func drive[B any](opName string, buffer int, disposeUpstream func(), body func(ctx context.Context, sub *Subject[B]) error) *Pipeline[B] {
	sub := NewSubject[B](WithBuffer(buffer))
	sc := task.New(context.Background())

	sc.Go(func(ctx context.Context) error {
		err := body(ctx, sub)
		if ctx.Err() != nil {
			// Downstream already disposed us; the source is already
			// terminal, calling Complete/Error again would panic.
			return nil
		}
		if err != nil {
			sub.Error(wrapStream(opName, err))
			return err
		}
		sub.Complete()
		return nil
	})

	out := newPipeline(sub.source, func() {
		sc.Cancel(context.Canceled)
		if disposeUpstream != nil {
			disposeUpstream()
		}
	})
	sub.pipelineTaken.Store(true)
	return out
}

// driveCtx is like drive but exposes the scope's context to the caller
// before body starts, for operators (concurrent, merge, zip, race, the
// trigger and chanx-backed operators) that
// need to fan the same cancellation context out to multiple sub-tasks
// spawned from inside body via an inner scope.
func driveCtx[B any](opName string, buffer int, disposeUpstream func(), body func(sc *task.Scope, sub *Subject[B]) error) *Pipeline[B] {
	sub := NewSubject[B](WithBuffer(buffer))
	sc := task.New(context.Background())

	sc.Go(func(ctx context.Context) error {
		err := body(sc, sub)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			sub.Error(wrapStream(opName, err))
			return err
		}
		sub.Complete()
		return nil
	})

	out := newPipeline(sub.source, func() {
		sc.Cancel(context.Canceled)
		if disposeUpstream != nil {
			disposeUpstream()
		}
	})
	sub.pipelineTaken.Store(true)
	return out
}
