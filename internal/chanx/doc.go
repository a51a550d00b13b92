// Package chanx holds the small set of context-aware channel primitives
// pipeflow's operator drivers bridge into: cancellable [Send]/[Recv],
// and the fan-in/fan-out shapes — [Merge], [Zip], [First], [Debounce],
// [Buffer], [Window], [Partition] — that back the combinators and the
// chanx-backed operators built on top of the pull-based Pipeline model.
//
// Every function here that spawns goroutines ties them to the caller's
// [context.Context], so cancelling that context is always enough to
// unwind them without leaking.
package chanx
