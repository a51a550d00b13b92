package pipeflow

import (
	"context"
	"io"
	"sync"

	"github.com/otabek/pipeflow/internal/chanx"
	"github.com/otabek/pipeflow/internal/task"
)

// Merge fans multiple pipelines into one. It bridges each source into a
// plain channel and hands the fan-in itself to chanx.Merge; the first
// source error cancels the shared context, the same cancel-on-first-
// outcome idiom [Race] uses, so the merged pipeline ends once every
// source has ended, or errors as soon as any source errors. Disposing
// the merged pipeline disposes every source.
func Merge[V any](sources []*Pipeline[V]) *Pipeline[V] {
	return driveCtx("merge", 0, func() {
		for _, s := range sources {
			s.Dispose()
		}
	}, func(sc *task.Scope, sub *Subject[V]) error {
		inner := task.New(sc.Context())
		ictx := inner.Context()

		chs := make([]<-chan V, len(sources))
		for i, src := range sources {
			ch := make(chan V)
			chs[i] = ch
			src := src
			inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, src, ch) })
		}

		merged := chanx.Merge(ictx, chs...)
		inner.Go(func(ctx context.Context) error {
			for {
				v, ok, err := chanx.Recv(ctx, merged)
				if err != nil || !ok {
					return nil
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		})
		return inner.Wait()
	})
}

// Concat sequentially drains each source in order: a later source is
// never touched until the prior one has fully completed. An error on
// any source stops the sequence and disposes the sources not yet
// reached.
func Concat[V any](sources []*Pipeline[V]) *Pipeline[V] {
	return drive("concat", 0, func() {
		for _, s := range sources {
			s.Dispose()
		}
	}, func(ctx context.Context, sub *Subject[V]) error {
		for i, src := range sources {
			for {
				v, err := src.Continue(ctx)
				if err == io.EOF {
					break
				}
				if err != nil {
					for _, rest := range sources[i+1:] {
						rest.Dispose()
					}
					return err
				}
				if err := sub.Emit(ctx, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Pair holds two values zipped together by [Zip2]. It is a defined type
// with chanx.Pair as its underlying type; Zip2 converts each chanx.Pair
// it receives into a Pair.
type Pair[A, B any] chanx.Pair[A, B]

// Zip2 pairs two pipelines element-by-element, ending as soon as either
// source ends (and disposing the other at that point). It bridges both
// pipelines into channels concurrently and delegates the pairing itself
// to chanx.Zip.
func Zip2[A, B any](a *Pipeline[A], b *Pipeline[B]) *Pipeline[Pair[A, B]] {
	return driveCtx[Pair[A, B]]("zip", 0, func() { a.Dispose(); b.Dispose() }, func(sc *task.Scope, sub *Subject[Pair[A, B]]) error {
		inner := task.New(sc.Context())
		ictx := inner.Context()

		cha := make(chan A)
		chb := make(chan B)
		inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, a, cha) })
		inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, b, chb) })

		zipped := chanx.Zip(ictx, cha, chb)
		inner.Go(func(ctx context.Context) error {
			for {
				pair, ok, err := chanx.Recv(ctx, zipped)
				if err != nil || !ok {
					return nil
				}
				if err := sub.Emit(ctx, Pair[A, B](pair)); err != nil {
					return err
				}
			}
		})
		return inner.Wait()
	})
}

// pumpIntoChan drains p into ch, closing ch on end-of-stream, error, or
// context cancellation. It is the standard bridge from a Pipeline's
// pull model to chanx's push-channel combinators.
func pumpIntoChan[V any](ctx context.Context, p *Pipeline[V], ch chan<- V) error {
	defer close(ch)
	for {
		v, err := p.Continue(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := chanx.Send(ctx, ch, v); err != nil {
			return nil
		}
	}
}

// Zip pairs same-type pipelines index-for-index into a slice, in the
// order sources were given, ending as soon as any source ends. This is
// the general N-source zip; Zip2 covers the common heterogeneous
// two-pipeline case, since Go generics cannot express a variadic tuple
// of distinct element types.
//
// Like Zip2, each source is bridged into its own channel by a dedicated
// goroutine, so a slow source only stalls the round that needs its next
// value rather than serializing every other source's pull behind it.
func Zip[V any](sources []*Pipeline[V]) *Pipeline[[]V] {
	return driveCtx[[]V]("zip", 0, func() {
		for _, s := range sources {
			s.Dispose()
		}
	}, func(sc *task.Scope, sub *Subject[[]V]) error {
		inner := task.New(sc.Context())

		chs := make([]<-chan V, len(sources))
		for i, src := range sources {
			ch := make(chan V)
			chs[i] = ch
			src := src
			inner.Go(func(ctx context.Context) error { return pumpIntoChan(ctx, src, ch) })
		}

		inner.Go(func(ctx context.Context) error {
			for {
				tuple := make([]V, len(chs))
				for i, ch := range chs {
					v, ok, err := chanx.Recv(ctx, ch)
					if err != nil || !ok {
						return nil
					}
					tuple[i] = v
				}
				if err := sub.Emit(ctx, tuple); err != nil {
					return err
				}
			}
		})
		return inner.Wait()
	})
}

// SharedSource is a multicast source: it wraps a single upstream
// Pipeline and fans each value out to every currently live downstream
// pipeline created via [SharedSource.AsPipeline].
// Emission on the shared source waits for every live downstream to
// accept a value before advancing the upstream — strict backpressure,
// slowest consumer wins. The upstream is disposed once the last
// downstream has been disposed or has completed.
//
// Share is a hot multicast: it does not replay values emitted before a
// downstream subscribed. Callers must obtain every downstream pipeline
// they need via [SharedSource.AsPipeline] before draining any of them,
// the same caveat a Subject-based multicast carries in any push/pull
// hybrid system.
type SharedSource[V any] struct {
	mu       sync.Mutex
	subs     map[int]*Subject[V]
	nextI    int
	sc       *task.Scope
	started  sync.Once
	upstream *Pipeline[V]

	done    bool
	doneErr error // nil means normal completion
}

// Share wraps upstream in a [SharedSource]. The forwarding driver does
// not start pulling from upstream until the first
// [SharedSource.AsPipeline] call, so a value can never be dropped before
// any downstream exists.
func Share[V any](upstream *Pipeline[V]) *SharedSource[V] {
	return &SharedSource[V]{subs: make(map[int]*Subject[V]), upstream: upstream}
}

func (sh *SharedSource[V]) start() {
	sh.started.Do(func() {
		sh.sc = task.New(context.Background())
		sh.sc.Go(func(ctx context.Context) error {
			defer sh.upstream.Dispose()
			for {
				v, err := sh.upstream.Continue(ctx)
				if err == io.EOF {
					sh.broadcastComplete()
					return nil
				}
				if err != nil {
					sh.broadcastError(err)
					return err
				}
				if err := sh.broadcast(ctx, v); err != nil {
					return err
				}
			}
		})
	})
}

func (sh *SharedSource[V]) broadcast(ctx context.Context, v V) error {
	sh.mu.Lock()
	targets := make([]*Subject[V], 0, len(sh.subs))
	for _, s := range sh.subs {
		targets = append(targets, s)
	}
	sh.mu.Unlock()
	for _, s := range targets {
		if s.IsDisposed() {
			continue
		}
		if err := s.Emit(ctx, v); err != nil && !IsDisposedError(err) {
			return err
		}
	}
	return nil
}

func (sh *SharedSource[V]) broadcastComplete() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.done = true
	for _, s := range sh.subs {
		if !s.IsDisposed() {
			s.Complete()
		}
	}
}

func (sh *SharedSource[V]) broadcastError(err error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.done = true
	sh.doneErr = wrapStream("share", err)
	for _, s := range sh.subs {
		if !s.IsDisposed() {
			s.Error(sh.doneErr)
		}
	}
}

// AsPipeline creates a new downstream consumer of the shared source,
// starting the driver on the first call. A subscriber joining after the
// source has already reached a terminal state gets that same terminal
// state immediately rather than hanging forever.
func (sh *SharedSource[V]) AsPipeline() *Pipeline[V] {
	sh.start()

	sh.mu.Lock()
	if sh.done {
		err := sh.doneErr
		sh.mu.Unlock()
		sub := NewSubject[V]()
		if err != nil {
			sub.Error(err)
		} else {
			sub.Complete()
		}
		return newPipeline(sub.source, nil)
	}

	id := sh.nextI
	sh.nextI++
	sub := NewSubject[V]()
	sh.subs[id] = sub
	sh.mu.Unlock()
	sh.start()

	return newPipeline(sub.source, func() {
		sh.mu.Lock()
		delete(sh.subs, id)
		remaining := len(sh.subs)
		sh.mu.Unlock()
		if remaining == 0 {
			sh.sc.Cancel(context.Canceled)
		}
	})
}
