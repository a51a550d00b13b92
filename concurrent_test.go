package pipeflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestConcurrentOrderedPreservesOrder(t *testing.T) {
	ctx := context.Background()
	sem := NewSemaphore(4)

	// Earlier items sleep longer than later ones, so ordered mode must
	// still emit in submission order rather than completion order.
	delays := []time.Duration{30 * time.Millisecond, 20 * time.Millisecond, 10 * time.Millisecond, 0}
	slowFirst := Map(func(_ context.Context, v int) (int, error) {
		time.Sleep(delays[v])
		return v, nil
	})

	p := ConcurrentOrdered(sem, slowFirst)(FromIterable([]int{0, 1, 2, 3}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 2, 3}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestConcurrentUnorderedCompletesOutOfOrder(t *testing.T) {
	ctx := context.Background()
	sem := NewSemaphore(4)

	delays := []time.Duration{30 * time.Millisecond, 0, 0, 0}
	slowFirst := Map(func(_ context.Context, v int) (int, error) {
		time.Sleep(delays[v])
		return v, nil
	})

	p := ConcurrentUnordered(sem, slowFirst)(FromIterable([]int{0, 1, 2, 3}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("got %v, want 4 values", got)
	}
	if got[len(got)-1] != 0 {
		t.Fatalf("got %v, want item 0 (the slow one) last", got)
	}
}

func TestConcurrentReleasesPermitOnEveryExitPath(t *testing.T) {
	ctx := context.Background()
	sem := NewSemaphore(2)

	fails := Map(func(_ context.Context, v int) (int, error) {
		if v == 1 {
			return 0, errors.New("boom")
		}
		return v, nil
	})

	p := ConcurrentUnordered(sem, fails)(FromIterable([]int{1, 2, 3, 4, 5}))
	_, _ = ToSlice(ctx, p)

	// If a permit leaked, Acquire would block forever here.
	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	permit, err := sem.Acquire(dctx)
	if err != nil {
		t.Fatalf("Acquire after run: %v, permits leaked", err)
	}
	permit.Release()
}

func TestConcurrentStopsOnFirstError(t *testing.T) {
	ctx := context.Background()
	sem := NewSemaphore(1)

	var processed int32
	fails := Map(func(_ context.Context, v int) (int, error) {
		atomic.AddInt32(&processed, 1)
		if v == 2 {
			return 0, errors.New("boom")
		}
		return v, nil
	})

	p := ConcurrentOrdered(sem, fails)(FromIterable([]int{1, 2, 3, 4, 5}))
	_, err := ToSlice(ctx, p)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestConcurrentDisposalCancelsInFlightWork(t *testing.T) {
	sem := NewSemaphore(4)

	var started sync.WaitGroup
	started.Add(1)
	var startedOnce sync.Once
	cancelled := make(chan struct{})
	var cancelledOnce sync.Once

	blockUntilCancelled := Map(func(ctx context.Context, v int) (int, error) {
		startedOnce.Do(started.Done)
		<-ctx.Done()
		cancelledOnce.Do(func() { close(cancelled) })
		return 0, ctx.Err()
	})

	p := ConcurrentUnordered(sem, blockUntilCancelled)(FromIterable([]int{1, 2, 3}))
	started.Wait()
	p.Dispose()

	if !p.IsDisposed() {
		t.Fatal("expected disposed")
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight work was not cancelled after Dispose")
	}
}
