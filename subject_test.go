package pipeflow

import (
	"context"
	"testing"
)

func TestSubjectWithBufferAllowsUnblockedEmits(t *testing.T) {
	ctx := context.Background()
	s := NewSubject[int](WithBuffer(2))
	if err := s.Emit(ctx, 1); err != nil {
		t.Fatalf("Emit(1): %v", err)
	}
	if err := s.Emit(ctx, 2); err != nil {
		t.Fatalf("Emit(2): %v", err)
	}
	s.Complete()

	p := s.AsPipeline()
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestSubjectYieldIsEmit(t *testing.T) {
	ctx := context.Background()
	s := NewSubject[int]()
	go func() {
		_ = s.Yield(ctx, 5)
		s.Complete()
	}()
	got, err := ToSlice(ctx, s.AsPipeline())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("got %v, want [5]", got)
	}
}

func TestSubjectIsComplete(t *testing.T) {
	s := NewSubject[int]()
	if s.IsComplete() || s.IsDisposed() {
		t.Fatal("fresh subject should be neither complete nor disposed")
	}
	s.Complete()
	if !s.IsComplete() {
		t.Fatal("expected IsComplete after Complete")
	}
}

func TestSubjectIsDisposedBeforeTerminal(t *testing.T) {
	s := NewSubject[int]()
	p := s.AsPipeline()
	p.Dispose()
	if !s.IsDisposed() {
		t.Fatal("expected IsDisposed after downstream Dispose on a still-open subject")
	}
}
