package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScopeWaitReturnsNilOnSuccess(t *testing.T) {
	sc := New(context.Background())
	sc.Go(func(ctx context.Context) error { return nil })
	if err := sc.Wait(); err != nil {
		t.Fatalf("Wait = %v, want nil", err)
	}
}

func TestScopeFirstErrorWins(t *testing.T) {
	sc := New(context.Background())
	boom := errors.New("boom")
	block := make(chan struct{})

	sc.Go(func(ctx context.Context) error { return boom })
	sc.Go(func(ctx context.Context) error {
		<-ctx.Done()
		close(block)
		return errors.New("second")
	})

	err := sc.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("Wait = %v, want %v", err, boom)
	}
	select {
	case <-block:
	case <-time.After(time.Second):
		t.Fatal("sibling task was never cancelled")
	}
}

func TestScopeCancelDoesNotRecordError(t *testing.T) {
	sc := New(context.Background())
	sc.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	sc.Cancel(context.Canceled)
	if err := sc.Wait(); err != nil {
		t.Fatalf("Wait = %v, want nil (Cancel alone must not set firstErr)", err)
	}
}

func TestScopeWaitIsIdempotent(t *testing.T) {
	sc := New(context.Background())
	boom := errors.New("boom")
	sc.Go(func(ctx context.Context) error { return boom })

	first := sc.Wait()
	second := sc.Wait()
	if !errors.Is(first, boom) || first != second {
		t.Fatalf("Wait not idempotent: %v then %v", first, second)
	}
}

func TestScopePanicReraisesFromWait(t *testing.T) {
	sc := New(context.Background())
	sc.Go(func(ctx context.Context) error { panic("kaboom") })

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Wait to re-panic")
		}
		pe, ok := r.(*PanicError)
		if !ok {
			t.Fatalf("recovered %T, want *PanicError", r)
		}
		if pe.Value != "kaboom" {
			t.Fatalf("Value = %v, want kaboom", pe.Value)
		}
	}()
	sc.Wait()
}

func TestScopeWithPanicAsErrorConvertsPanic(t *testing.T) {
	sc := New(context.Background(), WithPanicAsError())
	sc.Go(func(ctx context.Context) error { panic("kaboom") })

	err := sc.Wait()
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
}

func TestScopeContextCancelledAfterAllTasksReturn(t *testing.T) {
	sc := New(context.Background())
	sc.Go(func(ctx context.Context) error { return nil })
	sc.Wait()
	select {
	case <-sc.Context().Done():
	default:
		t.Fatal("expected scope context to be cancelled after Wait")
	}
}
