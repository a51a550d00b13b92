package pipeflow

import (
	"errors"
	"testing"
)

func TestWrapStreamAttachesOpOnce(t *testing.T) {
	boom := errors.New("boom")
	wrapped := wrapStream("map", boom)
	if !IsStreamError(wrapped) {
		t.Fatalf("wrapped = %v, want *StreamError", wrapped)
	}
	if !errors.Is(wrapped, boom) {
		t.Fatalf("wrapped does not unwrap to original: %v", wrapped)
	}

	rewrapped := wrapStream("filter", wrapped)
	var se *StreamError
	if !errors.As(rewrapped, &se) {
		t.Fatalf("rewrapped = %v, want *StreamError", rewrapped)
	}
	if se.Op != "map" {
		t.Fatalf("Op = %q, want the original operator name preserved", se.Op)
	}
}

func TestWrapStreamNilPassesThrough(t *testing.T) {
	if err := wrapStream("map", nil); err != nil {
		t.Fatalf("wrapStream(nil) = %v, want nil", err)
	}
}

func TestIsDisposedErrorIdentifiesType(t *testing.T) {
	err := &DisposedError{Op: "merge"}
	if !IsDisposedError(err) {
		t.Fatal("expected IsDisposedError to be true")
	}
	if IsDisposedError(errors.New("other")) {
		t.Fatal("expected IsDisposedError to be false for unrelated error")
	}
}

func TestIsCancelledErrorIdentifiesType(t *testing.T) {
	err := &CancelledError{Cause: errors.New("ctx done")}
	if !IsCancelledError(err) {
		t.Fatal("expected IsCancelledError to be true")
	}
	if !errors.Is(err, err.Cause) {
		t.Fatal("expected CancelledError to unwrap to its cause")
	}
}

func TestUsagePanicRaisesUsageError(t *testing.T) {
	defer func() {
		r := recover()
		ue, ok := r.(*UsageError)
		if !ok {
			t.Fatalf("recovered %v (%T), want *UsageError", r, r)
		}
		if ue.Msg != "double complete" {
			t.Fatalf("Msg = %q", ue.Msg)
		}
	}()
	usagePanic("double complete")
}
