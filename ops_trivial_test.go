package pipeflow

import (
	"context"
	"testing"
)

func TestMapFilterSkipTake(t *testing.T) {
	ctx := context.Background()
	p := FromIterable([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	p = Filter(func(v int) bool { return v%2 == 0 })(p)
	p = Map(func(_ context.Context, v int) (int, error) { return v * 10, nil })(p)
	p = Skip[int](1)(p)
	pOut := Take[int](2)(p)

	got, err := ToSlice(ctx, pOut)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{40, 60}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSkipWhileTakeWhile(t *testing.T) {
	ctx := context.Background()
	p := FromIterable([]int{1, 2, 3, 4, 1, 2})
	p = SkipWhile(func(v int) bool { return v < 3 })(p)
	p = TakeWhile(func(v int) bool { return v != 1 })(p)

	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 4}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTapAndFinalize(t *testing.T) {
	ctx := context.Background()
	var tapped []int
	finalized := false

	p := FromIterable([]int{1, 2, 3})
	p = Tap(func(v int) { tapped = append(tapped, v) })(p)
	p = Finalize[int](func() { finalized = true })(p)

	if _, err := ToSlice(ctx, p); err != nil {
		t.Fatal(err)
	}
	if len(tapped) != 3 {
		t.Fatalf("tapped = %v", tapped)
	}
	if !finalized {
		t.Fatal("expected finalize to run")
	}
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	p := Scan[int, int](0, func(acc, v int) int { return acc + v })(FromIterable([]int{1, 2, 3, 4}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3, 6, 10}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTakeZero(t *testing.T) {
	ctx := context.Background()
	got, err := ToSlice(ctx, Take[int](0)(FromIterable([]int{1, 2, 3})))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}
