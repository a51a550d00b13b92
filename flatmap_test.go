package pipeflow

import (
	"context"
	"errors"
	"testing"
)

func TestFlatMapOrderedExpandsInOrder(t *testing.T) {
	ctx := context.Background()
	expand := func(_ context.Context, v int, _ int) ([]int, error) {
		return []int{v, v * 10}, nil
	}
	p := FlatMapOrdered[int, int](4, expand)(FromIterable([]int{1, 2, 3}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 10, 2, 20, 3, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFlatMapUnorderedEmitsAllItems(t *testing.T) {
	ctx := context.Background()
	expand := func(_ context.Context, v int, _ int) ([]int, error) {
		return []int{v}, nil
	}
	p := FlatMapUnordered[int, int](4, expand)(FromIterable([]int{1, 2, 3, 4, 5}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("got %v, want 5 items", got)
	}
}

func TestFlatMapStopSentinelHaltsEarly(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context, v int, i int) ([]int, error) {
		if v == 3 {
			return nil, Stop
		}
		return []int{v}, nil
	}
	p := FlatMapOrdered[int, int](1, fn)(FromIterable([]int{1, 2, 3, 4, 5}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFlatMapStopStillEmitsItsOwnItems(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context, v int, i int) ([]int, error) {
		if v == 3 {
			return []int{v}, Stop
		}
		return []int{v}, nil
	}
	p := FlatMapOrdered[int, int](1, fn)(FromIterable([]int{1, 2, 3, 4, 5}))
	got, err := ToSlice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFlatMapPropagatesRealError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	fn := func(_ context.Context, v int, i int) ([]int, error) {
		if v == 2 {
			return nil, boom
		}
		return []int{v}, nil
	}
	p := FlatMapOrdered[int, int](1, fn)(FromIterable([]int{1, 2, 3}))
	_, err := ToSlice(ctx, p)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
