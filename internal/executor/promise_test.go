package executor

import (
	"context"
	"errors"
	"testing"
)

func TestFuture_AwaitReturnsSettledValue(t *testing.T) {
	f := Go(func() (any, error) { return 42, nil })
	v, err := f.Await(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("got (%v, %v), want (42, nil)", v, err)
	}
	// Awaiting twice is fine.
	v, err = f.Await(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("second await got (%v, %v)", v, err)
	}
}

func TestFuture_AwaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := Go(func() (any, error) { <-block; return nil, nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSettled_IsImmediatelyAvailable(t *testing.T) {
	f := Settled("ready", nil)
	v, err := f.Await(context.Background())
	if err != nil || v != "ready" {
		t.Fatalf("got (%v, %v), want (ready, nil)", v, err)
	}
}

func TestSliceIterator_AwaitsFutureElements(t *testing.T) {
	it := NewSliceIterator(1, Go(func() (any, error) { return 2, nil }), 3)
	var got []any
	for {
		v, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected sequence: %v", got)
	}
}

func TestAwaitValue_PassesPlainValuesThrough(t *testing.T) {
	v, err := awaitValue(context.Background(), "plain")
	if err != nil || v != "plain" {
		t.Fatalf("got (%v, %v)", v, err)
	}
	v, err = awaitValue(context.Background(), Settled("boxed", nil))
	if err != nil || v != "boxed" {
		t.Fatalf("got (%v, %v)", v, err)
	}
}
