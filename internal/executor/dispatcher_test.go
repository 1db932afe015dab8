package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDispatcher_EmptyHasNoPending(t *testing.T) {
	d := newDispatcher()
	if d.HasPending() {
		t.Fatal("fresh dispatcher must have no pending payloads")
	}
}

func TestDispatcher_InitialThenPatchesThenTerminator(t *testing.T) {
	d := newDispatcher()
	d.Add(context.Background(), "L", (*Path)(nil).Append("a"), func(ctx context.Context) (any, []*GraphQLError) {
		return "value", nil
	})
	if !d.HasPending() {
		t.Fatal("expected pending payloads after Add")
	}

	stream := d.stream(&ExecutionResult{Data: "initial", hasData: true})
	payloads := stream.Collect(context.Background())
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}

	if diff := cmp.Diff(`{"data":"initial","hasNext":true}`, payloadJSON(t, payloads[0])); diff != "" {
		t.Fatalf("initial mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"data":"value","path":["a"],"label":"L","hasNext":true}`, payloadJSON(t, payloads[1])); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"hasNext":false}`, payloadJSON(t, payloads[2])); diff != "" {
		t.Fatalf("terminator mismatch (-want +got):\n%s", diff)
	}

	if _, ok := stream.Next(context.Background()); ok {
		t.Fatal("stream must be exhausted after the terminator")
	}
}

func TestDispatcher_PatchesEmittedInSettlementOrder(t *testing.T) {
	d := newDispatcher()
	firstStarted := make(chan struct{})
	release := make(chan struct{})

	d.Add(context.Background(), "slow", (*Path)(nil).Append("slow"), func(ctx context.Context) (any, []*GraphQLError) {
		close(firstStarted)
		<-release
		return "slow", nil
	})
	d.Add(context.Background(), "fast", (*Path)(nil).Append("fast"), func(ctx context.Context) (any, []*GraphQLError) {
		<-firstStarted
		return "fast", nil
	})

	stream := d.stream(&ExecutionResult{hasData: true})
	if _, ok := stream.Next(context.Background()); !ok {
		t.Fatal("missing initial payload")
	}

	p1, _ := stream.Next(context.Background())
	close(release)
	p2, _ := stream.Next(context.Background())

	if got := p1.(*ExecutionPatchResult).Label; got != "fast" {
		t.Fatalf("first settled patch should be 'fast', got %q", got)
	}
	if got := p2.(*ExecutionPatchResult).Label; got != "slow" {
		t.Fatalf("second settled patch should be 'slow', got %q", got)
	}
}

func TestDispatcher_AddStreamStopsAfterIteratorError(t *testing.T) {
	d := newDispatcher()
	calls := 0
	it := IteratorFunc(func(ctx context.Context) (any, bool, error) {
		calls++
		if calls == 2 {
			return nil, false, errTestBroken
		}
		return calls, true, nil
	})

	d.AddStream(context.Background(), "S", 0, (*Path)(nil).Append("xs"), it,
		func(ctx context.Context, itemPath *Path, item any) (any, []*GraphQLError) {
			return item, nil
		},
		func(err error, itemPath *Path) *GraphQLError {
			return &GraphQLError{Message: err.Error(), Path: itemPath.Flatten()}
		},
	)

	stream := d.stream(&ExecutionResult{hasData: true})
	payloads := stream.Collect(context.Background())

	// initial, element 0 patch, error patch, terminator; the iterator is not
	// asked for more after the failure.
	if len(payloads) != 4 {
		t.Fatalf("expected 4 payloads, got %d", len(payloads))
	}
	if calls != 2 {
		t.Fatalf("iterator called %d times, want 2", calls)
	}
	errPatch := payloads[2].(*ExecutionPatchResult)
	if errPatch.Data != nil || len(errPatch.Errors) != 1 {
		t.Fatalf("unexpected error patch: %+v", errPatch)
	}
	if diff := cmp.Diff([]any{"xs", 1}, errPatch.Errors[0].Path); diff != "" {
		t.Fatalf("error path mismatch (-want +got):\n%s", diff)
	}
}

var errTestBroken = &GraphQLError{Message: "broken"}
