package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

func TestStream_ListFieldInitialCount(t *testing.T) {
	sch := heroSchema()

	out := mustExecute(t, sch, `{
		hero {
			friends @stream(initialCount: 2, label: "HeroFriends") { name }
		}
	}`)

	payloads := collectPayloads(t, out.Stream)
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}

	if diff := cmp.Diff(
		`{"data":{"hero":{"friends":[{"name":"Luke Skywalker"},{"name":"Han Solo"}]}},"hasNext":true}`,
		payloadJSON(t, payloads[0]),
	); diff != "" {
		t.Fatalf("initial payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(
		`{"data":{"name":"Leia Organa"},"path":["hero","friends",2],"label":"HeroFriends","hasNext":true}`,
		payloadJSON(t, payloads[1]),
	); diff != "" {
		t.Fatalf("patch payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"hasNext":false}`, payloadJSON(t, payloads[2])); diff != "" {
		t.Fatalf("terminator mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_AsyncIteratorDeliversTailInOrder(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("numbers", "", schema.ListType(schema.NamedType("Int"))).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return NewSliceIterator(0, 1, 2, 3, 4), nil
			}),
	))

	out := mustExecute(t, sch, `{ numbers @stream(initialCount: 2, label: "N") }`)
	payloads := collectPayloads(t, out.Stream)

	// initial + one patch per tail element + terminator
	if len(payloads) != 5 {
		t.Fatalf("expected 5 payloads, got %d", len(payloads))
	}
	if diff := cmp.Diff(`{"data":{"numbers":[0,1]},"hasNext":true}`, payloadJSON(t, payloads[0])); diff != "" {
		t.Fatalf("initial payload mismatch (-want +got):\n%s", diff)
	}
	for i, wantN := range []int{2, 3, 4} {
		want := fmt.Sprintf(`{"data":%d,"path":["numbers",%d],"label":"N","hasNext":true}`, wantN, wantN)
		if diff := cmp.Diff(want, payloadJSON(t, payloads[i+1])); diff != "" {
			t.Fatalf("patch %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	if diff := cmp.Diff(`{"hasNext":false}`, payloadJSON(t, payloads[4])); diff != "" {
		t.Fatalf("terminator mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_IteratorErrorStopsIterationWithErrorPatch(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("numbers", "", schema.ListType(schema.NamedType("Int"))).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				i := 0
				return IteratorFunc(func(ctx context.Context) (any, bool, error) {
					if i == 3 {
						return nil, false, errors.New("source broke")
					}
					v := i
					i++
					return v, true, nil
				}), nil
			}),
	))

	out := mustExecute(t, sch, `{ numbers @stream(initialCount: 2, label: "N") }`)
	payloads := collectPayloads(t, out.Stream)

	// initial [0,1], patch for 2, error patch at index 3, terminator.
	if len(payloads) != 4 {
		t.Fatalf("expected 4 payloads, got %d", len(payloads))
	}
	if diff := cmp.Diff(`{"data":{"numbers":[0,1]},"hasNext":true}`, payloadJSON(t, payloads[0])); diff != "" {
		t.Fatalf("initial payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"data":2,"path":["numbers",2],"label":"N","hasNext":true}`, payloadJSON(t, payloads[1])); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}

	errPatch := decodePayload(t, payloads[2])
	if errPatch["data"] != nil {
		t.Fatalf("error patch data should be null, got %v", errPatch["data"])
	}
	if diff := cmp.Diff([]any{"numbers", float64(3)}, errPatch["path"]); diff != "" {
		t.Fatalf("error patch path mismatch (-want +got):\n%s", diff)
	}
	e := errPatch["errors"].([]any)[0].(map[string]any)
	if e["message"] != "source broke" {
		t.Fatalf("unexpected error message: %v", e["message"])
	}
	if diff := cmp.Diff([]any{"numbers", float64(3)}, e["path"]); diff != "" {
		t.Fatalf("error path mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(`{"hasNext":false}`, payloadJSON(t, payloads[3])); diff != "" {
		t.Fatalf("terminator mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_HasNextIsMonotone(t *testing.T) {
	sch := heroSchema()

	out := mustExecute(t, sch, `{
		hero { friends @stream(initialCount: 0, label: "F") { name } }
	}`)

	payloads := collectPayloads(t, out.Stream)
	if len(payloads) != 5 {
		t.Fatalf("expected 5 payloads, got %d", len(payloads))
	}
	for i, p := range payloads {
		m := decodePayload(t, p)
		wantNext := i < len(payloads)-1
		if m["hasNext"] != wantNext {
			t.Fatalf("payload %d hasNext=%v, want %v", i, m["hasNext"], wantNext)
		}
	}
	last := decodePayload(t, payloads[len(payloads)-1])
	if _, hasData := last["data"]; hasData {
		t.Fatal("terminator must not carry data")
	}
}

func TestStream_IfFalseExecutesInline(t *testing.T) {
	sch := heroSchema()

	out := mustExecute(t, sch, `query Friends($stream: Boolean!) {
		hero { friends @stream(if: $stream, initialCount: 1) { name } }
	}`, withVariables(map[string]any{"stream": false}))

	if out.Stream != nil {
		t.Fatal("expected a single response")
	}
	want := `{"data":{"hero":{"friends":[{"name":"Luke Skywalker"},{"name":"Han Solo"},{"name":"Leia Organa"}]}}}`
	if diff := cmp.Diff(want, resultJSON(t, out.Result)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_MutationTopLevelListIsNotStreamed(t *testing.T) {
	mutation := newObjectType("Mutation",
		schema.NewField("ids", "", schema.ListType(schema.NamedType("Int"))).
			SetResolve(valueResolver([]any{1, 2, 3})),
	)
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("x", "", schema.NamedType("Int")),
	), mutation)
	sch.SetMutationType("Mutation")

	out := mustExecute(t, sch, `mutation { ids @stream(initialCount: 1, label: "L") }`)
	if out.Stream != nil {
		t.Fatal("expected a single response: @stream is inert on top-level mutation fields")
	}
	want := `{"data":{"ids":[1,2,3]}}`
	if diff := cmp.Diff(want, resultJSON(t, out.Result)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}
