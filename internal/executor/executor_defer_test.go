package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

func heroSchema() *schema.Schema {
	character := newObjectType("Character",
		schema.NewField("id", "", schema.NamedType("ID")),
		schema.NewField("name", "", schema.NamedType("String")),
		schema.NewField("friends", "", schema.ListType(schema.NamedType("Character"))).
			SetResolve(valueResolver([]any{
				map[string]any{"id": "1000", "name": "Luke Skywalker"},
				map[string]any{"id": "1002", "name": "Han Solo"},
				map[string]any{"id": "1003", "name": "Leia Organa"},
			})),
	)
	query := newObjectType("Query",
		schema.NewField("hero", "", schema.NamedType("Character")).
			SetResolve(valueResolver(map[string]any{"id": "2001", "name": "R2-D2"})),
	)
	return newSchemaWithQueryType(query, character)
}

func TestDefer_FragmentProducesPatchSequence(t *testing.T) {
	sch := heroSchema()

	out := mustExecute(t, sch, `query HeroNameQuery {
		hero {
			id
			...NameFragment @defer(label: "NameFragment")
		}
	}
	fragment NameFragment on Character {
		id
		name
	}`)

	payloads := collectPayloads(t, out.Stream)
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}

	if diff := cmp.Diff(`{"data":{"hero":{"id":"2001"}},"hasNext":true}`, payloadJSON(t, payloads[0])); diff != "" {
		t.Fatalf("initial payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"data":{"id":"2001","name":"R2-D2"},"path":["hero"],"label":"NameFragment","hasNext":true}`, payloadJSON(t, payloads[1])); diff != "" {
		t.Fatalf("patch payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"hasNext":false}`, payloadJSON(t, payloads[2])); diff != "" {
		t.Fatalf("terminator mismatch (-want +got):\n%s", diff)
	}
}

func TestDefer_IfFalseRendersInline(t *testing.T) {
	sch := heroSchema()

	out := mustExecute(t, sch, `{
		hero {
			id
			... @defer(if: false) { name }
		}
	}`)

	if out.Stream != nil {
		t.Fatal("expected a single response")
	}
	want := `{"data":{"hero":{"id":"2001","name":"R2-D2"}}}`
	if diff := cmp.Diff(want, resultJSON(t, out.Result)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDefer_AtQueryRootUsesEmptyPath(t *testing.T) {
	sch := heroSchema()

	out := mustExecute(t, sch, `{
		... @defer(label: "root") { hero { id } }
	}`)

	payloads := collectPayloads(t, out.Stream)
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}
	if diff := cmp.Diff(`{"data":{},"hasNext":true}`, payloadJSON(t, payloads[0])); diff != "" {
		t.Fatalf("initial payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"data":{"hero":{"id":"2001"}},"path":[],"label":"root","hasNext":true}`, payloadJSON(t, payloads[1])); diff != "" {
		t.Fatalf("patch payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDefer_ErrorsTravelOnThePatch(t *testing.T) {
	character := newObjectType("Character",
		schema.NewField("id", "", schema.NamedType("ID")),
		schema.NewField("name", "", schema.NamedType("String")).
			SetResolve(errorResolver(errors.New("names are secret"))),
	)
	query := newObjectType("Query",
		schema.NewField("hero", "", schema.NamedType("Character")).
			SetResolve(valueResolver(map[string]any{"id": "2001"})),
	)
	sch := newSchemaWithQueryType(query, character)

	out := mustExecute(t, sch, `{
		hero {
			id
			... @defer(label: "L") { name }
		}
	}`)

	payloads := collectPayloads(t, out.Stream)
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}

	patch := decodePayload(t, payloads[1])
	if diff := cmp.Diff(map[string]any{"name": nil}, patch["data"]); diff != "" {
		t.Fatalf("patch data mismatch (-want +got):\n%s", diff)
	}
	errsList := patch["errors"].([]any)
	if len(errsList) != 1 {
		t.Fatalf("expected 1 patch error, got %d", len(errsList))
	}
	e := errsList[0].(map[string]any)
	if e["message"] != "names are secret" {
		t.Fatalf("unexpected patch error message: %v", e["message"])
	}
	if diff := cmp.Diff([]any{"hero", "name"}, e["path"]); diff != "" {
		t.Fatalf("patch error path mismatch (-want +got):\n%s", diff)
	}

	// The initial response stays clean.
	initial := decodePayload(t, payloads[0])
	if _, hasErrors := initial["errors"]; hasErrors {
		t.Fatal("initial payload must not carry patch errors")
	}
}

func TestDefer_MutationRootIgnoresDefer(t *testing.T) {
	sch := mutationSchema()
	root := &numberRoot{}

	out := mustExecute(t, sch, `mutation M {
		first: immediatelyChangeTheNumber(newNumber: 1) { theNumber }
		... @defer(label: "late") {
			second: immediatelyChangeTheNumber(newNumber: 2) { theNumber }
		}
	}`, withRoot(root))

	if out.Stream != nil {
		t.Fatal("expected a single response: @defer is inert at the mutation root")
	}
	want := `{"data":{"first":{"theNumber":1},"second":{"theNumber":2}}}`
	if diff := cmp.Diff(want, resultJSON(t, out.Result)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDefer_NestedInsideMutationFieldStillDefers(t *testing.T) {
	holderWithSlow := newObjectType("NumberHolder",
		schema.NewField("theNumber", "", schema.NamedType("Int")),
	)
	mutation := newObjectType("Mutation",
		schema.NewField("change", "", schema.NamedType("NumberHolder")).
			AddArgument(schema.NewInputValue("n", "", schema.NamedType("Int"))).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return map[string]any{"theNumber": args["n"]}, nil
			}),
	)
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("x", "", schema.NamedType("Int")),
	), holderWithSlow, mutation)
	sch.SetMutationType("Mutation")

	out := mustExecute(t, sch, `mutation {
		change(n: 9) {
			... @defer(label: "inner") { theNumber }
		}
	}`)

	payloads := collectPayloads(t, out.Stream)
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}
	if diff := cmp.Diff(`{"data":{"change":{}},"hasNext":true}`, payloadJSON(t, payloads[0])); diff != "" {
		t.Fatalf("initial payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"data":{"theNumber":9},"path":["change"],"label":"inner","hasNext":true}`, payloadJSON(t, payloads[1])); diff != "" {
		t.Fatalf("patch payload mismatch (-want +got):\n%s", diff)
	}
}
