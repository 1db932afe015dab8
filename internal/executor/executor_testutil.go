package executor

import (
	"context"
	"encoding/json"
	"testing"

	language "github.com/lilianammmatos/graphql-go/internal/language"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// newTestContext builds an execution context for collector/coercion tests.
func newTestContext(t *testing.T, s *schema.Schema, query string, vars map[string]any) *executionContext {
	t.Helper()
	ex, gerr := buildExecutionContext(ExecutionArgs{
		Schema:         s,
		Document:       mustParseQuery(t, query),
		VariableValues: vars,
	})
	if gerr != nil {
		t.Fatalf("building execution context: %v", gerr)
	}
	return ex
}

// mustExecute runs the query and fails the test on a nil outcome.
func mustExecute(t *testing.T, s *schema.Schema, query string, opts ...func(*ExecutionArgs)) *ExecutionOutcome {
	t.Helper()
	args := ExecutionArgs{Schema: s, Document: mustParseQuery(t, query)}
	for _, opt := range opts {
		opt(&args)
	}
	out := Execute(context.Background(), args)
	if out == nil {
		t.Fatal("Execute returned nil outcome")
	}
	return out
}

func withRoot(root any) func(*ExecutionArgs) {
	return func(a *ExecutionArgs) { a.RootValue = root }
}

func withVariables(vars map[string]any) func(*ExecutionArgs) {
	return func(a *ExecutionArgs) { a.VariableValues = vars }
}

func withOperationName(name string) func(*ExecutionArgs) {
	return func(a *ExecutionArgs) { a.OperationName = name }
}

// payloadJSON marshals one payload to its wire form.
func payloadJSON(t *testing.T, p AsyncExecutionResult) string {
	t.Helper()
	b, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(b)
}

// resultJSON marshals a single response to its wire form.
func resultJSON(t *testing.T, r *ExecutionResult) string {
	t.Helper()
	b, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(b)
}

// decodePayload unmarshals a payload's wire form for structural assertions.
func decodePayload(t *testing.T, p AsyncExecutionResult) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(payloadJSON(t, p)), &m); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return m
}

// decodeResult unmarshals a single response's wire form.
func decodeResult(t *testing.T, r *ExecutionResult) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(resultJSON(t, r)), &m); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return m
}

// requireErrorMessages asserts the decoded response carries exactly the given
// error messages, in order.
func requireErrorMessages(t *testing.T, res map[string]any, want ...string) {
	t.Helper()
	raw, ok := res["errors"].([]any)
	if !ok {
		t.Fatalf("expected errors %v, got none in %v", want, res)
	}
	if len(raw) != len(want) {
		t.Fatalf("expected %d errors, got %d: %v", len(want), len(raw), raw)
	}
	for i, w := range want {
		e := raw[i].(map[string]any)
		if got := e["message"]; got != w {
			t.Fatalf("error %d: got message %q, want %q", i, got, w)
		}
	}
}

// collectPayloads drains an incremental response stream.
func collectPayloads(t *testing.T, stream *ResponseStream) []AsyncExecutionResult {
	t.Helper()
	if stream == nil {
		t.Fatal("expected an incremental response, got a single result")
	}
	return stream.Collect(context.Background())
}
