package executor

import (
	"bytes"
	"encoding/json"
)

// ExecutionResult is a complete response, or the first payload of an
// incremental response when HasNext is set.
type ExecutionResult struct {
	Data    any
	Errors  []*GraphQLError
	HasNext *bool

	// hasData distinguishes `"data": null` (a nulled non-null root) from an
	// absent data member (a request that failed before execution).
	hasData bool
}

func (r *ExecutionResult) isAsyncExecutionResult() {}

func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	if len(r.Errors) > 0 {
		writeMember(&buf, &first, "errors", r.Errors)
	}
	if r.hasData {
		writeMember(&buf, &first, "data", r.Data)
	}
	if r.HasNext != nil {
		writeMember(&buf, &first, "hasNext", *r.HasNext)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExecutionPatchResult is one incremental-delivery payload: a fragment of
// data plus the response path it grafts into, or the data-free terminator.
type ExecutionPatchResult struct {
	Data    any
	Path    []any
	Label   string
	Errors  []*GraphQLError
	HasNext bool

	terminal bool
}

func (r *ExecutionPatchResult) isAsyncExecutionResult() {}

// Terminal reports whether this is the closing `{"hasNext": false}` payload.
func (r *ExecutionPatchResult) Terminal() bool { return r.terminal }

func (r *ExecutionPatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	if !r.terminal {
		writeMember(&buf, &first, "data", r.Data)
		writeMember(&buf, &first, "path", r.Path)
		if r.Label != "" {
			writeMember(&buf, &first, "label", r.Label)
		}
		if len(r.Errors) > 0 {
			writeMember(&buf, &first, "errors", r.Errors)
		}
	}
	writeMember(&buf, &first, "hasNext", r.HasNext)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, first *bool, name string, value any) {
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
	nb, _ := json.Marshal(name)
	buf.Write(nb)
	buf.WriteByte(':')
	vb, err := json.Marshal(value)
	if err != nil {
		vb = []byte("null")
	}
	buf.Write(vb)
}

// AsyncExecutionResult is one element of an incremental response sequence:
// the initial *ExecutionResult or a subsequent *ExecutionPatchResult.
type AsyncExecutionResult interface {
	isAsyncExecutionResult()
	MarshalJSON() ([]byte, error)
}

// ExecutionOutcome is what Execute returns: exactly one of Result (a single
// consolidated response) or Stream (an incremental response sequence) is set.
type ExecutionOutcome struct {
	Result *ExecutionResult
	Stream *ResponseStream
}

// errorResult builds a pre-execution failure response: errors present, data
// absent.
func errorResult(errs ...*GraphQLError) *ExecutionOutcome {
	return &ExecutionOutcome{Result: &ExecutionResult{Errors: errs}}
}
