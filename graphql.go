// Package graphql is the public surface of the engine: schema construction,
// query parsing, and execution with incremental delivery.
package graphql

import (
	"context"

	executor "github.com/lilianammmatos/graphql-go/internal/executor"
	language "github.com/lilianammmatos/graphql-go/internal/language"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// Schema construction.
type (
	Schema     = schema.Schema
	Type       = schema.Type
	TypeRef    = schema.TypeRef
	Field      = schema.Field
	InputValue = schema.InputValue
	EnumValue  = schema.EnumValue
	Directive  = schema.Directive

	ResolveInfo    = schema.ResolveInfo
	FieldResolveFn = schema.FieldResolveFn
	TypeResolveFn  = schema.TypeResolveFn
)

const (
	TypeKindScalar      = schema.TypeKindScalar
	TypeKindObject      = schema.TypeKindObject
	TypeKindInterface   = schema.TypeKindInterface
	TypeKindUnion       = schema.TypeKindUnion
	TypeKindEnum        = schema.TypeKindEnum
	TypeKindInputObject = schema.TypeKindInputObject
)

var (
	NewSchema     = schema.NewSchema
	NewType       = schema.NewType
	NewField      = schema.NewField
	NewInputValue = schema.NewInputValue
	NewEnumValue  = schema.NewEnumValue
	NewDirective  = schema.NewDirective

	NamedType   = schema.NamedType
	ListType    = schema.ListType
	NonNullType = schema.NonNullType
)

// Request documents.
type (
	QueryDocument = language.QueryDocument
)

// ParseQuery parses a request document.
var ParseQuery = language.ParseQuery

// Execution.
type (
	ExecutionArgs        = executor.ExecutionArgs
	ExecutionOutcome     = executor.ExecutionOutcome
	ExecutionResult      = executor.ExecutionResult
	ExecutionPatchResult = executor.ExecutionPatchResult
	AsyncExecutionResult = executor.AsyncExecutionResult
	ResponseStream       = executor.ResponseStream
	GraphQLError         = executor.GraphQLError

	Future        = executor.Future
	AsyncIterator = executor.AsyncIterator
	IteratorFunc  = executor.IteratorFunc
)

var (
	// Go runs fn on its own goroutine; resolvers return the Future to make a
	// field resolve asynchronously.
	Go = executor.Go
	// NewSliceIterator adapts a fixed set of values to an AsyncIterator.
	NewSliceIterator = executor.NewSliceIterator
	// ContextValue reads the per-request context value inside resolvers.
	ContextValue = executor.ContextValue
)

// Execute runs one operation of the document against the schema, returning a
// single response or an incremental response stream.
func Execute(ctx context.Context, args ExecutionArgs) *ExecutionOutcome {
	return executor.Execute(ctx, args)
}

// Do parses source and executes it in one call.
func Do(ctx context.Context, s *Schema, source string, opts ...RequestOption) *ExecutionOutcome {
	doc, err := language.ParseQuery(source)
	if err != nil {
		return &ExecutionOutcome{Result: &ExecutionResult{Errors: []*GraphQLError{{Message: err.Error()}}}}
	}
	args := ExecutionArgs{Schema: s, Document: doc}
	for _, opt := range opts {
		opt(&args)
	}
	return executor.Execute(ctx, args)
}

// RequestOption customizes a Do request.
type RequestOption func(*ExecutionArgs)

func WithRootValue(root any) RequestOption {
	return func(a *ExecutionArgs) { a.RootValue = root }
}

func WithContextValue(v any) RequestOption {
	return func(a *ExecutionArgs) { a.ContextValue = v }
}

func WithVariables(vars map[string]any) RequestOption {
	return func(a *ExecutionArgs) { a.VariableValues = vars }
}

func WithOperationName(name string) RequestOption {
	return func(a *ExecutionArgs) { a.OperationName = name }
}

func WithFieldResolver(fn FieldResolveFn) RequestOption {
	return func(a *ExecutionArgs) { a.FieldResolver = fn }
}

func WithTypeResolver(fn TypeResolveFn) RequestOption {
	return func(a *ExecutionArgs) { a.TypeResolver = fn }
}
