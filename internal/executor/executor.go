package executor

import (
	"context"
	"fmt"

	language "github.com/lilianammmatos/graphql-go/internal/language"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// ExecutionArgs are the inputs to Execute. Schema and Document are required;
// everything else has a usable zero value.
type ExecutionArgs struct {
	Schema         *schema.Schema
	Document       *language.QueryDocument
	RootValue      any
	ContextValue   any
	VariableValues map[string]any
	OperationName  string
	FieldResolver  schema.FieldResolveFn
	TypeResolver   schema.TypeResolveFn
}

// executionContext is built once per request and shared by every resolution
// step. Only the error bag and the dispatcher mutate after construction.
type executionContext struct {
	schema         *schema.Schema
	fragments      map[string]*language.FragmentDefinition
	variableValues map[string]any
	rootValue      any
	operation      *language.OperationDefinition
	fieldResolver  schema.FieldResolveFn
	typeResolver   schema.TypeResolveFn
	errors         *errorBag
	dispatcher     *Dispatcher
}

type contextValueKey struct{}

// ContextValue returns the per-request context value passed in ExecutionArgs.
// Resolvers read it from their ctx.
func ContextValue(ctx context.Context) any {
	return ctx.Value(contextValueKey{})
}

// Execute runs one operation of the document against the schema. It returns
// either a single consolidated response or, when deferred or streamed
// payloads are still pending after immediate execution, an incremental
// response stream.
//
// The document is assumed to have passed standard validation; Execute itself
// performs only the pre-execution checks that gate incremental delivery.
func Execute(ctx context.Context, args ExecutionArgs) *ExecutionOutcome {
	ex, gerr := buildExecutionContext(args)
	if gerr != nil {
		return errorResult(gerr)
	}
	if errs := validateIncrementalDirectives(ex, ex.operation); len(errs) > 0 {
		return errorResult(errs...)
	}
	if args.ContextValue != nil {
		ctx = context.WithValue(ctx, contextValueKey{}, args.ContextValue)
	}
	return ex.executeOperation(ctx)
}

func buildExecutionContext(args ExecutionArgs) (*executionContext, *GraphQLError) {
	doc := args.Document

	var operation *language.OperationDefinition
	if args.OperationName == "" {
		if len(doc.Operations) != 1 {
			return nil, &GraphQLError{Message: "Must provide operation name if query contains multiple operations."}
		}
		operation = doc.Operations[0]
	} else {
		operation = doc.Operations.ForName(args.OperationName)
		if operation == nil {
			return nil, &GraphQLError{Message: fmt.Sprintf("Unknown operation named %q.", args.OperationName)}
		}
	}

	variableValues, err := coerceVariableValues(args.Schema, operation, args.VariableValues)
	if err != nil {
		return nil, &GraphQLError{Message: err.Error()}
	}

	fieldResolver := args.FieldResolver
	if fieldResolver == nil {
		fieldResolver = DefaultFieldResolver
	}
	typeResolver := args.TypeResolver
	if typeResolver == nil {
		typeResolver = DefaultTypeResolver
	}

	return &executionContext{
		schema:         args.Schema,
		fragments:      language.FragmentMap(doc),
		variableValues: variableValues,
		rootValue:      args.RootValue,
		operation:      operation,
		fieldResolver:  fieldResolver,
		typeResolver:   typeResolver,
		errors:         &errorBag{},
		dispatcher:     newDispatcher(),
	}, nil
}

func (ex *executionContext) executeOperation(ctx context.Context) *ExecutionOutcome {
	var rootType *schema.Type
	switch ex.operation.Operation {
	case language.Query:
		rootType = ex.schema.GetQueryType()
	case language.Mutation:
		rootType = ex.schema.GetMutationType()
	case language.Subscription:
		rootType = ex.schema.GetSubscriptionType()
	}
	if rootType == nil {
		return errorResult(&GraphQLError{
			Message: fmt.Sprintf("Schema is not configured to execute %s operation.", ex.operation.Operation),
		})
	}

	serial := ex.operation.Operation == language.Mutation
	collected := collectFields(ex, rootType, ex.operation.SelectionSet, serial)

	var (
		data any
		err  error
	)
	if serial {
		data, err = ex.executeFieldsSerially(ctx, rootType, ex.rootValue, nil, collected.fields)
	} else {
		data, err = ex.executeFields(ctx, rootType, ex.rootValue, nil, collected.fields, ex.errors)
	}
	if err != nil {
		// A non-null root field errored; the null reached the top.
		ex.errors.add(locatedError(err, nil, nil))
		data = nil
	}

	ex.addPatches(ctx, collected.patches, rootType, ex.rootValue, nil)

	result := &ExecutionResult{Data: data, Errors: ex.errors.list(), hasData: true}
	if ex.dispatcher.HasPending() {
		return &ExecutionOutcome{Stream: ex.dispatcher.stream(result)}
	}
	return &ExecutionOutcome{Result: result}
}

// executeFields runs every group against the parent in parallel: each group's
// resolver is invoked in declaration order, groups that settle asynchronously
// are awaited together after the sweep. Response keys keep declaration order
// regardless of settlement order.
func (ex *executionContext) executeFields(
	ctx context.Context,
	parentType *schema.Type,
	source any,
	path *Path,
	fields *groupedFieldSet,
	errs *errorBag,
) (*OrderedMap, error) {
	results := NewOrderedMap()
	for _, group := range fields.orderedGroups() {
		fieldPath := path.Append(group.ResponseKey)
		value, found, err := ex.executeField(ctx, parentType, source, group, fieldPath, errs)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		results.Set(group.ResponseKey, value)
	}
	for _, key := range results.Keys() {
		v, _ := results.Get(key)
		resolved, err := awaitValue(ctx, v)
		if err != nil {
			return nil, err
		}
		results.Set(key, resolved)
	}
	return results, nil
}

// executeFieldsSerially runs the mutation root: each group, in declaration
// order, is fully settled before the next begins. A failed group records its
// error and the loop continues; a non-null violation nulls the eventual data
// but still does not stop later groups from running.
func (ex *executionContext) executeFieldsSerially(
	ctx context.Context,
	parentType *schema.Type,
	source any,
	path *Path,
	fields *groupedFieldSet,
) (any, error) {
	results := NewOrderedMap()
	var rootErr error
	for _, group := range fields.orderedGroups() {
		fieldPath := path.Append(group.ResponseKey)
		value, found, err := ex.executeField(ctx, parentType, source, group, fieldPath, ex.errors)
		if err == nil && found {
			value, err = awaitValue(ctx, value)
		}
		if err != nil {
			if rootErr == nil {
				rootErr = err
			} else {
				ex.errors.add(locatedError(err, nil, nil))
			}
			continue
		}
		if found {
			results.Set(group.ResponseKey, value)
		}
	}
	if rootErr != nil {
		return nil, rootErr
	}
	return results, nil
}

// executeField drives one field group: argument coercion, resolver call,
// value completion, and the field-error policy. The returned value may be a
// *Future when the group settles asynchronously; found is false when the
// response key must be omitted entirely.
func (ex *executionContext) executeField(
	ctx context.Context,
	parentType *schema.Type,
	source any,
	group *FieldGroup,
	path *Path,
	errs *errorBag,
) (value any, found bool, err error) {
	fieldNode := group.Fields[0]
	fieldName := fieldNode.Name

	if fieldName == "__typename" {
		return parentType.Name, true, nil
	}

	fieldDef := parentType.Field(fieldName)
	if fieldDef == nil {
		errs.add(&GraphQLError{
			Message:   fmt.Sprintf("Cannot query field %q on type %q.", fieldName, parentType.Name),
			Locations: nodeLocation(fieldNode.Position),
			Path:      path.Flatten(),
		})
		return nil, false, nil
	}

	info := &schema.ResolveInfo{
		FieldName:  fieldName,
		FieldNodes: group.Fields,
		ReturnType: fieldDef.Type,
		ParentType: parentType,
		Path:       path.Flatten(),
		Schema:     ex.schema,
		Fragments:  ex.fragments,
		RootValue:  ex.rootValue,
		Operation:  ex.operation,
		Variables:  ex.variableValues,
	}

	args, err := coerceArgumentValues(ex, fieldDef.Arguments, fieldNode.Arguments)
	if err != nil {
		v, herr := ex.handleFieldError(err, fieldDef.Type, group.Fields, path, errs)
		return v, true, herr
	}

	resolveFn := fieldDef.Resolve
	if resolveFn == nil {
		resolveFn = ex.fieldResolver
	}

	resolved, err := resolveFn(ctx, source, args, info)
	if err != nil {
		v, herr := ex.handleFieldError(err, fieldDef.Type, group.Fields, path, errs)
		return v, true, herr
	}

	if f, ok := resolved.(*Future); ok {
		return Go(func() (any, error) {
			raw, err := f.Await(ctx)
			if err != nil {
				return ex.handleFieldError(err, fieldDef.Type, group.Fields, path, errs)
			}
			completed, err := ex.completeValue(ctx, fieldDef.Type, group.Fields, info, path, raw, errs)
			if err != nil {
				return ex.handleFieldError(err, fieldDef.Type, group.Fields, path, errs)
			}
			return completed, nil
		}), true, nil
	}

	completed, err := ex.completeValue(ctx, fieldDef.Type, group.Fields, info, path, resolved, errs)
	if err != nil {
		v, herr := ex.handleFieldError(err, fieldDef.Type, group.Fields, path, errs)
		return v, true, herr
	}
	return completed, true, nil
}

// handleFieldError applies the field error policy: locate the error, null the
// field, and either absorb it here (nullable) or propagate it to the nearest
// nullable ancestor (non-null).
func (ex *executionContext) handleFieldError(
	raw error,
	returnType *schema.TypeRef,
	fieldNodes []*language.Field,
	path *Path,
	errs *errorBag,
) (any, error) {
	gerr := locatedError(raw, fieldNodes, path)
	if schema.IsNonNull(returnType) {
		return nil, gerr
	}
	errs.add(gerr)
	return nil, nil
}

// addPatches registers each deferred group with the Dispatcher. The patch
// executes against the same parent object and path it was collected at, with
// its own error list.
func (ex *executionContext) addPatches(
	ctx context.Context,
	patches []fragmentPatch,
	objectType *schema.Type,
	source any,
	path *Path,
) {
	for _, p := range patches {
		fields := p.fields
		ex.dispatcher.Add(ctx, p.label, path, func(ctx context.Context) (any, []*GraphQLError) {
			bag := &errorBag{}
			data, err := ex.executeFields(ctx, objectType, source, path, fields, bag)
			if err != nil {
				bag.add(locatedError(err, nil, path))
				return nil, bag.list()
			}
			return data, bag.list()
		})
	}
}
