package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/lilianammmatos/graphql-go/internal/language"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// completeValue coerces a resolved value against its declared type. A non-nil
// error is a field error at this position (a failed coercion, or a non-null
// position below that could not be satisfied); the caller decides whether to
// absorb it (nullable) or keep propagating.
func (ex *executionContext) completeValue(
	ctx context.Context,
	returnType *schema.TypeRef,
	fieldNodes []*language.Field,
	info *schema.ResolveInfo,
	path *Path,
	result any,
	errs *errorBag,
) (any, error) {
	if schema.IsNonNull(returnType) {
		completed, err := ex.completeValue(ctx, schema.Unwrap(returnType), fieldNodes, info, path, result, errs)
		if err != nil {
			return nil, err
		}
		if completed == nil {
			return nil, &GraphQLError{
				Message:   fmt.Sprintf("Cannot return null for non-nullable field %s.%s.", info.ParentType.Name, info.FieldName),
				Locations: fieldLocations(fieldNodes),
				Path:      path.Flatten(),
			}
		}
		return completed, nil
	}

	if isNullish(result) {
		return nil, nil
	}

	if iterator, ok := result.(AsyncIterator); ok {
		if !schema.IsList(returnType) {
			return nil, fmt.Errorf("async iterable returned for non-list field %s.%s", info.ParentType.Name, info.FieldName)
		}
		return ex.completeAsyncIteratorValue(ctx, returnType, fieldNodes, info, path, iterator, errs)
	}

	if schema.IsList(returnType) {
		return ex.completeListValue(ctx, returnType, fieldNodes, info, path, result, errs)
	}

	namedType := schema.GetNamedType(returnType)
	typeObj := ex.schema.Types[namedType]
	if typeObj == nil {
		return nil, fmt.Errorf("unknown type %q", namedType)
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar:
		return completeLeafValue(typeObj, result)
	case schema.TypeKindEnum:
		return completeEnumValue(typeObj, result)
	case schema.TypeKindObject:
		return ex.completeObjectValue(ctx, typeObj, fieldNodes, path, result, errs)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return ex.completeAbstractValue(ctx, typeObj, fieldNodes, info, path, result, errs)
	default:
		return nil, fmt.Errorf("cannot complete value of unexpected type %q", typeObj.Kind)
	}
}

// completeListValue completes each element of a materialized list. With an
// applicable @stream directive, elements past initialCount are registered
// with the Dispatcher instead of being completed inline.
func (ex *executionContext) completeListValue(
	ctx context.Context,
	listType *schema.TypeRef,
	fieldNodes []*language.Field,
	info *schema.ResolveInfo,
	path *Path,
	result any,
	errs *errorBag,
) (any, error) {
	items, err := listItems(result)
	if err != nil {
		return nil, err
	}

	itemType := listItemType(listType)
	stream := getStreamValues(ex, fieldNodes[0], path)

	completed := make([]any, 0, len(items))
	for i, item := range items {
		if stream != nil && i >= stream.initialCount {
			ex.addStreamedItem(ctx, stream.label, itemType, fieldNodes, info, path.Append(i), item)
			continue
		}
		v, err := ex.completeListItem(ctx, itemType, fieldNodes, info, path.Append(i), item, errs)
		if err != nil {
			return nil, err
		}
		completed = append(completed, v)
	}

	// Elements that settled asynchronously were left as futures; join them
	// before the list is observable.
	for i, v := range completed {
		f, ok := v.(*Future)
		if !ok {
			continue
		}
		resolved, err := f.Await(ctx)
		if err != nil {
			return nil, err
		}
		completed[i] = resolved
	}
	return completed, nil
}

// completeListItem completes one list element, applying the field error
// policy at the element position. An element that is itself a Future is
// completed on its own goroutine so siblings make progress in parallel.
func (ex *executionContext) completeListItem(
	ctx context.Context,
	itemType *schema.TypeRef,
	fieldNodes []*language.Field,
	info *schema.ResolveInfo,
	itemPath *Path,
	item any,
	errs *errorBag,
) (any, error) {
	if f, ok := item.(*Future); ok {
		return Go(func() (any, error) {
			raw, err := f.Await(ctx)
			if err != nil {
				return ex.handleFieldError(err, itemType, fieldNodes, itemPath, errs)
			}
			completed, err := ex.completeValue(ctx, itemType, fieldNodes, info, itemPath, raw, errs)
			if err != nil {
				return ex.handleFieldError(err, itemType, fieldNodes, itemPath, errs)
			}
			return completed, nil
		}), nil
	}
	completed, err := ex.completeValue(ctx, itemType, fieldNodes, info, itemPath, item, errs)
	if err != nil {
		return ex.handleFieldError(err, itemType, fieldNodes, itemPath, errs)
	}
	return completed, nil
}

// completeAsyncIteratorValue consumes an async sequence returned by a list
// resolver. Without @stream the sequence is drained into the immediate
// result; with it, the first initialCount elements are inlined and the tail
// becomes a stream registered with the Dispatcher.
func (ex *executionContext) completeAsyncIteratorValue(
	ctx context.Context,
	listType *schema.TypeRef,
	fieldNodes []*language.Field,
	info *schema.ResolveInfo,
	path *Path,
	iterator AsyncIterator,
	errs *errorBag,
) (any, error) {
	itemType := listItemType(listType)
	stream := getStreamValues(ex, fieldNodes[0], path)

	completed := []any{}
	for index := 0; ; index++ {
		if stream != nil && index >= stream.initialCount {
			ex.dispatcher.AddStream(ctx, stream.label, index, path, iterator,
				func(ctx context.Context, itemPath *Path, item any) (any, []*GraphQLError) {
					bag := &errorBag{}
					v, err := ex.completeListItem(ctx, itemType, fieldNodes, info, itemPath, item, bag)
					if err == nil {
						if f, ok := v.(*Future); ok {
							v, err = f.Await(ctx)
						}
					}
					if err != nil {
						bag.add(locatedError(err, fieldNodes, itemPath))
						return nil, bag.list()
					}
					return v, bag.list()
				},
				func(err error, itemPath *Path) *GraphQLError {
					return locatedError(err, fieldNodes, itemPath)
				},
			)
			return completed, nil
		}

		value, ok, err := iterator.Next(ctx)
		if err != nil {
			return nil, locatedError(err, fieldNodes, path.Append(index))
		}
		if !ok {
			return completed, nil
		}
		v, err := ex.completeListItem(ctx, itemType, fieldNodes, info, path.Append(index), value, errs)
		if err != nil {
			return nil, err
		}
		if f, isFuture := v.(*Future); isFuture {
			if v, err = f.Await(ctx); err != nil {
				return nil, err
			}
		}
		completed = append(completed, v)
	}
}

// addStreamedItem registers one already-materialized list element as a
// deferred patch, used when @stream applies to a plain list value.
func (ex *executionContext) addStreamedItem(
	ctx context.Context,
	label string,
	itemType *schema.TypeRef,
	fieldNodes []*language.Field,
	info *schema.ResolveInfo,
	itemPath *Path,
	item any,
) {
	ex.dispatcher.Add(ctx, label, itemPath, func(ctx context.Context) (any, []*GraphQLError) {
		bag := &errorBag{}
		v, err := ex.completeListItem(ctx, itemType, fieldNodes, info, itemPath, item, bag)
		if err == nil {
			if f, ok := v.(*Future); ok {
				v, err = f.Await(ctx)
			}
		}
		if err != nil {
			bag.add(locatedError(err, fieldNodes, itemPath))
			return nil, bag.list()
		}
		return v, bag.list()
	})
}

func completeLeafValue(typeObj *schema.Type, result any) (any, error) {
	if typeObj.Serialize == nil {
		return result, nil
	}
	serialized, err := typeObj.Serialize(result)
	if err != nil {
		return nil, err
	}
	return serialized, nil
}

func completeEnumValue(typeObj *schema.Type, result any) (any, error) {
	name, ok := result.(string)
	if !ok || !typeObj.HasEnumValue(name) {
		return nil, fmt.Errorf("enum %q cannot represent value: %v", typeObj.Name, result)
	}
	return name, nil
}

// completeObjectValue collects the sub-selections on the concrete type and
// executes them in parallel. Deferred groups found in the sub-selections are
// registered against this object's path.
func (ex *executionContext) completeObjectValue(
	ctx context.Context,
	objectType *schema.Type,
	fieldNodes []*language.Field,
	path *Path,
	result any,
	errs *errorBag,
) (any, error) {
	collected := collectSubfields(ex, objectType, fieldNodes)
	data, err := ex.executeFields(ctx, objectType, result, path, collected.fields, errs)
	if err != nil {
		return nil, err
	}
	ex.addPatches(ctx, collected.patches, objectType, result, path)
	return data, nil
}

// completeAbstractValue resolves the concrete object type for an interface or
// union value, then completes it as an object.
func (ex *executionContext) completeAbstractValue(
	ctx context.Context,
	abstractType *schema.Type,
	fieldNodes []*language.Field,
	info *schema.ResolveInfo,
	path *Path,
	result any,
	errs *errorBag,
) (any, error) {
	resolveType := abstractType.ResolveType
	if resolveType == nil {
		resolveType = ex.typeResolver
	}
	typeName, err := resolveType(ctx, result, info, abstractType)
	if err != nil {
		return nil, err
	}
	objectType := ex.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		return nil, fmt.Errorf("abstract type %q must resolve to an object type at runtime, got %q", abstractType.Name, typeName)
	}
	if !ex.schema.Satisfies(objectType, abstractType.Name) {
		return nil, fmt.Errorf("runtime object type %q is not a possible type for %q", typeName, abstractType.Name)
	}
	return ex.completeObjectValue(ctx, objectType, fieldNodes, path, result, errs)
}

// listItemType unwraps a (possibly non-null) list type to its element type.
func listItemType(listType *schema.TypeRef) *schema.TypeRef {
	t := listType
	if schema.IsNonNull(t) {
		t = schema.Unwrap(t)
	}
	return schema.Unwrap(t)
}

// listItems normalizes a resolver's list value to []any.
func listItems(result any) ([]any, error) {
	if direct, ok := result.([]any); ok {
		return direct, nil
	}
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list value, got %T", result)
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func fieldLocations(fieldNodes []*language.Field) []Location {
	var out []Location
	for _, node := range fieldNodes {
		if node.Position != nil {
			out = append(out, Location{Line: node.Position.Line, Column: node.Position.Column})
		}
	}
	return out
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
