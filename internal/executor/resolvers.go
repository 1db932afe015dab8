package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// DefaultFieldResolver reads the field's property off the parent value: a map
// entry or an exported struct field/method matched by name. A callable
// property is invoked with the field's arguments.
func DefaultFieldResolver(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	if isNullish(source) {
		return nil, nil
	}

	if m, ok := source.(map[string]any); ok {
		return callIfFunc(ctx, m[info.FieldName], args)
	}

	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Ptr {
		if method := rv.MethodByName(exportedName(info.FieldName)); method.IsValid() {
			return callMethod(ctx, method, args)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if method := rv.MethodByName(exportedName(info.FieldName)); method.IsValid() {
			return callMethod(ctx, method, args)
		}
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			if strings.EqualFold(f.Name, info.FieldName) {
				return callIfFunc(ctx, rv.Field(i).Interface(), args)
			}
		}
	}
	return nil, nil
}

// callIfFunc invokes callable properties with the coerced arguments; plain
// values pass through.
func callIfFunc(ctx context.Context, v any, args map[string]any) (any, error) {
	switch fn := v.(type) {
	case func() any:
		return fn(), nil
	case func() (any, error):
		return fn()
	case func(args map[string]any) any:
		return fn(args), nil
	case func(args map[string]any) (any, error):
		return fn(args)
	case func(ctx context.Context, args map[string]any) (any, error):
		return fn(ctx, args)
	default:
		return v, nil
	}
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// callMethod invokes a source method. Supported shapes are niladic, (args),
// and (ctx, args), each returning one value with an optional trailing error.
func callMethod(ctx context.Context, method reflect.Value, args map[string]any) (any, error) {
	mt := method.Type()
	var in []reflect.Value
	switch mt.NumIn() {
	case 0:
	case 1:
		if mt.In(0) == ctxType {
			in = []reflect.Value{reflect.ValueOf(ctx)}
		} else {
			in = []reflect.Value{reflect.ValueOf(args)}
		}
	case 2:
		in = []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(args)}
	default:
		return nil, fmt.Errorf("unsupported resolver method arity %d", mt.NumIn())
	}
	out := method.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		var err error
		if v := out[1].Interface(); v != nil {
			err = v.(error)
		}
		return out[0].Interface(), err
	}
}

func exportedName(fieldName string) string {
	if fieldName == "" {
		return ""
	}
	return strings.ToUpper(fieldName[:1]) + fieldName[1:]
}

// TypeNamer lets runtime values name their own concrete GraphQL type.
type TypeNamer interface {
	GraphQLTypeName() string
}

// DefaultTypeResolver picks the concrete type for an abstract value from a
// `__typename` map entry or a TypeNamer implementation.
func DefaultTypeResolver(ctx context.Context, value any, info *schema.ResolveInfo, abstract *schema.Type) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	if namer, ok := value.(TypeNamer); ok {
		return namer.GraphQLTypeName(), nil
	}
	return "", fmt.Errorf("cannot determine concrete type for abstract type %q", abstract.Name)
}
