package executor

import (
	"context"

	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("").EnableIncremental()
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

// valueResolver returns a resolver producing a fixed value.
func valueResolver(v any) schema.FieldResolveFn {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return v, nil
	}
}

// errorResolver returns a resolver that always fails.
func errorResolver(err error) schema.FieldResolveFn {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return nil, err
	}
}

// futureResolver resolves asynchronously to a fixed value.
func futureResolver(v any) schema.FieldResolveFn {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return Go(func() (any, error) { return v, nil }), nil
	}
}
