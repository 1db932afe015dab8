package executor

import (
	"fmt"
	"strconv"

	language "github.com/lilianammmatos/graphql-go/internal/language"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// coerceVariableValues coerces the request's variable values against the
// operation's variable definitions. Any failure is a request error: execution
// does not start.
func coerceVariableValues(
	s *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of non-null type %s must not be null", name, t.String())
		}
		cv, err := coerceInputValue(s, val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s got invalid value: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces AST arguments against the given definitions,
// substituting variables and applying defaults. A missing required argument
// without a default is an error; for field arguments the caller turns that
// into a field error.
func coerceArgumentValues(
	ex *executionContext,
	argDefs []*schema.InputValue,
	arguments language.ArgumentList,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, argDef := range argDefs {
		argNode := arguments.ForName(argDef.Name)
		var (
			val      any
			provided bool
		)
		if argNode != nil {
			val, provided = valueFromASTWithVars(argNode.Value, ex.variableValues)
		}
		if !provided {
			if argDef.HasDefault {
				coerced[argDef.Name] = argDef.DefaultValue
			} else if schema.IsNonNull(argDef.Type) {
				return nil, fmt.Errorf("argument %q of required type %s was not provided", argDef.Name, argDef.Type.String())
			}
			continue
		}
		if val == nil && schema.IsNonNull(argDef.Type) {
			return nil, fmt.Errorf("argument %q of non-null type %s must not be null", argDef.Name, argDef.Type.String())
		}
		cv, err := coerceInputValue(ex.schema, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q got invalid value: %v", argDef.Name, err)
		}
		coerced[argDef.Name] = cv
	}
	return coerced, nil
}

// getDirectiveValues finds a directive by the definition's name on the node
// and coerces its arguments. The second return is false when the directive is
// absent. Coercion failures on a present directive fall back to the argument
// defaults; validation rejects such documents before execution.
func getDirectiveValues(
	ex *executionContext,
	def *schema.Directive,
	directives language.DirectiveList,
) (map[string]any, bool) {
	if def == nil {
		return nil, false
	}
	node := directives.ForName(def.Name)
	if node == nil {
		return nil, false
	}
	values, err := coerceArgumentValues(ex, def.Arguments, node.Arguments)
	if err != nil {
		values = make(map[string]any)
		for _, argDef := range def.Arguments {
			if argDef.HasDefault {
				values[argDef.Name] = argDef.DefaultValue
			}
		}
	}
	return values, true
}

// deferValues is the resolved @defer directive on a selection.
type deferValues struct {
	label string
}

// getDeferValues reads @defer from the selection's directives.
// @defer(if: false) is treated as if the directive were absent.
func getDeferValues(ex *executionContext, directives language.DirectiveList) *deferValues {
	def := ex.schema.Directives["defer"]
	if def == nil {
		return nil
	}
	values, ok := getDirectiveValues(ex, def, directives)
	if !ok {
		return nil
	}
	if enabled, ok := values["if"].(bool); ok && !enabled {
		return nil
	}
	dv := &deferValues{}
	if label, ok := values["label"].(string); ok {
		dv.label = label
	}
	return dv
}

// streamValues is the resolved @stream directive on a field.
type streamValues struct {
	label        string
	initialCount int
}

// getStreamValues reads @stream from the field's directives.
// @stream(if: false) is treated as if the directive were absent, as is any
// @stream inside a mutation's top-level selection set during the serial pass.
func getStreamValues(ex *executionContext, field *language.Field, path *Path) *streamValues {
	def := ex.schema.Directives["stream"]
	if def == nil {
		return nil
	}
	if ex.operation.Operation == language.Mutation && path != nil && path.Prev == nil {
		return nil
	}
	values, ok := getDirectiveValues(ex, def, field.Directives)
	if !ok {
		return nil
	}
	if enabled, ok := values["if"].(bool); ok && !enabled {
		return nil
	}
	sv := &streamValues{}
	if label, ok := values["label"].(string); ok {
		sv.label = label
	}
	if n, ok := values["initialCount"].(int); ok && n > 0 {
		sv.initialCount = n
	}
	return sv
}

// valueFromASTWithVars converts an AST value to a runtime value, substituting
// variables. The second return is false when the value is a variable that was
// not provided, so callers can fall back to argument defaults.
func valueFromASTWithVars(value *language.Value, variableValues map[string]any) (any, bool) {
	if value == nil {
		return nil, false
	}
	if value.Kind == language.Variable {
		v, ok := variableValues[value.Raw]
		return v, ok
	}
	return astValueToGo(value), true
}

// astValueToGo converts an AST literal to a Go value.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

// coerceInputValue coerces a runtime value against an input type. Coercion of
// input objects and lists is recursive; enum values are validated against the
// type's value set.
func coerceInputValue(s *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType.String())
		}
		return coerceInputValue(s, value, schema.Unwrap(targetType))
	}

	if value == nil {
		return nil, nil
	}

	if targetType.Kind == schema.TypeRefKindList {
		return coerceInputList(s, value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	typeObj := s.Types[namedType]
	if typeObj != nil {
		switch typeObj.Kind {
		case schema.TypeKindEnum:
			name, ok := value.(string)
			if !ok || !typeObj.HasEnumValue(name) {
				return nil, fmt.Errorf("value %v does not exist in %q enum", value, namedType)
			}
			return name, nil
		case schema.TypeKindInputObject:
			return coerceInputObject(s, value, typeObj)
		}
	}

	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	default:
		// Custom scalars pass through; the resolver owns their input shape.
		return value, nil
	}
}

func coerceInputList(s *schema.Schema, value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		coerced := make([]any, len(slice))
		for i, item := range slice {
			cv, err := coerceInputValue(s, item, innerType)
			if err != nil {
				return nil, err
			}
			coerced[i] = cv
		}
		return coerced, nil
	}
	// Single value becomes a list of one
	cv, err := coerceInputValue(s, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{cv}, nil
}

func coerceInputObject(s *schema.Schema, value any, typeObj *schema.Type) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object value for input type %q, got %T", typeObj.Name, value)
	}
	coerced := make(map[string]any, len(m))
	for name := range m {
		known := false
		for _, f := range typeObj.InputFields {
			if f.Name == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("field %q is not defined by input type %q", name, typeObj.Name)
		}
	}
	for _, f := range typeObj.InputFields {
		v, present := m[f.Name]
		if !present {
			if f.HasDefault {
				coerced[f.Name] = f.DefaultValue
				continue
			}
			if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("required field %q of input type %q was not provided", f.Name, typeObj.Name)
			}
			continue
		}
		cv, err := coerceInputValue(s, v, f.Type)
		if err != nil {
			return nil, err
		}
		coerced[f.Name] = cv
	}
	return coerced, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
