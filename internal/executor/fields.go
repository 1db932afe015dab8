package executor

import (
	language "github.com/lilianammmatos/graphql-go/internal/language"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// groupedFieldSet groups field selections by response key, preserving the
// first-appearance order of each key. Insertion order determines output key
// order.
type groupedFieldSet struct {
	groups []*FieldGroup
	index  map[string]int
}

// FieldGroup is the ordered, non-empty list of field selections sharing one
// response key at a parent object.
type FieldGroup struct {
	ResponseKey string
	Fields      []*language.Field
}

func newGroupedFieldSet() *groupedFieldSet {
	return &groupedFieldSet{index: make(map[string]int)}
}

func (g *groupedFieldSet) add(responseKey string, field *language.Field) {
	if idx, exists := g.index[responseKey]; exists {
		g.groups[idx].Fields = append(g.groups[idx].Fields, field)
		return
	}
	g.index[responseKey] = len(g.groups)
	g.groups = append(g.groups, &FieldGroup{ResponseKey: responseKey, Fields: []*language.Field{field}})
}

func (g *groupedFieldSet) orderedGroups() []*FieldGroup { return g.groups }

// fragmentPatch is a deferred group: the selections reached through a
// @defer directive, to be executed by the Dispatcher rather than inline.
type fragmentPatch struct {
	label  string
	fields *groupedFieldSet
}

// collectedFields is a Selection Grouping: the immediate groups plus any
// deferred patches found while walking the selection set.
type collectedFields struct {
	fields  *groupedFieldSet
	patches []fragmentPatch
}

// collectFields walks one selection set on the given runtime type, applying
// @skip/@include, matching fragment type conditions, guarding fragment
// cycles, and splitting @defer-marked selections into patches. It performs no
// resolver calls. ignoreDefer is set for the mutation-root serial pass, where
// top-level incremental directives are treated as absent.
func collectFields(ex *executionContext, runtimeType *schema.Type, selectionSet language.SelectionSet, ignoreDefer bool) collectedFields {
	out := collectedFields{fields: newGroupedFieldSet()}
	visited := make(map[string]bool)
	collectFieldsImpl(ex, runtimeType, selectionSet, ignoreDefer, out.fields, &out.patches, visited)
	return out
}

// collectSubfields merges the sub-selection sets of every field in a group
// and collects them on the return type.
func collectSubfields(ex *executionContext, returnType *schema.Type, fields []*language.Field) collectedFields {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return collectFields(ex, returnType, merged, false)
}

func collectFieldsImpl(
	ex *executionContext,
	runtimeType *schema.Type,
	selectionSet language.SelectionSet,
	ignoreDefer bool,
	grouped *groupedFieldSet,
	patches *[]fragmentPatch,
	visited map[string]bool,
) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(ex, sel.Directives) {
				continue
			}
			responseKey := sel.Alias
			if responseKey == "" {
				responseKey = sel.Name
			}
			if !ignoreDefer {
				if dv := getDeferValues(ex, sel.Directives); dv != nil {
					patchFields := newGroupedFieldSet()
					patchFields.add(responseKey, sel)
					*patches = append(*patches, fragmentPatch{label: dv.label, fields: patchFields})
					continue
				}
			}
			grouped.add(responseKey, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(ex, sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && !ex.schema.Satisfies(runtimeType, sel.TypeCondition) {
				continue
			}
			collectFragmentSelections(ex, runtimeType, sel.SelectionSet, sel.Directives, ignoreDefer, grouped, patches, visited)

		case *language.FragmentSpread:
			if !shouldIncludeNode(ex, sel.Directives) {
				continue
			}
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			fragmentDef := ex.fragments[sel.Name]
			if fragmentDef == nil {
				continue
			}
			if fragmentDef.TypeCondition != "" && !ex.schema.Satisfies(runtimeType, fragmentDef.TypeCondition) {
				continue
			}
			collectFragmentSelections(ex, runtimeType, fragmentDef.SelectionSet, sel.Directives, ignoreDefer, grouped, patches, visited)
		}
	}
}

// collectFragmentSelections recurses into a fragment's selections. A @defer
// on the fragment routes the whole sub-collection into a new patch; nested
// patches inside the fragment surface on the shared patch list either way.
func collectFragmentSelections(
	ex *executionContext,
	runtimeType *schema.Type,
	selectionSet language.SelectionSet,
	directives language.DirectiveList,
	ignoreDefer bool,
	grouped *groupedFieldSet,
	patches *[]fragmentPatch,
	visited map[string]bool,
) {
	if !ignoreDefer {
		if dv := getDeferValues(ex, directives); dv != nil {
			patchFields := newGroupedFieldSet()
			collectFieldsImpl(ex, runtimeType, selectionSet, false, patchFields, patches, visited)
			*patches = append(*patches, fragmentPatch{label: dv.label, fields: patchFields})
			return
		}
	}
	collectFieldsImpl(ex, runtimeType, selectionSet, ignoreDefer, grouped, patches, visited)
}

// shouldIncludeNode applies @skip and @include.
func shouldIncludeNode(ex *executionContext, directives language.DirectiveList) bool {
	if values, ok := getDirectiveValues(ex, ex.schema.Directives["skip"], directives); ok {
		if skip, ok := values["if"].(bool); ok && skip {
			return false
		}
	}
	if values, ok := getDirectiveValues(ex, ex.schema.Directives["include"], directives); ok {
		if include, ok := values["if"].(bool); ok && !include {
			return false
		}
	}
	return true
}
