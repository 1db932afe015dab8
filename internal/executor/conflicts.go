package executor

import (
	"fmt"

	language "github.com/lilianammmatos/graphql-go/internal/language"
)

// validateIncrementalDirectives checks the operation before execution starts:
// @defer/@stream require the schema to have enabled incremental delivery, and
// selections merged under one response key must agree on their @stream
// arguments. Any violation is fatal for the whole request.
func validateIncrementalDirectives(ex *executionContext, operation *language.OperationDefinition) []*GraphQLError {
	v := &incrementalValidator{ex: ex}
	v.walkSelectionSet(operation.SelectionSet, make(map[string]bool))
	return v.errs
}

type incrementalValidator struct {
	ex   *executionContext
	errs []*GraphQLError
}

func (v *incrementalValidator) walkSelectionSet(set language.SelectionSet, visited map[string]bool) {
	groups := make(map[string][]*language.Field)
	var order []string
	v.flatten(set, visited, groups, &order)

	for _, key := range order {
		fields := groups[key]
		v.checkGroup(key, fields)
		var merged language.SelectionSet
		for _, f := range fields {
			merged = append(merged, f.SelectionSet...)
		}
		if len(merged) > 0 {
			v.walkSelectionSet(merged, visited)
		}
	}
}

// flatten groups the field selections of one selection-set scope by response
// key, looking through fragments. Type conditions are ignored here: two
// selections that could ever merge into the same response key must carry
// compatible stream directives.
func (v *incrementalValidator) flatten(set language.SelectionSet, visited map[string]bool, groups map[string][]*language.Field, order *[]string) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			v.checkKnownDirectives(sel.Directives)
			key := sel.Alias
			if key == "" {
				key = sel.Name
			}
			if _, seen := groups[key]; !seen {
				*order = append(*order, key)
			}
			groups[key] = append(groups[key], sel)
		case *language.InlineFragment:
			v.checkKnownDirectives(sel.Directives)
			v.flatten(sel.SelectionSet, visited, groups, order)
		case *language.FragmentSpread:
			v.checkKnownDirectives(sel.Directives)
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			if def := v.ex.fragments[sel.Name]; def != nil {
				v.flatten(def.SelectionSet, visited, groups, order)
			}
		}
	}
}

// checkKnownDirectives rejects @defer/@stream on schemas that have not
// enabled them, mirroring what schema-aware validation reports for an
// unregistered directive.
func (v *incrementalValidator) checkKnownDirectives(directives language.DirectiveList) {
	if v.ex.schema.IncrementalEnabled() {
		return
	}
	for _, d := range directives {
		if d.Name == "defer" || d.Name == "stream" {
			v.errs = append(v.errs, &GraphQLError{
				Message:   fmt.Sprintf("Unknown directive %q.", "@"+d.Name),
				Locations: nodeLocation(d.Position),
			})
		}
	}
}

// checkGroup verifies that all selections merged under one response key agree
// on @stream: either none carries it, or all carry it with the same label and
// initialCount.
func (v *incrementalValidator) checkGroup(key string, fields []*language.Field) {
	if len(fields) < 2 {
		return
	}
	type streamState struct {
		values *streamValues
		field  *language.Field
	}
	states := make([]streamState, len(fields))
	anyStream := false
	for i, f := range fields {
		states[i] = streamState{values: getStreamValues(v.ex, f, nil), field: f}
		if states[i].values != nil {
			anyStream = true
		}
	}
	if !anyStream {
		return
	}
	first := states[0].values
	conflicting := first == nil
	for _, st := range states[1:] {
		if st.values == nil || first == nil ||
			st.values.label != first.label || st.values.initialCount != first.initialCount {
			conflicting = true
			break
		}
	}
	if !conflicting {
		return
	}
	var locations []Location
	for _, st := range states {
		locations = append(locations, nodeLocation(st.field.Position)...)
	}
	v.errs = append(v.errs, &GraphQLError{
		Message: fmt.Sprintf(
			"Fields %q conflict because they have differing stream directives. Use different aliases on the fields to fetch both if this was intentional.",
			key,
		),
		Locations: locations,
	})
}
