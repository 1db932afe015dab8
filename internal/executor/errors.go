package executor

import (
	"errors"
	"sync"

	language "github.com/lilianammmatos/graphql-go/internal/language"
)

// Location is a line/column position in the request source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is an error raised during request processing, located in the
// source document and, for field errors, in the response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *GraphQLError) Error() string { return e.Message }

// locatedError wraps err with the AST locations of the field nodes and the
// response path. An error that is already a *GraphQLError with a path is
// returned unchanged so that propagation through non-null ancestors preserves
// the originating field's location.
func locatedError(err error, fieldNodes []*language.Field, path *Path) *GraphQLError {
	var gerr *GraphQLError
	if errors.As(err, &gerr) && gerr.Path != nil {
		return gerr
	}
	out := &GraphQLError{Message: err.Error(), Path: path.Flatten()}
	if gerr != nil {
		out.Extensions = gerr.Extensions
		if len(gerr.Locations) > 0 {
			out.Locations = gerr.Locations
			return out
		}
	}
	for _, node := range fieldNodes {
		if node.Position != nil {
			out.Locations = append(out.Locations, Location{Line: node.Position.Line, Column: node.Position.Column})
		}
	}
	return out
}

func nodeLocation(pos *language.Position) []Location {
	if pos == nil {
		return nil
	}
	return []Location{{Line: pos.Line, Column: pos.Column}}
}

// errorBag is an append-only error sink. Sibling field groups settle on
// separate goroutines, so appends are synchronized.
type errorBag struct {
	mu   sync.Mutex
	errs []*GraphQLError
}

func (b *errorBag) add(e *GraphQLError) {
	b.mu.Lock()
	b.errs = append(b.errs, e)
	b.mu.Unlock()
}

func (b *errorBag) list() []*GraphQLError {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs
}
