package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FragmentMap indexes the document's fragment definitions by name.
func FragmentMap(doc *QueryDocument) map[string]*FragmentDefinition {
	m := make(map[string]*FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		m[f.Name] = f
	}
	return m
}
