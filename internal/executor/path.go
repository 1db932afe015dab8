package executor

// Path is a response path built as a singly-linked chain. Each recursion step
// appends in O(1); the chain is flattened only when a path is observed by an
// error or a patch.
type Path struct {
	Prev *Path
	Key  any // string field name or int list index
}

// Append returns a new path with key added at the end. The receiver may be
// nil, which denotes the response root.
func (p *Path) Append(key any) *Path {
	return &Path{Prev: p, Key: key}
}

// Flatten converts the chain into a root-first slice. A nil path flattens to
// an empty, non-nil slice so that patches at the root still carry a path.
func (p *Path) Flatten() []any {
	n := 0
	for q := p; q != nil; q = q.Prev {
		n++
	}
	out := make([]any, n)
	for q := p; q != nil; q = q.Prev {
		n--
		out[n] = q.Key
	}
	return out
}
