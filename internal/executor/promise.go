package executor

import (
	"context"
	"sync"
)

// Future is a value that settles later. Resolvers may return one instead of a
// plain value; the engine treats both uniformly and pays no synchronization
// cost for values that are already settled.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Go runs fn on its own goroutine and returns a Future settling to its
// result.
func Go(fn func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Settled returns an already-settled Future. Useful for resolvers that decide
// between sync and async paths at runtime.
func Settled(value any, err error) *Future {
	f := &Future{done: make(chan struct{}), value: value, err: err}
	close(f.done)
	return f
}

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// awaitValue resolves v if it is a Future and returns it unchanged otherwise.
func awaitValue(ctx context.Context, v any) (any, error) {
	if f, ok := v.(*Future); ok {
		return f.Await(ctx)
	}
	return v, nil
}

// AsyncIterator is an asynchronous sequence of values. Next returns the next
// element, ok=false once the sequence is exhausted, or an error; after an
// error or exhaustion the iterator is not called again.
//
// A list field resolver may return an AsyncIterator. With @stream the tail of
// the sequence is delivered as patches; without it the sequence is drained
// into the immediate result.
type AsyncIterator interface {
	Next(ctx context.Context) (value any, ok bool, err error)
}

// IteratorFunc adapts a function to the AsyncIterator interface.
type IteratorFunc func(ctx context.Context) (any, bool, error)

func (f IteratorFunc) Next(ctx context.Context) (any, bool, error) { return f(ctx) }

// SliceIterator yields the given values in order. Each value may itself be a
// *Future, which Next awaits before returning the settled value.
type SliceIterator struct {
	mu     sync.Mutex
	values []any
	pos    int
}

func NewSliceIterator(values ...any) *SliceIterator {
	return &SliceIterator{values: values}
}

func (it *SliceIterator) Next(ctx context.Context) (any, bool, error) {
	it.mu.Lock()
	if it.pos >= len(it.values) {
		it.mu.Unlock()
		return nil, false, nil
	}
	v := it.values[it.pos]
	it.pos++
	it.mu.Unlock()

	if f, ok := v.(*Future); ok {
		resolved, err := f.Await(ctx)
		if err != nil {
			return nil, false, err
		}
		return resolved, true, nil
	}
	return v, true, nil
}
