package executor

import (
	"context"
	"sync"
)

// Dispatcher multiplexes pending deferred payloads and streamed list tails
// into the single outgoing payload sequence. Payloads are emitted in
// settlement order; the only ordering invariants across the sequence are that
// the initial payload is first and the data-free terminator is last.
type Dispatcher struct {
	mu   sync.Mutex
	cond *sync.Cond

	// active counts registered deliveries that have not yet finished: one per
	// Add (a deferred fragment or one streamed element of a materialized
	// list) and one per AddStream iterator. New work is only registered
	// while immediate execution runs or while a payload is being produced, so
	// once active reaches zero with an empty queue the sequence is complete.
	active int
	queue  []*ExecutionPatchResult

	initial        *ExecutionResult
	initialSent    bool
	terminatorSent bool
}

func newDispatcher() *Dispatcher {
	d := &Dispatcher{}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// HasPending reports whether any deferred or streamed payloads are
// outstanding. The executor calls this once after immediate execution to
// decide between a single response and an incremental one.
func (d *Dispatcher) HasPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active > 0 || len(d.queue) > 0
}

func (d *Dispatcher) begin() {
	d.mu.Lock()
	d.active++
	d.mu.Unlock()
}

func (d *Dispatcher) finish() {
	d.mu.Lock()
	d.active--
	d.cond.Broadcast()
	d.mu.Unlock()
}

func (d *Dispatcher) enqueue(p *ExecutionPatchResult) {
	d.mu.Lock()
	d.queue = append(d.queue, p)
	d.cond.Broadcast()
	d.mu.Unlock()
}

// Add registers a deferred payload. produce runs on its own goroutine and
// returns the patch data plus any field errors raised while producing it;
// both are delivered on the patch itself.
func (d *Dispatcher) Add(ctx context.Context, label string, path *Path, produce func(ctx context.Context) (any, []*GraphQLError)) {
	d.begin()
	go func() {
		data, errs := produce(ctx)
		d.enqueue(&ExecutionPatchResult{
			Data:    data,
			Path:    path.Flatten(),
			Label:   label,
			Errors:  errs,
			HasNext: true,
		})
		d.finish()
	}()
}

// AddStream registers the tail of a streamed list field, starting at
// initialIndex. completeItem completes one element against the list's inner
// type, returning the completed value and the errors raised for it. Iteration
// stops at exhaustion or on the first iterator error; the failing index still
// produces a patch with null data and the error attached.
func (d *Dispatcher) AddStream(
	ctx context.Context,
	label string,
	initialIndex int,
	path *Path,
	iterator AsyncIterator,
	completeItem func(ctx context.Context, itemPath *Path, item any) (any, []*GraphQLError),
	iterationError func(err error, itemPath *Path) *GraphQLError,
) {
	d.begin()
	go func() {
		defer d.finish()
		for index := initialIndex; ; index++ {
			itemPath := path.Append(index)
			value, ok, err := iterator.Next(ctx)
			if err != nil {
				d.enqueue(&ExecutionPatchResult{
					Data:    nil,
					Path:    itemPath.Flatten(),
					Label:   label,
					Errors:  []*GraphQLError{iterationError(err, itemPath)},
					HasNext: true,
				})
				return
			}
			if !ok {
				return
			}
			completed, errs := completeItem(ctx, itemPath, value)
			d.enqueue(&ExecutionPatchResult{
				Data:    completed,
				Path:    itemPath.Flatten(),
				Label:   label,
				Errors:  errs,
				HasNext: true,
			})
		}
	}()
}

// stream wraps the dispatcher into the outgoing payload sequence, seeded with
// the initial result.
func (d *Dispatcher) stream(initial *ExecutionResult) *ResponseStream {
	d.mu.Lock()
	d.initial = initial
	d.mu.Unlock()
	return &ResponseStream{d: d}
}

// next yields the initial payload, then settled patches, then the terminator.
func (d *Dispatcher) next() (AsyncExecutionResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialSent {
		d.initialSent = true
		hasNext := true
		d.initial.HasNext = &hasNext
		return d.initial, true
	}

	for len(d.queue) == 0 {
		if d.active == 0 {
			if d.terminatorSent {
				return nil, false
			}
			d.terminatorSent = true
			return &ExecutionPatchResult{HasNext: false, terminal: true}, true
		}
		d.cond.Wait()
	}

	p := d.queue[0]
	d.queue = d.queue[1:]
	return p, true
}

// ResponseStream is an incremental response: the initial payload followed by
// patches in settlement order, closed by a `hasNext: false` terminator.
type ResponseStream struct {
	d *Dispatcher
}

// Next returns the next payload, or ok=false once the terminator has been
// delivered. Production is not cancelable at this level; consumers that lose
// interest must still drain or drop the stream.
func (s *ResponseStream) Next(ctx context.Context) (AsyncExecutionResult, bool) {
	return s.d.next()
}

// Collect drains the stream into a slice.
func (s *ResponseStream) Collect(ctx context.Context) []AsyncExecutionResult {
	var out []AsyncExecutionResult
	for {
		p, ok := s.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, p)
	}
}
