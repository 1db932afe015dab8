// Package executor implements GraphQL execution with incremental delivery:
// a request either produces a single consolidated response or an initial
// payload followed by an ordered stream of patches that fill in deferred
// fragments and streamed list elements.
//
// # Overview
//
// Execution is organized around five collaborators:
//
//   - The field collector walks selection sets, applies @skip/@include,
//     matches fragment type conditions, merges duplicated selections by
//     response key, and splits @defer-marked selections into patches.
//   - The value coercer turns variable, argument, and directive-argument
//     literals into Go values against the schema's input types.
//   - The resolver driver invokes field resolvers, accepts plain values,
//     Futures, and AsyncIterators uniformly, and completes results against
//     their declared types with the GraphQL non-null propagation rules.
//   - The Dispatcher holds pending deferred payloads and live stream
//     iterators and multiplexes them into the outgoing payload sequence with
//     a correct hasNext flag.
//   - The executor glues the above together: it selects the operation,
//     coerces variables, validates incremental directives, runs the root
//     selection serially (mutations) or in parallel (queries and
//     subscriptions), and decides between a single response and a stream.
//
// # Concurrency
//
// Resolvers that return a *Future settle on their own goroutines; sibling
// groups therefore resolve concurrently while response keys keep document
// declaration order. Mutations execute their top-level groups strictly
// serially: each group, including every nested Future short of a @defer
// boundary, is fully settled before the next group starts. Errors in one
// top-level mutation field do not stop later fields from running.
//
// # Errors and partial success
//
// Field errors are located (source positions plus response path), recorded on
// the response, and null the field; a null in a non-null position propagates
// to the nearest nullable ancestor. Errors raised while producing a deferred
// or streamed patch are carried on that patch, not on the initial response.
//
// # Incremental delivery
//
// When @defer or @stream left payloads pending after immediate execution
// (against a schema with incremental delivery enabled), Execute returns a
// ResponseStream. Its first payload is
// the initial result with hasNext true, interior payloads are patches in
// settlement order, and the final payload is the data-free
// `{"hasNext": false}` terminator.
package executor
