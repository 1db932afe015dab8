package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after immediate execution of a GraphQL operation.
// Incremental reports whether deferred or streamed payloads follow.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
	Incremental   bool
}

// PatchDelivered is emitted for each incremental payload written to the
// client, including the closing terminator.
type PatchDelivered struct {
	OperationName string
	Label         string
	Path          []any
	Seq           int
	Terminal      bool
}
