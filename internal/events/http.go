package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received.
// Context carries the request context.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes. For incremental
// responses Payloads counts every part written, terminator included.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Payloads int
	Duration time.Duration
}
