package server

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	log "github.com/sirupsen/logrus"

	eventbus "github.com/lilianammmatos/graphql-go/internal/eventbus"
	events "github.com/lilianammmatos/graphql-go/internal/events"
	executor "github.com/lilianammmatos/graphql-go/internal/executor"
)

// writeMultipart streams an incremental response as multipart/mixed, one
// JSON part per payload, flushing after each so patches reach the client as
// they settle. Returns the number of parts written.
func (h *Handler) writeMultipart(ctx context.Context, w http.ResponseWriter, req GraphQLRequest, stream *executor.ResponseStream) int {
	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	w.WriteHeader(http.StatusOK)

	written := 0
	for {
		payload, ok := stream.Next(ctx)
		if !ok {
			break
		}
		if err := writePart(w, mw.Boundary(), written == 0, payload); err != nil {
			log.WithError(err).Warn("aborting incremental response: client write failed")
			return written
		}
		written++
		publishPatchEvent(ctx, req.OperationName, written, payload)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}

	fmt.Fprintf(w, "\r\n--%s--\r\n", mw.Boundary())
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return written
}

func writePart(w http.ResponseWriter, boundary string, first bool, payload executor.AsyncExecutionResult) error {
	body, err := payload.MarshalJSON()
	if err != nil {
		return err
	}

	headers := textproto.MIMEHeader{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Content-Length", strconv.Itoa(len(body)))

	var buf bytes.Buffer
	if first {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
	} else {
		fmt.Fprintf(&buf, "\r\n--%s\r\n", boundary)
	}
	for _, k := range []string{"Content-Type", "Content-Length"} {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, headers.Get(k))
	}
	buf.WriteString("\r\n")
	buf.Write(body)

	_, err = w.Write(buf.Bytes())
	return err
}

func publishPatchEvent(ctx context.Context, operationName string, seq int, payload executor.AsyncExecutionResult) {
	switch p := payload.(type) {
	case *executor.ExecutionResult:
		metricPayloads.WithLabelValues("initial").Inc()
	case *executor.ExecutionPatchResult:
		kind := "patch"
		if p.Terminal() {
			kind = "terminator"
		}
		metricPayloads.WithLabelValues(kind).Inc()
		eventbus.Publish(ctx, events.PatchDelivered{
			OperationName: operationName,
			Label:         p.Label,
			Path:          p.Path,
			Seq:           seq,
			Terminal:      p.Terminal(),
		})
	}
}
