package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	eventbus "github.com/lilianammmatos/graphql-go/internal/eventbus"
	events "github.com/lilianammmatos/graphql-go/internal/events"
	executor "github.com/lilianammmatos/graphql-go/internal/executor"
	language "github.com/lilianammmatos/graphql-go/internal/language"
	reqid "github.com/lilianammmatos/graphql-go/internal/reqid"
	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

// Handler is an http.Handler that serves a GraphQL endpoint. Single responses
// are written as one JSON document; requests whose execution produced an
// incremental response stream are written as a multipart/mixed sequence of
// payloads.
type Handler struct {
	schema *schema.Schema
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// RootValue is passed to execution as the root object.
	RootValue any

	// ContextValue derives the per-request context value handed to resolvers.
	ContextValue func(*http.Request) any

	// FieldResolver and TypeResolver override the engine defaults.
	FieldResolver schema.FieldResolveFn
	TypeResolver  schema.TypeResolveFn
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithRootValue(root any) Option { return func(o *Options) { o.RootValue = root } }
func WithContextValue(fn func(*http.Request) any) Option {
	return func(o *Options) { o.ContextValue = fn }
}
func WithFieldResolver(fn schema.FieldResolveFn) Option {
	return func(o *Options) { o.FieldResolver = fn }
}
func WithTypeResolver(fn schema.TypeResolveFn) Option {
	return func(o *Options) { o.TypeResolver = fn }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a GraphQL HTTP handler serving the given schema.
func New(s *schema.Schema, opts ...Option) *Handler {
	op := Options{Timeout: 30 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{schema: s, opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx)
	status := http.StatusOK
	payloads := 0
	opType := ""
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		d := time.Since(start)
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Payloads: payloads, Duration: d})
		metricRequests.WithLabelValues(orUnknown(opType), strconv.Itoa(status)).Inc()
		metricRequestDuration.Observe(d.Seconds())
		log.WithFields(log.Fields{
			"rid":      rid,
			"method":   r.Method,
			"status":   status,
			"payloads": payloads,
			"duration": d,
		}).Debug("graphql request served")
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(berr.Message), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		// Batched requests get single responses only; incremental delivery
		// has no defined framing inside a JSON array.
		out := make([]any, len(batch))
		for i := range batch {
			outcome, ot := h.executeOne(ctx, r, batch[i])
			opType = ot
			if outcome.Stream != nil {
				outcome.Stream.Collect(ctx)
				out[i] = errorResponse("incremental delivery is not supported in batched requests")
				continue
			}
			out[i] = outcome.Result
		}
		payloads = len(batch)
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	outcome, ot := h.executeOne(ctx, r, req)
	opType = ot
	if outcome.Stream != nil {
		payloads = h.writeMultipart(ctx, w, req, outcome.Stream)
		return
	}
	payloads = 1
	writeJSON(w, status, outcome.Result, h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, r *http.Request, req GraphQLRequest) (*executor.ExecutionOutcome, string) {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return &executor.ExecutionOutcome{
			Result: &executor.ExecutionResult{Errors: []*executor.GraphQLError{parseError(err)}},
		}, ""
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}

	var contextValue any
	if h.opt.ContextValue != nil {
		contextValue = h.opt.ContextValue(r)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	outcome := executor.Execute(ctx, executor.ExecutionArgs{
		Schema:         h.schema,
		Document:       doc,
		RootValue:      h.opt.RootValue,
		ContextValue:   contextValue,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		FieldResolver:  h.opt.FieldResolver,
		TypeResolver:   h.opt.TypeResolver,
	})
	var errs []error
	if outcome.Result != nil {
		for _, e := range outcome.Result.Errors {
			errs = append(errs, e)
		}
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
		Incremental:   outcome.Stream != nil,
	})
	return outcome, opType
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid 'variables' JSON"}
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "failed to read body"}
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, &language.Error{Message: errBodyTooLargeMessage}
		}

		// Try array (batch)
		if len(body) > 0 && body[0] == '[' {
			var arr []GraphQLRequest
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, &language.Error{Message: "empty batch"}
			}
			return GraphQLRequest{}, arr, nil
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, &language.Error{Message: "unsupported Content-Type"}
}

// ------------------ Response formatting ------------------

func parseError(err error) *executor.GraphQLError {
	ge := &executor.GraphQLError{Message: err.Error()}
	if le, ok := err.(*language.Error); ok {
		ge.Message = le.Message
		for _, loc := range le.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
		}
	}
	return ge
}

func errorResponse(message string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: []*executor.GraphQLError{{Message: message}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
