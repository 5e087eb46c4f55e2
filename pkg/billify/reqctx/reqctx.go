// Package reqctx carries the per-request identifiers (request ID and correlation ID)
// through a context.Context so that any code running on behalf of a request can find
// them without explicit parameter passing.
package reqctx

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

type contextKey struct{}

// RequestContext holds the identifiers of one request. The identifiers never change
// after creation.
type RequestContext struct {
	requestID     string
	correlationID string

	memo sync.Map
}

func New(requestID, correlationID string) *RequestContext {
	return &RequestContext{requestID: requestID, correlationID: correlationID}
}

func (rc *RequestContext) RequestID() string {
	return rc.requestID
}

func (rc *RequestContext) CorrelationID() string {
	return rc.correlationID
}

// Memo returns the value stored under key, calling create to build it on first use.
// Concurrent callers for the same key all observe the first stored value.
func (rc *RequestContext) Memo(key any, create func() any) any {
	if v, ok := rc.memo.Load(key); ok {
		return v
	}

	v, _ := rc.memo.LoadOrStore(key, create())

	return v
}

// With returns a copy of ctx in which rc is the active request context.
func With(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

func WithIDs(ctx context.Context, requestID, correlationID string) context.Context {
	return With(ctx, New(requestID, correlationID))
}

// Run executes body with a fresh request context bound to the given identifiers.
// Inside body, Current returns that context; the caller's ctx is left untouched.
func Run(ctx context.Context, requestID, correlationID string, body func(ctx context.Context)) {
	body(WithIDs(ctx, requestID, correlationID))
}

func From(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}

	rc, ok := ctx.Value(contextKey{}).(*RequestContext)

	return rc, ok && rc != nil
}

// Current returns the active request context, or nil when ctx is outside any request.
func Current(ctx context.Context) *RequestContext {
	rc, _ := From(ctx)

	return rc
}

// FromHeaders builds a request context from the inbound X-Request-ID and
// X-Correlation-ID headers. Only the first value of each header is used; an absent or
// empty header gets a fresh UUID.
func FromHeaders(h http.Header) *RequestContext {
	return New(headerOrUUID(h, HeaderRequestID), headerOrUUID(h, HeaderCorrelationID))
}

func headerOrUUID(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}

	return uuid.NewString()
}
