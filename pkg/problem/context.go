package problem

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// RequestInfo is the request context a problem body can carry.
type RequestInfo struct {
	Path    string
	TraceID string
}

type traceIDKey struct{}

// WithTraceID stores a request-scoped identifier used when no span is recording.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromContext returns the identifier stored by WithTraceID.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// RequestInfoFrom reads the request path and trace id. The trace id of a valid
// OpenTelemetry span context wins over the one stored by WithTraceID.
func RequestInfoFrom(r *http.Request) RequestInfo {
	info := RequestInfo{Path: r.URL.Path}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		info.TraceID = sc.TraceID().String()
		return info
	}
	info.TraceID = TraceIDFromContext(r.Context())
	return info
}
