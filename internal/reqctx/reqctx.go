// Package reqctx carries the per-request context value created at the
// outermost guard and read by every downstream component.
package reqctx

import (
	"context"
	"time"
)

type contextKey struct{}

// RequestContext is created once per request and never mutated afterwards.
type RequestContext struct {
	RequestID string
	ClientIP  string
	Method    string
	Path      string
	StartTime time.Time
}

// With returns a context carrying rc.
func With(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// From extracts the request context, if present.
func From(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(*RequestContext)
	return rc, ok
}

// RequestID returns the correlation id from ctx, or empty string.
func RequestID(ctx context.Context) string {
	if rc, ok := From(ctx); ok {
		return rc.RequestID
	}
	return ""
}
