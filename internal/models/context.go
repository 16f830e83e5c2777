package models

import "context"

type requestIdContextKey struct{}

// WithRequestId attaches the HTTP request id to a context.
func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdContextKey{}, requestId)
}

// RequestIdFromContext returns the request id carried by ctx, or "" if absent.
func RequestIdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIdContextKey{}).(string)
	return id
}
