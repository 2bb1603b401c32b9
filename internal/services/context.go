package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	sourceKey contextKey = "source"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(runIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSource annotates context with the recording currently being processed.
func WithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the recording name if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(sourceKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
