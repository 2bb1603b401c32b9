package logging

import (
	"context"
	"log/slog"

	"setlist/internal/services"
)

const (
	// FieldRunID is the structured logging key for identification run identifiers.
	FieldRunID = "run_id"
	// FieldSource is the structured logging key for the recording being processed.
	FieldSource = "source"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if source, ok := services.SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, source))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived
// from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
