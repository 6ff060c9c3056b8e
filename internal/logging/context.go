package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMetadataID is the key for Plex metadata item identifiers.
	FieldMetadataID = "metadata_id"
	// FieldCorrelationID is the key for the per-invocation correlation identifier.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	metadataIDKey contextKey = "metadata_id"
)

// NewRequestID returns a fresh correlation identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithMetadataID annotates context with the Plex item being processed.
func WithMetadataID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, metadataIDKey, id)
}

// MetadataIDFromContext extracts the Plex item identifier if present.
func MetadataIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(metadataIDKey).(int64)
	return v, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := MetadataIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldMetadataID, id))
	}
	if rid, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrArgs(fields)...)
}
