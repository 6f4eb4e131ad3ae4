package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for task request identifiers.
	FieldRequestID = "request_id"
	// FieldStage is the standardized structured logging key for workflow stage names.
	FieldStage = "stage"
	// FieldEventType tags lifecycle events (stage_start, stage_complete, ...).
	FieldEventType = "event_type"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	stageKey
)

// WithRequestID stores a task request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	return value, ok && value != ""
}

// WithStage stores the active workflow stage name on the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts a previously stored stage name.
func StageFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(stageKey).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	if stage, ok := StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
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
	return logger.With(attrsToArgs(fields)...)
}
