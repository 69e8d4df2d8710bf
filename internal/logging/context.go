package logging

import (
	"context"
	"log/slog"

	"iconforge/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldVariant is the standardized structured logging key for artifact variants.
	FieldVariant = "variant"
	// FieldColorSpace is the standardized structured logging key for scratch document color spaces.
	FieldColorSpace = "color_space"
	// FieldEventType classifies log lines for downstream filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if variant, ok := services.VariantFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVariant, variant))
	}
	if space, ok := services.ColorSpaceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldColorSpace, space))
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
	return logger.With(Args(fields...)...)
}
