package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	variantKey    contextKey = "variant"
	colorSpaceKey contextKey = "color_space"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVariant annotates context with the variant being derived.
func WithVariant(ctx context.Context, variant string) context.Context {
	if variant == "" {
		return ctx
	}
	return context.WithValue(ctx, variantKey, variant)
}

// VariantFromContext returns the variant name if present.
func VariantFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(variantKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithColorSpace annotates context with the scratch document color space.
func WithColorSpace(ctx context.Context, space string) context.Context {
	if space == "" {
		return ctx
	}
	return context.WithValue(ctx, colorSpaceKey, space)
}

// ColorSpaceFromContext returns the color space name if present.
func ColorSpaceFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(colorSpaceKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
