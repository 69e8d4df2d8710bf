package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrFontNotFound    = errors.New("font not found")
	ErrPaletteMismatch = errors.New("palette mismatch")
	ErrVariantFailure  = errors.New("variant failure")
	ErrOrdering        = errors.New("ordering violation")
	ErrAborted         = errors.New("run aborted")
	ErrExternalTool    = errors.New("scene graph error")
	ErrNotFound        = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the error's marker, used in reports and
// persisted run history.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrPaletteMismatch):
		return "palette_mismatch"
	case errors.Is(err, ErrOrdering):
		return "ordering"
	case errors.Is(err, ErrAborted):
		return "aborted"
	case errors.Is(err, ErrFontNotFound):
		return "font_not_found"
	case errors.Is(err, ErrVariantFailure):
		return "variant_failure"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
