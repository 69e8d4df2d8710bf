package services_test

import (
	"errors"
	"strings"
	"testing"

	"iconforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "composer", "clone", "duplicate failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"composer", "clone", "duplicate failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrValidation, "driver", "preflight", "empty selection", nil), "validation"},
		{services.Wrap(services.ErrConfiguration, "palette", "build", "length mismatch", nil), "configuration"},
		{services.Wrap(services.ErrPaletteMismatch, "recolor", "remap", "", nil), "palette_mismatch"},
		{services.Wrap(services.ErrVariantFailure, "driver", "core/rgb", "", errors.New("io")), "variant_failure"},
		{errors.New("plain"), "internal"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToExternalTool(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}
