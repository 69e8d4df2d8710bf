package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		passed bool
		detail string
	}{
		{"existing", base, true, "read/write ok"},
		{"missing", filepath.Join(base, "out", "nested"), true, "will be created"},
		{"file", file, false, "is not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkDirectoryAccess("Output directory", tt.path)
			if got.Passed != tt.passed {
				t.Fatalf("passed = %v, want %v (%s)", got.Passed, tt.passed, got.Detail)
			}
			if !strings.Contains(got.Detail, tt.detail) {
				t.Fatalf("detail %q does not mention %q", got.Detail, tt.detail)
			}
		})
	}
}
