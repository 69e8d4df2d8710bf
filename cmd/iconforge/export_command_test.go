package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"iconforge/internal/services"
	"iconforge/internal/testsupport"
)

func TestExportWritesFilesAndRecordsHistory(t *testing.T) {
	withInteractiveStdin(t, false)
	env := setupCLITestEnv(t)
	source := testsupport.WriteSource(t, env.sourceDir)

	out, stderr, err := runCLI(t, []string{"export", source, "--label", "Acme"}, env.configPath, "")
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	requireContains(t, out, "Core/RGB")
	requireContains(t, out, "2 of 2 files written")
	requireContains(t, stderr, "wrote ")
	requireFile(t, filepath.Join(env.outputDir, "Core", "png", "glyph_Core_RGB_64.png"))
	requireFile(t, filepath.Join(env.outputDir, "Core", "svg", "glyph_Core_RGB.svg"))

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []struct {
		ID         string
		SourcePath string
		Status     string
		Exported   int
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Status != "succeeded" || runs[0].Exported != 2 || runs[0].SourcePath != source {
		t.Fatalf("unexpected run record: %+v", runs[0])
	}

	out, _, err = runCLI(t, []string{"history", "show", runs[0].ID[:8]}, env.configPath, "")
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "glyph_Core_RGB_64.png")

	out, _, err = runCLI(t, []string{"history"}, env.configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "succeeded 1")
}

func TestExportDryRunWritesNothing(t *testing.T) {
	withInteractiveStdin(t, false)
	env := setupCLITestEnv(t)
	source := testsupport.WriteSource(t, env.sourceDir)

	out, _, err := runCLI(t, []string{"export", "--dry-run", source}, env.configPath, "")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "(2 files)")
	requireContains(t, out, "glyph_Core_RGB_64.png")
	if _, err := os.Stat(env.outputDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created the output root: %v", err)
	}
}

func TestExportRebuildNeedsYesWithoutTerminal(t *testing.T) {
	withInteractiveStdin(t, false)
	env := setupCLITestEnv(t)
	source := testsupport.WriteSource(t, env.sourceDir, testsupport.WithMastheadArtboard())

	_, _, err := runCLI(t, []string{"export", source}, env.configPath, "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, err.Error(), "--yes")

	out, _, err := runCLI(t, []string{"export", "--yes", source}, env.configPath, "")
	if err != nil {
		t.Fatalf("export --yes: %v\n%s", err, out)
	}
	requireContains(t, out, "(rebuild)")
}

func TestExportDeclinedRebuildIsNotAnError(t *testing.T) {
	withInteractiveStdin(t, true)
	env := setupCLITestEnv(t)
	source := testsupport.WriteSource(t, env.sourceDir, testsupport.WithMastheadArtboard())

	out, stderr, err := runCLI(t, []string{"export", source}, env.configPath, "n\n")
	if !errors.Is(err, services.ErrAborted) {
		t.Fatalf("declined rebuild returned %v", err)
	}
	if code := exitCode(err, io.Discard); code != 0 {
		t.Fatalf("declined rebuild should exit 0, got %d", code)
	}
	requireContains(t, stderr, "[y/N]")
	requireContains(t, out, "nothing exported")
	if _, err := os.Stat(env.outputDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("declined run created the output root: %v", err)
	}
}

func TestExportPromptsForLabel(t *testing.T) {
	withInteractiveStdin(t, true)
	env := setupCLITestEnv(t,
		testsupport.WithVariants("masthead"),
		testsupport.WithFormats("svg"),
	)
	source := testsupport.WriteSource(t, env.sourceDir)

	out, stderr, err := runCLI(t, []string{"export", source}, env.configPath, "Beta\n")
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	requireContains(t, stderr, ": ")
	requireContains(t, out, `label "Beta"`)
	requireFile(t, filepath.Join(env.outputDir, "Masthead", "svg", "glyph_Masthead_RGB.svg"))
}

func TestExportJSONAndMetricsTextfile(t *testing.T) {
	withInteractiveStdin(t, false)
	env := setupCLITestEnv(t)
	textfile := filepath.Join(env.baseDir, "metrics", "iconforge.prom")
	if err := os.MkdirAll(filepath.Dir(textfile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	env.cfg.Metrics.Textfile = textfile
	writeTestConfig(t, env.configPath, env.cfg)
	source := testsupport.WriteSource(t, env.sourceDir)

	out, stderr, err := runCLI(t, []string{"export", "--json", "--label", "Acme", source}, env.configPath, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if stderr != "" {
		t.Fatalf("json mode printed progress: %q", stderr)
	}
	var results []exportResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].Status != "succeeded" || len(results[0].Files) != 2 {
		t.Fatalf("unexpected results: %+v", results)
	}
	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	requireContains(t, string(data), "iconforge_files_exported")
}

func TestExportRejectedSourceFails(t *testing.T) {
	withInteractiveStdin(t, false)
	env := setupCLITestEnv(t)
	source := testsupport.WriteSource(t, env.sourceDir, testsupport.WithoutArtwork())

	out, _, err := runCLI(t, []string{"export", source}, env.configPath, "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, out, "rejected")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, `"rejected"`)
}
