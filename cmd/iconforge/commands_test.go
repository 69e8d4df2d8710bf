package main

import (
	"os"
	"path/filepath"
	"testing"

	"iconforge/internal/testsupport"
)

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# "+env.configPath)
	requireContains(t, out, "[export]")
}

func TestValidateReportsSourceMode(t *testing.T) {
	env := setupCLITestEnv(t)
	fresh := testsupport.WriteSource(t, env.sourceDir)
	rebuild := testsupport.WriteSource(t, env.sourceDir, testsupport.WithSourceName("Second"), testsupport.WithMastheadArtboard())

	out, _, err := runCLI(t, []string{"validate", fresh, rebuild}, env.configPath, "")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Configuration:")
	requireContains(t, out, "State directory:")
	requireContains(t, out, "fresh run")
	requireContains(t, out, "masthead artboard will be rebuilt")

	empty := testsupport.WriteSource(t, env.sourceDir, testsupport.WithSourceName("Empty"), testsupport.WithoutArtwork())
	out, _, err = runCLI(t, []string{"validate", empty}, env.configPath, "")
	if err == nil {
		t.Fatalf("expected validate to fail for an empty artboard:\n%s", out)
	}
	requireContains(t, out, "[ERROR]")
}

func TestPaletteTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"palette"}, env.configPath, "")
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	requireContains(t, out, "violet")
	requireContains(t, out, "#7f35b2")
	requireContains(t, out, "CMYK(65,91,0,0)")
}

func TestSourceInitProducesExportableDocument(t *testing.T) {
	withInteractiveStdin(t, false)
	env := setupCLITestEnv(t)
	target := filepath.Join(env.sourceDir, "starter.icon.toml")

	out, _, err := runCLI(t, []string{"source", "init", target, "--name", "Starter"}, env.configPath, "")
	if err != nil {
		t.Fatalf("source init: %v", err)
	}
	requireContains(t, out, "Starter")

	out, _, err = runCLI(t, []string{"validate", target}, env.configPath, "")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	requireContains(t, out, "fresh run, 2 items selected")

	if _, _, err := runCLI(t, []string{"source", "init", target}, env.configPath, ""); err == nil {
		t.Fatal("expected source init to refuse an existing file")
	}
}
