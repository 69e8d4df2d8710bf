package runstore_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"iconforge/internal/exportmatrix"
	"iconforge/internal/palette"
	"iconforge/internal/runstore"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
	"iconforge/internal/testsupport"
)

func sampleReport(started time.Time) *exportmatrix.Report {
	size := 64
	return &exportmatrix.Report{
		RunID:      "run-1",
		Source:     "/art/glyph.icon.toml",
		BaseName:   "Glyph",
		OutputRoot: "/art/Glyph",
		Mode:       exportmatrix.ModeFresh,
		Label:      "Acme",
		Started:    started,
		Finished:   started.Add(2 * time.Second),
		Planned:    3,
		Warnings:   []string{"font substituted"},
		Units: []exportmatrix.UnitResult{
			{
				Unit:   "Core/RGB",
				Family: exportmatrix.FamilyCore,
				Status: exportmatrix.UnitSucceeded,
				Files: []exportmatrix.ExportedFile{
					{Job: exportmatrix.ExportJob{Variant: exportmatrix.Core, ColorSpace: palette.RGB, Format: scenegraph.FormatPNG, Size: &size, Path: "/art/Glyph/Core/png/Glyph_Core_RGB_64.png"}, Duration: 15 * time.Millisecond},
					{Job: exportmatrix.ExportJob{Variant: exportmatrix.Core, ColorSpace: palette.RGB, Format: scenegraph.FormatEPS, Path: "/art/Glyph/Core/eps/Glyph_Core_RGB.eps"}},
				},
			},
			{
				Unit:   "Core/CMYK",
				Family: exportmatrix.FamilyCore,
				Status: exportmatrix.UnitFailed,
				Err:    services.Wrap(services.ErrVariantFailure, "driver", "Core/CMYK", "", errors.New("boom")),
			},
		},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run, exports := runstore.FromReport("/art/glyph.icon.toml", sampleReport(started), nil, started)
	if err := store.Record(ctx, run, exports); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.Status != runstore.StatusPartial || got.ErrorKind != "variant_failure" {
		t.Fatalf("unexpected status %s kind %q", got.Status, got.ErrorKind)
	}
	if got.Exported != 2 || got.FailedUnits != 1 || got.Planned != 3 {
		t.Fatalf("unexpected counts %+v", got)
	}
	if got.Duration() != 2*time.Second {
		t.Fatalf("unexpected duration %s", got.Duration())
	}
	if diff := cmp.Diff([]string{"font substituted"}, got.Warnings); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}

	files, err := store.Exports(ctx, "run-1")
	if err != nil {
		t.Fatalf("Exports: %v", err)
	}
	if len(files) != 2 || files[0].Size == nil || *files[0].Size != 64 || files[1].Size != nil {
		t.Fatalf("unexpected exports %+v", files)
	}
	if files[0].Duration != 15*time.Millisecond || files[0].Variant != "core" || files[0].ColorSpace != "RGB" {
		t.Fatalf("unexpected first export %+v", files[0])
	}
}

func TestGetMissingRunReturnsNil(t *testing.T) {
	store := testsupport.MustOpenRunStore(t, testsupport.NewConfig(t))
	run, err := store.Get(context.Background(), "nope")
	if err != nil || run != nil {
		t.Fatalf("Get = %v, %v", run, err)
	}
}

func TestRecentNewestFirstAndFilteredBySource(t *testing.T) {
	store := testsupport.MustOpenRunStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, source := range []string{"/a.icon.toml", "/b.icon.toml", "/a.icon.toml"} {
		run, _ := runstore.FromReport(source, nil, services.Wrap(services.ErrValidation, "preflight", "selection", "empty", nil), base.Add(time.Duration(i)*time.Minute))
		if err := store.Record(ctx, run, nil); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	all, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 || !all[0].StartedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected order %+v", all)
	}
	if all[0].Status != runstore.StatusRejected || all[0].ErrorKind != "validation" {
		t.Fatalf("unexpected rejected run %+v", all[0])
	}

	onlyA, err := store.Recent(ctx, "/a.icon.toml", 10)
	if err != nil {
		t.Fatalf("Recent filtered: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 runs for /a, got %d", len(onlyA))
	}

	stats, err := store.Stats(ctx)
	if err != nil || stats[runstore.StatusRejected] != 3 {
		t.Fatalf("Stats = %v, %v", stats, err)
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil || removed != 2 {
		t.Fatalf("Prune = %d, %v", removed, err)
	}
	left, err := store.Recent(ctx, "", 10)
	if err != nil || len(left) != 1 || !left[0].StartedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected runs after prune %+v, %v", left, err)
	}
}

func TestPruneCascadesToExports(t *testing.T) {
	store := testsupport.MustOpenRunStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run, exports := runstore.FromReport("/art/glyph.icon.toml", sampleReport(started), nil, started)
	if err := store.Record(ctx, run, exports); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Prune(ctx, 0); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	files, err := store.Exports(ctx, "run-1")
	if err != nil || len(files) != 0 {
		t.Fatalf("exports should be removed with their run, got %d (%v)", len(files), err)
	}
}

func TestStatusFor(t *testing.T) {
	report := &exportmatrix.Report{}
	tests := []struct {
		name   string
		report *exportmatrix.Report
		err    error
		want   runstore.Status
	}{
		{"success", report, nil, runstore.StatusSucceeded},
		{"declined", nil, services.Wrap(services.ErrAborted, "preflight", "rebuild", "declined", nil), runstore.StatusAborted},
		{"cancelled", report, context.Canceled, runstore.StatusCancelled},
		{"rejected", nil, services.Wrap(services.ErrValidation, "preflight", "", "", nil), runstore.StatusRejected},
		{"save failed", report, services.Wrap(services.ErrExternalTool, "driver", "save source", "", nil), runstore.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runstore.StatusFor(tt.report, tt.err); got != tt.want {
				t.Fatalf("StatusFor = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := runstore.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, _ := runstore.FromReport("/x.icon.toml", nil, errors.New("boom"), time.Now())
	if err := first.Record(context.Background(), run, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenRunStore(t, cfg)
	runs, err := second.Recent(context.Background(), "", 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected the earlier run, got %d (%v)", len(runs), err)
	}
	if second.Path() != cfg.HistoryPath() {
		t.Fatalf("unexpected path %s", second.Path())
	}
}

func TestOpenRefusesNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.HistoryPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := runstore.Open(cfg); !errors.Is(err, runstore.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
