package exportmatrix_test

import (
	"context"
	"errors"
	"testing"

	"iconforge/internal/exportmatrix"
	"iconforge/internal/geometry"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/scenegraph/fake"
	"iconforge/internal/services"
)

func newScratch(t *testing.T, jobs []exportmatrix.ExportJob) (*exportmatrix.Scratch, *fake.Service, *int) {
	t.Helper()
	svc := fake.NewService()
	doc, err := svc.Create(context.Background(), scenegraph.DocumentSpec{Name: "Scratch", ColorSpace: palette.RGB})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	board := geometry.ToHostRect(0, 0, 64, 64)
	if _, err := doc.AddArtboard(board); err != nil {
		t.Fatalf("AddArtboard: %v", err)
	}
	if _, err := doc.AddRect(board, palette.NewRGB(127, 53, 178), scenegraph.PlaceLast); err != nil {
		t.Fatalf("AddRect: %v", err)
	}
	disposed := 0
	scratch := exportmatrix.NewScratch(doc, exportmatrix.Core, jobs, func(d scenegraph.Document) {
		disposed++
		_ = d.Close()
	})
	t.Cleanup(scratch.Dispose)
	return scratch, svc, &disposed
}

func job(v exportmatrix.Variant, path string) exportmatrix.ExportJob {
	return exportmatrix.ExportJob{Variant: v, ColorSpace: palette.RGB, Format: scenegraph.FormatSVG, Path: path}
}

func svgOptions() scenegraph.ExportOptions {
	return scenegraph.ExportOptions{Format: scenegraph.FormatSVG, ScalePercent: 100}
}

func noop([]scenegraph.PathItem) {}

func TestScratchRefusesExportBeforeComposition(t *testing.T) {
	scratch, svc, _ := newScratch(t, []exportmatrix.ExportJob{job(exportmatrix.Core, "a.svg")})
	err := scratch.Export(context.Background(), job(exportmatrix.Core, "a.svg"), svgOptions())
	if !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error, got %v", err)
	}
	if len(svc.Exports()) != 0 {
		t.Fatalf("nothing should have been exported")
	}
}

func TestScratchRefusesRecolorWithPendingExports(t *testing.T) {
	jobs := []exportmatrix.ExportJob{job(exportmatrix.Core, "a.svg"), job(exportmatrix.Inverse, "b.svg")}
	scratch, _, _ := newScratch(t, jobs)
	if err := scratch.MarkComposed(); err != nil {
		t.Fatalf("MarkComposed: %v", err)
	}
	if err := scratch.Recolor(exportmatrix.Inverse, noop); !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error, got %v", err)
	}
	if scratch.Stage() != exportmatrix.Core {
		t.Fatalf("stage changed to %s after refused recolor", scratch.Stage())
	}

	if err := scratch.Export(context.Background(), jobs[0], svgOptions()); err != nil {
		t.Fatalf("Export core: %v", err)
	}
	if err := scratch.Recolor(exportmatrix.Inverse, noop); err != nil {
		t.Fatalf("Recolor after exports: %v", err)
	}
	if err := scratch.Export(context.Background(), jobs[1], svgOptions()); err != nil {
		t.Fatalf("Export inverse: %v", err)
	}
	if scratch.State() != exportmatrix.StateExported || scratch.Pending(exportmatrix.Inverse) != 0 {
		t.Fatalf("unexpected state %s pending %d", scratch.State(), scratch.Pending(exportmatrix.Inverse))
	}
}

func TestScratchRefusesExportOfAnotherColorState(t *testing.T) {
	jobs := []exportmatrix.ExportJob{job(exportmatrix.Inverse, "b.svg")}
	scratch, _, _ := newScratch(t, jobs)
	if err := scratch.MarkComposed(); err != nil {
		t.Fatalf("MarkComposed: %v", err)
	}
	if err := scratch.Export(context.Background(), jobs[0], svgOptions()); !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error, got %v", err)
	}
}

func TestScratchRefusesBackwardRecolor(t *testing.T) {
	scratch, _, _ := newScratch(t, nil)
	if err := scratch.MarkComposed(); err != nil {
		t.Fatalf("MarkComposed: %v", err)
	}
	if err := scratch.Recolor(exportmatrix.Inactive, noop); err != nil {
		t.Fatalf("Recolor inactive: %v", err)
	}
	if err := scratch.Recolor(exportmatrix.Inverse, noop); !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error, got %v", err)
	}
	if err := scratch.Recolor(exportmatrix.Masthead, noop); !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error for non-recolor variant, got %v", err)
	}
}

func TestScratchConvertOnlyBeforeComposition(t *testing.T) {
	scratch, _, _ := newScratch(t, nil)
	calls := 0
	convert := func(items []scenegraph.PathItem) error {
		calls++
		if len(items) != 1 {
			t.Fatalf("expected 1 path item, got %d", len(items))
		}
		return nil
	}
	if err := scratch.Convert(convert); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if err := scratch.MarkComposed(); err != nil {
		t.Fatalf("MarkComposed: %v", err)
	}
	if err := scratch.Convert(convert); !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("convert ran %d times", calls)
	}
}

func TestScratchDisposeIsIdempotent(t *testing.T) {
	scratch, svc, disposed := newScratch(t, nil)
	scratch.Dispose()
	scratch.Dispose()
	if *disposed != 1 {
		t.Fatalf("dispose ran %d times", *disposed)
	}
	if svc.OpenDocuments() != 0 {
		t.Fatalf("expected no open documents, got %d", svc.OpenDocuments())
	}
	if err := scratch.MarkComposed(); !errors.Is(err, services.ErrOrdering) {
		t.Fatalf("expected ordering error after dispose, got %v", err)
	}
}
