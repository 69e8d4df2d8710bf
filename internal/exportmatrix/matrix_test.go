package exportmatrix_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"iconforge/internal/exportmatrix"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
	"iconforge/internal/testsupport"
)

func basePlan() exportmatrix.Plan {
	return exportmatrix.Plan{
		BaseName:    "glyph",
		OutputRoot:  "/out",
		Variants:    []exportmatrix.Variant{exportmatrix.Core, exportmatrix.Inverse},
		ColorSpaces: []palette.ColorSpace{palette.RGB, palette.CMYK},
		Formats:     []scenegraph.Format{scenegraph.FormatPNG, scenegraph.FormatEPS},
		Sizes:       []int{64, 32},
	}
}

func TestBuildOrdersByFamilySpaceAndStage(t *testing.T) {
	got := exportmatrix.Build(basePlan()).Paths()
	want := []string{
		filepath.Join("/out", "Core", "png", "glyph_Core_RGB_64.png"),
		filepath.Join("/out", "Core", "png", "glyph_Core_RGB_32.png"),
		filepath.Join("/out", "Core", "eps", "glyph_Core_RGB.eps"),
		filepath.Join("/out", "Core", "png", "glyph_Core_RGB_inverse_64.png"),
		filepath.Join("/out", "Core", "png", "glyph_Core_RGB_inverse_32.png"),
		filepath.Join("/out", "Core", "eps", "glyph_Core_RGB_inverse.eps"),
		filepath.Join("/out", "Core", "eps", "glyph_Core_CMYK.eps"),
		filepath.Join("/out", "Core", "eps", "glyph_Core_CMYK_inverse.eps"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMastheadIsUnsizedAndExpressiveIsRGBOnly(t *testing.T) {
	plan := basePlan()
	plan.Variants = []exportmatrix.Variant{exportmatrix.Masthead, exportmatrix.Expressive}
	plan.Formats = []scenegraph.Format{scenegraph.FormatPNG, scenegraph.FormatSVG}
	plan.ExpressiveSizes = []int{1024}

	got := exportmatrix.Build(plan).Paths()
	want := []string{
		filepath.Join("/out", "Masthead", "png", "glyph_Masthead_RGB.png"),
		filepath.Join("/out", "Masthead", "svg", "glyph_Masthead_RGB.svg"),
		filepath.Join("/out", "Expressive", "png", "glyph_Expressive_RGB_1024.png"),
		filepath.Join("/out", "Expressive", "svg", "glyph_Expressive_RGB.svg"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAddsTextlessBannerAsItsOwnUnit(t *testing.T) {
	plan := basePlan()
	plan.Variants = []exportmatrix.Variant{exportmatrix.Expressive}
	plan.Formats = []scenegraph.Format{scenegraph.FormatPNG, scenegraph.FormatEPS}
	plan.ExpressiveSizes = []int{512}
	plan.Textless = true

	matrix := exportmatrix.Build(plan)
	want := []string{
		filepath.Join("/out", "Expressive", "png", "glyph_Expressive_RGB_512.png"),
		filepath.Join("/out", "Expressive", "eps", "glyph_Expressive_RGB.eps"),
		filepath.Join("/out", "Expressive", "png", "glyph_Expressive_RGB_textless_512.png"),
		filepath.Join("/out", "Expressive", "eps", "glyph_Expressive_RGB_textless.eps"),
	}
	if diff := cmp.Diff(want, matrix.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, unit := range matrix.Units() {
		names = append(names, unit.Name())
	}
	if diff := cmp.Diff([]string{"Expressive/RGB", "Expressive/RGB/textless"}, names); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKeepsRecolorOrderWhateverTheConfiguredOrder(t *testing.T) {
	plan := basePlan()
	plan.Variants = []exportmatrix.Variant{exportmatrix.Inactive, exportmatrix.Core, exportmatrix.Inverse}
	plan.ColorSpaces = []palette.ColorSpace{palette.RGB}
	plan.Formats = []scenegraph.Format{scenegraph.FormatSVG}

	var got []exportmatrix.Variant
	for _, job := range exportmatrix.Build(plan) {
		got = append(got, job.Variant)
	}
	want := []exportmatrix.Variant{exportmatrix.Core, exportmatrix.Inverse, exportmatrix.Inactive}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("variant order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitsGroupJobsPerScratchDocument(t *testing.T) {
	plan := basePlan()
	plan.Variants = append(plan.Variants, exportmatrix.Masthead)
	units := exportmatrix.Build(plan).Units()

	var names []string
	for _, unit := range units {
		names = append(names, unit.Name())
	}
	want := []string{"Core/RGB", "Core/CMYK", "Masthead/RGB", "Masthead/CMYK"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}
	if len(units[0].Jobs) != 6 {
		t.Fatalf("expected 6 Core/RGB jobs, got %d", len(units[0].Jobs))
	}
}

func TestFileNameSanitizedBaseAndSize(t *testing.T) {
	size := 48
	job := exportmatrix.ExportJob{Variant: exportmatrix.Inactive, ColorSpace: palette.RGB, Format: scenegraph.FormatJPEG, Size: &size}
	if got := exportmatrix.FileName("brand-mark", job); got != "brand-mark_Core_RGB_inactive_48.jpg" {
		t.Fatalf("unexpected file name %q", got)
	}
	if job.SizeLabel() != "48" {
		t.Fatalf("unexpected size label %q", job.SizeLabel())
	}
}

func TestPlanFromConfigRejectsUnknownAxes(t *testing.T) {
	tests := []struct {
		name string
		opt  testsupport.ConfigOption
	}{
		{"variant", testsupport.WithVariants("core", "sparkly")},
		{"color space", testsupport.WithColorSpaces("lab")},
		{"format", testsupport.WithFormats("gif")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, tt.opt)
			_, err := exportmatrix.PlanFromConfig(cfg)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestPlanFromConfigDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	plan, err := exportmatrix.PlanFromConfig(cfg)
	if err != nil {
		t.Fatalf("PlanFromConfig: %v", err)
	}
	if !plan.NeedsLabel() || !plan.Wants(exportmatrix.Expressive) {
		t.Fatalf("default plan should include labelled variants: %+v", plan.Variants)
	}
	if diff := cmp.Diff([]palette.ColorSpace{palette.RGB, palette.CMYK}, plan.ColorSpaces); diff != "" {
		t.Fatalf("color spaces mismatch (-want +got):\n%s", diff)
	}
}

func TestParseVariant(t *testing.T) {
	v, err := exportmatrix.ParseVariant(" Inverse ")
	if err != nil || v != exportmatrix.Inverse {
		t.Fatalf("ParseVariant = %v, %v", v, err)
	}
	if v.Family() != exportmatrix.FamilyCore || !v.Recolored() {
		t.Fatalf("inverse should be a recolored core variant")
	}
	if _, err := exportmatrix.ParseVariant("banner"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
