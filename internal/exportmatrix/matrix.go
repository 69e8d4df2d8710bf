package exportmatrix

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"iconforge/internal/config"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// ExportJob is one file to produce. Size is nil for vector formats and for
// masthead rasters, which are written at the artboard's natural width.
type ExportJob struct {
	Variant    Variant
	ColorSpace palette.ColorSpace
	Format     scenegraph.Format
	Size       *int
	Path       string
	// Textless marks the expressive banner drawn without its label.
	Textless bool
}

// SizeLabel renders the size for reports.
func (j ExportJob) SizeLabel() string {
	if j.Size == nil {
		return "-"
	}
	return strconv.Itoa(*j.Size)
}

// Plan holds what a run should produce.
type Plan struct {
	BaseName        string
	OutputRoot      string
	Variants        []Variant
	ColorSpaces     []palette.ColorSpace
	Formats         []scenegraph.Format
	Sizes           []int
	ExpressiveSizes []int
	Textless        bool
}

// PlanFromConfig parses the export section. BaseName and OutputRoot are
// filled in per source document.
func PlanFromConfig(cfg *config.Config) (Plan, error) {
	var plan Plan
	for _, name := range cfg.Export.Variants {
		v, err := ParseVariant(name)
		if err != nil {
			return Plan{}, services.Wrap(services.ErrConfiguration, "exportmatrix", "plan", "export.variants", err)
		}
		plan.Variants = append(plan.Variants, v)
	}
	for _, name := range cfg.Export.ColorSpaces {
		space, err := palette.ParseColorSpace(name)
		if err != nil {
			return Plan{}, services.Wrap(services.ErrConfiguration, "exportmatrix", "plan", "export.color_spaces", err)
		}
		plan.ColorSpaces = append(plan.ColorSpaces, space)
	}
	for _, name := range cfg.Export.Formats {
		format, err := scenegraph.ParseFormat(name)
		if err != nil {
			return Plan{}, services.Wrap(services.ErrConfiguration, "exportmatrix", "plan", "export.formats", err)
		}
		plan.Formats = append(plan.Formats, format)
	}
	plan.Sizes = slices.Clone(cfg.Export.Sizes)
	plan.ExpressiveSizes = slices.Clone(cfg.Expressive.Sizes)
	plan.Textless = cfg.Expressive.Textless
	return plan, nil
}

// Wants reports whether the plan includes v.
func (p Plan) Wants(v Variant) bool {
	return slices.Contains(p.Variants, v)
}

// NeedsLabel reports whether any requested variant typesets the label.
func (p Plan) NeedsLabel() bool {
	return p.Wants(Masthead) || p.Wants(Expressive)
}

// Matrix is the ordered job list for one run.
type Matrix []ExportJob

// Build expands the plan into jobs. Jobs are ordered by family, then color
// space, then color state, so that a unit's exports for one color state
// always precede the recolor that destroys it. CMYK is produced as EPS only
// and the expressive banners in RGB only; the textless banner follows the
// labelled one.
func Build(plan Plan) Matrix {
	var out Matrix
	for _, family := range []Family{FamilyCore, FamilyMasthead, FamilyExpressive} {
		for _, space := range plan.ColorSpaces {
			if family == FamilyExpressive && space != palette.RGB {
				continue
			}
			for _, variant := range family.stages() {
				if !plan.Wants(variant) {
					continue
				}
				out = append(out, plan.jobsFor(variant, space)...)
				if variant == Expressive && plan.Textless {
					for _, job := range plan.jobsFor(variant, space) {
						job.Textless = true
						job.Path = plan.path(job)
						out = append(out, job)
					}
				}
			}
		}
	}
	return out
}

func (p Plan) jobsFor(variant Variant, space palette.ColorSpace) []ExportJob {
	var out []ExportJob
	for _, format := range p.Formats {
		if space == palette.CMYK && format != scenegraph.FormatEPS {
			continue
		}
		job := ExportJob{Variant: variant, ColorSpace: space, Format: format}
		if format.IsVector() || variant == Masthead {
			job.Path = p.path(job)
			out = append(out, job)
			continue
		}
		sizes := p.Sizes
		if variant == Expressive {
			sizes = p.ExpressiveSizes
		}
		for _, size := range sizes {
			sized := job
			sized.Size = &size
			sized.Path = p.path(sized)
			out = append(out, sized)
		}
	}
	return out
}

// FileName returns the deterministic name
// {base}_{Family}_{RGB|CMYK}[_inverse|_inactive|_textless][_{size}].{ext}.
func FileName(base string, job ExportJob) string {
	name := fmt.Sprintf("%s_%s_%s%s", base, job.Variant.Family(), job.ColorSpace, job.Variant.fileSuffix())
	if job.Textless {
		name += "_textless"
	}
	if job.Size != nil {
		name += "_" + strconv.Itoa(*job.Size)
	}
	return name + "." + job.Format.Extension()
}

// Dir returns {root}/{Family}/{format}.
func Dir(root string, job ExportJob) string {
	return filepath.Join(root, job.Variant.Family().String(), job.Format.Extension())
}

func (p Plan) path(job ExportJob) string {
	return filepath.Join(Dir(p.OutputRoot, job), FileName(p.BaseName, job))
}

// Unit is the set of jobs served by one scratch document.
type Unit struct {
	Family     Family
	ColorSpace palette.ColorSpace
	Textless   bool
	Jobs       []ExportJob
}

// Name identifies the unit in logs and reports, e.g. "Core/CMYK" or
// "Expressive/RGB/textless".
func (u Unit) Name() string {
	name := u.Family.String() + "/" + u.ColorSpace.String()
	if u.Textless {
		name += "/textless"
	}
	return name
}

// Units groups consecutive jobs by family, color space and label presence,
// keeping order.
func (m Matrix) Units() []Unit {
	var out []Unit
	for _, job := range m {
		family := job.Variant.Family()
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Family == family && last.ColorSpace == job.ColorSpace && last.Textless == job.Textless {
				last.Jobs = append(last.Jobs, job)
				continue
			}
		}
		out = append(out, Unit{Family: family, ColorSpace: job.ColorSpace, Textless: job.Textless, Jobs: []ExportJob{job}})
	}
	return out
}

// Paths lists every destination path in order.
func (m Matrix) Paths() []string {
	out := make([]string, len(m))
	for i, job := range m {
		out[i] = job.Path
	}
	return out
}
