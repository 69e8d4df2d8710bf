package exportmatrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"iconforge/internal/composer"
	"iconforge/internal/config"
	"iconforge/internal/geometry"
	"iconforge/internal/logging"
	"iconforge/internal/palette"
	"iconforge/internal/recolor"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
	"iconforge/internal/textutil"
)

// Options wires a Driver to its collaborators.
type Options struct {
	Engine scenegraph.Service
	// Interaction may be nil for unattended runs. A label must then come
	// from configuration and a rebuild needs AssumeYes.
	Interaction scenegraph.Interaction
	Logger      *slog.Logger
	Observer    Observer
	AssumeYes   bool
	Now         func() time.Time
}

// Driver runs the export matrix for one source document at a time.
type Driver struct {
	cfg         *config.Config
	plan        Plan
	palette     *palette.Palette
	engine      scenegraph.Service
	composer    *composer.Composer
	interaction scenegraph.Interaction
	logger      *slog.Logger
	observer    Observer
	assumeYes   bool
	now         func() time.Time
}

// NewDriver validates the palette and export plan up front so that a bad
// configuration never reaches a document.
func NewDriver(cfg *config.Config, opts Options) (*Driver, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "init", "configuration is required", nil)
	}
	if opts.Engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "init", "scene graph engine is required", nil)
	}
	pal, err := palette.FromConfig(cfg.Palette)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "palette", "", err)
	}
	plan, err := PlanFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := recolor.NewMismatchPolicy(cfg.Palette.MismatchPolicy, recolor.Annotation{}); err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "driver")
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{
		cfg:         cfg,
		plan:        plan,
		palette:     pal,
		engine:      opts.Engine,
		composer:    composer.New(opts.Engine, opts.Logger),
		interaction: opts.Interaction,
		logger:      logger,
		observer:    observer,
		assumeYes:   opts.AssumeYes,
		now:         now,
	}, nil
}

// Palette returns the palette the driver recolors with.
func (d *Driver) Palette() *palette.Palette { return d.palette }

// runState is threaded through every stage of one run.
type runState struct {
	sourcePath string
	source     scenegraph.Document
	mode       Mode
	label      string
	plan       Plan

	icon       scenegraph.Node
	iconBoard  geometry.Rect
	iconOffset geometry.Point

	masthead    *composer.Masthead
	mastheadErr error
	saveSource  bool
}

// Plan resolves the matrix a run on sourcePath would produce without
// opening the document.
func (d *Driver) Plan(sourcePath, docName string) Matrix {
	plan := d.plan
	plan.BaseName = textutil.SanitizeBaseName(docName)
	plan.OutputRoot = d.cfg.OutputRoot(sourcePath, plan.BaseName)
	return Build(plan)
}

// Run exports every requested variant of the icon in sourcePath.
//
// Validation, the rebuild confirmation, and the label prompt all happen
// before the source document is touched; a failure there returns a nil
// report. Once exporting starts, a failing unit is recorded in the report
// and the remaining units still run. The returned error covers run-level
// problems only (cancellation, saving the source); unit failures are in
// Report.Err.
func (d *Driver) Run(ctx context.Context, sourcePath string) (report *Report, runErr error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)
	started := d.now()

	source, err := d.engine.Open(ctx, sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "driver", "open source", sourcePath, err)
	}
	defer d.composer.DisposeDocument(ctx, source)

	pre, err := Inspect(source, d.cfg.Source)
	if err != nil {
		logging.WarnWithContext(logger, "source rejected", "preflight_failed",
			logging.String("source", sourcePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the icon artboard must be first and hold the artwork"),
			logging.String(logging.FieldImpact, "nothing was exported"),
		)
		return nil, err
	}
	if pre.Mode == ModeRebuild {
		if err := confirmRebuild(ctx, d.interaction, d.assumeYes); err != nil {
			logger.Info("rebuild not confirmed", logging.Error(err))
			return nil, err
		}
	}
	label, err := d.resolveLabel(ctx)
	if err != nil {
		return nil, err
	}

	st := &runState{
		sourcePath: sourcePath,
		source:     source,
		mode:       pre.Mode,
		label:      label,
		plan:       d.plan,
	}
	st.plan.BaseName = textutil.SanitizeBaseName(source.Name())
	st.plan.OutputRoot = d.cfg.OutputRoot(sourcePath, st.plan.BaseName)
	matrix := Build(st.plan)
	if len(matrix) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "plan", "the configured matrix produces no files", nil)
	}

	if err := os.MkdirAll(st.plan.OutputRoot, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "output root", st.plan.OutputRoot, err)
	}
	lock := flock.New(d.cfg.LockPath(st.plan.OutputRoot))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "driver", "lock", st.plan.OutputRoot, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "driver", "lock",
			fmt.Sprintf("another run is exporting into %s", st.plan.OutputRoot), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release output lock", "lock_release_failed",
				logging.String("path", lock.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no run is active"),
			)
		}
	}()

	report = &Report{
		RunID:      runID,
		Source:     sourcePath,
		BaseName:   st.plan.BaseName,
		OutputRoot: st.plan.OutputRoot,
		Mode:       pre.Mode,
		Label:      label,
		Started:    started,
		Planned:    len(matrix),
	}
	d.observer.RunStarted(runID, len(matrix))
	logger.Info("run started",
		logging.String("source", sourcePath),
		logging.String("mode", string(pre.Mode)),
		logging.String("output_root", st.plan.OutputRoot),
		logging.Int("planned", len(matrix)),
	)
	defer func() {
		if err := d.restoreSource(ctx, st); err != nil {
			runErr = errors.Join(runErr, err)
		}
		report.Finished = d.now()
		d.observer.RunFinished(report)
		logger.Info("run finished",
			logging.Int("files", len(report.Files())),
			logging.Int("failed_units", report.Failed()),
			logging.Duration("duration", report.Finished.Sub(report.Started)),
		)
	}()

	if err := d.prepareSource(ctx, st, pre); err != nil {
		return report, err
	}
	if st.masthead != nil {
		report.Warnings = append(report.Warnings, st.masthead.Warnings...)
	}

	units := matrix.Units()
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			for _, rest := range units[i:] {
				skipped := UnitResult{Unit: rest.Name(), Family: rest.Family, Status: UnitSkipped, Err: err}
				report.Units = append(report.Units, skipped)
				d.observer.UnitFinished(skipped)
			}
			return report, err
		}
		result := d.runUnit(ctx, st, unit)
		report.Units = append(report.Units, result)
		d.observer.UnitFinished(result)
	}
	return report, nil
}

func (d *Driver) resolveLabel(ctx context.Context) (string, error) {
	if !d.plan.NeedsLabel() {
		return strings.TrimSpace(d.cfg.Label), nil
	}
	label := strings.TrimSpace(d.cfg.Label)
	if label == "" && d.interaction != nil {
		answer, err := d.interaction.PromptLabel(ctx, "Masthead label")
		if err != nil {
			return "", services.Wrap(services.ErrAborted, "driver", "label", "prompt failed", err)
		}
		label = strings.TrimSpace(answer)
	}
	if label == "" {
		return "", services.Wrap(services.ErrValidation, "driver", "label",
			"a label is required for masthead and expressive variants", nil)
	}
	return label, nil
}

// prepareSource groups the icon artwork and, when the masthead is wanted,
// lays out the masthead artboard. A masthead failure is kept on the state so
// that only masthead units fail.
func (d *Driver) prepareSource(ctx context.Context, st *runState, pre Preflight) error {
	source := st.source
	boards := source.Artboards()
	st.iconBoard = boards[0]

	icon, err := source.Group(pre.Selection)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "driver", "group icon", "", err)
	}
	st.icon = icon
	st.iconOffset = geometry.Offset(icon.Bounds().Corner(), st.iconBoard.Corner())

	if !st.plan.Wants(Masthead) {
		return nil
	}
	st.saveSource = true
	switch st.mode {
	case ModeFresh:
		a0 := st.iconBoard
		rect := geometry.ToHostRect(a0.Right+d.cfg.Source.Gutter, -a0.Top, d.cfg.Source.MastheadWidth, d.cfg.Source.MastheadHeight)
		if _, err := source.AddArtboard(rect); err != nil {
			st.mastheadErr = services.Wrap(services.ErrExternalTool, "driver", "masthead artboard", "", err)
			return nil
		}
	case ModeRebuild:
		if err := source.ClearArtboard(1); err != nil {
			st.mastheadErr = services.Wrap(services.ErrExternalTool, "driver", "clear masthead", "", err)
			return nil
		}
	}

	text, _ := d.palette.Role(palette.RoleText)
	m, err := d.composer.ComposeMasthead(ctx, source, icon, 0, 1, composer.MastheadSpec{
		Label:         st.label,
		Font:          d.cfg.Masthead.Font,
		FontSize:      d.cfg.Masthead.FontSize,
		Fill:          text.RGB,
		BaselineRatio: d.cfg.Masthead.BaselineRatio,
		TextGapRatio:  d.cfg.Masthead.TextGapRatio,
		Height:        d.cfg.Source.MastheadHeight,
	})
	if err != nil {
		st.mastheadErr = err
		return nil
	}
	st.masthead = &m
	return nil
}

// restoreSource ungroups what the run grouped and saves the source so that a
// later run detects the masthead artboard.
func (d *Driver) restoreSource(ctx context.Context, st *runState) error {
	logger := logging.WithContext(ctx, d.logger)
	groups := []scenegraph.Node{st.icon}
	if st.masthead != nil {
		groups = append(groups, st.masthead.Icon)
	}
	for _, group := range groups {
		if group == nil || group.Kind() != scenegraph.KindGroup {
			continue
		}
		if _, err := st.source.Ungroup(group); err != nil {
			logging.WarnWithContext(logger, "failed to ungroup source artwork", "ungroup_failed",
				logging.String("node", group.ID()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "source artwork stays grouped"),
			)
		}
	}
	if !st.saveSource {
		return nil
	}
	if err := st.source.Save(context.WithoutCancel(ctx)); err != nil {
		return services.Wrap(services.ErrExternalTool, "driver", "save source", st.sourcePath, err)
	}
	return nil
}

// runUnit produces one unit's files. Panics and errors are confined to the
// unit; the scratch document is disposed either way.
func (d *Driver) runUnit(ctx context.Context, st *runState, unit Unit) (result UnitResult) {
	ctx = services.WithVariant(ctx, strings.ToLower(unit.Family.String()))
	ctx = services.WithColorSpace(ctx, unit.ColorSpace.String())
	logger := logging.WithContext(ctx, d.logger)
	start := d.now()
	result = UnitResult{Unit: unit.Name(), Family: unit.Family, Status: UnitSucceeded}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("panic: %v", r)
		}
		result.Duration = d.now().Sub(start)
		if result.Err == nil {
			logger.Info("unit completed",
				logging.Int("files", len(result.Files)),
				logging.Duration("duration", result.Duration),
			)
			return
		}
		result.Status = UnitFailed
		result.Err = services.Wrap(services.ErrVariantFailure, "driver", unit.Name(), "", result.Err)
		logging.ErrorWithContext(logger, "unit failed", "variant_failed",
			logging.Error(result.Err),
			logging.Int("files", len(result.Files)),
			logging.String(logging.FieldErrorHint, "other variants were still exported; rerun after fixing the cause"),
		)
	}()

	result.Err = d.produce(ctx, st, unit, &result)
	return result
}

func (d *Driver) produce(ctx context.Context, st *runState, unit Unit, result *UnitResult) error {
	if unit.Family == FamilyMasthead && st.masthead == nil {
		if st.mastheadErr != nil {
			return st.mastheadErr
		}
		return services.Wrap(services.ErrOrdering, "driver", "masthead", "masthead was not composed", nil)
	}

	label := st.label
	if unit.Textless {
		label = ""
	}
	expressive := d.expressiveSpec(label)
	var board geometry.Rect
	switch unit.Family {
	case FamilyCore:
		board = st.iconBoard
	case FamilyMasthead:
		board = st.masthead.Artboard
	case FamilyExpressive:
		board = expressive.BannerRect()
	}

	doc, err := d.composer.DeriveArtboardDocument(ctx, board, unit.ColorSpace)
	if err != nil {
		return err
	}
	scratch := NewScratch(doc, unit.Family.Base(), unit.Jobs, func(doc scenegraph.Document) {
		d.composer.DisposeDocument(ctx, doc)
	})
	defer scratch.Dispose()

	switch unit.Family {
	case FamilyCore:
		// The scratch document is empty and the icon is one group, so either end
		// of the stack gives the same order in both spaces.
		if _, err := d.composer.PlaceAtOffset(st.icon, doc, 0, st.iconOffset, scenegraph.PlaceLast); err != nil {
			return err
		}
	case FamilyMasthead:
		m := st.masthead
		if _, err := d.composer.PlaceAtOffset(m.Icon, doc, 0, m.IconOffset, scenegraph.PlaceLast); err != nil {
			return err
		}
		if _, err := d.composer.PlaceAtOffset(m.Text, doc, 0, m.TextOffset, scenegraph.PlaceFirst); err != nil {
			return err
		}
	case FamilyExpressive:
		warnings, err := d.composer.ComposeExpressive(ctx, doc, st.icon, expressive)
		if err != nil {
			return err
		}
		result.Warnings = append(result.Warnings, warnings...)
	}

	if unit.ColorSpace == palette.CMYK {
		warnings, err := d.convertToCMYK(ctx, scratch)
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			return err
		}
	}
	if err := scratch.MarkComposed(); err != nil {
		return err
	}

	width := doc.Artboards()[0].Width()
	for _, stage := range unit.Family.stages() {
		jobs := stageJobs(unit.Jobs, stage)
		if len(jobs) == 0 {
			continue
		}
		if stage.Recolored() {
			if err := scratch.Recolor(stage, d.recolorFunc(stage, unit.ColorSpace)); err != nil {
				return err
			}
		}
		for _, job := range jobs {
			if err := d.export(ctx, scratch, job, width, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// convertToCMYK remaps the scratch document's fills row by row. The palette
// index is captured from the fills as composed, before any item is changed.
func (d *Driver) convertToCMYK(ctx context.Context, scratch *Scratch) ([]string, error) {
	text, _ := d.palette.Role(palette.RoleText)
	policy, err := recolor.NewMismatchPolicy(d.cfg.Palette.MismatchPolicy,
		recolor.DefaultAnnotation(d.cfg.Masthead.Font, text.CMYK))
	if err != nil {
		return nil, err
	}
	err = scratch.Convert(func(items []scenegraph.PathItem) error {
		index := d.palette.IndexAll(recolor.Fills(items))
		return recolor.RemapIndexedToCMYK(items, d.palette, index, policy.Unmatched)
	})
	if err != nil {
		return nil, err
	}
	warnings, err := policy.Resolve(scratch.Document())
	if len(policy.Colors()) > 0 {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "unmatched colors in artwork", "palette_mismatch",
			logging.Int("colors", len(policy.Colors())),
			logging.String("policy", d.cfg.Palette.MismatchPolicy),
			logging.String(logging.FieldErrorHint, "recolor the artwork with palette colors"),
			logging.String(logging.FieldImpact, "CMYK output keeps the unmatched colors"),
		)
	}
	return warnings, err
}

func (d *Driver) recolorFunc(stage Variant, space palette.ColorSpace) func([]scenegraph.PathItem) {
	switch stage {
	case Inverse:
		violet, _ := d.palette.Role(palette.RoleViolet)
		white, _ := d.palette.Role(palette.RoleWhite)
		from, to := violet.In(space), white.In(space)
		match := recolor.MatcherFor(space)
		return func(items []scenegraph.PathItem) {
			recolor.ReplaceMatching(items, from, to, match)
		}
	case Inactive:
		gray, _ := d.palette.Role(palette.RoleGray)
		fill := gray.In(space)
		opacity := d.cfg.Palette.InactiveOpacity
		return func(items []scenegraph.PathItem) {
			recolor.ForceAll(items, fill, opacity)
		}
	default:
		return func([]scenegraph.PathItem) {}
	}
}

func (d *Driver) export(ctx context.Context, scratch *Scratch, job ExportJob, width float64, result *UnitResult) error {
	scale := 100.0
	if job.Size != nil && width > 0 {
		scale = 100 * float64(*job.Size) / width
	}
	opts := scenegraph.ExportOptions{
		Format:       job.Format,
		Artboard:     0,
		ScalePercent: scale,
		Transparent:  d.cfg.Export.PNGTransparent,
		Antialias:    true,
		Quality:      d.cfg.Export.JPEGQuality,
	}
	start := d.now()
	if err := scratch.Export(ctx, job, opts); err != nil {
		return services.Wrap(services.ErrExternalTool, "driver", "export", filepath.Base(job.Path), err)
	}
	file := ExportedFile{Job: job, Duration: d.now().Sub(start)}
	result.Files = append(result.Files, file)
	d.observer.FileExported(file)
	logging.WithContext(ctx, d.logger).Info("export written",
		logging.String("variant", job.Variant.String()),
		logging.String("format", string(job.Format)),
		logging.String("size", job.SizeLabel()),
		logging.String("path", job.Path),
	)
	return nil
}

func (d *Driver) expressiveSpec(label string) composer.ExpressiveSpec {
	e := d.cfg.Expressive
	white, _ := d.palette.Role(palette.RoleWhite)
	var bg palette.Color
	if len(e.Background) == 3 {
		bg = palette.NewRGB(float64(e.Background[0]), float64(e.Background[1]), float64(e.Background[2]))
	}
	return composer.ExpressiveSpec{
		Width:       e.Width,
		Height:      e.Height,
		Background:  bg,
		LandingZone: geometry.ToHostRect(e.LandingZone.X, e.LandingZone.Y, e.LandingZone.Width, e.LandingZone.Height),
		TextZone:    geometry.ToHostRect(e.TextZone.X, e.TextZone.Y, e.TextZone.Width, e.TextZone.Height),
		Label:       label,
		Font:        d.cfg.Masthead.Font,
		FontSize:    e.FontSize,
		TextFill:    white.RGB,
	}
}

func stageJobs(jobs []ExportJob, v Variant) []ExportJob {
	var out []ExportJob
	for _, job := range jobs {
		if job.Variant == v {
			out = append(out, job)
		}
	}
	return out
}
