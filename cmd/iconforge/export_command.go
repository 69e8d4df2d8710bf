package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"iconforge/internal/config"
	"iconforge/internal/exportmatrix"
	"iconforge/internal/logging"
	"iconforge/internal/metrics"
	"iconforge/internal/runstore"
	"iconforge/internal/scenegraph/canvas"
	"iconforge/internal/services"
)

type exportFlags struct {
	label     string
	output    string
	assumeYes bool
	dryRun    bool
	json      bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <source>...",
		Short: "Export every configured variant of one or more source documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runCfg, err := applyExportFlags(cfg, flags)
			if err != nil {
				return err
			}
			sources := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				sources = append(sources, path)
			}
			if flags.dryRun {
				return printPlan(cmd, runCfg, logger, sources)
			}
			return runExports(cmd, runCfg, logger, sources, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.label, "label", "l", "", "Masthead and banner label (skips the prompt)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Export root (default: next to each source)")
	cmd.Flags().BoolVarP(&flags.assumeYes, "yes", "y", false, "Rebuild existing masthead artboards without asking")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "List the files a run would write and exit")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print run results as JSON")
	return cmd
}

func applyExportFlags(cfg *config.Config, flags exportFlags) (*config.Config, error) {
	runCfg := *cfg
	if label := strings.TrimSpace(flags.label); label != "" {
		runCfg.Label = label
	}
	if output := strings.TrimSpace(flags.output); output != "" {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return nil, fmt.Errorf("resolve output path: %w", err)
		}
		runCfg.Paths.OutputDir = expanded
	}
	return &runCfg, nil
}

func printPlan(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, sources []string) error {
	engine := canvas.NewService(canvas.Options{FontDirs: cfg.Masthead.FontDirs, Logger: logger})
	driver, err := exportmatrix.NewDriver(cfg, exportmatrix.Options{Engine: engine, Logger: logger})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, source := range sources {
		doc, err := engine.Open(cmd.Context(), source)
		if err != nil {
			return fmt.Errorf("open %s: %w", source, err)
		}
		name := doc.Name()
		_ = doc.Close()
		matrix := driver.Plan(source, name)
		fmt.Fprintf(out, "%s (%d files)\n", source, len(matrix))
		for _, path := range matrix.Paths() {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
	return nil
}

func runExports(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, sources []string, flags exportFlags) error {
	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	observers := exportmatrix.MultiObserver{}
	if !flags.json {
		observers = append(observers, progressObserver{out: cmd.ErrOrStderr()})
	}
	var meter *metrics.Metrics
	if cfg.Metrics.Textfile != "" {
		m, err := metrics.New()
		if err != nil {
			return err
		}
		meter = m
		defer func() { _ = meter.Shutdown(context.WithoutCancel(runCtx)) }()
		observers = append(observers, meter)
	}

	engine := canvas.NewService(canvas.Options{FontDirs: cfg.Masthead.FontDirs, Logger: logger})
	driver, err := exportmatrix.NewDriver(cfg, exportmatrix.Options{
		Engine:      engine,
		Interaction: newInteraction(cmd),
		Logger:      logger,
		Observer:    observers,
		AssumeYes:   flags.assumeYes,
	})
	if err != nil {
		return err
	}

	store := openHistory(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	var (
		results  []exportResult
		failures []error
		declined []error
	)
	for _, source := range sources {
		report, runErr := driver.Run(runCtx, source)
		recordRun(context.WithoutCancel(runCtx), store, logger, source, report, runErr)
		results = append(results, newExportResult(source, report, runErr))

		switch {
		case errors.Is(runErr, services.ErrAborted):
			declined = append(declined, fmt.Errorf("%s: %w", source, runErr))
		case runErr != nil:
			failures = append(failures, fmt.Errorf("%s: %w", source, runErr))
		case report.Failed() > 0:
			failures = append(failures, fmt.Errorf("%s: %d of %d units failed: %w",
				source, report.Failed(), len(report.Units), report.Err()))
		}
		if !flags.json {
			renderReport(cmd.OutOrStdout(), source, report, runErr)
		}
		if runCtx.Err() != nil {
			break
		}
	}

	if meter != nil {
		if err := meter.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logging.WarnWithContext(logger, "metrics not written", "metrics_write_failed",
				logging.String("path", cfg.Metrics.Textfile),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.textfile points at a writable directory"),
			)
		}
	}
	if flags.json {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	return errors.Join(declined...)
}

func openHistory(cfg *config.Config, logger *slog.Logger) *runstore.Store {
	store, err := runstore.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in `iconforge history`"),
		)
		return nil
	}
	return store
}

func recordRun(ctx context.Context, store *runstore.Store, logger *slog.Logger, source string, report *exportmatrix.Report, runErr error) {
	if store == nil {
		return
	}
	run, exports := runstore.FromReport(source, report, runErr, time.Now())
	if err := store.Record(ctx, run, exports); err != nil {
		logging.WarnWithContext(logger, "run not recorded", "history_record_failed",
			logging.String("run_id", run.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in `iconforge history`"),
		)
	}
}

type exportResult struct {
	Source     string   `json:"source"`
	RunID      string   `json:"run_id,omitempty"`
	Status     string   `json:"status"`
	Mode       string   `json:"mode,omitempty"`
	OutputRoot string   `json:"output_root,omitempty"`
	Planned    int      `json:"planned"`
	Files      []string `json:"files"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
	ErrorKind  string   `json:"error_kind,omitempty"`
}

func newExportResult(source string, report *exportmatrix.Report, runErr error) exportResult {
	result := exportResult{
		Source: source,
		Status: string(runstore.StatusFor(report, runErr)),
		Files:  []string{},
	}
	if report != nil {
		result.RunID = report.RunID
		result.Mode = string(report.Mode)
		result.OutputRoot = report.OutputRoot
		result.Planned = report.Planned
		result.Warnings = report.AllWarnings()
		for _, file := range report.Files() {
			result.Files = append(result.Files, file.Job.Path)
		}
	}
	errForResult := runErr
	if errForResult == nil && report != nil {
		errForResult = report.Err()
	}
	if errForResult != nil {
		result.Error = errForResult.Error()
		result.ErrorKind = services.Kind(errForResult)
	}
	return result
}

func renderReport(out io.Writer, source string, report *exportmatrix.Report, runErr error) {
	if report == nil {
		if errors.Is(runErr, services.ErrAborted) {
			fmt.Fprintf(out, "%s: nothing exported (%v)\n", source, runErr)
			return
		}
		fmt.Fprintf(out, "%s: rejected: %v\n", source, runErr)
		return
	}

	header := fmt.Sprintf("%s -> %s (%s)", source, report.OutputRoot, report.Mode)
	if report.Label != "" {
		header += fmt.Sprintf(" label %q", report.Label)
	}
	fmt.Fprintln(out, header)

	rows := make([][]string, 0, len(report.Units))
	for _, unit := range report.Units {
		errText := ""
		if unit.Err != nil {
			errText = unit.Err.Error()
		}
		rows = append(rows, []string{
			unit.Unit,
			string(unit.Status),
			strconv.Itoa(len(unit.Files)),
			unit.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Unit", "Status", "Files", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))

	elapsed := report.Finished.Sub(report.Started).Round(time.Millisecond)
	fmt.Fprintf(out, "%d of %d files written in %s\n", len(report.Files()), report.Planned, elapsed)
	if warnings := report.AllWarnings(); len(warnings) > 0 {
		fmt.Fprintln(out, "Warnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	if runErr != nil {
		fmt.Fprintf(out, "Run error: %v\n", runErr)
	}
}

// progressObserver prints one line per written file.
type progressObserver struct {
	exportmatrix.NopObserver
	out io.Writer
}

func (p progressObserver) FileExported(file exportmatrix.ExportedFile) {
	fmt.Fprintf(p.out, "  wrote %s\n", file.Job.Path)
}
