// Package metrics records run metrics through an OpenTelemetry meter backed
// by a private Prometheus registry. A CLI run is short lived, so the registry
// is flushed to a node-exporter textfile instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"iconforge/internal/exportmatrix"
)

// Attribute keys
const (
	attrVariant    = "variant"
	attrColorSpace = "color_space"
	attrFormat     = "format"
	attrFamily     = "family"
	attrStatus     = "status"
)

// Metrics implements exportmatrix.Observer.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	RunsTotal      metric.Int64Counter
	RunsActive     metric.Int64UpDownCounter
	RunDuration    metric.Float64Histogram
	PlannedFiles   metric.Int64Counter
	FilesTotal     metric.Int64Counter
	ExportDuration metric.Float64Histogram
	UnitsTotal     metric.Int64Counter
}

var _ exportmatrix.Observer = (*Metrics)(nil)

// New creates the meter and registers every instrument.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("iconforge")
	m := &Metrics{registry: registry, provider: provider}

	if m.RunsTotal, err = meter.Int64Counter(
		"iconforge_runs",
		metric.WithDescription("Finished export runs by outcome"),
	); err != nil {
		return nil, err
	}
	if m.RunsActive, err = meter.Int64UpDownCounter(
		"iconforge_runs_active",
		metric.WithDescription("Runs currently exporting"),
	); err != nil {
		return nil, err
	}
	if m.RunDuration, err = meter.Float64Histogram(
		"iconforge_run_duration",
		metric.WithDescription("Export run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	); err != nil {
		return nil, err
	}
	if m.PlannedFiles, err = meter.Int64Counter(
		"iconforge_files_planned",
		metric.WithDescription("Files in the export matrix of started runs"),
	); err != nil {
		return nil, err
	}
	if m.FilesTotal, err = meter.Int64Counter(
		"iconforge_files_exported",
		metric.WithDescription("Files written"),
	); err != nil {
		return nil, err
	}
	if m.ExportDuration, err = meter.Float64Histogram(
		"iconforge_export_duration",
		metric.WithDescription("Single file export duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	); err != nil {
		return nil, err
	}
	if m.UnitsTotal, err = meter.Int64Counter(
		"iconforge_units",
		metric.WithDescription("Scratch document units by family and outcome"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) RunStarted(_ string, planned int) {
	ctx := context.Background()
	m.RunsActive.Add(ctx, 1)
	m.PlannedFiles.Add(ctx, int64(planned))
}

func (m *Metrics) FileExported(file exportmatrix.ExportedFile) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String(attrVariant, file.Job.Variant.String()),
		attribute.String(attrColorSpace, file.Job.ColorSpace.String()),
		attribute.String(attrFormat, string(file.Job.Format)),
	)
	m.FilesTotal.Add(ctx, 1, attrs)
	m.ExportDuration.Record(ctx, file.Duration.Seconds(), attrs)
}

func (m *Metrics) UnitFinished(result exportmatrix.UnitResult) {
	m.UnitsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrFamily, result.Family.String()),
		attribute.String(attrStatus, string(result.Status)),
	))
}

func (m *Metrics) RunFinished(report *exportmatrix.Report) {
	ctx := context.Background()
	m.RunsActive.Add(ctx, -1)
	status := "succeeded"
	if report.Failed() > 0 {
		status = "partial"
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
	if !report.Finished.IsZero() {
		m.RunDuration.Record(ctx, report.Finished.Sub(report.Started).Seconds())
	}
}

// WriteTextfile flushes every series to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Registry exposes the backing registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Shutdown stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.provider.Shutdown(ctx)
}
