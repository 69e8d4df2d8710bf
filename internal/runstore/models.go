package runstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"iconforge/internal/exportmatrix"
	"iconforge/internal/services"
)

// Status is the recorded outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	// StatusPartial means at least one unit failed and the rest exported.
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
	StatusAborted   Status = "aborted"
	StatusCancelled Status = "cancelled"
)

// Run is one recorded driver run.
type Run struct {
	ID           string
	SourcePath   string
	BaseName     string
	OutputRoot   string
	Mode         string
	Label        string
	Status       Status
	ErrorKind    string
	ErrorMessage string
	Planned      int
	Exported     int
	FailedUnits  int
	Warnings     []string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Export is one written file.
type Export struct {
	ID         int64
	RunID      string
	Unit       string
	Variant    string
	ColorSpace string
	Format     string
	Size       *int
	Path       string
	Duration   time.Duration
}

// StatusFor classifies a run from its report and run-level error. report is
// nil when the run was refused before anything was exported.
func StatusFor(report *exportmatrix.Report, runErr error) Status {
	switch {
	case errors.Is(runErr, services.ErrAborted):
		return StatusAborted
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		return StatusCancelled
	case report == nil:
		if runErr == nil {
			return StatusFailed
		}
		return StatusRejected
	case runErr != nil:
		return StatusFailed
	case report.Failed() > 0:
		return StatusPartial
	default:
		return StatusSucceeded
	}
}

// FromReport converts a finished run into history rows. When report is nil
// the run is recorded from sourcePath and runErr alone, stamped with now.
func FromReport(sourcePath string, report *exportmatrix.Report, runErr error, now time.Time) (Run, []Export) {
	run := Run{
		SourcePath: sourcePath,
		Status:     StatusFor(report, runErr),
		StartedAt:  now,
		FinishedAt: now,
	}
	errForKind := runErr
	if report == nil {
		run.ID = uuid.NewString()
	} else {
		run.ID = report.RunID
		run.BaseName = report.BaseName
		run.OutputRoot = report.OutputRoot
		run.Mode = string(report.Mode)
		run.Label = report.Label
		run.Planned = report.Planned
		run.FailedUnits = report.Failed()
		run.Warnings = report.AllWarnings()
		run.StartedAt = report.Started
		if !report.Finished.IsZero() {
			run.FinishedAt = report.Finished
		}
		if errForKind == nil {
			errForKind = report.Err()
		}
	}
	if errForKind != nil {
		run.ErrorKind = services.Kind(errForKind)
		run.ErrorMessage = errForKind.Error()
	}

	var exports []Export
	if report != nil {
		for _, unit := range report.Units {
			for _, file := range unit.Files {
				exports = append(exports, Export{
					RunID:      run.ID,
					Unit:       unit.Unit,
					Variant:    file.Job.Variant.String(),
					ColorSpace: file.Job.ColorSpace.String(),
					Format:     string(file.Job.Format),
					Size:       file.Job.Size,
					Path:       file.Job.Path,
					Duration:   file.Duration,
				})
			}
		}
	}
	run.Exported = len(exports)
	return run, exports
}
