package exportmatrix

import (
	"errors"
	"fmt"
	"time"
)

// UnitStatus is the outcome of one scratch-document unit.
type UnitStatus string

const (
	UnitSucceeded UnitStatus = "succeeded"
	UnitFailed    UnitStatus = "failed"
	UnitSkipped   UnitStatus = "skipped"
)

// ExportedFile is one written file.
type ExportedFile struct {
	Job      ExportJob
	Duration time.Duration
}

// UnitResult records what one unit produced.
type UnitResult struct {
	Unit     string
	Family   Family
	Status   UnitStatus
	Files    []ExportedFile
	Warnings []string
	Err      error
	Duration time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Source     string
	BaseName   string
	OutputRoot string
	Mode       Mode
	Label      string
	Started    time.Time
	Finished   time.Time
	Planned    int
	Units      []UnitResult
	Warnings   []string
}

// Files returns every written file across units in order.
func (r *Report) Files() []ExportedFile {
	var out []ExportedFile
	for _, unit := range r.Units {
		out = append(out, unit.Files...)
	}
	return out
}

// Failed counts units that did not succeed.
func (r *Report) Failed() int {
	n := 0
	for _, unit := range r.Units {
		if unit.Status != UnitSucceeded {
			n++
		}
	}
	return n
}

// Err joins the unit errors. It is nil when every unit succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, unit := range r.Units {
		if unit.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", unit.Unit, unit.Err))
		}
	}
	return errors.Join(errs...)
}

// AllWarnings returns run-level warnings followed by unit warnings.
func (r *Report) AllWarnings() []string {
	out := append([]string(nil), r.Warnings...)
	for _, unit := range r.Units {
		for _, w := range unit.Warnings {
			out = append(out, unit.Unit+": "+w)
		}
	}
	return out
}

// Observer receives run progress. Implementations must not block.
type Observer interface {
	RunStarted(runID string, planned int)
	FileExported(file ExportedFile)
	UnitFinished(result UnitResult)
	RunFinished(report *Report)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunStarted(string, int)    {}
func (NopObserver) FileExported(ExportedFile) {}
func (NopObserver) UnitFinished(UnitResult)   {}
func (NopObserver) RunFinished(*Report)       {}

// MultiObserver forwards every event to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) RunStarted(runID string, planned int) {
	for _, o := range m {
		o.RunStarted(runID, planned)
	}
}

func (m MultiObserver) FileExported(file ExportedFile) {
	for _, o := range m {
		o.FileExported(file)
	}
}

func (m MultiObserver) UnitFinished(result UnitResult) {
	for _, o := range m {
		o.UnitFinished(result)
	}
}

func (m MultiObserver) RunFinished(report *Report) {
	for _, o := range m {
		o.RunFinished(report)
	}
}
