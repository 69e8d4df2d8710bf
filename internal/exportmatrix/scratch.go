package exportmatrix

import (
	"context"
	"fmt"

	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// ScratchState is a scratch document's lifecycle position.
type ScratchState int

const (
	StateCreated ScratchState = iota
	StateComposed
	StateExported
	StateDisposed
)

func (s ScratchState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateComposed:
		return "composed"
	case StateExported:
		return "exported"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func allowedTransition(from, to ScratchState) bool {
	switch from {
	case StateCreated:
		return to == StateComposed || to == StateDisposed
	case StateComposed:
		return to == StateExported || to == StateDisposed
	case StateExported:
		return to == StateExported || to == StateDisposed
	default:
		return false
	}
}

// Scratch tracks one scratch document through
// Created -> Composed -> Exported(0..n) -> Disposed and refuses any
// destructive recolor while exports of the current color state are pending.
type Scratch struct {
	doc     scenegraph.Document
	state   ScratchState
	stage   Variant
	pending map[Variant]int
	dispose func(scenegraph.Document)
}

// NewScratch wraps a freshly derived document that will serve jobs. The
// document starts in the color state of base. dispose closes it.
func NewScratch(doc scenegraph.Document, base Variant, jobs []ExportJob, dispose func(scenegraph.Document)) *Scratch {
	pending := make(map[Variant]int)
	for _, job := range jobs {
		pending[job.Variant]++
	}
	if dispose == nil {
		dispose = func(d scenegraph.Document) { _ = d.Close() }
	}
	return &Scratch{doc: doc, state: StateCreated, stage: base, pending: pending, dispose: dispose}
}

// Document returns the wrapped document.
func (s *Scratch) Document() scenegraph.Document { return s.doc }

// State returns the lifecycle position.
func (s *Scratch) State() ScratchState { return s.state }

// Stage returns the variant whose colors the document currently holds.
func (s *Scratch) Stage() Variant { return s.stage }

// Pending returns how many exports of v have not run yet.
func (s *Scratch) Pending(v Variant) int { return s.pending[v] }

func (s *Scratch) transition(to ScratchState) error {
	if !allowedTransition(s.state, to) {
		return services.Wrap(services.ErrOrdering, "scratch", "transition",
			fmt.Sprintf("%s -> %s not allowed", s.state, to), nil)
	}
	s.state = to
	return nil
}

// Convert applies a color model conversion that is part of composing the
// document. It is only legal before the document is marked composed.
func (s *Scratch) Convert(fn func(items []scenegraph.PathItem) error) error {
	if s.state != StateCreated {
		return services.Wrap(services.ErrOrdering, "scratch", "convert",
			fmt.Sprintf("conversion after composition (state %s)", s.state), nil)
	}
	return fn(s.doc.PathItems())
}

// MarkComposed records that content is in place.
func (s *Scratch) MarkComposed() error {
	return s.transition(StateComposed)
}

// Export writes job from the current color state.
func (s *Scratch) Export(ctx context.Context, job ExportJob, opts scenegraph.ExportOptions) error {
	if s.state != StateComposed && s.state != StateExported {
		return services.Wrap(services.ErrOrdering, "scratch", "export",
			fmt.Sprintf("export in state %s", s.state), nil)
	}
	if job.Variant != s.stage {
		return services.Wrap(services.ErrOrdering, "scratch", "export",
			fmt.Sprintf("%s export requested while the document holds %s colors", job.Variant, s.stage), nil)
	}
	if err := s.doc.Export(ctx, job.Path, opts); err != nil {
		return err
	}
	s.pending[job.Variant]--
	return s.transition(StateExported)
}

// Recolor moves the document to the color state of to by running fn over
// every path item. Every export of the current state must already be done.
func (s *Scratch) Recolor(to Variant, fn func(items []scenegraph.PathItem)) error {
	if s.state != StateComposed && s.state != StateExported {
		return services.Wrap(services.ErrOrdering, "scratch", "recolor",
			fmt.Sprintf("recolor in state %s", s.state), nil)
	}
	if !to.Recolored() || to <= s.stage {
		return services.Wrap(services.ErrOrdering, "scratch", "recolor",
			fmt.Sprintf("cannot recolor from %s to %s", s.stage, to), nil)
	}
	if n := s.pending[s.stage]; n > 0 {
		return services.Wrap(services.ErrOrdering, "scratch", "recolor",
			fmt.Sprintf("%d %s export(s) still pending before recolor to %s", n, s.stage, to), nil)
	}
	fn(s.doc.PathItems())
	s.stage = to
	return nil
}

// Dispose closes the document. It is idempotent and legal from any state.
func (s *Scratch) Dispose() {
	if s.state == StateDisposed {
		return
	}
	s.state = StateDisposed
	s.dispose(s.doc)
}
