// Package fake wraps the canvas engine with an event log and failure
// injection for driver and composer tests. Documents behave exactly like
// canvas documents except that Export records what would have been written
// instead of rendering, unless WriteFiles is set.
package fake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/scenegraph/canvas"
)

// EventKind names a recorded engine call.
type EventKind string

const (
	EventOpen   EventKind = "open"
	EventCreate EventKind = "create"
	EventExport EventKind = "export"
	EventSave   EventKind = "save"
	EventClose  EventKind = "close"
)

// Event is one engine call. Export events carry a snapshot of every path's
// paint at the moment of export, front to back.
type Event struct {
	Kind      EventKind
	Document  string
	Space     palette.ColorSpace
	Path      string
	Options   scenegraph.ExportOptions
	Fills     []palette.Color
	Opacities []float64
}

// Service is a scenegraph.Service backed by canvas.
type Service struct {
	engine *canvas.Service

	// WriteFiles makes Export render real files through canvas.
	WriteFiles bool
	// FailCreate makes Create fail for documents in the given space.
	FailCreate map[palette.ColorSpace]error
	// FailExport makes Export fail for any path containing the key.
	FailExport map[string]error
	// PanicExport makes Export panic for any path containing this value.
	PanicExport string
	// FailSave makes Save fail.
	FailSave error

	mu     sync.Mutex
	events []Event
}

var _ scenegraph.Service = (*Service)(nil)

// NewService returns a fake engine using the fallback font only.
func NewService() *Service {
	return &Service{engine: canvas.NewService(canvas.Options{})}
}

// Engine exposes the wrapped canvas service.
func (s *Service) Engine() *canvas.Service { return s.engine }

// OpenDocuments reports documents opened or created but not closed.
func (s *Service) OpenDocuments() int { return s.engine.OpenDocuments() }

func (s *Service) Open(ctx context.Context, path string) (scenegraph.Document, error) {
	doc, err := s.engine.OpenDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	s.record(Event{Kind: EventOpen, Document: doc.Name(), Space: doc.ColorSpace(), Path: path})
	return &Document{Document: doc, svc: s}, nil
}

func (s *Service) Create(ctx context.Context, spec scenegraph.DocumentSpec) (scenegraph.Document, error) {
	if err := s.FailCreate[spec.ColorSpace]; err != nil {
		return nil, err
	}
	doc, err := s.engine.CreateDocument(ctx, spec)
	if err != nil {
		return nil, err
	}
	s.record(Event{Kind: EventCreate, Document: doc.Name(), Space: doc.ColorSpace()})
	return &Document{Document: doc, svc: s}, nil
}

// Events returns a copy of the log.
func (s *Service) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Exports returns only export events.
func (s *Service) Exports() []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Kind == EventExport {
			out = append(out, e)
		}
	}
	return out
}

// ExportPaths lists exported paths in call order.
func (s *Service) ExportPaths() []string {
	var out []string
	for _, e := range s.Exports() {
		out = append(out, e.Path)
	}
	return out
}

func (s *Service) record(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

// Document is a canvas document with recorded lifecycle calls.
type Document struct {
	*canvas.Document
	svc *Service
}

func (d *Document) Export(ctx context.Context, path string, opts scenegraph.ExportOptions) error {
	if d.Closed() {
		return canvas.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.svc.PanicExport != "" && strings.Contains(path, d.svc.PanicExport) {
		panic(fmt.Sprintf("injected export panic for %s", path))
	}
	for key, err := range d.svc.FailExport {
		if strings.Contains(path, key) {
			return err
		}
	}
	if opts.Artboard < 0 || opts.Artboard >= len(d.Artboards()) {
		return fmt.Errorf("artboard %d out of range", opts.Artboard)
	}
	event := Event{Kind: EventExport, Document: d.Name(), Space: d.ColorSpace(), Path: path, Options: opts}
	for _, item := range d.PathItems() {
		event.Fills = append(event.Fills, item.Fill())
		event.Opacities = append(event.Opacities, item.Opacity())
	}
	if d.svc.WriteFiles {
		if err := d.Document.Export(ctx, path, opts); err != nil {
			return err
		}
	}
	d.svc.record(event)
	return nil
}

func (d *Document) Save(ctx context.Context) error {
	if d.svc.FailSave != nil {
		return d.svc.FailSave
	}
	if err := d.Document.Save(ctx); err != nil {
		return err
	}
	d.svc.record(Event{Kind: EventSave, Document: d.Name(), Space: d.ColorSpace(), Path: d.Path()})
	return nil
}

func (d *Document) Close() error {
	if d.Closed() {
		return nil
	}
	d.svc.record(Event{Kind: EventClose, Document: d.Name(), Space: d.ColorSpace()})
	return d.Document.Close()
}

// Interaction answers prompts from fixed values and counts calls.
type Interaction struct {
	Label      string
	LabelErr   error
	Accept     bool
	ConfirmErr error

	mu       sync.Mutex
	prompts  int
	confirms int
}

var _ scenegraph.Interaction = (*Interaction)(nil)

// ErrNoLabel is returned by PromptLabel when no label is configured.
var ErrNoLabel = errors.New("no label configured")

func (i *Interaction) PromptLabel(ctx context.Context, _ string) (string, error) {
	i.mu.Lock()
	i.prompts++
	i.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if i.LabelErr != nil {
		return "", i.LabelErr
	}
	if i.Label == "" {
		return "", ErrNoLabel
	}
	return i.Label, nil
}

func (i *Interaction) Confirm(ctx context.Context, _ string) (bool, error) {
	i.mu.Lock()
	i.confirms++
	i.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return i.Accept, i.ConfirmErr
}

// Prompts returns how many times PromptLabel was called.
func (i *Interaction) Prompts() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.prompts
}

// Confirms returns how many times Confirm was called.
func (i *Interaction) Confirms() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.confirms
}
