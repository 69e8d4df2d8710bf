package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"iconforge/internal/logging"
	"iconforge/internal/scenegraph"
)

// Options configures a Service.
type Options struct {
	FontDirs []string
	Logger   *slog.Logger
}

// Service opens and creates canvas documents and tracks how many are open.
type Service struct {
	fonts  *FontBook
	logger *slog.Logger

	mu      sync.Mutex
	open    int
	created int
}

var _ scenegraph.Service = (*Service)(nil)

// NewService builds a canvas engine.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		fonts:  NewFontBook(opts.FontDirs),
		logger: logging.NewComponentLogger(logger, "canvas"),
	}
}

// Fonts exposes the font book.
func (s *Service) Fonts() *FontBook { return s.fonts }

// Open loads a source document from a TOML file.
func (s *Service) Open(ctx context.Context, path string) (scenegraph.Document, error) {
	return s.OpenDocument(ctx, path)
}

// OpenDocument is Open returning the concrete type.
func (s *Service) OpenDocument(_ context.Context, path string) (*Document, error) {
	doc, err := loadDocument(s, path)
	if err != nil {
		return nil, err
	}
	s.track(1)
	s.logger.Debug("document opened", logging.String("path", path), logging.Int("items", len(doc.items)))
	return doc, nil
}

// Create returns a new empty document with no artboards.
func (s *Service) Create(ctx context.Context, spec scenegraph.DocumentSpec) (scenegraph.Document, error) {
	return s.CreateDocument(ctx, spec)
}

// CreateDocument is Create returning the concrete type.
func (s *Service) CreateDocument(_ context.Context, spec scenegraph.DocumentSpec) (*Document, error) {
	units := strings.TrimSpace(spec.Units)
	if units == "" {
		units = scenegraph.UnitsPixels
	}
	if units != scenegraph.UnitsPixels {
		return nil, fmt.Errorf("unsupported units %q", spec.Units)
	}
	s.mu.Lock()
	s.created++
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("Untitled-%d", s.created)
	}
	s.mu.Unlock()
	s.track(1)
	return &Document{svc: s, name: name, space: spec.ColorSpace, units: units}, nil
}

// OpenDocuments returns the number of documents not yet closed.
func (s *Service) OpenDocuments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Service) track(delta int) {
	s.mu.Lock()
	s.open += delta
	s.mu.Unlock()
}
