package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one human-oriented line per record:
//
//	2026-01-02T15:04:05Z INFO [driver] core/RGB export written size_px=256
//
// Component, variant and color space are lifted out of the key/value tail
// into the line prefix.
type consoleHandler struct {
	out    *syncWriter
	level  slog.Leveler
	source bool
	group  string
	tags   lineTags
	fields []field
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

type lineTags struct {
	component string
	variant   string
	space     string
}

// absorb claims attrs that belong in the prefix. First value wins.
func (t *lineTags) absorb(key string, v slog.Value) bool {
	var slot *string
	switch key {
	case FieldComponent:
		slot = &t.component
	case FieldVariant:
		slot = &t.variant
	case FieldColorSpace:
		slot = &t.space
	default:
		return false
	}
	if *slot == "" {
		*slot = plainText(v)
	}
	return true
}

func (t lineTags) subject() string {
	variant := strings.TrimSpace(t.variant)
	space := strings.ToUpper(strings.TrimSpace(t.space))
	if variant != "" && space != "" {
		return variant + "/" + space
	}
	return variant + space
}

type field struct {
	key  string
	text string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) *consoleHandler {
	return &consoleHandler{out: &syncWriter{w: w}, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	tags := h.tags
	fields := append([]field(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = collect(fields, &tags, h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelName(r.Level))
	if tags.component != "" {
		fmt.Fprintf(&b, " [%s]", tags.component)
	}
	if s := tags.subject(); s != "" {
		b.WriteByte(' ')
		b.WriteString(s)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	if h.source && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(f.text)
	}
	b.WriteByte('\n')
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		next.fields = collect(next.fields, &next.tags, h.group, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

// collect renders a into fields, flattening groups into dotted keys.
func collect(fields []field, tags *lineTags, group string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := group
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			fields = collect(fields, tags, inner, member)
		}
		return fields
	}
	key := group + a.Key
	if key == "" {
		return fields
	}
	if group == "" && tags.absorb(key, a.Value) {
		return fields
	}
	return append(fields, field{key: strings.TrimSuffix(key, "."), text: quoted(a.Value)})
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// plainText renders v without quoting.
func plainText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

func quoted(v slog.Value) string {
	s := plainText(v)
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
