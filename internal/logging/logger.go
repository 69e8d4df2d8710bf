package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"iconforge/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// Format is "console" (default) or "json".
	Format string
	// OutputPaths lists destinations; "stdout" and "stderr" name the streams,
	// anything else is a file opened for append. Empty means stderr.
	OutputPaths []string
	Development bool
}

// LogFileName is the file written under the configured log directory.
const LogFileName = "iconforge.log"

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(opts.Level))]
	if !ok {
		level = slog.LevelInfo
	}
	source := opts.Development || level <= slog.LevelDebug

	var build func(io.Writer, slog.Leveler, bool) slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		build = func(w io.Writer, l slog.Leveler, s bool) slog.Handler { return newConsoleHandler(w, l, s) }
	case "json":
		build = newJSONHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := openSinks(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	return slog.New(build(out, level, source)), nil
}

// NewFromConfig creates a logger from the logging section of cfg. When a log
// directory is configured, lines go to stderr and to LogFileName inside it.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	paths := []string{"stderr"}
	if dir := cfg.Paths.LogDir; dir != "" {
		paths = append(paths, filepath.Join(dir, LogFileName))
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, OutputPaths: paths})
}

func openSinks(paths []string) (io.Writer, error) {
	var sinks []io.Writer
	opened := make(map[string]bool, len(paths))
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" || opened[path] {
			continue
		}
		opened[path] = true
		sink, err := openSink(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	switch len(sinks) {
	case 0:
		return os.Stderr, nil
	case 1:
		return sinks[0], nil
	}
	return io.MultiWriter(sinks...), nil
}

func openSink(path string) (io.Writer, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
