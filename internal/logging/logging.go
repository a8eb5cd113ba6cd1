// Package logging sets up the two log streams of a janitor run: the run log,
// which records every decision and outcome, and the audit log, which records
// the id of every enumerated entity.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const fileTimestamp = "2006-01-02_15-04-05"

// Options configures a Run.
type Options struct {
	// Dir receives both log files. It is created if missing.
	Dir string
	// Verbose mirrors the run log to Stderr.
	Verbose bool
	Stderr  io.Writer
	Level   slog.Level
	Now     func() time.Time
}

// Run holds the loggers of one invocation. Every record carries the run id.
type Run struct {
	ID        string
	Logger    *slog.Logger
	Audit     *slog.Logger
	LogPath   string
	AuditPath string

	files []*os.File
}

// Open creates janitor_<ts>.log and entity_ids_<ts>.log under opts.Dir.
func Open(opts Options) (*Run, error) {
	if opts.Dir == "" {
		return nil, errors.New("log directory is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	ts := opts.Now().Format(fileTimestamp)
	run := &Run{
		ID:        uuid.NewString(),
		LogPath:   filepath.Join(opts.Dir, "janitor_"+ts+".log"),
		AuditPath: filepath.Join(opts.Dir, "entity_ids_"+ts+".log"),
	}

	logFile, err := run.create(run.LogPath)
	if err != nil {
		return nil, err
	}
	auditFile, err := run.create(run.AuditPath)
	if err != nil {
		run.Close()
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler = slog.NewTextHandler(logFile, handlerOpts)
	if opts.Verbose {
		handler = &multiHandler{handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(opts.Stderr, handlerOpts),
		}}
	}

	run.Logger = slog.New(handler).With("run_id", run.ID)
	run.Audit = slog.New(slog.NewTextHandler(auditFile, handlerOpts)).With("run_id", run.ID)
	return run, nil
}

// Discard returns a Run whose loggers write nowhere.
func Discard() *Run {
	return &Run{
		ID:     uuid.NewString(),
		Logger: slog.New(slog.DiscardHandler),
		Audit:  slog.New(slog.DiscardHandler),
	}
}

func (r *Run) create(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	r.files = append(r.files, f)
	return f, nil
}

// Close syncs and closes the log files.
func (r *Run) Close() error {
	var errs []error
	for _, f := range r.files {
		if err := f.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", f.Name(), err))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", f.Name(), err))
		}
	}
	r.files = nil
	return errors.Join(errs...)
}

type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
