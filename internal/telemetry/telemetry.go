// Copyright (c) 2025 Justin Cranford

// Package telemetry builds the structured logger shared by every
// paporg component. The shape mirrors the teacher's
// cryptoutil/internal/telemetry.TelemetryService: a long-lived struct
// holding a *slog.Logger and a start time, constructed once and
// threaded through the rest of the system by reference rather than
// read from a package-level global.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	slogmulti "github.com/samber/slog-multi"

	paporgMagic "github.com/iperka/paporg-sub000/internal/magic"
)

// Service is the process-wide logging handle. Fields are exported so
// callers can attach extra attributes (e.g. "job_id") via
// Service.Slogger.With(...).
type Service struct {
	Slogger   *slog.Logger
	StartTime time.Time

	logFile io.Closer
}

// Options configures New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// LogDir, if non-empty, receives a JSON-formatted log file in
	// addition to the human-readable stdout handler.
	LogDir string
	// Component is attached to every log line ("service"="paporg",
	// "component"=Component).
	Component string
}

func levelFromString(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New constructs a Service with a stdout text handler and, when
// opts.LogDir is set, a fan-out JSON file handler built with
// samber/slog-multi — the same dependency the teacher pulls for
// multi-handler logging.
func New(opts Options) (*Service, error) {
	level := levelFromString(opts.Level)
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, paporgMagic.DefaultDirPermissions); err != nil {
			return nil, fmt.Errorf("telemetry: creating log dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(opts.LogDir, "paporg.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, paporgMagic.DefaultFilePermissions)
		if err != nil {
			return nil, fmt.Errorf("telemetry: opening log file: %w", err)
		}
		closer = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	fanout := slogmulti.Fanout(handlers...)
	component := opts.Component
	if component == "" {
		component = paporgMagic.ServiceName
	}
	logger := slog.New(fanout).With("service", paporgMagic.ServiceName, "component", component)

	return &Service{Slogger: logger, StartTime: time.Now(), logFile: closer}, nil
}

// RequireNewForTest builds a Service suitable for tests: stdout only,
// debug level, no file handler. Mirrors the teacher's
// RequireNewForTest(ctx, name, ...) test-construction idiom.
func RequireNewForTest(name string) *Service {
	svc, err := New(Options{Level: "debug", Component: name})
	if err != nil {
		panic(fmt.Sprintf("telemetry.RequireNewForTest(%q): %v", name, err))
	}
	return svc
}

// Shutdown flushes and closes any open log file.
func (s *Service) Shutdown(_ context.Context) error {
	if s.logFile != nil {
		return s.logFile.Close()
	}
	return nil
}

// Uptime reports elapsed time since New was called, for health/status output.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.StartTime)
}
