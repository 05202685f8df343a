// Package logging configures log/slog and carries request context into
// log entries.
//
// Request ids set by chi's RequestID middleware and team ids set by the
// web layer are attached automatically by FromContext, so an import can be
// traced from the HTTP request through every job state it passes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Setup installs the default logger for the given level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) *slog.Logger {
	logger := New(os.Stdout, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w. Tests pass a buffer here.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithTeam records the team scope of a request in ctx.
func WithTeam(ctx context.Context, teamID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, teamID)
}

// TeamFromContext returns the team id stored by WithTeam.
func TeamFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// FromContext returns the default logger enriched with the request id and
// team id found in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if team := TeamFromContext(ctx); team != "" {
		logger = logger.With("team_id", team)
	}
	return logger
}

// WithFields returns a context logger with additional structured fields.
//
//	jobLogger := logging.WithFields(ctx, "job_id", job.ID)
//	jobLogger.Info("import started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
