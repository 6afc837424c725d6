// Package logging defines a minimal structured-logging interface used across
// the project's batch orchestrator, transfer engine, resolver, and backend
// client. Implementations can wrap slog, zap, zerolog, etc.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger

	// WithBatch returns a child logger that tags every subsequent line with
	// the batch's journal id (§3's batchId), so a batch's enumerate/resume/
	// drive/terminate lifecycle can be grepped out of an interleaved log
	// stream by that one field.
	WithBatch(batchID string) Logger

	// WithTask returns a child logger tagged with one Task's remote path,
	// the unit every per-chunk and terminal-transition log line in the
	// transfer engine and orchestrator is actually about.
	WithTask(remotePath string) Logger
}
