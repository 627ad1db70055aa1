// Package logging defines the structured, context-aware logger used by the
// wizard service and the HTTP layer.
package logging

import "context"

// Logger takes key/value pairs after the message:
//
//	log.Info(ctx, "user advanced", "id", id, "step", step)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
