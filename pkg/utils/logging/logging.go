// Package logging carries a *slog.Logger through context.Context.
package logging

import (
	"context"
	"log/slog"
)

type ctxLoggerKey struct{}

// With returns a copy of ctx that carries logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger stored in ctx, or slog.Default() if none is set
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}
