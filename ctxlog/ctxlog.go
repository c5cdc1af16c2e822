// Package ctxlog passes a slog.Logger through context.Context so every
// stage of an accession's pipeline logs with the same attributes.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported to avoid collisions with other packages' context keys.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from a context, falling back to the
// process default when none was set.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
