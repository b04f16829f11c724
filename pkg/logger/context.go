package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger stores l in ctx; From returns it until a later With or
// WithLogger replaces it.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With derives a logger carrying fields (request_id, user_id, ...) from the
// one already in ctx.
func With(ctx context.Context, fields ...any) context.Context {
	return WithLogger(ctx, From(ctx).With(fields...))
}

// From returns the logger stored in context, or the process default.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
