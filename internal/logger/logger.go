// Package logger provides structured logging using log/slog.
// It sets up a JSON handler with service-level context and a small helper for
// tagging records with the series being processed.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const symbolKey ctxKey = "symbol"

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	return InitWriter(os.Stdout, service, level)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so slog.Info() etc. in library packages also use it
	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps LOG_LEVEL strings to slog levels. Unknown values map to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// WithSymbol stores the instrument symbol in the context.
func WithSymbol(ctx context.Context, symbol string) context.Context {
	return context.WithValue(ctx, symbolKey, symbol)
}

// Symbol extracts the symbol from context. Returns "" if not set.
func Symbol(ctx context.Context) string {
	if v, ok := ctx.Value(symbolKey).(string); ok {
		return v
	}
	return ""
}

// LogWithSymbol returns slog attributes including the symbol from context.
// Usage: slog.Info("msg", logger.LogWithSymbol(ctx)...)
func LogWithSymbol(ctx context.Context) []any {
	sym := Symbol(ctx)
	if sym == "" {
		return nil
	}
	return []any{slog.String("symbol", sym)}
}
