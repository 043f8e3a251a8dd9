// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevelEnvVar is the environment variable that sets the log level.
const LogLevelEnvVar = "CISCRIPTS_LOG_LEVEL"

type loggerKey struct{}

// LevelVar is the level shared by every logger constructed in this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is a pretty console logger that is used if no logger is provided.
var DefaultLogger = NewPrettyLogger(os.Stderr)

// JSONLogger is a JSON logger for machine consumption of the diagnostics.
var JSONLogger = NewJSONLogger(os.Stderr)

func init() {
	LevelVar.Set(logLevelFromEnv())
}

// NewPrettyLogger returns a logger using the PrettyHandler, colour is enabled if supported.
func NewPrettyLogger(w io.Writer) *slog.Logger {
	return slog.New(NewPrettyHandler(&slog.HandlerOptions{
		Level: LevelVar,
	},
		WithDestinationWriter(w),
		WithAutoColour(),
	))
}

// NewJSONLogger returns a logger that writes one JSON object per record.
func NewJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: LevelVar,
	}))
}

// New creates a new context with the given logger.
// If logger is nil, it uses the default logger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// Info logs an info message with the given context.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Info(msg, args...)
}

// Debug logs a debug message with the given context.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Debug(msg, args...)
}

// Warn logs a warning message with the given context.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Warn(msg, args...)
}

// Error logs an error message with the given context.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Error(msg, args...)
}

// ParseLevel converts a level name to a slog.Level.
// Names are case insensitive, anything unknown is WARN.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func logLevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv(LogLevelEnvVar))
}
