// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey ContextKey = "request_id"
	// RunIDKey is the context key for batch run IDs.
	RunIDKey ContextKey = "run_id"
	// SessionIDKey is the context key for websocket session IDs.
	SessionIDKey ContextKey = "session_id"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	output        io.Writer = os.Stderr
	current       = struct {
		level  Level
		format Format
	}{LevelInfo, FormatText}
)

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidation("log-level", "unknown level "+s)
	}
}

// ParseFormat accepts json and text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	default:
		return FormatText, errors.NewValidation("log-format", "unknown format "+s)
	}
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	mu.Lock()
	defer mu.Unlock()
	current.level, current.format = level, format
	rebuild()
}

// SetOutput redirects the global logger. The command line keeps logs on
// stderr so ciphertext written to stdout stays clean.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

func rebuild() {
	var slogLevel slog.Level
	switch current.level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if current.format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithRunID adds a batch run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithSessionID adds a websocket session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	return stringValue(ctx, RunIDKey)
}

func stringValue(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// LoggerFromContext returns a logger with the context's IDs attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	for _, key := range []ContextKey{RequestIDKey, RunIDKey, SessionIDKey} {
		if v := stringValue(ctx, key); v != "" {
			logger = logger.With(string(key), v)
		}
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// HTTPRequestContext logs an HTTP request with context and common fields.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	allArgs := []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("http_request", allArgs...)
}

// RunStarted logs the start of a batch run.
func RunStarted(ctx context.Context, direction string, files int, args ...any) {
	allArgs := []any{
		"direction", direction,
		"files", files,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("run_started", allArgs...)
}

// FileProcessed logs one successfully ciphered file.
func FileProcessed(ctx context.Context, input, output string, letters, bytesOut int64, duration time.Duration, args ...any) {
	allArgs := []any{
		"input", input,
		"output", output,
		"letters", letters,
		"size", humanize.Bytes(uint64(max(bytesOut, 0))),
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("file_processed", allArgs...)
}

// FileFailed logs a file the run had to skip.
func FileFailed(ctx context.Context, input string, err error, args ...any) {
	allArgs := []any{
		"input", input,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Error("file_failed", allArgs...)
}

// RunFinished logs the outcome of a batch run.
func RunFinished(ctx context.Context, ok, failed int, duration time.Duration, args ...any) {
	allArgs := []any{
		"files_ok", ok,
		"files_failed", failed,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("run_finished", allArgs...)
}

// SessionEvent logs websocket session events.
func SessionEvent(ctx context.Context, event string, activeSessions int, args ...any) {
	allArgs := []any{
		"event", event,
		"active_sessions", activeSessions,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("session_event", allArgs...)
}

// ServerStartup logs server startup information.
func ServerStartup(serverType, protocol, addr string, args ...any) {
	allArgs := []any{
		"server_type", serverType,
		"protocol", protocol,
		"addr", addr,
	}
	allArgs = append(allArgs, args...)
	GetLogger().Info("server_startup", allArgs...)
}

// SecurityEvent logs security-related events.
func SecurityEvent(event, component string, args ...any) {
	allArgs := []any{
		"event", event,
		"component", component,
	}
	allArgs = append(allArgs, args...)
	GetLogger().Warn("security_event", allArgs...)
}
