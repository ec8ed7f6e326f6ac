// Package logging wraps log/slog with JSON/text handlers, log rotation and
// context-aware helpers that attach request/trace ids to every record.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var globalLogger *slog.Logger

// Config controls the global logger.
type Config struct {
	// Level: debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format: json or text.
	Format string `mapstructure:"format"`
	// Output: stdout, file, both.
	Output string `mapstructure:"output"`
	// FilePath is used when output is file or both.
	FilePath string `mapstructure:"file_path"`
	// MaxSize is the rotation size in MB.
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups bounds the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAge bounds retention in days.
	MaxAge int `mapstructure:"max_age"`
	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress"`
	// WithCaller adds source position to records.
	WithCaller bool `mapstructure:"with_caller"`
}

// Init installs the global logger. Safe to call once at process start.
func Init(cfg Config) error {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		output = fileWriter
	case "both":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		output = io.MultiWriter(os.Stdout, fileWriter)
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.WithCaller,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// Get returns the global logger, falling back to slog's default before Init.
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

type contextKey string

const (
	// RequestIDKey carries the per-request id through context.
	RequestIDKey contextKey = "request_id"
	// TraceIDKey carries the trace id through context.
	TraceIDKey contextKey = "trace_id"
)

// ContextWithIDs stores request and trace ids for later extraction.
func ContextWithIDs(ctx context.Context, requestID, traceID string) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithContext returns a logger annotated with the ids found in ctx.
func WithContext(ctx context.Context) *slog.Logger {
	logger := Get()
	if ctx == nil {
		return logger
	}
	attrs := []any{}
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("request_id", v))
	}
	if v, ok := ctx.Value(TraceIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("trace_id", v))
	}
	if len(attrs) > 0 {
		return logger.With(attrs...)
	}
	return logger
}

func Debug(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug(msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn(msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
}

// Fatal logs at error level and exits.
func Fatal(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
	os.Exit(1)
}

// LogDuration returns a func for defer that logs the elapsed time of the
// surrounding operation.
func LogDuration(ctx context.Context, msg string, args ...any) func() {
	start := time.Now()
	return func() {
		args = append(args, slog.Duration("duration", time.Since(start)))
		Info(ctx, msg, args...)
	}
}
