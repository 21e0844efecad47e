// Package logging provides OpenTelemetry compliant structured logging for smileys.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	ctxutil "github.com/smileys/smileys/internal/observability/context"
)

// LogLevel represents the available log levels.
type LogLevel string

const (
	// LevelSilent disables all logging (default)
	LevelSilent LogLevel = "silent"
	// LevelDebug enables debug and all higher level logs
	LevelDebug LogLevel = "debug"
	// LevelInfo enables info and all higher level logs
	LevelInfo LogLevel = "info"
	// LevelWarn enables warn and error logs only
	LevelWarn LogLevel = "warn"
	// LevelError enables error logs only
	LevelError LogLevel = "error"
)

// LogFormat represents the available log output formats.
type LogFormat string

const (
	// FormatJSON outputs structured JSON logs (OTEL compliant)
	FormatJSON LogFormat = "json"
	// FormatText outputs human-readable text logs
	FormatText LogFormat = "text"
)

// ParseLevel maps a flag or config value onto a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LevelSilent, LevelDebug, LevelInfo, LevelWarn, LevelError:
		return level, nil
	case "":
		return LevelSilent, nil
	case "warning":
		return LevelWarn, nil
	default:
		return LevelSilent, fmt.Errorf("invalid log level %q (valid: silent, debug, info, warn, error)", s)
	}
}

// ParseFormat maps a flag or config value onto a LogFormat.
func ParseFormat(s string) (LogFormat, error) {
	switch format := LogFormat(strings.ToLower(strings.TrimSpace(s))); format {
	case FormatJSON, FormatText:
		return format, nil
	case "":
		return FormatJSON, nil
	default:
		return FormatJSON, fmt.Errorf("invalid log format %q (valid: json, text)", s)
	}
}

// Logger provides a structured logging interface with OTEL compliance.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs
	Debug(ctx context.Context, msg string, keysAndValues ...any)
	// Info logs an info-level message with optional key-value pairs
	Info(ctx context.Context, msg string, keysAndValues ...any)
	// Warn logs a warn-level message with optional key-value pairs
	Warn(ctx context.Context, msg string, keysAndValues ...any)
	// Error logs an error-level message with optional key-value pairs
	Error(ctx context.Context, msg string, keysAndValues ...any)
	// With returns a logger with the given key-value pairs added to all log entries
	With(keysAndValues ...any) Logger
	// WithContext returns a logger that uses the given context
	WithContext(ctx context.Context) Logger
	// IsEnabled returns true if the logger would emit a log record at the given level
	IsEnabled(level LogLevel) bool
}

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level to output
	Level LogLevel
	// Format sets the output format (json or text)
	Format LogFormat
	// Output sets the output destination (defaults to os.Stderr)
	Output io.Writer
	// ServiceName is added to all log entries for service identification
	ServiceName string
	// ServiceVersion is added to all log entries for version tracking
	ServiceVersion string
}

// DefaultConfig returns a default logging configuration with silent mode.
func DefaultConfig() *Config {
	return &Config{
		Level:          LevelSilent,
		Format:         FormatJSON,
		Output:         os.Stderr,
		ServiceName:    "smileys",
		ServiceVersion: "unknown",
	}
}

// otelLogger implements the Logger interface on top of slog. Context fields set
// through the context package are appended to every record.
type otelLogger struct {
	slogger *slog.Logger
	config  *Config
	ctx     context.Context
}

// NewLogger creates a new OTEL-compliant logger with the given configuration.
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Level == LevelSilent {
		return Nop(), nil
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}

	if _, err := setupOTELLogProvider(config); err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}
	var handler slog.Handler
	if config.Format == FormatText {
		handler = slog.NewTextHandler(config.Output, opts)
	} else {
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	slogger := slog.New(handler).With(
		"service.name", config.ServiceName,
		"service.version", config.ServiceVersion,
	)

	return &otelLogger{
		slogger: slogger,
		config:  config,
		ctx:     context.Background(),
	}, nil
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupOTELLogProvider installs the global OpenTelemetry log provider.
func setupOTELLogProvider(config *Config) (*sdklog.LoggerProvider, error) {
	exporter, err := stdoutlog.New(
		stdoutlog.WithWriter(config.Output),
	)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)

	return provider, nil
}

// Shutdown flushes the global OpenTelemetry log provider when one was installed.
func Shutdown(ctx context.Context) error {
	if provider, ok := global.GetLoggerProvider().(*sdklog.LoggerProvider); ok {
		return provider.Shutdown(ctx)
	}
	return nil
}

func (l *otelLogger) log(ctx context.Context, level LogLevel, msg string, keysAndValues []any) {
	if !l.IsEnabled(level) {
		return
	}
	if ctx == nil {
		ctx = l.ctx
	}
	args := append(ctxutil.ExtractContextFields(ctx), keysAndValues...)
	l.slogger.Log(ctx, slogLevel(level), msg, args...)
}

// Debug logs a debug-level message.
func (l *otelLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, LevelDebug, msg, keysAndValues)
}

// Info logs an info-level message.
func (l *otelLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, LevelInfo, msg, keysAndValues)
}

// Warn logs a warn-level message.
func (l *otelLogger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, LevelWarn, msg, keysAndValues)
}

// Error logs an error-level message.
func (l *otelLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(ctx, LevelError, msg, keysAndValues)
}

// With returns a logger with the given key-value pairs added to all log entries.
func (l *otelLogger) With(keysAndValues ...any) Logger {
	return &otelLogger{
		slogger: l.slogger.With(keysAndValues...),
		config:  l.config,
		ctx:     l.ctx,
	}
}

// WithContext returns a logger that uses the given context.
func (l *otelLogger) WithContext(ctx context.Context) Logger {
	return &otelLogger{
		slogger: l.slogger,
		config:  l.config,
		ctx:     ctx,
	}
}

// IsEnabled returns true if the logger would emit a log record at the given level.
func (l *otelLogger) IsEnabled(level LogLevel) bool {
	if l.config.Level == LevelSilent {
		return false
	}
	return levelRank(level) >= levelRank(l.config.Level)
}

func levelRank(level LogLevel) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 999
	}
}

// noOpLogger is a logger that does nothing (for silent mode).
type noOpLogger struct{}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return noOpLogger{}
}

func (noOpLogger) Debug(context.Context, string, ...any) {}
func (noOpLogger) Info(context.Context, string, ...any)  {}
func (noOpLogger) Warn(context.Context, string, ...any)  {}
func (noOpLogger) Error(context.Context, string, ...any) {}
func (n noOpLogger) With(...any) Logger                  { return n }
func (n noOpLogger) WithContext(context.Context) Logger  { return n }
func (noOpLogger) IsEnabled(LogLevel) bool               { return false }
