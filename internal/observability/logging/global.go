package logging

import (
	"context"
	"sync"
)

var (
	globalLogger Logger
	globalMutex  sync.RWMutex
)

// InitGlobalLogger initializes the global logger with the given configuration.
// This should be called once during application startup.
func InitGlobalLogger(config *Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

// GetGlobalLogger returns the global logger, or a silent one before initialization.
func GetGlobalLogger() Logger {
	globalMutex.RLock()
	defer globalMutex.RUnlock()

	if globalLogger == nil {
		return Nop()
	}
	return globalLogger
}

// SetGlobalLogger sets the global logger instance.
func SetGlobalLogger(logger Logger) {
	globalMutex.Lock()
	globalLogger = logger
	globalMutex.Unlock()
}

// Debug logs a debug message using the global logger.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	GetGlobalLogger().Debug(ctx, msg, keysAndValues...)
}

// Info logs an info message using the global logger.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	GetGlobalLogger().Info(ctx, msg, keysAndValues...)
}

// Warn logs a warning message using the global logger.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	GetGlobalLogger().Warn(ctx, msg, keysAndValues...)
}

// Error logs an error message using the global logger.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	GetGlobalLogger().Error(ctx, msg, keysAndValues...)
}

// With returns a logger with the given key-value pairs added to all log entries.
func With(keysAndValues ...any) Logger {
	return GetGlobalLogger().With(keysAndValues...)
}
