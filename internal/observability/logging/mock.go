package logging

import (
	"context"
	"sync"
)

// mockCore holds the shared state for all derived MockLogger instances.
type mockCore struct {
	mu   sync.RWMutex
	logs []LogEntry
}

// MockLogger records log entries for assertions in tests. Loggers derived
// with With or WithContext share one record.
type MockLogger struct {
	core    *mockCore
	enabled bool
	kvPairs []any
	ctx     context.Context
}

// LogEntry represents a logged entry for testing verification.
type LogEntry struct {
	Level         LogLevel
	Message       string
	KeysAndValues []any
	Context       context.Context
}

// Value returns the value logged under key, if any.
func (e LogEntry) Value(key string) (any, bool) {
	for i := 0; i+1 < len(e.KeysAndValues); i += 2 {
		if k, ok := e.KeysAndValues[i].(string); ok && k == key {
			return e.KeysAndValues[i+1], true
		}
	}
	return nil, false
}

// NewMockLogger creates a new mock logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		core:    &mockCore{},
		enabled: true,
		ctx:     context.Background(),
	}
}

func (m *MockLogger) record(ctx context.Context, level LogLevel, msg string, keysAndValues []any) {
	if !m.enabled {
		return
	}
	kv := make([]any, 0, len(m.kvPairs)+len(keysAndValues))
	kv = append(kv, m.kvPairs...)
	kv = append(kv, keysAndValues...)

	m.core.mu.Lock()
	m.core.logs = append(m.core.logs, LogEntry{
		Level:         level,
		Message:       msg,
		KeysAndValues: kv,
		Context:       ctx,
	})
	m.core.mu.Unlock()
}

// Debug records a debug entry.
func (m *MockLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	m.record(ctx, LevelDebug, msg, keysAndValues)
}

// Info records an info entry.
func (m *MockLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	m.record(ctx, LevelInfo, msg, keysAndValues)
}

// Warn records a warn entry.
func (m *MockLogger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	m.record(ctx, LevelWarn, msg, keysAndValues)
}

// Error records an error entry.
func (m *MockLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	m.record(ctx, LevelError, msg, keysAndValues)
}

// With returns a derived logger sharing the same record.
func (m *MockLogger) With(keysAndValues ...any) Logger {
	kv := make([]any, 0, len(m.kvPairs)+len(keysAndValues))
	kv = append(kv, m.kvPairs...)
	kv = append(kv, keysAndValues...)
	return &MockLogger{core: m.core, enabled: m.enabled, kvPairs: kv, ctx: m.ctx}
}

// WithContext returns a derived logger sharing the same record.
func (m *MockLogger) WithContext(ctx context.Context) Logger {
	return &MockLogger{core: m.core, enabled: m.enabled, kvPairs: m.kvPairs, ctx: ctx}
}

// IsEnabled returns true if the logger is enabled.
func (m *MockLogger) IsEnabled(LogLevel) bool {
	return m.enabled
}

// SetEnabled controls whether the logger records entries.
func (m *MockLogger) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// GetLogs returns a copy of all recorded entries.
func (m *MockLogger) GetLogs() []LogEntry {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()

	logs := make([]LogEntry, len(m.core.logs))
	copy(logs, m.core.logs)
	return logs
}

// GetLogsByLevel returns all recorded entries for a level.
func (m *MockLogger) GetLogsByLevel(level LogLevel) []LogEntry {
	var filtered []LogEntry
	for _, entry := range m.GetLogs() {
		if entry.Level == level {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// HasLogWithMessage reports whether any entry has the given message.
func (m *MockLogger) HasLogWithMessage(message string) bool {
	for _, entry := range m.GetLogs() {
		if entry.Message == message {
			return true
		}
	}
	return false
}

// HasLogWithLevel reports whether any entry has the given level.
func (m *MockLogger) HasLogWithLevel(level LogLevel) bool {
	return len(m.GetLogsByLevel(level)) > 0
}

// Reset clears all recorded entries.
func (m *MockLogger) Reset() {
	m.core.mu.Lock()
	m.core.logs = nil
	m.core.mu.Unlock()
}
