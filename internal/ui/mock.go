package ui

import (
	"context"
	"strings"
	"sync"
)

// mockCore holds the shared state for all derived MockUserOutput instances.
type mockCore struct {
	mu       sync.RWMutex
	messages []OutputMessage
	level    OutputLevel
}

// MockUserOutput is a mock implementation of UserOutput for testing.
type MockUserOutput struct {
	core *mockCore
}

// OutputMessage represents a message logged for testing verification.
type OutputMessage struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// NewMockUserOutput creates a new mock user output.
func NewMockUserOutput() *MockUserOutput {
	return &MockUserOutput{
		core: &mockCore{
			messages: make([]OutputMessage, 0),
			level:    OutputNormal,
		},
	}
}

// Info records the message.
func (m *MockUserOutput) Info(ctx context.Context, msg string, args ...any) {
	m.record(ctx, "INFO", msg, args...)
}

// Success records the message.
func (m *MockUserOutput) Success(ctx context.Context, msg string, args ...any) {
	m.record(ctx, "SUCCESS", msg, args...)
}

// Warning records the message.
func (m *MockUserOutput) Warning(ctx context.Context, msg string, args ...any) {
	m.record(ctx, "WARNING", msg, args...)
}

// Error records the message.
func (m *MockUserOutput) Error(ctx context.Context, msg string, args ...any) {
	m.record(ctx, "ERROR", msg, args...)
}

// Result records the message.
func (m *MockUserOutput) Result(ctx context.Context, msg string, args ...any) {
	m.record(ctx, "RESULT", msg, args...)
}

// Progress records the message.
func (m *MockUserOutput) Progress(ctx context.Context, msg string, args ...any) {
	m.record(ctx, "PROGRESS", msg, args...)
}

// Table records headers and rows as the message args.
func (m *MockUserOutput) Table(ctx context.Context, headers []string, rows [][]string) {
	m.record(ctx, "TABLE", strings.Join(headers, "\t"), rows)
}

// JSON records v.
func (m *MockUserOutput) JSON(ctx context.Context, v any) error {
	m.record(ctx, "JSON", "", v)
	return nil
}

// Raw records data.
func (m *MockUserOutput) Raw(ctx context.Context, data string) {
	m.record(ctx, "RAW", data)
}

func (m *MockUserOutput) record(ctx context.Context, level, msg string, args ...any) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()

	m.core.messages = append(m.core.messages, OutputMessage{
		Level:   level,
		Message: msg,
		Args:    args,
		Context: ctx,
	})
}

// SetLevel sets the output level for filtering messages.
func (m *MockUserOutput) SetLevel(level OutputLevel) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()

	m.core.level = level
}

// IsLevelEnabled checks if a given level would produce output.
func (m *MockUserOutput) IsLevelEnabled(level OutputLevel) bool {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()

	return level <= m.core.level
}

// GetMessages returns all logged messages for testing verification.
func (m *MockUserOutput) GetMessages() []OutputMessage {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()

	messages := make([]OutputMessage, len(m.core.messages))
	copy(messages, m.core.messages)
	return messages
}

// GetMessagesOfLevel returns all logged messages of a specific level.
func (m *MockUserOutput) GetMessagesOfLevel(level string) []OutputMessage {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()

	var filtered []OutputMessage
	for _, msg := range m.core.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// Clear clears all logged messages.
func (m *MockUserOutput) Clear() {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()

	m.core.messages = make([]OutputMessage, 0)
}

// Count returns the number of logged messages.
func (m *MockUserOutput) Count() int {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()

	return len(m.core.messages)
}

// CountLevel returns the number of logged messages of a specific level.
func (m *MockUserOutput) CountLevel(level string) int {
	m.core.mu.RLock()
	defer m.core.mu.RUnlock()

	count := 0
	for _, msg := range m.core.messages {
		if msg.Level == level {
			count++
		}
	}
	return count
}
