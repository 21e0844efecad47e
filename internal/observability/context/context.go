// Package context carries request-scoped fields that end up in log records.
package context

import (
	"context"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// OperationKey holds the current operation name
	OperationKey ContextKey = "operation"
	// ComponentKey holds the current component name
	ComponentKey ContextKey = "component"
	// DocumentKey holds the processing key of the current document
	DocumentKey ContextKey = "document_key"
	// PackKey holds the identifier of the active smiley pack
	PackKey ContextKey = "pack"
	// RequestIDKey holds the HTTP request identifier
	RequestIDKey ContextKey = "request_id"
)

// WithOperation adds an operation name to the context.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}

// WithComponent adds a component name to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// WithDocumentKey adds a document key to the context.
func WithDocumentKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, DocumentKey, key)
}

// WithPack adds the active pack identifier to the context.
func WithPack(ctx context.Context, pack string) context.Context {
	return context.WithValue(ctx, PackKey, pack)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func stringValue(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// GetOperation retrieves the operation name from context.
func GetOperation(ctx context.Context) string {
	if op := stringValue(ctx, OperationKey); op != "" {
		return op
	}
	return "unknown"
}

// GetComponent retrieves the component name from context.
func GetComponent(ctx context.Context) string {
	if comp := stringValue(ctx, ComponentKey); comp != "" {
		return comp
	}
	return "unknown"
}

// GetDocumentKey retrieves the document key from context.
func GetDocumentKey(ctx context.Context) string {
	return stringValue(ctx, DocumentKey)
}

// GetPack retrieves the active pack identifier from context.
func GetPack(ctx context.Context) string {
	return stringValue(ctx, PackKey)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// ExtractContextFields returns the set fields as slog key-value pairs.
func ExtractContextFields(ctx context.Context) []any {
	var fields []any

	if op := GetOperation(ctx); op != "unknown" {
		fields = append(fields, string(OperationKey), op)
	}
	if comp := GetComponent(ctx); comp != "unknown" {
		fields = append(fields, string(ComponentKey), comp)
	}
	for _, key := range []ContextKey{DocumentKey, PackKey, RequestIDKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}

	return fields
}

// NewOperationContext creates a context for a specific operation.
func NewOperationContext(operation string) context.Context {
	return WithOperation(context.Background(), operation)
}

// NewComponentContext creates a context for a specific component operation.
func NewComponentContext(operation, component string) context.Context {
	return WithComponent(NewOperationContext(operation), component)
}
