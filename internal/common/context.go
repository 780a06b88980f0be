package common

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyInvoiceID contextKey = "invoice_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithInvoiceID tags the context with the invoice being processed
func WithInvoiceID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyInvoiceID, id)
}

// InvoiceIDFromContext extracts the invoice ID from context
func InvoiceIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextKeyInvoiceID).(uuid.UUID)
	return id, ok
}

// Logger returns base tagged with whatever request and invoice ids ctx carries.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	var attrs []any
	if rid := RequestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, "req_id", rid)
	}
	if id, ok := InvoiceIDFromContext(ctx); ok {
		attrs = append(attrs, "invoice_id", id)
	}
	if len(attrs) == 0 {
		return base
	}
	return base.With(attrs...)
}
