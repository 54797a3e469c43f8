package services

import "context"

type contextKey string

const (
	sipIDKey     contextKey = "sip_id"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithSIPID annotates context with the SIP identifier.
func WithSIPID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sipIDKey, id)
}

// SIPIDFromContext extracts the SIP identifier if present.
func SIPIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sipIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the workflow operation name
// (scan, import, package, upload).
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
