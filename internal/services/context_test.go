package services_test

import (
	"context"
	"testing"

	"sipforge/internal/services"
)

func TestSIPIDRoundTrip(t *testing.T) {
	ctx := services.WithSIPID(context.Background(), "abc-123")
	id, ok := services.SIPIDFromContext(ctx)
	if !ok || id != "abc-123" {
		t.Fatalf("got (%q, %v), want (abc-123, true)", id, ok)
	}

	if _, ok := services.SIPIDFromContext(context.Background()); ok {
		t.Fatal("bare context should not carry a sip id")
	}
	if got := services.WithSIPID(context.Background(), ""); got != context.Background() {
		t.Fatal("empty id should leave context untouched")
	}
}

func TestOperationAndRequestID(t *testing.T) {
	ctx := services.WithOperation(context.Background(), "upload")
	ctx = services.WithRequestID(ctx, "req-7")

	op, ok := services.OperationFromContext(ctx)
	if !ok || op != "upload" {
		t.Fatalf("operation = (%q, %v)", op, ok)
	}
	rid, ok := services.RequestIDFromContext(ctx)
	if !ok || rid != "req-7" {
		t.Fatalf("request id = (%q, %v)", rid, ok)
	}
}
