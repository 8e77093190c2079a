package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestTenantIDFromContext(t *testing.T) {
	t.Run("returns tenant ID when present", func(t *testing.T) {
		tenantID := uuid.New()
		ctx := NewContextWithTenantID(context.Background(), tenantID)

		if got := TenantIDFromContext(ctx); got != tenantID {
			t.Errorf("TenantIDFromContext() = %v, want %v", got, tenantID)
		}
	})

	t.Run("returns uuid.Nil when absent", func(t *testing.T) {
		if got := TenantIDFromContext(context.Background()); got != uuid.Nil {
			t.Errorf("TenantIDFromContext() = %v, want uuid.Nil", got)
		}
	})
}

func TestRequireTenantID(t *testing.T) {
	t.Run("returns tenant ID when present", func(t *testing.T) {
		tenantID := uuid.New()
		ctx := NewContextWithTenantID(context.Background(), tenantID)

		got, err := RequireTenantID(ctx)
		if err != nil {
			t.Fatalf("RequireTenantID() error = %v", err)
		}
		if got != tenantID {
			t.Errorf("RequireTenantID() = %v, want %v", got, tenantID)
		}
	})

	t.Run("fails when absent", func(t *testing.T) {
		_, err := RequireTenantID(context.Background())
		if err == nil {
			t.Fatal("RequireTenantID() expected error")
		}
		if ErrorCode(err) != EINTERNAL {
			t.Errorf("ErrorCode() = %q, want %q", ErrorCode(err), EINTERNAL)
		}
	})
}

func TestRequestIDFromContext(t *testing.T) {
	ctx := NewContextWithRequestID(context.Background(), "req-123")

	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
}
