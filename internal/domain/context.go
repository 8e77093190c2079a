// Package domain provides the core business types for the tax subsystem:
// effective-dated reference data (profiles, codes, rates), frozen snapshots,
// the repository ports they are read through, and the shared error model.
//
// Context helpers centralize request-scoped data access, making tenant
// isolation bugs harder to write and providing consistent patterns
// throughout the codebase.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// tenantContextKey stores the tenant identifier in context.
	tenantContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// NewContextWithTenantID returns a new context with the tenant ID attached.
func NewContextWithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// TenantIDFromContext retrieves the tenant ID from context.
// Returns uuid.Nil if no tenant is present.
func TenantIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(tenantContextKey).(uuid.UUID)
	return id
}

// RequireTenantID retrieves the tenant ID from context, returning
// ErrTenantRequired when absent. Use this in service layers where the
// tenant must already have been resolved by middleware.
func RequireTenantID(ctx context.Context) (uuid.UUID, error) {
	id := TenantIDFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, ErrTenantRequired
	}
	return id, nil
}

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
