package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tax rate errors.
var (
	ErrTaxRateNotFound = &Error{Code: ENOTFOUND, Message: "Tax rate not found"}
)

// TaxRate attaches a rate in basis points to a TaxCode over an effective
// window. Multiple rates may exist per code over time (rate changes);
// resolution picks the one whose window covers the requested date,
// preferring the most recently started window.
type TaxRate struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TaxCodeID     uuid.UUID
	RateBps       int32 // basis points: 1900 = 19%
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil = open-ended
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Covers reports whether the rate's effective window contains the given
// instant. Both bounds are inclusive; a nil EffectiveTo is open-ended.
func (r *TaxRate) Covers(at time.Time) bool {
	if at.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// TaxRateRepository is the port for effective-dated rate lookups.
// FindEffectiveRate returns (nil, nil) when no rate window covers asOf.
type TaxRateRepository interface {
	Create(ctx context.Context, rate *TaxRate) (*TaxRate, error)
	FindEffectiveRate(ctx context.Context, taxCodeID, tenantID uuid.UUID, asOf time.Time) (*TaxRate, error)
	FindByTaxCode(ctx context.Context, tenantID, taxCodeID uuid.UUID) ([]TaxRate, error)
	Update(ctx context.Context, rate *TaxRate) (*TaxRate, error)
}
