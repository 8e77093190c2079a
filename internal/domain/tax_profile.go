package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Regime is the tax treatment category a tenant operates under.
type Regime string

const (
	// RegimeStandardVAT means the tenant charges VAT on taxable supplies.
	RegimeStandardVAT Regime = "STANDARD_VAT"

	// RegimeSmallBusiness means the tenant is exempt from charging VAT
	// under a small-business scheme (e.g. §19 UStG in Germany).
	RegimeSmallBusiness Regime = "SMALL_BUSINESS"
)

// Valid reports whether r is a known regime.
func (r Regime) Valid() bool {
	return r == RegimeStandardVAT || r == RegimeSmallBusiness
}

// Tax profile errors.
var (
	ErrNoActiveTaxProfile = &Error{Code: ENOTFOUND, Message: "No active tax profile for the requested date"}
	ErrTaxProfileNotFound = &Error{Code: ENOTFOUND, Message: "Tax profile not found"}
)

// TaxProfile is one tenant's tax registration configuration, effective over
// a time window. A tenant accumulates profiles over time as its regime or
// registration changes; at most one should be active at any instant.
type TaxProfile struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	CountryCode     string // ISO 3166-1 alpha-2, e.g. "DE"
	Regime          Regime
	VATID           string // optional VAT/tax registration number
	CurrencyCode    string // ISO 4217, e.g. "EUR"
	FilingFrequency string // e.g. "MONTHLY", "QUARTERLY", "ANNUAL"
	EffectiveFrom   time.Time
	EffectiveTo     *time.Time // nil = open-ended
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Covers reports whether the profile's effective window contains the given
// instant. Both bounds are inclusive; a nil EffectiveTo is open-ended.
func (p *TaxProfile) Covers(at time.Time) bool {
	if at.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && at.After(*p.EffectiveTo) {
		return false
	}
	return true
}

// TaxProfileRepository is the port for effective-dated profile lookups.
//
// GetActive returns the profile whose window covers asOf, preferring the
// latest EffectiveFrom when history overlaps. It returns (nil, nil) when no
// profile covers the date; callers decide whether that is an error.
//
// Upsert is keyed on (tenant, EffectiveFrom): submitting the same
// EffectiveFrom again updates that profile in place, a different
// EffectiveFrom creates a new row.
type TaxProfileRepository interface {
	GetActive(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*TaxProfile, error)
	Upsert(ctx context.Context, profile *TaxProfile) (*TaxProfile, error)
}
