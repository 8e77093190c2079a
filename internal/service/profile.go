package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
)

// UpsertProfileParams carries a tax profile upsert. The (tenant,
// EffectiveFrom) pair is the upsert key: resubmitting the same
// EffectiveFrom updates that profile in place, a new EffectiveFrom starts a
// new entry in the tenant's regime history.
type UpsertProfileParams struct {
	CountryCode     string
	Regime          domain.Regime
	VATID           string
	CurrencyCode    string
	FilingFrequency string
	EffectiveFrom   time.Time
	EffectiveTo     *time.Time
}

// ProfileService manages a tenant's effective-dated tax profiles.
//
// Overlapping windows under different EffectiveFrom values are not rejected
// at write time; active-profile resolution picks the latest covering
// EffectiveFrom, which produces sensible results for sequential history.
type ProfileService struct {
	profiles domain.TaxProfileRepository
}

// NewProfileService creates a profile service over the given repository.
func NewProfileService(profiles domain.TaxProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Upsert creates or updates the tenant's profile for the given
// EffectiveFrom.
func (s *ProfileService) Upsert(ctx context.Context, tenantID uuid.UUID, params UpsertProfileParams) (*domain.TaxProfile, error) {
	const op = "profile.upsert"

	if !params.Regime.Valid() {
		return nil, domain.Invalid(op, "regime must be STANDARD_VAT or SMALL_BUSINESS")
	}
	if params.CountryCode == "" {
		return nil, domain.Invalid(op, "country code is required")
	}
	if params.CurrencyCode == "" {
		return nil, domain.Invalid(op, "currency code is required")
	}
	if params.EffectiveFrom.IsZero() {
		return nil, domain.Invalid(op, "effective from date is required")
	}
	if params.EffectiveTo != nil && params.EffectiveTo.Before(params.EffectiveFrom) {
		return nil, domain.Invalid(op, "effective to date must not precede effective from")
	}

	return s.profiles.Upsert(ctx, &domain.TaxProfile{
		ID:              uuid.New(),
		TenantID:        tenantID,
		CountryCode:     params.CountryCode,
		Regime:          params.Regime,
		VATID:           params.VATID,
		CurrencyCode:    params.CurrencyCode,
		FilingFrequency: params.FilingFrequency,
		EffectiveFrom:   params.EffectiveFrom,
		EffectiveTo:     params.EffectiveTo,
	})
}

// GetActive returns the tenant's active profile as of the given instant, or
// ErrNoActiveTaxProfile when no window covers it.
func (s *ProfileService) GetActive(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*domain.TaxProfile, error) {
	profile, err := s.profiles.GetActive(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrNoActiveTaxProfile
	}
	return profile, nil
}
