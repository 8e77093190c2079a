package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
)

// CreateTaxRateParams carries a tax rate creation request.
type CreateTaxRateParams struct {
	TaxCodeID     uuid.UUID
	RateBps       int32
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// UpdateTaxRateParams carries a partial rate update; nil fields keep their
// current value.
type UpdateTaxRateParams struct {
	RateBps     *int32
	EffectiveTo *time.Time
}

// TaxRateService manages the effective-dated rates attached to tax codes.
type TaxRateService struct {
	codes domain.TaxCodeRepository
	rates domain.TaxRateRepository
}

// NewTaxRateService creates a tax rate service over the given repositories.
func NewTaxRateService(codes domain.TaxCodeRepository, rates domain.TaxRateRepository) *TaxRateService {
	return &TaxRateService{codes: codes, rates: rates}
}

// Create attaches a new effective-dated rate to a tax code.
func (s *TaxRateService) Create(ctx context.Context, tenantID uuid.UUID, params CreateTaxRateParams) (*domain.TaxRate, error) {
	const op = "taxrate.create"

	if params.RateBps < 0 {
		return nil, domain.Invalid(op, "rate must not be negative")
	}
	if params.EffectiveFrom.IsZero() {
		return nil, domain.Invalid(op, "effective from date is required")
	}
	if params.EffectiveTo != nil && params.EffectiveTo.Before(params.EffectiveFrom) {
		return nil, domain.Invalid(op, "effective to date must not precede effective from")
	}

	// The code must exist and belong to the tenant.
	if _, err := s.codes.FindByID(ctx, tenantID, params.TaxCodeID); err != nil {
		return nil, err
	}

	return s.rates.Create(ctx, &domain.TaxRate{
		ID:            uuid.New(),
		TenantID:      tenantID,
		TaxCodeID:     params.TaxCodeID,
		RateBps:       params.RateBps,
		EffectiveFrom: params.EffectiveFrom,
		EffectiveTo:   params.EffectiveTo,
	})
}

// FindEffectiveRate returns the rate for a code whose window covers asOf,
// or ErrTaxRateNotFound when none does.
func (s *TaxRateService) FindEffectiveRate(ctx context.Context, tenantID, taxCodeID uuid.UUID, asOf time.Time) (*domain.TaxRate, error) {
	rate, err := s.rates.FindEffectiveRate(ctx, taxCodeID, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, domain.ErrTaxRateNotFound
	}
	return rate, nil
}

// ListByTaxCode returns a code's full rate history.
func (s *TaxRateService) ListByTaxCode(ctx context.Context, tenantID, taxCodeID uuid.UUID) ([]domain.TaxRate, error) {
	return s.rates.FindByTaxCode(ctx, tenantID, taxCodeID)
}

// Update applies a partial update to one of a code's rate rows.
func (s *TaxRateService) Update(ctx context.Context, tenantID, taxCodeID, rateID uuid.UUID, params UpdateTaxRateParams) (*domain.TaxRate, error) {
	const op = "taxrate.update"

	rates, err := s.rates.FindByTaxCode(ctx, tenantID, taxCodeID)
	if err != nil {
		return nil, err
	}
	var rate *domain.TaxRate
	for i := range rates {
		if rates[i].ID == rateID {
			rate = &rates[i]
			break
		}
	}
	if rate == nil {
		return nil, domain.ErrTaxRateNotFound
	}

	if params.RateBps != nil {
		if *params.RateBps < 0 {
			return nil, domain.Invalid(op, "rate must not be negative")
		}
		rate.RateBps = *params.RateBps
	}
	if params.EffectiveTo != nil {
		if params.EffectiveTo.Before(rate.EffectiveFrom) {
			return nil, domain.Invalid(op, "effective to date must not precede effective from")
		}
		rate.EffectiveTo = params.EffectiveTo
	}
	return s.rates.Update(ctx, rate)
}
