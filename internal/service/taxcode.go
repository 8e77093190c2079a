package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
)

// CreateTaxCodeParams carries a tax code creation request.
type CreateTaxCodeParams struct {
	Code   string
	Kind   domain.TaxCodeKind
	Label  string
	Active bool
}

// UpdateTaxCodeParams carries a partial tax code update; nil fields keep
// their current value.
type UpdateTaxCodeParams struct {
	Label  *string
	Active *bool
}

// TaxCodeService manages a tenant's tax codes: the named categories of tax
// treatment lines can reference.
type TaxCodeService struct {
	codes domain.TaxCodeRepository
}

// NewTaxCodeService creates a tax code service over the given repository.
func NewTaxCodeService(codes domain.TaxCodeRepository) *TaxCodeService {
	return &TaxCodeService{codes: codes}
}

// Create adds a new tax code for the tenant.
func (s *TaxCodeService) Create(ctx context.Context, tenantID uuid.UUID, params CreateTaxCodeParams) (*domain.TaxCode, error) {
	const op = "taxcode.create"

	if params.Code == "" {
		return nil, domain.Invalid(op, "code is required")
	}
	if _, ok := domain.ParseTaxCodeKind(string(params.Kind)); !ok {
		return nil, domain.Invalid(op, "kind must be STANDARD, REDUCED, EXEMPT, ZERO or REVERSE_CHARGE")
	}

	return s.codes.Create(ctx, &domain.TaxCode{
		ID:       uuid.New(),
		TenantID: tenantID,
		Code:     params.Code,
		Kind:     params.Kind,
		Label:    params.Label,
		Active:   params.Active,
	})
}

// Get returns one tax code by ID.
func (s *TaxCodeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.TaxCode, error) {
	return s.codes.FindByID(ctx, tenantID, id)
}

// GetByCode returns one tax code by its tenant-scoped code string.
func (s *TaxCodeService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*domain.TaxCode, error) {
	return s.codes.FindByCode(ctx, tenantID, code)
}

// List returns all of the tenant's tax codes.
func (s *TaxCodeService) List(ctx context.Context, tenantID uuid.UUID) ([]domain.TaxCode, error) {
	return s.codes.FindAll(ctx, tenantID)
}

// Update applies a partial update to a tax code. The code string and kind
// are immutable; historical snapshots reference them by ID.
func (s *TaxCodeService) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateTaxCodeParams) (*domain.TaxCode, error) {
	code, err := s.codes.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if params.Label != nil {
		code.Label = *params.Label
	}
	if params.Active != nil {
		code.Active = *params.Active
	}
	return s.codes.Update(ctx, code)
}

// Delete removes a tax code.
func (s *TaxCodeService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.codes.Delete(ctx, tenantID, id)
}
