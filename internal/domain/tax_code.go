package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaxCodeKind is the category of tax treatment a code represents.
type TaxCodeKind string

const (
	KindStandard      TaxCodeKind = "STANDARD"
	KindReduced       TaxCodeKind = "REDUCED"
	KindExempt        TaxCodeKind = "EXEMPT"
	KindZero          TaxCodeKind = "ZERO"
	KindReverseCharge TaxCodeKind = "REVERSE_CHARGE"
)

// ParseTaxCodeKind returns the kind named by s, or false when s is not one
// of the five kind names.
func ParseTaxCodeKind(s string) (TaxCodeKind, bool) {
	switch TaxCodeKind(s) {
	case KindStandard, KindReduced, KindExempt, KindZero, KindReverseCharge:
		return TaxCodeKind(s), true
	}
	return "", false
}

// ZeroRated reports whether the kind always resolves to a 0 rate regardless
// of any configured rate row.
func (k TaxCodeKind) ZeroRated() bool {
	return k == KindExempt || k == KindZero || k == KindReverseCharge
}

// Tax code errors.
var (
	ErrTaxCodeNotFound  = &Error{Code: ENOTFOUND, Message: "Tax code not found"}
	ErrDuplicateTaxCode = &Error{Code: ECONFLICT, Message: "Tax code already exists"}
)

// TaxCode is a named category of tax treatment, scoped to a tenant and
// uniquely identified by a tenant-scoped code string.
type TaxCode struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Code      string // tenant-scoped unique code, e.g. "VAT_STANDARD"
	Kind      TaxCodeKind
	Label     string // display label
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaxCodeRepository is the port for tenant-scoped tax code lookups.
// FindByID and FindByCode return ErrTaxCodeNotFound when absent;
// FindByKind and FindAll return empty slices.
type TaxCodeRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*TaxCode, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*TaxCode, error)
	FindByKind(ctx context.Context, tenantID uuid.UUID, kind TaxCodeKind) ([]TaxCode, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]TaxCode, error)
	Create(ctx context.Context, code *TaxCode) (*TaxCode, error)
	Update(ctx context.Context, code *TaxCode) (*TaxCode, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
