// Package tax defines the jurisdiction pack strategy for computing a tax
// breakdown over a set of priced line items. A Pack encapsulates one
// country's regime rules; the engine selects a pack from the Registry by
// country code and delegates to it, so adding a jurisdiction never touches
// the engine.
package tax

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/rounding"
)

// Pack is the strategy contract one country's rule set implements.
type Pack interface {
	// Jurisdiction returns the ISO country code this pack encodes, e.g. "DE".
	Jurisdiction() string

	// RateBps resolves the rate in basis points for a tax code kind name or
	// an explicit tax code ID (as a string), effective at documentDate.
	RateBps(ctx context.Context, ref string, documentDate time.Time, tenantID uuid.UUID) (int32, error)

	// ApplyRules produces the full tax breakdown for a set of lines under
	// the tenant's regime.
	ApplyRules(ctx context.Context, params RuleParams) (*Breakdown, error)
}

// LineItem is a single priced position on the document being taxed.
// Amounts are integers in minor currency units.
type LineItem struct {
	ID             string
	Description    string
	Quantity       int32
	NetAmountCents int64
	TaxCodeID      *uuid.UUID // explicit tax code reference, nil = jurisdiction default
}

// CustomerTaxInfo carries the counterparty's tax identity, when known.
type CustomerTaxInfo struct {
	Name        string
	VATID       string
	CountryCode string
}

// RuleParams carries everything a pack needs to compute a breakdown.
type RuleParams struct {
	TenantID     uuid.UUID
	Regime       domain.Regime
	DocumentDate time.Time
	CurrencyCode string
	Customer     *CustomerTaxInfo
	Lines        []LineItem
}

// LineResult is the per-line outcome of rule application.
type LineResult struct {
	LineID           string             `json:"lineId"`
	TaxCodeID        *uuid.UUID         `json:"taxCodeId,omitempty"`
	Kind             domain.TaxCodeKind `json:"kind"`
	RateBps          int32              `json:"rateBps"`
	NetAmountCents   int64              `json:"netAmountCents"`
	TaxAmountCents   int64              `json:"taxAmountCents"`
	GrossAmountCents int64              `json:"grossAmountCents"`
}

// KindTotals aggregates net/tax/gross per tax code kind, recording the rate
// used for lines of that kind.
type KindTotals struct {
	RateBps          int32 `json:"rateBps"`
	NetAmountCents   int64 `json:"netAmountCents"`
	TaxAmountCents   int64 `json:"taxAmountCents"`
	GrossAmountCents int64 `json:"grossAmountCents"`
}

// Flags carries document-level markers rule application can raise.
type Flags struct {
	// NeedsReverseChargeNote is set when at least one line shifted tax
	// liability to the customer; the rendered document must say so.
	NeedsReverseChargeNote bool `json:"needsReverseChargeNote"`

	// IsSmallBusinessNoVATCharged is set when the tenant's small-business
	// regime suppressed VAT on the whole document.
	IsSmallBusinessNoVATCharged bool `json:"isSmallBusinessNoVatCharged"`
}

// Breakdown is the computed result of rule application. It is a value, not
// a persisted record; the snapshot service serializes it when freezing.
type Breakdown struct {
	SubtotalCents   int64                             `json:"subtotalAmountCents"`
	TaxTotalCents   int64                             `json:"taxTotalAmountCents"`
	GrandTotalCents int64                             `json:"grandTotalAmountCents"`
	RoundingMode    rounding.Mode                     `json:"roundingMode"`
	Lines           []LineResult                      `json:"lines"`
	TotalsByKind    map[domain.TaxCodeKind]KindTotals `json:"totalsByKind"`
	Flags           Flags                             `json:"flags"`
}
