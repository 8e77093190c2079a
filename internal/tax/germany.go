package tax

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/rounding"
)

// JurisdictionDE is the country code of the German VAT pack.
const JurisdictionDE = "DE"

// German statutory VAT rates, used when a tenant has not configured its own
// tax codes for a kind.
const (
	germanyStandardRateBps int32 = 1900 // §12(1) UStG
	germanyReducedRateBps  int32 = 700  // §12(2) UStG
)

// GermanyPack implements the German VAT regime rules: standard/reduced
// rates, zero-rated kinds, the reverse-charge note, and the small-business
// exemption (§19 UStG). Rate resolution consults the tenant's configured
// codes and effective-dated rates, falling back to the statutory rates.
type GermanyPack struct {
	codes domain.TaxCodeRepository
	rates domain.TaxRateRepository
}

// Compile-time check that GermanyPack implements Pack.
var _ Pack = (*GermanyPack)(nil)

// NewGermanyPack creates the German jurisdiction pack over the given
// reference repositories.
func NewGermanyPack(codes domain.TaxCodeRepository, rates domain.TaxRateRepository) *GermanyPack {
	return &GermanyPack{codes: codes, rates: rates}
}

// Jurisdiction returns "DE".
func (p *GermanyPack) Jurisdiction() string {
	return JurisdictionDE
}

// RateBps resolves a rate for either a kind name or an explicit tax code ID.
// Zero-rated kinds short-circuit to 0. For STANDARD/REDUCED the tenant's
// configured codes of that kind are searched, preferring the first active
// one; a tenant with no code of that kind gets the statutory rate.
func (p *GermanyPack) RateBps(ctx context.Context, ref string, documentDate time.Time, tenantID uuid.UUID) (int32, error) {
	if kind, ok := domain.ParseTaxCodeKind(ref); ok {
		return p.rateForKind(ctx, kind, documentDate, tenantID)
	}

	id, err := uuid.Parse(ref)
	if err != nil {
		return 0, domain.Invalid("germany.rate", "rate reference must be a tax code kind or a tax code ID")
	}

	code, err := p.codes.FindByID(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}
	return p.rateForCode(ctx, code, documentDate)
}

// ApplyRules branches on the tenant's regime and produces the breakdown.
func (p *GermanyPack) ApplyRules(ctx context.Context, params RuleParams) (*Breakdown, error) {
	switch params.Regime {
	case domain.RegimeSmallBusiness:
		return p.applySmallBusiness(params), nil
	case domain.RegimeStandardVAT:
		return p.applyStandardVAT(ctx, params)
	default:
		return nil, domain.Errorf(domain.EINVALID, "germany.apply", "unknown tax regime %q", params.Regime)
	}
}

// applySmallBusiness forces every line to EXEMPT at rate 0. A small-business
// tenant charges no VAT regardless of line-level tax codes.
func (p *GermanyPack) applySmallBusiness(params RuleParams) *Breakdown {
	var subtotal int64
	lines := make([]LineResult, len(params.Lines))
	for i, line := range params.Lines {
		subtotal += line.NetAmountCents
		lines[i] = LineResult{
			LineID:           line.ID,
			TaxCodeID:        line.TaxCodeID,
			Kind:             domain.KindExempt,
			RateBps:          0,
			NetAmountCents:   line.NetAmountCents,
			TaxAmountCents:   0,
			GrossAmountCents: line.NetAmountCents,
		}
	}

	return &Breakdown{
		SubtotalCents:   subtotal,
		TaxTotalCents:   0,
		GrandTotalCents: subtotal,
		RoundingMode:    rounding.ModePerLine,
		Lines:           lines,
		TotalsByKind: map[domain.TaxCodeKind]KindTotals{
			domain.KindExempt: {
				RateBps:          0,
				NetAmountCents:   subtotal,
				TaxAmountCents:   0,
				GrossAmountCents: subtotal,
			},
		},
		Flags: Flags{
			NeedsReverseChargeNote:      false,
			IsSmallBusinessNoVATCharged: true,
		},
	}
}

// applyStandardVAT resolves each line's kind and rate, taxes it, and
// aggregates totals by kind. Lines without an explicit tax code default to
// the jurisdiction's standard treatment.
func (p *GermanyPack) applyStandardVAT(ctx context.Context, params RuleParams) (*Breakdown, error) {
	var (
		subtotal int64
		taxTotal int64
		flags    Flags
	)
	lines := make([]LineResult, len(params.Lines))
	totalsByKind := make(map[domain.TaxCodeKind]KindTotals)

	for i, line := range params.Lines {
		kind := domain.KindStandard
		var rateBps int32

		if line.TaxCodeID != nil {
			code, err := p.codes.FindByID(ctx, params.TenantID, *line.TaxCodeID)
			if err != nil {
				return nil, err
			}
			kind = code.Kind
			if kind == domain.KindReverseCharge {
				flags.NeedsReverseChargeNote = true
			}
			rateBps, err = p.rateForCode(ctx, code, params.DocumentDate)
			if err != nil {
				return nil, err
			}
		} else {
			var err error
			rateBps, err = p.rateForKind(ctx, domain.KindStandard, params.DocumentDate, params.TenantID)
			if err != nil {
				return nil, err
			}
		}

		taxCents := rounding.CalculateTaxCents(line.NetAmountCents, rateBps)
		lines[i] = LineResult{
			LineID:           line.ID,
			TaxCodeID:        line.TaxCodeID,
			Kind:             kind,
			RateBps:          rateBps,
			NetAmountCents:   line.NetAmountCents,
			TaxAmountCents:   taxCents,
			GrossAmountCents: line.NetAmountCents + taxCents,
		}

		subtotal += line.NetAmountCents
		taxTotal += taxCents

		totals := totalsByKind[kind]
		totals.RateBps = rateBps
		totals.NetAmountCents += line.NetAmountCents
		totals.TaxAmountCents += taxCents
		totals.GrossAmountCents += line.NetAmountCents + taxCents
		totalsByKind[kind] = totals
	}

	return &Breakdown{
		SubtotalCents:   subtotal,
		TaxTotalCents:   taxTotal,
		GrandTotalCents: subtotal + taxTotal,
		RoundingMode:    rounding.ModePerLine,
		Lines:           lines,
		TotalsByKind:    totalsByKind,
		Flags:           flags,
	}, nil
}

// rateForKind resolves the effective rate for a kind name. Zero-rated kinds
// are always 0. Otherwise the tenant's codes of that kind are searched,
// preferring the first active one; with no configured code at all the
// statutory rate applies.
func (p *GermanyPack) rateForKind(ctx context.Context, kind domain.TaxCodeKind, documentDate time.Time, tenantID uuid.UUID) (int32, error) {
	if kind.ZeroRated() {
		return 0, nil
	}

	codes, err := p.codes.FindByKind(ctx, tenantID, kind)
	if err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return p.statutoryRate(kind), nil
	}

	chosen := codes[0]
	for _, c := range codes {
		if c.Active {
			chosen = c
			break
		}
	}
	return p.rateForCode(ctx, &chosen, documentDate)
}

// rateForCode resolves a concrete code's effective rate at the document
// date. A code with no rate row covering the date falls back to the
// statutory rate for its kind.
func (p *GermanyPack) rateForCode(ctx context.Context, code *domain.TaxCode, documentDate time.Time) (int32, error) {
	if code.Kind.ZeroRated() {
		return 0, nil
	}

	rate, err := p.rates.FindEffectiveRate(ctx, code.ID, code.TenantID, documentDate)
	if err != nil {
		return 0, err
	}
	if rate == nil {
		return p.statutoryRate(code.Kind), nil
	}
	return rate.RateBps, nil
}

func (p *GermanyPack) statutoryRate(kind domain.TaxCodeKind) int32 {
	switch kind {
	case domain.KindStandard:
		return germanyStandardRateBps
	case domain.KindReduced:
		return germanyReducedRateBps
	default:
		return 0
	}
}
