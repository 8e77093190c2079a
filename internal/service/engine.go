// Package service implements the tax subsystem's use cases: live
// calculation previews, the idempotent snapshot lock, and management of the
// effective-dated reference data the jurisdiction packs consume.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/tax"
	"github.com/hadoan/kerniflow/internal/telemetry"
)

// CalculateInput is the external calculation request. DocumentDate is an
// ISO date ("2006-01-02") or RFC 3339 timestamp. Jurisdiction and
// CurrencyCode are optional; they default to the active profile's country
// and currency.
type CalculateInput struct {
	Jurisdiction string
	DocumentDate string
	CurrencyCode string
	Customer     *tax.CustomerTaxInfo
	Lines        []tax.LineItem
}

// Engine resolves the applicable tax profile for a document date and
// delegates rule application to the matching jurisdiction pack. It never
// caches or persists a breakdown.
type Engine struct {
	profiles domain.TaxProfileRepository
	registry *tax.Registry
	metrics  *telemetry.TaxMetrics
	logger   *slog.Logger
}

// NewEngine creates a tax engine over the given profile repository and pack
// registry.
func NewEngine(profiles domain.TaxProfileRepository, registry *tax.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		profiles: profiles,
		registry: registry,
		logger:   logger,
	}
}

// SetMetrics attaches calculation telemetry. May be left unset; tests and
// embedded callers run without collectors.
func (e *Engine) SetMetrics(metrics *telemetry.TaxMetrics) {
	e.metrics = metrics
}

// Calculate computes a live tax breakdown for the given tenant and input.
func (e *Engine) Calculate(ctx context.Context, tenantID uuid.UUID, input CalculateInput) (*tax.Breakdown, error) {
	breakdown, jurisdiction, regime, err := e.calculate(ctx, tenantID, input)
	if e.metrics != nil {
		if err != nil {
			e.metrics.CalculationFailures.WithLabelValues(domain.ErrorCode(err)).Inc()
		} else {
			e.metrics.CalculationsTotal.WithLabelValues(jurisdiction, regime).Inc()
		}
	}
	return breakdown, err
}

func (e *Engine) calculate(ctx context.Context, tenantID uuid.UUID, input CalculateInput) (*tax.Breakdown, string, string, error) {
	documentDate, err := ParseDocumentDate(input.DocumentDate)
	if err != nil {
		return nil, "", "", err
	}

	profile, err := e.resolveProfile(ctx, tenantID, documentDate)
	if err != nil {
		return nil, "", "", err
	}

	jurisdiction := input.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = profile.CountryCode
	}
	pack, err := e.registry.Get(jurisdiction)
	if err != nil {
		return nil, "", "", err
	}

	currency := input.CurrencyCode
	if currency == "" {
		currency = profile.CurrencyCode
	}

	breakdown, err := pack.ApplyRules(ctx, tax.RuleParams{
		TenantID:     tenantID,
		Regime:       profile.Regime,
		DocumentDate: documentDate,
		CurrencyCode: currency,
		Customer:     input.Customer,
		Lines:        input.Lines,
	})
	if err != nil {
		return nil, "", "", err
	}

	e.logger.Debug("tax calculation completed",
		slog.String("tenant_id", tenantID.String()),
		slog.String("jurisdiction", jurisdiction),
		slog.String("regime", string(profile.Regime)),
		slog.Int64("tax_total_cents", breakdown.TaxTotalCents),
	)

	return breakdown, jurisdiction, string(profile.Regime), nil
}

// resolveProfile returns the active profile at the document date. The
// window is re-checked even though the repository query already filters by
// it, because some flows hand the engine a profile directly.
func (e *Engine) resolveProfile(ctx context.Context, tenantID uuid.UUID, documentDate time.Time) (*domain.TaxProfile, error) {
	profile, err := e.profiles.GetActive(ctx, tenantID, documentDate)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.Covers(documentDate) {
		return nil, domain.ErrNoActiveTaxProfile
	}
	return profile, nil
}

// ParseDocumentDate parses an ISO date or RFC 3339 timestamp into UTC.
func ParseDocumentDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.Invalid("engine.calculate", "document date is required")
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.Invalid("engine.calculate", "document date must be an ISO date or RFC 3339 timestamp")
}
