package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hadoan/kerniflow/internal/domain"
)

// TaxProfileRepository implements domain.TaxProfileRepository using
// PostgreSQL.
type TaxProfileRepository struct {
	pool *pgxpool.Pool
}

var _ domain.TaxProfileRepository = (*TaxProfileRepository)(nil)

// NewTaxProfileRepository creates a new PostgreSQL-backed profile repository.
func NewTaxProfileRepository(pool *pgxpool.Pool) *TaxProfileRepository {
	return &TaxProfileRepository{pool: pool}
}

// GetActive returns the profile whose effective window covers asOf,
// preferring the latest EffectiveFrom when windows overlap. Returns
// (nil, nil) when no profile covers the date.
func (r *TaxProfileRepository) GetActive(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*domain.TaxProfile, error) {
	const query = `
		SELECT id, tenant_id, country_code, regime, vat_id, currency_code,
		       filing_frequency, effective_from, effective_to, created_at, updated_at
		FROM tax_profiles
		WHERE tenant_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
		ORDER BY effective_from DESC
		LIMIT 1`

	profile, err := scanTaxProfile(r.pool.QueryRow(ctx, query, tenantID, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal(err, "tax_profile.get_active", "failed to query active tax profile")
	}
	return profile, nil
}

// Upsert inserts a profile or, when a row with the same
// (tenant_id, effective_from) exists, updates it in place.
func (r *TaxProfileRepository) Upsert(ctx context.Context, profile *domain.TaxProfile) (*domain.TaxProfile, error) {
	const query = `
		INSERT INTO tax_profiles (id, tenant_id, country_code, regime, vat_id, currency_code,
		                          filing_frequency, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, effective_from) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			regime = EXCLUDED.regime,
			vat_id = EXCLUDED.vat_id,
			currency_code = EXCLUDED.currency_code,
			filing_frequency = EXCLUDED.filing_frequency,
			effective_to = EXCLUDED.effective_to,
			updated_at = now()
		RETURNING id, tenant_id, country_code, regime, vat_id, currency_code,
		          filing_frequency, effective_from, effective_to, created_at, updated_at`

	stored, err := scanTaxProfile(r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.TenantID,
		profile.CountryCode,
		profile.Regime,
		profile.VATID,
		profile.CurrencyCode,
		profile.FilingFrequency,
		profile.EffectiveFrom,
		profile.EffectiveTo,
	))
	if err != nil {
		return nil, domain.Internal(err, "tax_profile.upsert", "failed to upsert tax profile")
	}
	return stored, nil
}

func scanTaxProfile(row pgx.Row) (*domain.TaxProfile, error) {
	var p domain.TaxProfile
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.CountryCode,
		&p.Regime,
		&p.VATID,
		&p.CurrencyCode,
		&p.FilingFrequency,
		&p.EffectiveFrom,
		&p.EffectiveTo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
