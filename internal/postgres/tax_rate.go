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

// TaxRateRepository implements domain.TaxRateRepository using PostgreSQL.
type TaxRateRepository struct {
	pool *pgxpool.Pool
}

var _ domain.TaxRateRepository = (*TaxRateRepository)(nil)

// NewTaxRateRepository creates a new PostgreSQL-backed tax rate repository.
func NewTaxRateRepository(pool *pgxpool.Pool) *TaxRateRepository {
	return &TaxRateRepository{pool: pool}
}

const taxRateColumns = `id, tenant_id, tax_code_id, rate_bps, effective_from, effective_to, created_at, updated_at`

// Create inserts a new rate window for a tax code.
func (r *TaxRateRepository) Create(ctx context.Context, rate *domain.TaxRate) (*domain.TaxRate, error) {
	const query = `
		INSERT INTO tax_rates (id, tenant_id, tax_code_id, rate_bps, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taxRateColumns

	stored, err := scanTaxRate(r.pool.QueryRow(ctx, query,
		rate.ID, rate.TenantID, rate.TaxCodeID, rate.RateBps, rate.EffectiveFrom, rate.EffectiveTo,
	))
	if err != nil {
		return nil, domain.Internal(err, "tax_rate.create", "failed to create tax rate")
	}
	return stored, nil
}

// FindEffectiveRate returns the rate whose window covers asOf, preferring
// the most recently started window. Returns (nil, nil) when none covers.
func (r *TaxRateRepository) FindEffectiveRate(ctx context.Context, taxCodeID, tenantID uuid.UUID, asOf time.Time) (*domain.TaxRate, error) {
	const query = `
		SELECT ` + taxRateColumns + `
		FROM tax_rates
		WHERE tenant_id = $1
		  AND tax_code_id = $2
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC
		LIMIT 1`

	rate, err := scanTaxRate(r.pool.QueryRow(ctx, query, tenantID, taxCodeID, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal(err, "tax_rate.find_effective", "failed to query effective tax rate")
	}
	return rate, nil
}

// FindByTaxCode returns all rate windows for a tax code, newest first.
func (r *TaxRateRepository) FindByTaxCode(ctx context.Context, tenantID, taxCodeID uuid.UUID) ([]domain.TaxRate, error) {
	const query = `
		SELECT ` + taxRateColumns + `
		FROM tax_rates
		WHERE tenant_id = $1 AND tax_code_id = $2
		ORDER BY effective_from DESC`

	rows, err := r.pool.Query(ctx, query, tenantID, taxCodeID)
	if err != nil {
		return nil, domain.Internal(err, "tax_rate.find_by_code", "failed to query tax rates")
	}
	defer rows.Close()

	var out []domain.TaxRate
	for rows.Next() {
		rate, err := scanTaxRate(rows)
		if err != nil {
			return nil, domain.Internal(err, "tax_rate.find_by_code", "failed to scan tax rate")
		}
		out = append(out, *rate)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "tax_rate.find_by_code", "failed to iterate tax rates")
	}
	return out, nil
}

// Update rewrites a rate window.
func (r *TaxRateRepository) Update(ctx context.Context, rate *domain.TaxRate) (*domain.TaxRate, error) {
	const query = `
		UPDATE tax_rates
		SET rate_bps = $3, effective_from = $4, effective_to = $5, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + taxRateColumns

	stored, err := scanTaxRate(r.pool.QueryRow(ctx, query,
		rate.TenantID, rate.ID, rate.RateBps, rate.EffectiveFrom, rate.EffectiveTo,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaxRateNotFound
		}
		return nil, domain.Internal(err, "tax_rate.update", "failed to update tax rate")
	}
	return stored, nil
}

func scanTaxRate(row pgx.Row) (*domain.TaxRate, error) {
	var r domain.TaxRate
	err := row.Scan(
		&r.ID,
		&r.TenantID,
		&r.TaxCodeID,
		&r.RateBps,
		&r.EffectiveFrom,
		&r.EffectiveTo,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
