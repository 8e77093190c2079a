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

// TaxSnapshotRepository implements domain.TaxSnapshotRepository using
// PostgreSQL. The uniqueness constraint on (tenant_id, source_type,
// source_id) is what makes LockSnapshot atomic under concurrent callers.
type TaxSnapshotRepository struct {
	pool *pgxpool.Pool
}

var _ domain.TaxSnapshotRepository = (*TaxSnapshotRepository)(nil)

// NewTaxSnapshotRepository creates a new PostgreSQL-backed snapshot
// repository.
func NewTaxSnapshotRepository(pool *pgxpool.Pool) *TaxSnapshotRepository {
	return &TaxSnapshotRepository{pool: pool}
}

const taxSnapshotColumns = `id, tenant_id, source_type, source_id, jurisdiction, regime,
	rounding_mode, currency_code, calculated_at, subtotal_amount_cents,
	tax_total_amount_cents, total_amount_cents, breakdown, version, created_at, updated_at`

// LockSnapshot atomically inserts the draft or, when a snapshot already
// exists for (tenant, source type, source id), returns the existing row
// untouched. ON CONFLICT DO NOTHING keeps the insert race-free; the
// follow-up select observes whichever row won.
func (r *TaxSnapshotRepository) LockSnapshot(ctx context.Context, draft *domain.TaxSnapshot) (*domain.TaxSnapshot, error) {
	const insert = `
		INSERT INTO tax_snapshots (id, tenant_id, source_type, source_id, jurisdiction, regime,
		                           rounding_mode, currency_code, calculated_at, subtotal_amount_cents,
		                           tax_total_amount_cents, total_amount_cents, breakdown, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tenant_id, source_type, source_id) DO NOTHING
		RETURNING ` + taxSnapshotColumns

	stored, err := scanTaxSnapshot(r.pool.QueryRow(ctx, insert,
		draft.ID,
		draft.TenantID,
		draft.SourceType,
		draft.SourceID,
		draft.Jurisdiction,
		draft.Regime,
		draft.RoundingMode,
		draft.CurrencyCode,
		draft.CalculatedAt,
		draft.SubtotalCents,
		draft.TaxTotalCents,
		draft.TotalCents,
		draft.Breakdown,
		draft.Version,
	))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Internal(err, "tax_snapshot.lock", "failed to insert snapshot")
	}

	// The insert was a no-op, so another row holds the key. Read it.
	existing, err := r.FindBySource(ctx, draft.TenantID, draft.SourceType, draft.SourceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.Internal(nil, "tax_snapshot.lock", "snapshot insert conflicted but no row found")
	}
	return existing, nil
}

// FindBySource returns the snapshot for a source document key, or
// (nil, nil) when none exists.
func (r *TaxSnapshotRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*domain.TaxSnapshot, error) {
	const query = `
		SELECT ` + taxSnapshotColumns + `
		FROM tax_snapshots
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3`

	snapshot, err := scanTaxSnapshot(r.pool.QueryRow(ctx, query, tenantID, sourceType, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal(err, "tax_snapshot.find_by_source", "failed to query snapshot")
	}
	return snapshot, nil
}

// FindByPeriod returns snapshots whose calculation timestamp falls in
// [start, end], optionally filtered by source type.
func (r *TaxSnapshotRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time, sourceType string) ([]domain.TaxSnapshot, error) {
	const query = `
		SELECT ` + taxSnapshotColumns + `
		FROM tax_snapshots
		WHERE tenant_id = $1
		  AND calculated_at >= $2
		  AND calculated_at <= $3
		  AND ($4 = '' OR source_type = $4)
		ORDER BY calculated_at`

	rows, err := r.pool.Query(ctx, query, tenantID, start, end, sourceType)
	if err != nil {
		return nil, domain.Internal(err, "tax_snapshot.find_by_period", "failed to query snapshots")
	}
	defer rows.Close()

	var out []domain.TaxSnapshot
	for rows.Next() {
		snapshot, err := scanTaxSnapshot(rows)
		if err != nil {
			return nil, domain.Internal(err, "tax_snapshot.find_by_period", "failed to scan snapshot")
		}
		out = append(out, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "tax_snapshot.find_by_period", "failed to iterate snapshots")
	}
	return out, nil
}

func scanTaxSnapshot(row pgx.Row) (*domain.TaxSnapshot, error) {
	var s domain.TaxSnapshot
	err := row.Scan(
		&s.ID,
		&s.TenantID,
		&s.SourceType,
		&s.SourceID,
		&s.Jurisdiction,
		&s.Regime,
		&s.RoundingMode,
		&s.CurrencyCode,
		&s.CalculatedAt,
		&s.SubtotalCents,
		&s.TaxTotalCents,
		&s.TotalCents,
		&s.Breakdown,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
