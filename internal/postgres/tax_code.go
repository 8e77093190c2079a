package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hadoan/kerniflow/internal/domain"
)

// TaxCodeRepository implements domain.TaxCodeRepository using PostgreSQL.
type TaxCodeRepository struct {
	pool *pgxpool.Pool
}

var _ domain.TaxCodeRepository = (*TaxCodeRepository)(nil)

// NewTaxCodeRepository creates a new PostgreSQL-backed tax code repository.
func NewTaxCodeRepository(pool *pgxpool.Pool) *TaxCodeRepository {
	return &TaxCodeRepository{pool: pool}
}

const taxCodeColumns = `id, tenant_id, code, kind, label, active, created_at, updated_at`

// FindByID returns a tax code by id, or ErrTaxCodeNotFound.
func (r *TaxCodeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.TaxCode, error) {
	const query = `SELECT ` + taxCodeColumns + ` FROM tax_codes WHERE tenant_id = $1 AND id = $2`

	code, err := scanTaxCode(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaxCodeNotFound
		}
		return nil, domain.Internal(err, "tax_code.find_by_id", "failed to query tax code")
	}
	return code, nil
}

// FindByCode returns a tax code by its tenant-scoped code string, or
// ErrTaxCodeNotFound.
func (r *TaxCodeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*domain.TaxCode, error) {
	const query = `SELECT ` + taxCodeColumns + ` FROM tax_codes WHERE tenant_id = $1 AND code = $2`

	found, err := scanTaxCode(r.pool.QueryRow(ctx, query, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaxCodeNotFound
		}
		return nil, domain.Internal(err, "tax_code.find_by_code", "failed to query tax code")
	}
	return found, nil
}

// FindByKind returns all of a tenant's tax codes with the given kind.
func (r *TaxCodeRepository) FindByKind(ctx context.Context, tenantID uuid.UUID, kind domain.TaxCodeKind) ([]domain.TaxCode, error) {
	const query = `SELECT ` + taxCodeColumns + ` FROM tax_codes
		WHERE tenant_id = $1 AND kind = $2
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, tenantID, kind)
	if err != nil {
		return nil, domain.Internal(err, "tax_code.find_by_kind", "failed to query tax codes")
	}
	defer rows.Close()
	return collectTaxCodes(rows, "tax_code.find_by_kind")
}

// FindAll returns all of a tenant's tax codes.
func (r *TaxCodeRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]domain.TaxCode, error) {
	const query = `SELECT ` + taxCodeColumns + ` FROM tax_codes
		WHERE tenant_id = $1
		ORDER BY code`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, domain.Internal(err, "tax_code.find_all", "failed to query tax codes")
	}
	defer rows.Close()
	return collectTaxCodes(rows, "tax_code.find_all")
}

// Create inserts a new tax code. A duplicate (tenant_id, code) pair returns
// ErrDuplicateTaxCode.
func (r *TaxCodeRepository) Create(ctx context.Context, code *domain.TaxCode) (*domain.TaxCode, error) {
	const query = `
		INSERT INTO tax_codes (id, tenant_id, code, kind, label, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taxCodeColumns

	stored, err := scanTaxCode(r.pool.QueryRow(ctx, query,
		code.ID, code.TenantID, code.Code, code.Kind, code.Label, code.Active,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateTaxCode
		}
		return nil, domain.Internal(err, "tax_code.create", "failed to create tax code")
	}
	return stored, nil
}

// Update rewrites a tax code's mutable fields (label, active).
func (r *TaxCodeRepository) Update(ctx context.Context, code *domain.TaxCode) (*domain.TaxCode, error) {
	const query = `
		UPDATE tax_codes
		SET label = $3, active = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + taxCodeColumns

	stored, err := scanTaxCode(r.pool.QueryRow(ctx, query,
		code.TenantID, code.ID, code.Label, code.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaxCodeNotFound
		}
		return nil, domain.Internal(err, "tax_code.update", "failed to update tax code")
	}
	return stored, nil
}

// Delete removes a tax code and, through the foreign key cascade, its rates.
func (r *TaxCodeRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	const query = `DELETE FROM tax_codes WHERE tenant_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return domain.Internal(err, "tax_code.delete", "failed to delete tax code")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaxCodeNotFound
	}
	return nil
}

func scanTaxCode(row pgx.Row) (*domain.TaxCode, error) {
	var c domain.TaxCode
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.Code,
		&c.Kind,
		&c.Label,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectTaxCodes(rows pgx.Rows, op string) ([]domain.TaxCode, error) {
	var out []domain.TaxCode
	for rows.Next() {
		code, err := scanTaxCode(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan tax code")
		}
		out = append(out, *code)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate tax codes")
	}
	return out, nil
}
