package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source document types a snapshot can be locked against.
const (
	SourceTypeInvoice = "INVOICE"
	SourceTypeExpense = "EXPENSE"
)

// Snapshot errors.
var (
	ErrSnapshotNotFound = &Error{Code: ENOTFOUND, Message: "Tax snapshot not found"}
)

// TaxSnapshot is the immutable, persisted record of a tax breakdown computed
// for one source document. At most one snapshot exists per
// (tenant, source type, source id); the storage layer enforces this with a
// uniqueness constraint, and a snapshot is never mutated after creation.
type TaxSnapshot struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	SourceType    string // e.g. SourceTypeInvoice
	SourceID      string
	Jurisdiction  string // country code the calculation ran under
	Regime        Regime // regime at calculation time, for audit
	RoundingMode  string
	CurrencyCode  string
	CalculatedAt  time.Time
	SubtotalCents int64
	TaxTotalCents int64
	TotalCents    int64
	Breakdown     []byte // full breakdown serialized as an opaque JSON blob
	Version       int32  // always 1; no revision support
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaxSnapshotRepository is the port for snapshot persistence.
//
// LockSnapshot is the atomic "insert if absent, otherwise return existing"
// primitive keyed on (tenant, source type, source id). Two concurrent lock
// requests for the same key must converge on one row; whichever write wins,
// both callers observe the same resulting snapshot. An application-level
// check-then-insert is not an acceptable implementation.
//
// FindBySource returns (nil, nil) when no snapshot exists for the key.
type TaxSnapshotRepository interface {
	LockSnapshot(ctx context.Context, draft *TaxSnapshot) (*TaxSnapshot, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*TaxSnapshot, error)
	FindByPeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time, sourceType string) ([]TaxSnapshot, error)
}
