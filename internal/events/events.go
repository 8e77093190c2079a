// Package events publishes domain events to NATS for downstream consumers
// (invoice workflows, reporting). Publishing is fire-and-forget from the
// caller's point of view; the tax subsystem never depends on a consumer.
package events

import (
	"context"
	"time"
)

// SubjectSnapshotLocked is the NATS subject snapshot-locked events are
// published on.
const SubjectSnapshotLocked = "tax.snapshot.locked"

// SnapshotLockedEvent is emitted exactly once per snapshot, when the lock
// operation creates a new record. Idempotent replays do not re-publish.
type SnapshotLockedEvent struct {
	SnapshotID    string    `json:"snapshotId"`
	TenantID      string    `json:"tenantId"`
	SourceType    string    `json:"sourceType"`
	SourceID      string    `json:"sourceId"`
	Jurisdiction  string    `json:"jurisdiction"`
	Regime        string    `json:"regime"`
	CurrencyCode  string    `json:"currencyCode"`
	SubtotalCents int64     `json:"subtotalAmountCents"`
	TaxTotalCents int64     `json:"taxTotalAmountCents"`
	TotalCents    int64     `json:"totalAmountCents"`
	CalculatedAt  time.Time `json:"calculatedAt"`
}

// Publisher is the event publishing port consumed by the services.
type Publisher interface {
	SnapshotLocked(ctx context.Context, event SnapshotLockedEvent) error
}
