package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/events"
	"github.com/hadoan/kerniflow/internal/tax"
	"github.com/hadoan/kerniflow/internal/telemetry"
)

// LockInput is the external snapshot lock request: a calculation input plus
// the source document key the result is frozen against.
type LockInput struct {
	SourceType string
	SourceID   string
	CalculateInput
}

// SnapshotResponse is the external representation of a snapshot, with
// timestamps rendered as RFC 3339 strings and the breakdown passed through
// as the opaque blob it was frozen with.
type SnapshotResponse struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenantId"`
	SourceType    string          `json:"sourceType"`
	SourceID      string          `json:"sourceId"`
	Jurisdiction  string          `json:"jurisdiction"`
	Regime        string          `json:"regime"`
	RoundingMode  string          `json:"roundingMode"`
	CurrencyCode  string          `json:"currencyCode"`
	CalculatedAt  string          `json:"calculatedAt"`
	SubtotalCents int64           `json:"subtotalAmountCents"`
	TaxTotalCents int64           `json:"taxTotalAmountCents"`
	TotalCents    int64           `json:"totalAmountCents"`
	Breakdown     json.RawMessage `json:"breakdown"`
	Version       int32           `json:"version"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// Calculator is the engine seam SnapshotService depends on.
type Calculator interface {
	Calculate(ctx context.Context, tenantID uuid.UUID, input CalculateInput) (*tax.Breakdown, error)
}

// SnapshotService freezes tax calculations into immutable, idempotently
// created snapshots. Locking the same source key twice returns the original
// record unchanged, even when the supplied lines differ; correctness under
// concurrent first-locks rests on the repository's atomic
// insert-or-return-existing primitive, never on a check-then-insert.
type SnapshotService struct {
	engine              Calculator
	profiles            domain.TaxProfileRepository
	snapshots           domain.TaxSnapshotRepository
	publisher           events.Publisher
	metrics             *telemetry.TaxMetrics
	defaultJurisdiction string
	logger              *slog.Logger
	now                 func() time.Time
}

// NewSnapshotService creates the snapshot lock service. publisher and
// metrics may be nil; event publishing and telemetry are then skipped.
func NewSnapshotService(
	engine Calculator,
	profiles domain.TaxProfileRepository,
	snapshots domain.TaxSnapshotRepository,
	publisher events.Publisher,
	metrics *telemetry.TaxMetrics,
	defaultJurisdiction string,
	logger *slog.Logger,
) *SnapshotService {
	if defaultJurisdiction == "" {
		defaultJurisdiction = tax.JurisdictionDE
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotService{
		engine:              engine,
		profiles:            profiles,
		snapshots:           snapshots,
		publisher:           publisher,
		metrics:             metrics,
		defaultJurisdiction: defaultJurisdiction,
		logger:              logger,
		now:                 time.Now,
	}
}

// Lock freezes the tax calculation for one source document. The first call
// for a (tenant, sourceType, sourceId) key computes and persists a
// snapshot; every later call returns that snapshot unchanged without
// recomputing or comparing inputs.
func (s *SnapshotService) Lock(ctx context.Context, tenantID uuid.UUID, input LockInput) (*SnapshotResponse, error) {
	const op = "snapshot.lock"

	existing, err := s.snapshots.FindBySource(ctx, tenantID, input.SourceType, input.SourceID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to look up existing snapshot")
	}
	if existing != nil {
		if s.metrics != nil {
			s.metrics.SnapshotLockReplays.WithLabelValues(input.SourceType).Inc()
		}
		s.logger.Debug("snapshot already locked, returning existing",
			slog.String("tenant_id", tenantID.String()),
			slog.String("source_type", input.SourceType),
			slog.String("source_id", input.SourceID),
		)
		return toSnapshotResponse(existing), nil
	}

	breakdown, err := s.engine.Calculate(ctx, tenantID, input.CalculateInput)
	if err != nil {
		return nil, err
	}

	documentDate, err := ParseDocumentDate(input.DocumentDate)
	if err != nil {
		return nil, err
	}

	// Re-resolve the profile to capture the regime label that applied at
	// the document date, independent of the breakdown itself.
	profile, err := s.profiles.GetActive(ctx, tenantID, documentDate)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.Covers(documentDate) {
		return nil, domain.ErrNoActiveTaxProfile
	}

	jurisdiction := input.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = s.defaultJurisdiction
	}
	currency := input.CurrencyCode
	if currency == "" {
		currency = profile.CurrencyCode
	}

	blob, err := json.Marshal(breakdown)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to serialize breakdown")
	}

	draft := &domain.TaxSnapshot{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SourceType:    input.SourceType,
		SourceID:      input.SourceID,
		Jurisdiction:  jurisdiction,
		Regime:        profile.Regime,
		RoundingMode:  string(breakdown.RoundingMode),
		CurrencyCode:  currency,
		CalculatedAt:  s.now().UTC(),
		SubtotalCents: breakdown.SubtotalCents,
		TaxTotalCents: breakdown.TaxTotalCents,
		TotalCents:    breakdown.GrandTotalCents,
		Breakdown:     blob,
		Version:       1,
	}

	persisted, err := s.snapshots.LockSnapshot(ctx, draft)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to persist snapshot")
	}

	if persisted.ID == draft.ID {
		s.recordLocked(ctx, persisted, input.SourceType)
	} else {
		// A concurrent lock for the same key won the insert; the storage
		// constraint resolved the race and we observe the winner's row.
		if s.metrics != nil {
			s.metrics.SnapshotLockRaces.Inc()
		}
		s.logger.Info("concurrent snapshot lock resolved by storage constraint",
			slog.String("tenant_id", tenantID.String()),
			slog.String("source_type", input.SourceType),
			slog.String("source_id", input.SourceID),
		)
	}

	return toSnapshotResponse(persisted), nil
}

// FindBySource returns the snapshot for a source document key.
func (s *SnapshotService) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*SnapshotResponse, error) {
	snapshot, err := s.snapshots.FindBySource(ctx, tenantID, sourceType, sourceID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "snapshot.find", "failed to look up snapshot")
	}
	if snapshot == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return toSnapshotResponse(snapshot), nil
}

// FindByPeriod returns the snapshots whose calculation timestamp falls in
// [start, end], optionally filtered by source type.
func (s *SnapshotService) FindByPeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time, sourceType string) ([]SnapshotResponse, error) {
	snapshots, err := s.snapshots.FindByPeriod(ctx, tenantID, start, end, sourceType)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "snapshot.period", "failed to list snapshots")
	}

	out := make([]SnapshotResponse, len(snapshots))
	for i := range snapshots {
		out[i] = *toSnapshotResponse(&snapshots[i])
	}
	return out, nil
}

// recordLocked emits telemetry and the snapshot-locked event for a freshly
// created snapshot. Publishing is best-effort: the snapshot is already
// durable, so a broker failure is logged and swallowed.
func (s *SnapshotService) recordLocked(ctx context.Context, snapshot *domain.TaxSnapshot, sourceType string) {
	if s.metrics != nil {
		s.metrics.SnapshotsLocked.WithLabelValues(sourceType, snapshot.Jurisdiction).Inc()
		s.metrics.TaxTotalCents.WithLabelValues(snapshot.Jurisdiction).Observe(float64(snapshot.TaxTotalCents))
	}

	if s.publisher == nil {
		return
	}
	event := events.SnapshotLockedEvent{
		SnapshotID:    snapshot.ID.String(),
		TenantID:      snapshot.TenantID.String(),
		SourceType:    snapshot.SourceType,
		SourceID:      snapshot.SourceID,
		Jurisdiction:  snapshot.Jurisdiction,
		Regime:        string(snapshot.Regime),
		CurrencyCode:  snapshot.CurrencyCode,
		SubtotalCents: snapshot.SubtotalCents,
		TaxTotalCents: snapshot.TaxTotalCents,
		TotalCents:    snapshot.TotalCents,
		CalculatedAt:  snapshot.CalculatedAt,
	}
	if err := s.publisher.SnapshotLocked(ctx, event); err != nil {
		s.logger.Error("failed to publish snapshot locked event",
			slog.String("snapshot_id", snapshot.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func toSnapshotResponse(s *domain.TaxSnapshot) *SnapshotResponse {
	return &SnapshotResponse{
		ID:            s.ID.String(),
		TenantID:      s.TenantID.String(),
		SourceType:    s.SourceType,
		SourceID:      s.SourceID,
		Jurisdiction:  s.Jurisdiction,
		Regime:        string(s.Regime),
		RoundingMode:  s.RoundingMode,
		CurrencyCode:  s.CurrencyCode,
		CalculatedAt:  s.CalculatedAt.UTC().Format(time.RFC3339),
		SubtotalCents: s.SubtotalCents,
		TaxTotalCents: s.TaxTotalCents,
		TotalCents:    s.TotalCents,
		Breakdown:     json.RawMessage(s.Breakdown),
		Version:       s.Version,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
