package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/events"
	"github.com/hadoan/kerniflow/internal/service"
	"github.com/hadoan/kerniflow/internal/tax"
)

// fakePublisher records every published event so tests can assert on the
// exactly-once publishing contract.
type fakePublisher struct {
	published []events.SnapshotLockedEvent
}

func (f *fakePublisher) SnapshotLocked(_ context.Context, event events.SnapshotLockedEvent) error {
	f.published = append(f.published, event)
	return nil
}

func newSnapshotService(profiles *fakeProfileRepo, snapshots *fakeSnapshotRepo, publisher events.Publisher) *service.SnapshotService {
	engine := newEngine(profiles)
	return service.NewSnapshotService(engine, profiles, snapshots, publisher, nil, "", nil)
}

func lockInput(sourceType, sourceID string, netCents int64) service.LockInput {
	return service.LockInput{
		SourceType: sourceType,
		SourceID:   sourceID,
		CalculateInput: service.CalculateInput{
			DocumentDate: "2025-06-15",
			Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: netCents}},
		},
	}
}

func TestSnapshotService_Lock_CreatesSnapshot(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	snapshots := newFakeSnapshotRepo()
	publisher := &fakePublisher{}
	svc := newSnapshotService(profiles, snapshots, publisher)

	resp, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))

	require.NoError(t, err)
	assert.Equal(t, int64(10000), resp.SubtotalCents)
	assert.Equal(t, int64(1900), resp.TaxTotalCents)
	assert.Equal(t, int64(11900), resp.TotalCents)
	assert.Equal(t, "DE", resp.Jurisdiction)
	assert.Equal(t, string(domain.RegimeStandardVAT), resp.Regime)
	assert.Equal(t, "EUR", resp.CurrencyCode)
	assert.Equal(t, int32(1), resp.Version)

	var breakdown tax.Breakdown
	require.NoError(t, json.Unmarshal(resp.Breakdown, &breakdown))
	assert.Equal(t, int64(11900), breakdown.GrandTotalCents)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, resp.ID, publisher.published[0].SnapshotID)
	assert.Equal(t, int64(1900), publisher.published[0].TaxTotalCents)
}

func TestSnapshotService_Lock_IdempotentFreezesFirstResult(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	snapshots := newFakeSnapshotRepo()
	publisher := &fakePublisher{}
	svc := newSnapshotService(profiles, snapshots, publisher)

	first, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))
	require.NoError(t, err)

	// The second lock carries a different net amount. The snapshot must not
	// change: same id, totals frozen at the first call's values.
	second, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 20000))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(10000), second.SubtotalCents)
	assert.Equal(t, int64(1900), second.TaxTotalCents)
	assert.Equal(t, int64(11900), second.TotalCents)

	assert.Len(t, publisher.published, 1)
	assert.Equal(t, 1, snapshots.lockCalls)
}

func TestSnapshotService_Lock_DistinctKeysDistinctSnapshots(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	snapshots := newFakeSnapshotRepo()
	svc := newSnapshotService(profiles, snapshots, nil)

	a, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))
	require.NoError(t, err)
	b, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-002", 10000))
	require.NoError(t, err)
	c, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeExpense, "inv-001", 10000))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, domain.SourceTypeExpense, c.SourceType)
}

func TestSnapshotService_Lock_FailedCalculationPersistsNothing(t *testing.T) {
	tenantID := uuid.New()
	snapshots := newFakeSnapshotRepo()
	publisher := &fakePublisher{}
	svc := newSnapshotService(&fakeProfileRepo{}, snapshots, publisher)

	_, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))

	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Empty(t, publisher.published)
	assert.Equal(t, 0, snapshots.lockCalls)

	_, err = svc.FindBySource(context.Background(), tenantID, domain.SourceTypeInvoice, "inv-001")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestSnapshotService_Lock_RaceLoserObservesWinner(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	snapshots := newFakeSnapshotRepo()
	publisher := &fakePublisher{}
	svc := newSnapshotService(profiles, snapshots, publisher)

	// Simulate a concurrent winner landing between the fast-path lookup and
	// the insert: seed the repository with the winning row directly.
	winner := &domain.TaxSnapshot{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SourceType:    domain.SourceTypeInvoice,
		SourceID:      "inv-001",
		Jurisdiction:  "DE",
		Regime:        domain.RegimeStandardVAT,
		RoundingMode:  "PER_LINE",
		CurrencyCode:  "EUR",
		CalculatedAt:  time.Now().UTC(),
		SubtotalCents: 5000,
		TaxTotalCents: 950,
		TotalCents:    5950,
		Breakdown:     []byte(`{}`),
		Version:       1,
	}
	raceRepo := &racingSnapshotRepo{fakeSnapshotRepo: snapshots, winner: winner}
	raceSvc := service.NewSnapshotService(newEngine(profiles), profiles, raceRepo, publisher, nil, "", nil)

	resp, err := raceSvc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))

	require.NoError(t, err)
	assert.Equal(t, winner.ID.String(), resp.ID)
	assert.Equal(t, int64(5000), resp.SubtotalCents)
	assert.Empty(t, publisher.published)

	_, err = svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))
	require.NoError(t, err)
}

// racingSnapshotRepo inserts a predetermined winner just before the caller's
// own insert, so the caller's LockSnapshot returns the winner's row.
type racingSnapshotRepo struct {
	*fakeSnapshotRepo
	winner *domain.TaxSnapshot
}

func (r *racingSnapshotRepo) LockSnapshot(ctx context.Context, draft *domain.TaxSnapshot) (*domain.TaxSnapshot, error) {
	if r.winner != nil {
		if _, err := r.fakeSnapshotRepo.LockSnapshot(ctx, r.winner); err != nil {
			return nil, err
		}
		r.winner = nil
	}
	return r.fakeSnapshotRepo.LockSnapshot(ctx, draft)
}

func TestSnapshotService_FindByPeriod(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	snapshots := newFakeSnapshotRepo()
	svc := newSnapshotService(profiles, snapshots, nil)

	_, err := svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeInvoice, "inv-001", 10000))
	require.NoError(t, err)
	_, err = svc.Lock(context.Background(), tenantID, lockInput(domain.SourceTypeExpense, "exp-001", 4000))
	require.NoError(t, err)

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	all, err := svc.FindByPeriod(context.Background(), tenantID, start, end, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	invoices, err := svc.FindByPeriod(context.Background(), tenantID, start, end, domain.SourceTypeInvoice)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "inv-001", invoices[0].SourceID)

	none, err := svc.FindByPeriod(context.Background(), tenantID, start.Add(-48*time.Hour), start.Add(-24*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, none)

	other, err := svc.FindByPeriod(context.Background(), uuid.New(), start, end, "")
	require.NoError(t, err)
	assert.Empty(t, other)
}
