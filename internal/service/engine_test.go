package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/service"
	"github.com/hadoan/kerniflow/internal/tax"
)

func newStandardProfile(tenantID uuid.UUID, regime domain.Regime) domain.TaxProfile {
	return domain.TaxProfile{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CountryCode:   "DE",
		Regime:        regime,
		CurrencyCode:  "EUR",
		EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newEngine(profiles *fakeProfileRepo, packs ...tax.Pack) *service.Engine {
	if len(packs) == 0 {
		packs = []tax.Pack{tax.NewGermanyPack(&fakeCodeRepo{}, &fakeRateRepo{})}
	}
	return service.NewEngine(profiles, tax.NewRegistry(packs...), nil)
}

func TestEngine_Calculate_StandardVATDefaults(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	engine := newEngine(profiles)

	breakdown, err := engine.Calculate(context.Background(), tenantID, service.CalculateInput{
		DocumentDate: "2025-06-15",
		Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: 10000}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10000), breakdown.SubtotalCents)
	assert.Equal(t, int64(1900), breakdown.TaxTotalCents)
	assert.Equal(t, int64(11900), breakdown.GrandTotalCents)
}

func TestEngine_Calculate_SmallBusiness(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeSmallBusiness)}}
	engine := newEngine(profiles)

	breakdown, err := engine.Calculate(context.Background(), tenantID, service.CalculateInput{
		DocumentDate: "2025-06-15",
		Lines: []tax.LineItem{
			{ID: "l1", NetAmountCents: 10000},
			{ID: "l2", NetAmountCents: 2345},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), breakdown.TaxTotalCents)
	assert.True(t, breakdown.Flags.IsSmallBusinessNoVATCharged)
}

func TestEngine_Calculate_NoProfile(t *testing.T) {
	engine := newEngine(&fakeProfileRepo{})

	_, err := engine.Calculate(context.Background(), uuid.New(), service.CalculateInput{
		DocumentDate: "2025-06-15",
		Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: 10000}},
	})

	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestEngine_Calculate_DateOutsideProfileWindow(t *testing.T) {
	tenantID := uuid.New()
	profile := newStandardProfile(tenantID, domain.RegimeStandardVAT)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	profile.EffectiveTo = &end
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{profile}}
	engine := newEngine(profiles)

	_, err := engine.Calculate(context.Background(), tenantID, service.CalculateInput{
		DocumentDate: "2025-06-15",
		Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: 10000}},
	})

	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestEngine_Calculate_UnregisteredJurisdiction(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}
	engine := newEngine(profiles)

	_, err := engine.Calculate(context.Background(), tenantID, service.CalculateInput{
		Jurisdiction: "FR",
		DocumentDate: "2025-06-15",
		Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: 10000}},
	})

	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Contains(t, err.Error(), "FR")
}

func TestEngine_Calculate_CurrencyDefaultsToProfile(t *testing.T) {
	tenantID := uuid.New()
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{newStandardProfile(tenantID, domain.RegimeStandardVAT)}}

	var got tax.RuleParams
	pack := &tax.MockPack{
		ApplyRulesFunc: func(_ context.Context, params tax.RuleParams) (*tax.Breakdown, error) {
			got = params
			return &tax.Breakdown{TotalsByKind: map[domain.TaxCodeKind]tax.KindTotals{}}, nil
		},
	}
	engine := newEngine(profiles, pack)

	_, err := engine.Calculate(context.Background(), tenantID, service.CalculateInput{
		DocumentDate: "2025-06-15",
		Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: 100}},
	})

	require.NoError(t, err)
	assert.Equal(t, "EUR", got.CurrencyCode)
	assert.Equal(t, domain.RegimeStandardVAT, got.Regime)
	assert.Equal(t, tenantID, got.TenantID)
}

func TestEngine_Calculate_InvalidDate(t *testing.T) {
	engine := newEngine(&fakeProfileRepo{})

	for _, date := range []string{"", "not-a-date", "15.06.2025"} {
		_, err := engine.Calculate(context.Background(), uuid.New(), service.CalculateInput{
			DocumentDate: date,
		})
		require.Error(t, err, "date %q", date)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	}
}

func TestEngine_Calculate_LatestEffectiveFromWins(t *testing.T) {
	tenantID := uuid.New()
	older := newStandardProfile(tenantID, domain.RegimeStandardVAT)
	newer := newStandardProfile(tenantID, domain.RegimeSmallBusiness)
	newer.EffectiveFrom = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles := &fakeProfileRepo{profiles: []domain.TaxProfile{older, newer}}
	engine := newEngine(profiles)

	breakdown, err := engine.Calculate(context.Background(), tenantID, service.CalculateInput{
		DocumentDate: "2025-06-15",
		Lines:        []tax.LineItem{{ID: "l1", NetAmountCents: 10000}},
	})

	require.NoError(t, err)
	assert.True(t, breakdown.Flags.IsSmallBusinessNoVATCharged, "regime change at 2025-01-01 should apply")
}
