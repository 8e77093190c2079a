package tax

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
)

// MockPack is a test implementation of Pack.
type MockPack struct {
	JurisdictionCode string
	RateBpsFunc      func(ctx context.Context, ref string, documentDate time.Time, tenantID uuid.UUID) (int32, error)
	ApplyRulesFunc   func(ctx context.Context, params RuleParams) (*Breakdown, error)
}

var _ Pack = (*MockPack)(nil)

func (m *MockPack) Jurisdiction() string {
	if m.JurisdictionCode == "" {
		return JurisdictionDE
	}
	return m.JurisdictionCode
}

func (m *MockPack) RateBps(ctx context.Context, ref string, documentDate time.Time, tenantID uuid.UUID) (int32, error) {
	if m.RateBpsFunc != nil {
		return m.RateBpsFunc(ctx, ref, documentDate, tenantID)
	}
	return 0, nil
}

func (m *MockPack) ApplyRules(ctx context.Context, params RuleParams) (*Breakdown, error) {
	if m.ApplyRulesFunc != nil {
		return m.ApplyRulesFunc(ctx, params)
	}
	return &Breakdown{TotalsByKind: map[domain.TaxCodeKind]KindTotals{}}, nil
}
