package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hadoan/kerniflow/internal/domain"
)

// fakeProfileRepo is an in-memory TaxProfileRepository.
type fakeProfileRepo struct {
	profiles []domain.TaxProfile
}

func (f *fakeProfileRepo) GetActive(_ context.Context, tenantID uuid.UUID, asOf time.Time) (*domain.TaxProfile, error) {
	var best *domain.TaxProfile
	for i := range f.profiles {
		p := &f.profiles[i]
		if p.TenantID != tenantID || !p.Covers(asOf) {
			continue
		}
		if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	p := *best
	return &p, nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile *domain.TaxProfile) (*domain.TaxProfile, error) {
	for i := range f.profiles {
		if f.profiles[i].TenantID == profile.TenantID && f.profiles[i].EffectiveFrom.Equal(profile.EffectiveFrom) {
			profile.ID = f.profiles[i].ID
			f.profiles[i] = *profile
			return profile, nil
		}
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	f.profiles = append(f.profiles, *profile)
	return profile, nil
}

// fakeCodeRepo is a minimal in-memory TaxCodeRepository; engine tests only
// hit the lookup methods.
type fakeCodeRepo struct {
	codes []domain.TaxCode
}

func (f *fakeCodeRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*domain.TaxCode, error) {
	for i := range f.codes {
		if f.codes[i].TenantID == tenantID && f.codes[i].ID == id {
			c := f.codes[i]
			return &c, nil
		}
	}
	return nil, domain.ErrTaxCodeNotFound
}

func (f *fakeCodeRepo) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*domain.TaxCode, error) {
	for i := range f.codes {
		if f.codes[i].TenantID == tenantID && f.codes[i].Code == code {
			c := f.codes[i]
			return &c, nil
		}
	}
	return nil, domain.ErrTaxCodeNotFound
}

func (f *fakeCodeRepo) FindByKind(_ context.Context, tenantID uuid.UUID, kind domain.TaxCodeKind) ([]domain.TaxCode, error) {
	var out []domain.TaxCode
	for _, c := range f.codes {
		if c.TenantID == tenantID && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCodeRepo) FindAll(_ context.Context, tenantID uuid.UUID) ([]domain.TaxCode, error) {
	var out []domain.TaxCode
	for _, c := range f.codes {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCodeRepo) Create(_ context.Context, code *domain.TaxCode) (*domain.TaxCode, error) {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	f.codes = append(f.codes, *code)
	return code, nil
}

func (f *fakeCodeRepo) Update(_ context.Context, code *domain.TaxCode) (*domain.TaxCode, error) {
	for i := range f.codes {
		if f.codes[i].ID == code.ID {
			f.codes[i] = *code
			return code, nil
		}
	}
	return nil, domain.ErrTaxCodeNotFound
}

func (f *fakeCodeRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	for i := range f.codes {
		if f.codes[i].TenantID == tenantID && f.codes[i].ID == id {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaxCodeNotFound
}

// fakeRateRepo is a minimal in-memory TaxRateRepository.
type fakeRateRepo struct {
	rates []domain.TaxRate
}

func (f *fakeRateRepo) Create(_ context.Context, rate *domain.TaxRate) (*domain.TaxRate, error) {
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	f.rates = append(f.rates, *rate)
	return rate, nil
}

func (f *fakeRateRepo) FindEffectiveRate(_ context.Context, taxCodeID, tenantID uuid.UUID, asOf time.Time) (*domain.TaxRate, error) {
	var best *domain.TaxRate
	for i := range f.rates {
		r := &f.rates[i]
		if r.TenantID != tenantID || r.TaxCodeID != taxCodeID || !r.Covers(asOf) {
			continue
		}
		if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	r := *best
	return &r, nil
}

func (f *fakeRateRepo) FindByTaxCode(_ context.Context, tenantID, taxCodeID uuid.UUID) ([]domain.TaxRate, error) {
	var out []domain.TaxRate
	for _, r := range f.rates {
		if r.TenantID == tenantID && r.TaxCodeID == taxCodeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRateRepo) Update(_ context.Context, rate *domain.TaxRate) (*domain.TaxRate, error) {
	for i := range f.rates {
		if f.rates[i].ID == rate.ID {
			f.rates[i] = *rate
			return rate, nil
		}
	}
	return nil, domain.ErrTaxRateNotFound
}

// fakeSnapshotRepo is an in-memory TaxSnapshotRepository implementing the
// atomic insert-or-return-existing semantics of the storage constraint.
type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]domain.TaxSnapshot
	lockCalls int
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]domain.TaxSnapshot)}
}

func snapshotKey(tenantID uuid.UUID, sourceType, sourceID string) string {
	return tenantID.String() + "/" + sourceType + "/" + sourceID
}

func (f *fakeSnapshotRepo) LockSnapshot(_ context.Context, draft *domain.TaxSnapshot) (*domain.TaxSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lockCalls++
	key := snapshotKey(draft.TenantID, draft.SourceType, draft.SourceID)
	if existing, ok := f.snapshots[key]; ok {
		return &existing, nil
	}

	stored := *draft
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	f.snapshots[key] = stored
	return &stored, nil
}

func (f *fakeSnapshotRepo) FindBySource(_ context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*domain.TaxSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.snapshots[snapshotKey(tenantID, sourceType, sourceID)]; ok {
		return &existing, nil
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) FindByPeriod(_ context.Context, tenantID uuid.UUID, start, end time.Time, sourceType string) ([]domain.TaxSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.TaxSnapshot
	for _, s := range f.snapshots {
		if s.TenantID != tenantID {
			continue
		}
		if s.CalculatedAt.Before(start) || s.CalculatedAt.After(end) {
			continue
		}
		if sourceType != "" && s.SourceType != sourceType {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
