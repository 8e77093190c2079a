package tax

import (
	"github.com/hadoan/kerniflow/internal/domain"
)

// Registry holds the registered jurisdiction packs keyed by country code.
// Registration happens at wiring time; lookups afterwards are read-only, so
// no locking is needed.
type Registry struct {
	packs map[string]Pack
}

// NewRegistry creates a registry containing the given packs.
func NewRegistry(packs ...Pack) *Registry {
	r := &Registry{packs: make(map[string]Pack, len(packs))}
	for _, p := range packs {
		r.Register(p)
	}
	return r
}

// Register adds a pack, replacing any previous pack for the same
// jurisdiction.
func (r *Registry) Register(p Pack) {
	r.packs[p.Jurisdiction()] = p
}

// Get returns the pack for the given jurisdiction code, or an ENOTFOUND
// error naming the jurisdiction when none is registered.
func (r *Registry) Get(jurisdiction string) (Pack, error) {
	p, ok := r.packs[jurisdiction]
	if !ok {
		return nil, domain.Errorf(domain.ENOTFOUND, "tax.registry", "no jurisdiction pack registered for %q", jurisdiction)
	}
	return p, nil
}

// Jurisdictions returns the registered jurisdiction codes.
func (r *Registry) Jurisdictions() []string {
	codes := make([]string, 0, len(r.packs))
	for code := range r.packs {
		codes = append(codes, code)
	}
	return codes
}
