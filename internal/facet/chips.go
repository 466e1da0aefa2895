package facet

import "github.com/hammamikhairi/ottobrowse/internal/domain"

// Chip is one removable "applied filter" entry.
type Chip struct {
	Key   domain.FacetKey
	Value string
}

// Label returns the text shown on the chip.
func (c Chip) Label() string {
	if c.Key == domain.FacetCategory {
		return c.Value
	}
	return string(c.Key) + ": " + c.Value
}

// Chips lists the applied facets in fixed key order, and in insertion
// order within a multi-valued key.
func Chips(fs domain.FacetSet) []Chip {
	var out []Chip
	for _, key := range domain.FacetKeys {
		for _, v := range fs.Values(key) {
			out = append(out, Chip{Key: key, Value: v})
		}
	}
	return out
}

// HasAnyFacet reports whether at least one facet is applied.
func HasAnyFacet(fs domain.FacetSet) bool {
	return !fs.IsEmpty()
}

// Snapshotter exposes the applied facets without allowing mutation.
type Snapshotter interface {
	Snapshot() (domain.FacetSet, domain.SortKey)
}

// Remover removes an applied facet and triggers whatever follows a
// mutation (query recompilation and dispatch).
type Remover interface {
	RemoveFacet(key domain.FacetKey, value string) error
}

// Registry is a read-only chip view over a store. Chip removal is
// delegated to the remover so it takes the same path as any mutation.
type Registry struct {
	src     Snapshotter
	remover Remover
}

// NewRegistry binds a chip view to its source and remover.
func NewRegistry(src Snapshotter, remover Remover) *Registry {
	return &Registry{src: src, remover: remover}
}

// Chips returns the current chips.
func (r *Registry) Chips() []Chip {
	fs, _ := r.src.Snapshot()
	return Chips(fs)
}

// HasAnyFacet reports whether any chip would be shown.
func (r *Registry) HasAnyFacet() bool {
	fs, _ := r.src.Snapshot()
	return HasAnyFacet(fs)
}

// RemoveChip removes the facet behind c.
func (r *Registry) RemoveChip(c Chip) error {
	return r.remover.RemoveFacet(c.Key, c.Value)
}
