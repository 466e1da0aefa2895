// Package facet holds the applied filter state of a browsing session and
// the chip view derived from it.
package facet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// Store is the single source of truth for the applied facets and sort key.
// Every mutation is all-or-nothing and reports whether anything changed.
// The store never performs I/O. Safe for concurrent access.
type Store struct {
	mu      sync.RWMutex
	facets  domain.FacetSet
	sort    domain.SortKey
	version uint64
	log     *logger.Logger
}

// NewStore creates a store holding the default (empty) facets and no sort.
func NewStore(log *logger.Logger) *Store {
	return &Store{log: log}
}

// SetFacet adds value to a multi-valued facet, or replaces a scalar facet.
// Adding a value that is already present is a no-op. An empty value is a
// no-op for multi-valued facets and clears scalar facets.
func (s *Store) SetFacet(key domain.FacetKey, value string) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownFacet, key)
	}
	value = strings.TrimSpace(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if key.IsMulti() {
		if value == "" {
			return false, nil
		}
		vals := s.multi(key)
		if !contains(*vals, value) {
			*vals = append(*vals, value)
			changed = true
		}
	} else {
		scalar := s.scalar(key)
		if *scalar != value {
			*scalar = value
			changed = true
		}
	}

	if changed {
		s.version++
		s.log.Debug("facet set %s=%q (v%d)", key, value, s.version)
	}
	return changed, nil
}

// RemoveFacet removes value from a multi-valued facet, or clears a scalar
// facet. Removing something that is not applied is a no-op.
func (s *Store) RemoveFacet(key domain.FacetKey, value string) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownFacet, key)
	}
	value = strings.TrimSpace(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if key.IsMulti() {
		vals := s.multi(key)
		for i, v := range *vals {
			if v == value {
				next := append((*vals)[:i:i], (*vals)[i+1:]...)
				if len(next) == 0 {
					next = nil
				}
				*vals = next
				changed = true
				break
			}
		}
	} else {
		scalar := s.scalar(key)
		if *scalar != "" {
			*scalar = ""
			changed = true
		}
	}

	if changed {
		s.version++
		s.log.Debug("facet removed %s=%q (v%d)", key, value, s.version)
	}
	return changed, nil
}

// ResetAll restores the default facets and unsets the sort key.
func (s *Store) ResetAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.facets.IsEmpty() && !s.sort.IsSet() {
		return false
	}
	s.facets = domain.FacetSet{}
	s.sort = domain.SortNone
	s.version++
	s.log.Debug("facets reset (v%d)", s.version)
	return true
}

// SetSort replaces the sort key. Values outside the sort vocabulary fail
// with domain.ErrInvalidSortKey and leave the store unchanged.
func (s *Store) SetSort(raw string) (bool, error) {
	key, err := domain.ParseSortKey(raw)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sort == key {
		return false, nil
	}
	s.sort = key
	s.version++
	s.log.Debug("sort set to %q (v%d)", key, s.version)
	return true, nil
}

// Snapshot returns a deep copy of the facets and the sort key.
func (s *Store) Snapshot() (domain.FacetSet, domain.SortKey) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facets.Clone(), s.sort
}

// Facets returns a deep copy of the applied facets.
func (s *Store) Facets() domain.FacetSet {
	fs, _ := s.Snapshot()
	return fs
}

// Sort returns the active sort key.
func (s *Store) Sort() domain.SortKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// Version increments on every successful mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) multi(key domain.FacetKey) *[]string {
	switch key {
	case domain.FacetCategory:
		return &s.facets.Category
	case domain.FacetTags:
		return &s.facets.Tags
	default:
		return &s.facets.Ingredients
	}
}

func (s *Store) scalar(key domain.FacetKey) *string {
	if key == domain.FacetInstructions {
		return &s.facets.Instructions
	}
	return &s.facets.Title
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
