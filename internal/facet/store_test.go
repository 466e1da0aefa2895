package facet

import (
	"errors"
	"testing"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(logger.Nop())
}

func mustSet(t *testing.T, s *Store, key domain.FacetKey, value string) bool {
	t.Helper()
	changed, err := s.SetFacet(key, value)
	if err != nil {
		t.Fatalf("set %s=%q: %v", key, value, err)
	}
	return changed
}

func TestSetFacetIdempotent(t *testing.T) {
	for _, key := range []domain.FacetKey{domain.FacetCategory, domain.FacetTags, domain.FacetIngredients} {
		t.Run(string(key), func(t *testing.T) {
			s := newStore(t)
			if !mustSet(t, s, key, "x") {
				t.Fatal("first add should change the store")
			}
			once := s.Facets()
			if mustSet(t, s, key, "x") {
				t.Fatal("second add should be a no-op")
			}
			twice := s.Facets()
			if len(twice.Values(key)) != 1 || len(once.Values(key)) != 1 {
				t.Fatalf("expected one value, got %v", twice.Values(key))
			}
		})
	}
}

func TestSetFacetScalarReplaces(t *testing.T) {
	s := newStore(t)
	mustSet(t, s, domain.FacetTitle, "soup")
	mustSet(t, s, domain.FacetTitle, "stew")
	mustSet(t, s, domain.FacetInstructions, "oven")

	fs := s.Facets()
	if fs.Title != "stew" {
		t.Fatalf("expected title stew, got %q", fs.Title)
	}
	if fs.Instructions != "oven" {
		t.Fatalf("expected instructions oven, got %q", fs.Instructions)
	}
	if mustSet(t, s, domain.FacetTitle, "stew") {
		t.Fatal("same scalar value should be a no-op")
	}
	if !mustSet(t, s, domain.FacetTitle, "   ") {
		t.Fatal("blank scalar should clear the facet")
	}
	if s.Facets().Title != "" {
		t.Fatal("title should be cleared")
	}
}

func TestSetFacetMultiKeepsInsertionOrder(t *testing.T) {
	s := newStore(t)
	for _, tag := range []string{"vegan", "spicy", "quick"} {
		mustSet(t, s, domain.FacetTags, tag)
	}
	if mustSet(t, s, domain.FacetTags, "") {
		t.Fatal("empty value should be a no-op for multi keys")
	}

	got := s.Facets().Tags
	want := []string{"vegan", "spicy", "quick"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestAddThenRemoveRestoresFacets(t *testing.T) {
	s := newStore(t)
	mustSet(t, s, domain.FacetCategory, "Dessert")
	before := s.Facets()

	mustSet(t, s, domain.FacetTags, "vegan")
	changed, err := s.RemoveFacet(domain.FacetTags, "vegan")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !changed {
		t.Fatal("remove should report a change")
	}

	after := s.Facets()
	if after.Tags != nil {
		t.Fatalf("drained tags should be nil, got %#v", after.Tags)
	}
	if len(after.Category) != 1 || after.Category[0] != before.Category[0] || before.Tags != nil {
		t.Fatalf("expected %+v, got %+v", before, after)
	}
}

func TestAddThenRemovePaddedValue(t *testing.T) {
	tests := []struct {
		key   domain.FacetKey
		value string
	}{
		{domain.FacetTags, "vegan "},
		{domain.FacetIngredients, "  leek"},
		{domain.FacetInstructions, " oven "},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			s := newStore(t)
			mustSet(t, s, tt.key, tt.value)
			changed, err := s.RemoveFacet(tt.key, tt.value)
			if err != nil {
				t.Fatalf("remove: %v", err)
			}
			if !changed {
				t.Fatalf("removing %q should report a change", tt.value)
			}
			if !s.Facets().IsEmpty() {
				t.Fatalf("expected no facets, got %+v", s.Facets())
			}
		})
	}
}

func TestRemoveFacetAbsentIsNoop(t *testing.T) {
	s := newStore(t)
	mustSet(t, s, domain.FacetTags, "vegan")
	v := s.Version()

	tests := []struct {
		key   domain.FacetKey
		value string
	}{
		{domain.FacetTags, "spicy"},
		{domain.FacetIngredients, "garlic"},
		{domain.FacetTitle, "soup"},
		{domain.FacetInstructions, ""},
	}
	for _, tt := range tests {
		changed, err := s.RemoveFacet(tt.key, tt.value)
		if err != nil {
			t.Fatalf("remove %s=%q: %v", tt.key, tt.value, err)
		}
		if changed {
			t.Fatalf("remove %s=%q should be a no-op", tt.key, tt.value)
		}
	}
	if s.Version() != v {
		t.Fatal("no-op removals must not bump the version")
	}
}

func TestUnknownFacetKey(t *testing.T) {
	s := newStore(t)
	if _, err := s.SetFacet("price", "cheap"); !errors.Is(err, domain.ErrUnknownFacet) {
		t.Fatalf("expected ErrUnknownFacet, got %v", err)
	}
	if _, err := s.RemoveFacet("price", "cheap"); !errors.Is(err, domain.ErrUnknownFacet) {
		t.Fatalf("expected ErrUnknownFacet, got %v", err)
	}
}

func TestSetSort(t *testing.T) {
	s := newStore(t)

	changed, err := s.SetSort("cook ASC")
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	changed, err = s.SetSort("cook ASC")
	if err != nil || changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
	}

	v := s.Version()
	changed, err = s.SetSort("cheapest first")
	if !errors.Is(err, domain.ErrInvalidSortKey) {
		t.Fatalf("expected ErrInvalidSortKey, got %v", err)
	}
	if changed || s.Sort() != domain.SortCookAsc || s.Version() != v {
		t.Fatal("invalid sort key must leave the store unchanged")
	}

	if changed, _ := s.SetSort(""); !changed || s.Sort().IsSet() {
		t.Fatal("empty sort key should unset the sort")
	}
}

func TestResetAll(t *testing.T) {
	s := newStore(t)
	if s.ResetAll() {
		t.Fatal("resetting a default store should be a no-op")
	}

	mustSet(t, s, domain.FacetTags, "vegan")
	mustSet(t, s, domain.FacetTags, "spicy")
	mustSet(t, s, domain.FacetTitle, "soup")
	if _, err := s.SetSort("date DESC"); err != nil {
		t.Fatalf("set sort: %v", err)
	}

	if !s.ResetAll() {
		t.Fatal("reset should report a change")
	}
	fs, sk := s.Snapshot()
	if !fs.IsEmpty() {
		t.Fatalf("expected empty facets, got %+v", fs)
	}
	if sk.IsSet() {
		t.Fatalf("expected unset sort, got %q", sk)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newStore(t)
	mustSet(t, s, domain.FacetIngredients, "garlic")

	fs, _ := s.Snapshot()
	fs.Ingredients[0] = "onion"

	if got := s.Facets().Ingredients[0]; got != "garlic" {
		t.Fatalf("snapshot aliased the store: %q", got)
	}
}
