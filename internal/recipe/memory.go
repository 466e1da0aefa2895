// Package recipe provides recipe providers backed by memory or SQLite.
package recipe

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.RecipeProvider = (*MemorySource)(nil)
	_ domain.Catalog        = (*MemorySource)(nil)
)

// MemorySource holds recipes in memory. Safe for concurrent access.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with built-in recipes.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := NewEmptyMemorySource(log)
	src.seed()
	return src
}

// NewEmptyMemorySource creates a recipe source with no recipes.
func NewEmptyMemorySource(log *logger.Logger) *MemorySource {
	return &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log,
	}
}

// FetchRecipes returns one page of the recipes matching q, in q's order.
func (s *MemorySource) FetchRecipes(ctx context.Context, q domain.Query, offset, limit int) (domain.ResultPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResultPage{}, fmt.Errorf("fetching recipes: %w", err)
	}

	s.mu.RLock()
	var matched []*domain.Recipe
	for _, r := range s.recipes {
		if Matches(r, q) {
			matched = append(matched, r)
		}
	}
	SortRecipes(matched, q.Sort)
	page := domain.ResultPage{
		Items:      paginate(matched, offset, limit),
		TotalCount: len(matched),
	}
	s.mu.RUnlock()

	s.log.Debug("memory fetch %s offset=%d limit=%d -> %d/%d", q, offset, limit, len(page.Items), page.TotalCount)
	return page, nil
}

// Get returns a recipe by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	cp := r.Clone()
	return &cp, nil
}

// Put adds or replaces a recipe.
func (s *MemorySource) Put(ctx context.Context, r domain.Recipe) error {
	if r.ID == "" {
		return fmt.Errorf("storing recipe %q: empty id", r.Title)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := r.Clone()
	s.recipes[r.ID] = &cp
	s.log.Debug("recipe stored: %s", r.ID)
	return nil
}

// Categories returns the distinct categories, sorted.
func (s *MemorySource) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, r := range s.recipes {
		if r.Category != "" {
			seen[r.Category] = true
		}
	}
	return sortedKeys(seen), nil
}

// Tags returns the distinct tags, sorted.
func (s *MemorySource) Tags(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, r := range s.recipes {
		for _, t := range r.Tags {
			seen[t] = true
		}
	}
	return sortedKeys(seen), nil
}

// Len returns the number of recipes held.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}

// seed populates the source with built-in recipes.
func (s *MemorySource) seed() {
	recipes := Builtin()
	for i := range recipes {
		s.recipes[recipes[i].ID] = &recipes[i]
	}
	s.log.Debug("seeded %d recipes", len(recipes))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
