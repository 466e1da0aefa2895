package recipe

import (
	"sort"
	"strings"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

// Matches reports whether r satisfies every filter of q. Category is an
// exact match against any of the values; every tag must be present; every
// ingredient value must appear in some ingredient name; instructions must
// appear in some step; title must appear in the title. Text comparisons
// other than category ignore case.
func Matches(r *domain.Recipe, q domain.Query) bool {
	for _, f := range q.Filters {
		if !matchFilter(r, f) {
			return false
		}
	}
	return true
}

func matchFilter(r *domain.Recipe, f domain.Filter) bool {
	switch f.Key {
	case domain.FacetCategory:
		for _, v := range f.Values {
			if r.Category == v {
				return true
			}
		}
		return false
	case domain.FacetTags:
		for _, v := range f.Values {
			if !hasFold(r.Tags, v) {
				return false
			}
		}
		return true
	case domain.FacetIngredients:
		for _, v := range f.Values {
			found := false
			for _, ing := range r.Ingredients {
				if containsFold(ing.Name, v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case domain.FacetInstructions:
		for _, step := range r.Instructions {
			if containsFold(step, f.Values[0]) {
				return true
			}
		}
		return false
	case domain.FacetTitle:
		return containsFold(r.Title, f.Values[0])
	default:
		return false
	}
}

// SortRecipes orders recipes by the sort key, breaking ties by id. An
// unset key orders by title, ignoring case, then id.
func SortRecipes(recipes []*domain.Recipe, key domain.SortKey) {
	sort.SliceStable(recipes, func(i, j int) bool {
		return less(recipes[i], recipes[j], key)
	})
}

func less(a, b *domain.Recipe, key domain.SortKey) bool {
	c := compareBy(a, b, key.Field())
	if key.Descending() {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func compareBy(a, b *domain.Recipe, field domain.SortField) int {
	switch field {
	case domain.SortFieldPrep:
		return compareInt(a.PrepMinutes, b.PrepMinutes)
	case domain.SortFieldCook:
		return compareInt(a.CookMinutes, b.CookMinutes)
	case domain.SortFieldDate:
		return a.Published.Compare(b.Published)
	case domain.SortFieldInstructions:
		return compareInt(len(a.Instructions), len(b.Instructions))
	default:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// paginate returns the [offset, offset+limit) window of recipes.
func paginate(recipes []*domain.Recipe, offset, limit int) []domain.Recipe {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(recipes) {
		return []domain.Recipe{}
	}
	end := len(recipes)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]domain.Recipe, 0, end-offset)
	for _, r := range recipes[offset:end] {
		out = append(out, r.Clone())
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func hasFold(vals []string, v string) bool {
	for _, x := range vals {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
