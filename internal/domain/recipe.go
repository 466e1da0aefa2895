// Package domain defines the core types and interfaces for the recipe browser.
// All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// PageSize is the number of recipes requested per page.
const PageSize = 48

// Recipe is a single document of the recipe collection. The browsing core
// treats it as opaque; only providers and presentation look inside.
type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Category     string       `json:"category"`
	Tags         []string     `json:"tags"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	PrepMinutes  int          `json:"prep"`
	CookMinutes  int          `json:"cook"`
	Servings     int          `json:"servings"`
	Published    time.Time    `json:"published"`
}

// Ingredient is a named ingredient with a free-form amount ("2 cups", "to taste").
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
}

// TotalMinutes returns prep plus cook time.
func (r Recipe) TotalMinutes() int {
	return r.PrepMinutes + r.CookMinutes
}

// Clone returns a copy of r that shares no slices with it.
func (r Recipe) Clone() Recipe {
	cp := r
	cp.Tags = cloneRecipeStrings(r.Tags)
	cp.Instructions = cloneRecipeStrings(r.Instructions)
	if r.Ingredients != nil {
		cp.Ingredients = make([]Ingredient, len(r.Ingredients))
		copy(cp.Ingredients, r.Ingredients)
	}
	return cp
}

// CloneRecipes deep-copies a recipe list. Empty input yields nil.
func CloneRecipes(in []Recipe) []Recipe {
	if len(in) == 0 {
		return nil
	}
	out := make([]Recipe, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneRecipeStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// ResultPage is one page of a filtered recipe listing.
type ResultPage struct {
	Items      []Recipe `json:"recipes"`
	TotalCount int      `json:"count"`
}

// Clone deep-copies the page.
func (p ResultPage) Clone() ResultPage {
	return ResultPage{Items: CloneRecipes(p.Items), TotalCount: p.TotalCount}
}
