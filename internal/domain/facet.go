package domain

import "fmt"

// FacetKey names one filter dimension. The set of keys is closed.
type FacetKey string

const (
	FacetCategory     FacetKey = "category"
	FacetTags         FacetKey = "tags"
	FacetIngredients  FacetKey = "ingredients"
	FacetInstructions FacetKey = "instructions"
	FacetTitle        FacetKey = "title"
)

// FacetKeys lists every facet key in the fixed order used for compiling
// queries and rendering chips.
var FacetKeys = []FacetKey{
	FacetCategory,
	FacetTags,
	FacetIngredients,
	FacetInstructions,
	FacetTitle,
}

// IsMulti reports whether the key holds a sequence of values.
func (k FacetKey) IsMulti() bool {
	switch k {
	case FacetCategory, FacetTags, FacetIngredients:
		return true
	default:
		return false
	}
}

// Valid reports whether k is one of the known facet keys.
func (k FacetKey) Valid() bool {
	for _, known := range FacetKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ParseFacetKey converts a key name to a FacetKey.
func ParseFacetKey(s string) (FacetKey, error) {
	k := FacetKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFacet, s)
	}
	return k, nil
}

// FacetSet holds the selected value(s) of every facet. Sequences never
// contain duplicates; the empty string is the unset value for scalars.
type FacetSet struct {
	Category     []string
	Tags         []string
	Ingredients  []string
	Instructions string
	Title        string
}

// Values returns the values held under key. Scalars yield zero or one value.
// The returned slice aliases the set for multi keys; callers must not modify it.
func (fs FacetSet) Values(key FacetKey) []string {
	switch key {
	case FacetCategory:
		return fs.Category
	case FacetTags:
		return fs.Tags
	case FacetIngredients:
		return fs.Ingredients
	case FacetInstructions:
		if fs.Instructions == "" {
			return nil
		}
		return []string{fs.Instructions}
	case FacetTitle:
		if fs.Title == "" {
			return nil
		}
		return []string{fs.Title}
	default:
		return nil
	}
}

// IsEmpty reports whether no facet holds a value.
func (fs FacetSet) IsEmpty() bool {
	for _, k := range FacetKeys {
		if len(fs.Values(k)) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (fs FacetSet) Clone() FacetSet {
	return FacetSet{
		Category:     cloneStrings(fs.Category),
		Tags:         cloneStrings(fs.Tags),
		Ingredients:  cloneStrings(fs.Ingredients),
		Instructions: fs.Instructions,
		Title:        fs.Title,
	}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
