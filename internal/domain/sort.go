package domain

import (
	"fmt"
	"strings"
)

// SortKey selects the ordering of results. The literal values are part of
// the provider contract and must not change. The zero value means the
// provider's default ordering.
type SortKey string

const (
	SortNone             SortKey = ""
	SortPrepAsc          SortKey = "prep ASC"
	SortPrepDesc         SortKey = "prep DESC"
	SortCookAsc          SortKey = "cook ASC"
	SortCookDesc         SortKey = "cook DESC"
	SortDateAsc          SortKey = "date ASC"
	SortDateDesc         SortKey = "date DESC"
	SortInstructionsAsc  SortKey = "instructions ASC"
	SortInstructionsDesc SortKey = "instructions DESC"
)

// SortKeys lists the explicit sort keys in menu order.
var SortKeys = []SortKey{
	SortPrepAsc, SortPrepDesc,
	SortCookAsc, SortCookDesc,
	SortDateAsc, SortDateDesc,
	SortInstructionsAsc, SortInstructionsDesc,
}

// SortField is the recipe attribute a SortKey orders by.
type SortField string

const (
	SortFieldPrep         SortField = "prep"
	SortFieldCook         SortField = "cook"
	SortFieldDate         SortField = "date"
	SortFieldInstructions SortField = "instructions"
)

// ParseSortKey validates s against the sort vocabulary.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if k == SortNone {
		return SortNone, nil
	}
	for _, known := range SortKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
}

// IsSet reports whether an explicit ordering is selected.
func (k SortKey) IsSet() bool { return k != SortNone }

// Field returns the attribute being sorted on, or "" when unset.
func (k SortKey) Field() SortField {
	field, _, _ := strings.Cut(string(k), " ")
	return SortField(field)
}

// Descending reports whether the direction is DESC.
func (k SortKey) Descending() bool {
	return strings.HasSuffix(string(k), " DESC")
}
