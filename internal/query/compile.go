// Package query compiles applied facets into the normalized query sent to
// recipe providers.
package query

import (
	"strings"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

// Compile projects a facet set and sort key onto a Query. Keys are visited
// in domain.FacetKeys order and included only when they hold a non-empty
// value; a drained sequence is omitted rather than sent empty. Values are
// copied, so the result never aliases fs. Compile is pure: value-equal
// inputs give value-equal queries.
func Compile(fs domain.FacetSet, sk domain.SortKey) domain.Query {
	var q domain.Query
	for _, key := range domain.FacetKeys {
		vals := nonEmpty(fs.Values(key))
		if len(vals) == 0 {
			continue
		}
		q.Filters = append(q.Filters, domain.Filter{Key: key, Values: vals})
	}
	if sk.IsSet() {
		q.Sort = sk
	}
	return q
}

// Equal reports whether two queries are value-equal.
func Equal(a, b domain.Query) bool {
	return a.Key() == b.Key()
}

func nonEmpty(in []string) []string {
	var out []string
	for _, v := range in {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
