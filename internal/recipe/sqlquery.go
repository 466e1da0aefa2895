package recipe

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

var sortColumns = map[domain.SortField]string{
	domain.SortFieldPrep:         "prep",
	domain.SortFieldCook:         "cook",
	domain.SortFieldDate:         "published",
	domain.SortFieldInstructions: "step_count",
}

const selectColumns = "id, title, description, category, tags, ingredients, instructions, prep, cook, servings, published"

// compiledSQL is a parameterized page query and its matching count query.
type compiledSQL struct {
	Select     string
	SelectArgs []any
	Count      string
	CountArgs  []any
}

// compileSQL converts a query to parameterized SQL with the same matching
// semantics as Matches. Text comparisons go through the fold functions
// registered on driverName. Values are always bound, never interpolated, and
// every ordering ends with id so pages are stable.
func compileSQL(q domain.Query, offset, limit int) (compiledSQL, error) {
	var where []string
	var args []any

	for _, f := range q.Filters {
		clause, fargs, err := compileFilter(f)
		if err != nil {
			return compiledSQL{}, err
		}
		where = append(where, clause)
		args = append(args, fargs...)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	orderSQL := " ORDER BY fold(title) ASC, id ASC"
	if q.Sort.IsSet() {
		col, ok := sortColumns[q.Sort.Field()]
		if !ok {
			return compiledSQL{}, fmt.Errorf("%w: %q", domain.ErrInvalidSortKey, q.Sort)
		}
		dir := "ASC"
		if q.Sort.Descending() {
			dir = "DESC"
		}
		orderSQL = fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	selectArgs := make([]any, 0, len(args)+2)
	selectArgs = append(selectArgs, args...)
	selectArgs = append(selectArgs, limit, offset)

	return compiledSQL{
		Select:     "SELECT " + selectColumns + " FROM recipes" + whereSQL + orderSQL + " LIMIT ? OFFSET ?",
		SelectArgs: selectArgs,
		Count:      "SELECT COUNT(*) FROM recipes" + whereSQL,
		CountArgs:  args,
	}, nil
}

func compileFilter(f domain.Filter) (string, []any, error) {
	switch f.Key {
	case domain.FacetCategory:
		placeholders := make([]string, len(f.Values))
		args := make([]any, len(f.Values))
		for i, v := range f.Values {
			placeholders[i] = "?"
			args[i] = v
		}
		return "category IN (" + strings.Join(placeholders, ", ") + ")", args, nil

	case domain.FacetTags:
		clauses := make([]string, len(f.Values))
		args := make([]any, len(f.Values))
		for i, v := range f.Values {
			clauses[i] = "EXISTS (SELECT 1 FROM json_each(recipes.tags) WHERE fold_equal(json_each.value, ?))"
			args[i] = v
		}
		return strings.Join(clauses, " AND "), args, nil

	case domain.FacetIngredients:
		clauses := make([]string, len(f.Values))
		args := make([]any, len(f.Values))
		for i, v := range f.Values {
			clauses[i] = `EXISTS (SELECT 1 FROM json_each(recipes.ingredients) WHERE fold_contains(ifnull(json_extract(json_each.value, '$.name'), ''), ?))`
			args[i] = v
		}
		return strings.Join(clauses, " AND "), args, nil

	case domain.FacetInstructions:
		return `EXISTS (SELECT 1 FROM json_each(recipes.instructions) WHERE fold_contains(json_each.value, ?))`,
			[]any{f.Values[0]}, nil

	case domain.FacetTitle:
		return `fold_contains(title, ?)`, []any{f.Values[0]}, nil

	default:
		return "", nil, fmt.Errorf("%w: %q", domain.ErrUnknownFacet, f.Key)
	}
}
