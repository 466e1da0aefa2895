package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobrowse/internal/display"
	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/query"
	"github.com/hammamikhairi/ottobrowse/internal/results"
)

// searchFlags holds the facets of a one-shot search.
type searchFlags struct {
	categories   []string
	tags         []string
	ingredients  []string
	instructions string
	title        string
	sort         string
	offset       int
	asJSON       bool
}

var oneShot searchFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Print the first page of recipes matching the given facets",
	Example: `  ottobrowse search --category Dessert --tag vegetarian --sort "cook ASC"
  ottobrowse search --title soup --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeProvider, err := openProvider(cfg.Provider, log)
		if err != nil {
			return err
		}
		defer closeProvider()

		q, err := oneShot.query()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Provider.Timeout)
		defer cancel()
		page, err := p.FetchRecipes(ctx, q, oneShot.offset, domain.PageSize)
		if err != nil {
			return fmt.Errorf("searching %s: %w", q, err)
		}
		return printPage(cmd.OutOrStdout(), q, page, oneShot.asJSON)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringSliceVar(&oneShot.categories, "category", nil, "category to include (repeatable)")
	f.StringSliceVar(&oneShot.tags, "tag", nil, "tag every result must carry (repeatable)")
	f.StringSliceVar(&oneShot.ingredients, "ingredient", nil, "ingredient every result must use (repeatable)")
	f.StringVar(&oneShot.instructions, "instructions", "", "text the instructions must contain")
	f.StringVar(&oneShot.title, "title", "", "text the title must contain")
	f.StringVar(&oneShot.sort, "sort", "", `sort key, e.g. "prep ASC" or "date DESC"`)
	f.IntVar(&oneShot.offset, "offset", 0, "number of results to skip")
	f.BoolVar(&oneShot.asJSON, "json", false, "print the raw page as JSON")
}

// query applies the flags to a facet store and compiles it, so one-shot
// searches normalize exactly like the interactive browser.
func (f searchFlags) query() (domain.Query, error) {
	store := facet.NewStore(log)

	set := func(key domain.FacetKey, vals ...string) error {
		for _, v := range vals {
			if _, err := store.SetFacet(key, v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := set(domain.FacetCategory, f.categories...); err != nil {
		return domain.Query{}, err
	}
	if err := set(domain.FacetTags, f.tags...); err != nil {
		return domain.Query{}, err
	}
	if err := set(domain.FacetIngredients, f.ingredients...); err != nil {
		return domain.Query{}, err
	}
	if err := set(domain.FacetInstructions, f.instructions); err != nil {
		return domain.Query{}, err
	}
	if err := set(domain.FacetTitle, f.title); err != nil {
		return domain.Query{}, err
	}
	if _, err := store.SetSort(f.sort); err != nil {
		return domain.Query{}, err
	}
	return query.Compile(store.Snapshot()), nil
}

func printPage(w io.Writer, q domain.Query, page domain.ResultPage, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	msgs := results.NewMessages(cfg.Browse.Locale)
	v := results.View{
		State:      results.StatePopulated,
		Items:      page.Items,
		TotalCount: page.TotalCount,
		Query:      q,
		Message:    msgs.Count(oneShot.offset+len(page.Items), page.TotalCount),
	}
	if len(page.Items) == 0 {
		v.State = results.StateEmpty
		v.Message = msgs.Empty()
	}
	_, err := fmt.Fprintln(w, display.RenderView(v, 0))
	return err
}
