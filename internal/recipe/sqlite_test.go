package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

func openSeeded(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := OpenSQLite(filepath.Join(t.TempDir(), "recipes.db"), logger.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	if err := src.Insert(context.Background(), Builtin()...); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return src
}

func TestSQLiteSourceFetch(t *testing.T) {
	src := openSeeded(t)
	ctx := context.Background()

	for _, tt := range fetchCases {
		t.Run(tt.name, func(t *testing.T) {
			page, err := src.FetchRecipes(ctx, tt.query, 0, domain.PageSize)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			assertIDs(t, tt.want, pageIDs(page))
			if page.TotalCount != len(tt.want) {
				t.Fatalf("expected total %d, got %d", len(tt.want), page.TotalCount)
			}
		})
	}
}

func TestSQLiteSourceMatchesMemorySource(t *testing.T) {
	sqlSrc := openSeeded(t)
	memSrc := NewMemorySource(logger.Nop())
	ctx := context.Background()

	for _, sk := range append([]domain.SortKey{domain.SortNone}, domain.SortKeys...) {
		q := domain.Query{Sort: sk}
		for _, offset := range []int{0, 3, 10} {
			want, err := memSrc.FetchRecipes(ctx, q, offset, 4)
			if err != nil {
				t.Fatalf("memory fetch: %v", err)
			}
			got, err := sqlSrc.FetchRecipes(ctx, q, offset, 4)
			if err != nil {
				t.Fatalf("sqlite fetch: %v", err)
			}
			if got.TotalCount != want.TotalCount {
				t.Fatalf("sort %q: total %d vs %d", sk, got.TotalCount, want.TotalCount)
			}
			assertIDs(t, pageIDs(want), pageIDs(got))
		}
	}
}

func TestSQLiteSourceFoldsUnicodeLikeMemorySource(t *testing.T) {
	sqlSrc := openSeeded(t)
	memSrc := NewMemorySource(logger.Nop())
	ctx := context.Background()

	extra := []domain.Recipe{
		{
			ID:           "creme-brulee",
			Title:        "Crème Brûlée",
			Category:     "Dessert",
			Tags:         []string{"Été", "classique"},
			Ingredients:  []domain.Ingredient{{Name: "Crème fraîche"}, {Name: "Œufs"}},
			Instructions: []string{"Caraméliser le SUCRE au chalumeau."},
		},
		{
			ID:           "eclair",
			Title:        "Éclair au café",
			Category:     "Dessert",
			Instructions: []string{"Garnir de crème."},
		},
	}
	if err := sqlSrc.Insert(ctx, extra...); err != nil {
		t.Fatalf("insert: %v", err)
	}
	for _, r := range extra {
		if err := memSrc.Put(ctx, r); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	queries := []domain.Query{
		filters(domain.FacetTitle, []string{"CRÈME"}),
		filters(domain.FacetTitle, []string{"éclair"}),
		filters(domain.FacetTags, []string{"ÉTÉ"}),
		filters(domain.FacetIngredients, []string{"œufs"}),
		filters(domain.FacetInstructions, []string{"caramÉliser le sucre"}),
		{Sort: domain.SortNone},
	}
	for _, q := range queries {
		want, err := memSrc.FetchRecipes(ctx, q, 0, 100)
		if err != nil {
			t.Fatalf("memory fetch: %v", err)
		}
		got, err := sqlSrc.FetchRecipes(ctx, q, 0, 100)
		if err != nil {
			t.Fatalf("sqlite fetch: %v", err)
		}
		if len(q.Filters) > 0 && want.TotalCount == 0 {
			t.Fatalf("%s: expected a match", q)
		}
		if got.TotalCount != want.TotalCount {
			t.Fatalf("%s: total %d vs %d", q, got.TotalCount, want.TotalCount)
		}
		assertIDs(t, pageIDs(want), pageIDs(got))
	}
}

func TestSQLiteSourceRoundTrip(t *testing.T) {
	src := openSeeded(t)
	ctx := context.Background()

	want := Builtin()[0]
	got, err := src.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != want.Title || got.Category != want.Category || got.CookMinutes != want.CookMinutes {
		t.Fatalf("unexpected recipe %+v", got)
	}
	if len(got.Ingredients) != len(want.Ingredients) || got.Ingredients[0] != want.Ingredients[0] {
		t.Fatalf("ingredients did not round trip: %+v", got.Ingredients)
	}
	if !got.Published.Equal(want.Published) {
		t.Fatalf("published %v, want %v", got.Published, want.Published)
	}

	if _, err := src.Get(ctx, "nonexistent"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteSourceInsertReplaces(t *testing.T) {
	src := openSeeded(t)
	ctx := context.Background()

	r := Builtin()[0]
	r.Title = "Chicken Alfredo Deluxe"
	if err := src.Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	page, err := src.FetchRecipes(ctx, domain.Query{}, 0, 100)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.TotalCount != len(Builtin()) {
		t.Fatalf("replace should not add a row, total=%d", page.TotalCount)
	}
	got, _ := src.Get(ctx, r.ID)
	if got.Title != "Chicken Alfredo Deluxe" {
		t.Fatalf("title not replaced: %q", got.Title)
	}
}

func TestSQLiteSourceCatalog(t *testing.T) {
	src := openSeeded(t)
	mem := NewMemorySource(logger.Nop())
	ctx := context.Background()

	gotCats, err := src.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	wantCats, _ := mem.Categories(ctx)
	assertIDs(t, wantCats, gotCats)

	gotTags, err := src.Tags(ctx)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	wantTags, _ := mem.Tags(ctx)
	assertIDs(t, wantTags, gotTags)
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.db")
	for i := 0; i < 2; i++ {
		src, err := OpenSQLite(path, logger.Nop())
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		src.Close()
	}
}
