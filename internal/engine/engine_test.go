package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
	"github.com/hammamikhairi/ottobrowse/internal/metrics"
	"github.com/hammamikhairi/ottobrowse/internal/recipe"
	"github.com/hammamikhairi/ottobrowse/internal/results"
	"github.com/hammamikhairi/ottobrowse/internal/storage"
	"github.com/hammamikhairi/ottobrowse/internal/testutil"
	"github.com/hammamikhairi/ottobrowse/internal/timer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// dispatches records the query of every issued request, in issue order.
type dispatches struct {
	mu      sync.Mutex
	queries []domain.Query
}

func (d *dispatches) listen(v results.View) {
	if v.State != results.StateLoading {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, v.Pending)
}

func (d *dispatches) all() []domain.Query {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Query(nil), d.queries...)
}

// countingProvider counts calls to the wrapped provider.
type countingProvider struct {
	domain.RecipeProvider
	calls atomic.Int32
}

func (p *countingProvider) FetchRecipes(ctx context.Context, q domain.Query, offset, limit int) (domain.ResultPage, error) {
	p.calls.Add(1)
	return p.RecipeProvider.FetchRecipes(ctx, q, offset, limit)
}

type fetchResult struct {
	page domain.ResultPage
	err  error
}

type pendingCall struct {
	q    domain.Query
	resp chan fetchResult
}

// blockingProvider holds every call until the test answers it.
type blockingProvider struct {
	calls chan *pendingCall
}

func newBlockingProvider() *blockingProvider {
	return &blockingProvider{calls: make(chan *pendingCall, 16)}
}

func (p *blockingProvider) FetchRecipes(ctx context.Context, q domain.Query, offset, limit int) (domain.ResultPage, error) {
	c := &pendingCall{q: q, resp: make(chan fetchResult, 1)}
	p.calls <- c
	select {
	case r := <-c.resp:
		return r.page, r.err
	case <-ctx.Done():
		return domain.ResultPage{}, ctx.Err()
	}
}

func (p *blockingProvider) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-p.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a provider call")
		return nil
	}
}

type fixture struct {
	eng   *Engine
	clock *testutil.ManualClock
	log   *dispatches
}

func setupEngine(t *testing.T, provider domain.RecipeProvider, opts ...Option) *fixture {
	t.Helper()
	clock := testutil.NewManualClock()
	d := &dispatches{}
	opts = append([]Option{WithClock(clock)}, opts...)
	eng := New(provider, logger.New(logger.LevelOff, nil), opts...)
	eng.OnChange(d.listen)
	t.Cleanup(func() { eng.Close() })
	return &fixture{eng: eng, clock: clock, log: d}
}

func waitState(t *testing.T, eng *Engine, want results.State) results.View {
	t.Helper()
	require.Eventually(t, func() bool {
		return eng.View().State == want
	}, 2*time.Second, time.Millisecond, "never reached %s", want)
	return eng.View()
}

func filtersJSON(t *testing.T, q domain.Query) string {
	t.Helper()
	b, err := json.Marshal(q.Filters)
	require.NoError(t, err)
	return string(b)
}

func TestSortBypassesSearchDebounce(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))

	search := f.eng.OpenSearch()
	search.Type("so")
	f.clock.Advance(100 * time.Millisecond)

	require.NoError(t, f.eng.SetSort("cook ASC"))
	require.NoError(t, f.eng.SetSort("cook DESC"))

	got := f.log.all()
	require.Len(t, got, 2, "each sort change dispatches immediately")
	assert.Equal(t, domain.SortCookAsc, got[0].Sort)
	assert.Equal(t, domain.SortCookDesc, got[1].Sort)
	assert.False(t, got[0].Has(domain.FacetTitle), "unsettled title is not sent")
	assert.True(t, search.Pending(), "sort does not cancel the pending search")

	f.clock.Advance(timer.DefaultDebounceDelay)
	got = f.log.all()
	require.Len(t, got, 3)
	assert.Equal(t, "so", got[2].Value(domain.FacetTitle))
	assert.Equal(t, domain.SortCookDesc, got[2].Sort, "settled search carries the latest sort")
}

func TestSearchDebounceCollapsesTyping(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	search := f.eng.OpenSearch()

	for _, text := range []string{"s", "so", "sou", "soup", "soups"} {
		search.Type(text)
		f.clock.Advance(20 * time.Millisecond)
	}
	assert.Empty(t, f.log.all(), "nothing dispatched while typing")

	f.clock.Advance(timer.DefaultDebounceDelay)
	got := f.log.all()
	require.Len(t, got, 1)
	assert.Equal(t, "soups", got[0].Value(domain.FacetTitle))

	f.clock.Advance(time.Hour)
	assert.Len(t, f.log.all(), 1)
}

func TestSearchBackToSameTextDoesNotDispatch(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	search := f.eng.OpenSearch()

	search.Type("pie")
	search.Type("")
	f.clock.Advance(timer.DefaultDebounceDelay)

	assert.Empty(t, f.log.all())
}

func TestClearingSearchRemovesTitle(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	search := f.eng.OpenSearch()

	search.Type("soup")
	f.clock.Advance(timer.DefaultDebounceDelay)
	search.Type("")
	f.clock.Advance(timer.DefaultDebounceDelay)

	got := f.log.all()
	require.Len(t, got, 2)
	assert.False(t, got[1].Has(domain.FacetTitle))
	assert.False(t, f.eng.HasAnyFacet())
}

func TestCloseSearchCancelsPendingDispatch(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	search := f.eng.OpenSearch()

	search.Type("soup")
	search.Close()
	search.Type("stew")
	f.clock.Advance(time.Hour)

	assert.Empty(t, f.log.all())
	assert.Zero(t, f.clock.Pending())
}

func TestSettleAfterCloseIsIgnored(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	search := f.eng.OpenSearch()
	search.Type("soup")
	search.Close()

	// A settle that started before Close still reaches commitTitle.
	f.eng.commitTitle(search)

	assert.Empty(t, f.log.all())
	assert.False(t, f.eng.HasAnyFacet())
}

func TestOpenSearchClosesPrevious(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	first := f.eng.OpenSearch()
	first.Type("soup")

	second := f.eng.OpenSearch()
	f.clock.Advance(time.Hour)
	assert.Empty(t, f.log.all())

	second.Type("stew")
	f.clock.Advance(timer.DefaultDebounceDelay)
	require.Len(t, f.log.all(), 1)
	assert.Equal(t, "stew", f.log.all()[0].Value(domain.FacetTitle))
}

func TestResetDropsPendingSearch(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))

	search := f.eng.OpenSearch()
	search.Type("soup")
	require.NoError(t, f.eng.ResetAll())
	f.clock.Advance(time.Hour)

	got := f.log.all()
	require.Len(t, got, 2)
	assert.True(t, got[1].Unfiltered())
	assert.False(t, search.Pending())
}

func TestResetAllClearsEverything(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "spicy"))
	require.NoError(t, f.eng.SetFacet(domain.FacetTitle, "soup"))
	require.True(t, f.eng.HasAnyFacet())

	require.NoError(t, f.eng.ResetAll())

	assert.Equal(t, "{}", filtersJSON(t, f.eng.Query()))
	assert.False(t, f.eng.HasAnyFacet())
	assert.Empty(t, f.eng.Chips())

	got := f.log.all()
	assert.Equal(t, "{}", filtersJSON(t, got[len(got)-1]))
}

func TestUnchangedMutationsDoNotDispatch(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	require.NoError(t, f.eng.RemoveFacet(domain.FacetIngredients, "garlic"))
	require.NoError(t, f.eng.SetSort(""))

	err := f.eng.SetSort("price ASC")
	require.ErrorIs(t, err, domain.ErrInvalidSortKey)
	_, sk := f.eng.Snapshot()
	assert.False(t, sk.IsSet())

	err = f.eng.SetFacet("price", "cheap")
	require.ErrorIs(t, err, domain.ErrUnknownFacet)

	assert.Len(t, f.log.all(), 1)
}

func TestAddThenRemoveTagLeavesNoResidue(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	require.NoError(t, f.eng.SetFacet(domain.FacetCategory, "Dessert"))
	before := f.eng.Query()

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	require.NoError(t, f.eng.RemoveChip(facet.Chip{Key: domain.FacetTags, Value: "vegan"}))

	after := f.eng.Query()
	assert.Equal(t, before, after)
	assert.Equal(t, `{"category":["Dessert"]}`, filtersJSON(t, after))
	assert.Len(t, f.log.all(), 3, "chip removal dispatches like any mutation")
}

func TestLatestResponseWins(t *testing.T) {
	tests := []struct {
		name       string
		answerLast bool // answer the older request last
	}{
		{"newer answered first", true},
		{"older answered first", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newBlockingProvider()
			m := metrics.NewCollector()
			f := setupEngine(t, p, WithMetrics(m))

			require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
			require.NoError(t, f.eng.SetSort("cook ASC"))
			a, b := p.next(t), p.next(t)
			if a.q.Sort.IsSet() {
				a, b = b, a
			}

			pageA := domain.ResultPage{Items: []domain.Recipe{{ID: "from-a"}}, TotalCount: 1}
			pageB := domain.ResultPage{Items: []domain.Recipe{{ID: "from-b"}}, TotalCount: 1}

			if tt.answerLast {
				b.resp <- fetchResult{page: pageB}
				waitState(t, f.eng, results.StatePopulated)
				a.resp <- fetchResult{page: pageA}
			} else {
				a.resp <- fetchResult{page: pageA}
				require.Eventually(t, func() bool {
					return promtest.ToFloat64(m.StaleResponses) == 1
				}, 2*time.Second, time.Millisecond)
				assert.Equal(t, results.StateLoading, f.eng.View().State)
				b.resp <- fetchResult{page: pageB}
			}

			require.Eventually(t, func() bool {
				return promtest.ToFloat64(m.StaleResponses) == 1
			}, 2*time.Second, time.Millisecond)
			v := waitState(t, f.eng, results.StatePopulated)
			require.Len(t, v.Items, 1)
			assert.Equal(t, "from-b", v.Items[0].ID)
			assert.Equal(t, domain.SortCookAsc, v.Query.Sort)
		})
	}
}

func TestStaleFailureIsSwallowed(t *testing.T) {
	p := newBlockingProvider()
	f := setupEngine(t, p)

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	older := p.next(t)
	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "quick"))
	newer := p.next(t)

	newer.resp <- fetchResult{page: domain.ResultPage{Items: []domain.Recipe{{ID: "x"}}, TotalCount: 1}}
	waitState(t, f.eng, results.StatePopulated)

	older.resp <- fetchResult{err: domain.ErrProviderUnavailable}
	assert.Never(t, func() bool {
		return f.eng.View().State == results.StateErrored
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))

	require.NoError(t, f.eng.SetFacet(domain.FacetTitle, "lasagne"))

	v := waitState(t, f.eng, results.StateEmpty)
	assert.Zero(t, v.TotalCount)
	assert.NoError(t, v.Err)
}

func TestProviderFailureKeepsBootstrap(t *testing.T) {
	p := newBlockingProvider()
	boot := domain.ResultPage{Items: []domain.Recipe{{ID: "boot"}}, TotalCount: 1}
	f := setupEngine(t, p, WithBootstrap(boot), WithLocale("fr"))

	assert.Equal(t, results.StateIdle, f.eng.View().State)
	require.NoError(t, f.eng.SetFacet(domain.FacetCategory, "Dessert"))
	p.next(t).resp <- fetchResult{err: &domain.StatusError{Status: 503}}

	v := waitState(t, f.eng, results.StateErrored)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "boot", v.Items[0].ID)
	assert.ErrorIs(t, v.Err, domain.ErrProviderError)
	assert.Equal(t, "Impossible de charger les recettes. Veuillez réessayer.", v.Message)
}

func TestBootstrapIsNotRequested(t *testing.T) {
	p := &countingProvider{RecipeProvider: recipe.NewMemorySource(logger.Nop())}
	boot, err := Bootstrap(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, int32(1), p.calls.Load())

	cache := storage.NewPageCache(logger.Nop())
	f := setupEngine(t, p, WithBootstrap(boot), WithCache(cache))
	assert.Equal(t, len(boot.Items), len(f.eng.View().Items))

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	waitState(t, f.eng, results.StatePopulated)
	require.NoError(t, f.eng.ResetAll())
	v := waitState(t, f.eng, results.StatePopulated)

	assert.Equal(t, boot.TotalCount, v.TotalCount)
	assert.Equal(t, int32(2), p.calls.Load(), "unfiltered page comes from the bootstrap")
}

func TestLoadMoreAppendsPages(t *testing.T) {
	src := recipe.NewMemorySource(logger.Nop())
	f := setupEngine(t, src, WithPageSize(5))

	require.NoError(t, f.eng.SetSort("prep ASC"))
	v := waitState(t, f.eng, results.StatePopulated)
	require.Len(t, v.Items, 5)
	require.Equal(t, src.Len(), v.TotalCount)

	for len(v.Items) < v.TotalCount {
		want := len(v.Items) + 5
		if want > v.TotalCount {
			want = v.TotalCount
		}
		require.NoError(t, f.eng.LoadMore())
		require.Eventually(t, func() bool {
			v = f.eng.View()
			return v.State == results.StatePopulated && len(v.Items) == want
		}, 2*time.Second, time.Millisecond)
	}

	require.ErrorIs(t, f.eng.LoadMore(), ErrNothingToLoad)

	seen := make(map[string]bool)
	for _, r := range v.Items {
		assert.False(t, seen[r.ID], "duplicate %s", r.ID)
		seen[r.ID] = true
	}
}

func TestLoadMoreWhileLoadingIsRejected(t *testing.T) {
	p := newBlockingProvider()
	boot := domain.ResultPage{Items: []domain.Recipe{{ID: "a"}}, TotalCount: 10}
	f := setupEngine(t, p, WithBootstrap(boot))

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	p.next(t)
	require.ErrorIs(t, f.eng.LoadMore(), ErrNothingToLoad)
}

func TestRefreshBypassesCache(t *testing.T) {
	p := &countingProvider{RecipeProvider: recipe.NewMemorySource(logger.Nop())}
	f := setupEngine(t, p, WithCache(storage.NewPageCache(logger.Nop())))

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	waitState(t, f.eng, results.StatePopulated)
	require.NoError(t, f.eng.Refresh())
	require.Eventually(t, func() bool { return p.calls.Load() == 2 }, 2*time.Second, time.Millisecond)
}

func TestRefreshDuringFetchRequestsAgain(t *testing.T) {
	p := newBlockingProvider()
	cache := storage.NewPageCache(logger.Nop())
	f := setupEngine(t, p, WithCache(cache))

	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	before := p.next(t)
	require.NoError(t, f.eng.Refresh())
	after := p.next(t)
	assert.Equal(t, filtersJSON(t, before.q), filtersJSON(t, after.q))

	before.resp <- fetchResult{page: domain.ResultPage{Items: []domain.Recipe{{ID: "old"}}, TotalCount: 1}}
	after.resp <- fetchResult{page: domain.ResultPage{Items: []domain.Recipe{{ID: "new"}}, TotalCount: 1}}

	require.Eventually(t, func() bool {
		v := f.eng.View()
		return v.State == results.StatePopulated && len(v.Items) == 1 && v.Items[0].ID == "new"
	}, 2*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		page, err := cache.Load(context.Background(), storage.CacheKey(after.q, 0, domain.PageSize))
		return err == nil && page.Items[0].ID == "new"
	}, 2*time.Second, time.Millisecond)
}

func TestRefresherPrefetchesFirstPage(t *testing.T) {
	p := &countingProvider{RecipeProvider: recipe.NewMemorySource(logger.Nop())}
	cache := storage.NewPageCache(logger.Nop())
	f := setupEngine(t, p, WithCache(cache))

	f.eng.StartRefresher(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 2*time.Second, time.Millisecond)

	_, err := cache.Load(context.Background(), storage.CacheKey(domain.Query{}, 0, domain.PageSize))
	assert.NoError(t, err)
}

func TestCatalogPassthrough(t *testing.T) {
	f := setupEngine(t, recipe.NewMemorySource(logger.Nop()))
	cats, err := f.eng.Categories(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cats, "Dessert")

	g := setupEngine(t, newBlockingProvider())
	_, err = g.eng.Tags(context.Background())
	assert.True(t, errors.Is(err, ErrNoCatalog))
}

func TestCloseStopsEverything(t *testing.T) {
	p := newBlockingProvider()
	f := setupEngine(t, p)

	search := f.eng.OpenSearch()
	require.NoError(t, f.eng.SetFacet(domain.FacetTags, "vegan"))
	p.next(t)
	search.Type("soup")

	require.NoError(t, f.eng.Close())
	require.NoError(t, f.eng.Close())

	f.clock.Advance(time.Hour)
	assert.Len(t, f.log.all(), 1)
	assert.ErrorIs(t, f.eng.SetFacet(domain.FacetTags, "quick"), domain.ErrClosed)
	assert.ErrorIs(t, f.eng.SetSort("cook ASC"), domain.ErrClosed)
	assert.Equal(t, results.StateLoading, f.eng.View().State, "abandoned fetch is not applied")
}
