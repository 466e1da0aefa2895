// Package engine ties the browsing core together: the facet store, query
// compilation, the debounced search field, dispatch to the recipe provider
// and the result applier.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
	"github.com/hammamikhairi/ottobrowse/internal/metrics"
	"github.com/hammamikhairi/ottobrowse/internal/query"
	"github.com/hammamikhairi/ottobrowse/internal/results"
	"github.com/hammamikhairi/ottobrowse/internal/storage"
	"github.com/hammamikhairi/ottobrowse/internal/timer"
)

// ErrNothingToLoad is returned by LoadMore when every match is displayed
// or the current page is not settled.
var ErrNothingToLoad = errors.New("no more results to load")

// ErrNoCatalog is returned when the provider cannot list facet values.
var ErrNoCatalog = errors.New("provider does not list facet values")

var _ facet.Remover = (*Engine)(nil)

// Option configures the engine.
type Option func(*Engine)

// WithBootstrap sets the page displayed before any request is made. It is
// never re-requested.
func WithBootstrap(page domain.ResultPage) Option {
	return func(e *Engine) {
		e.bootstrap = page
	}
}

// WithPageSize overrides domain.PageSize.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		e.pageSize = n
	}
}

// WithCache serves repeated pages from c.
func WithCache(c *storage.PageCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithMetrics records dispatches, fetches and cache lookups.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces the clock driving the search debounce.
func WithClock(c timer.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithDebounceDelay sets how long search input must settle.
func WithDebounceDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.debounce = d
	}
}

// WithLocale selects the language of status messages.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		e.msgs = results.NewMessages(locale)
	}
}

// WithFetchTimeout bounds a single provider call.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.fetchTimeout = d
	}
}

// Engine is the browsing session. Every mutation runs store update, query
// compilation and request issue under one lock, so sequence numbers follow
// mutation order. Fetches run in the background; only the response to the
// latest request reaches the display.
type Engine struct {
	provider     domain.RecipeProvider
	log          *logger.Logger
	store        *facet.Store
	chips        *facet.Registry
	results      *results.Applier
	cache        *storage.PageCache
	metrics      *metrics.Collector
	msgs         *results.Messages
	clock        timer.Clock
	debounce     time.Duration
	pageSize     int
	fetchTimeout time.Duration
	bootstrap    domain.ResultPage

	flights singleflight.Group
	// generation bumps on Refresh; flights and cache writes from an older
	// generation are never shared with or stored for a newer one.
	generation atomic.Uint64
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	search    *SearchField
	refresher *timer.Refresher
}

// New creates a browsing engine over provider.
func New(provider domain.RecipeProvider, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		provider:     provider,
		log:          log,
		msgs:         results.NewMessages("en"),
		clock:        timer.SystemClock,
		debounce:     timer.DefaultDebounceDelay,
		pageSize:     domain.PageSize,
		fetchTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.store = facet.NewStore(log)
	e.chips = facet.NewRegistry(e.store, e)
	e.results = results.NewApplier(e.bootstrap, log, results.WithMessages(e.msgs))

	if e.cache != nil && len(e.bootstrap.Items) > 0 {
		_ = e.cache.Save(e.ctx, storage.CacheKey(domain.Query{}, 0, e.pageSize), e.bootstrap)
	}
	return e
}

// Bootstrap fetches the unfiltered first page, the way a server renders the
// initial listing before the browser takes over.
func Bootstrap(ctx context.Context, provider domain.RecipeProvider) (domain.ResultPage, error) {
	page, err := provider.FetchRecipes(ctx, domain.Query{}, 0, domain.PageSize)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("fetching bootstrap page: %w", err)
	}
	return page, nil
}

// ── Mutations ────────────────────────────────────────────────────

// SetFacet applies a facet value and dispatches when the store changed.
func (e *Engine) SetFacet(key domain.FacetKey, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	changed, err := e.store.SetFacet(key, value)
	if err != nil {
		return fmt.Errorf("setting facet: %w", err)
	}
	if changed {
		e.dispatchLocked(metrics.TriggerFacet)
	}
	return nil
}

// RemoveFacet removes a facet value and dispatches when the store changed.
// Removing the title also drops any search input still settling.
func (e *Engine) RemoveFacet(key domain.FacetKey, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	changed, err := e.store.RemoveFacet(key, value)
	if err != nil {
		return fmt.Errorf("removing facet: %w", err)
	}
	if key == domain.FacetTitle {
		e.disarmSearchLocked()
	}
	if changed {
		e.dispatchLocked(metrics.TriggerFacet)
	}
	return nil
}

// ResetAll restores the default facets and unsets the sort. Pending search
// input is dropped so it cannot resurrect a cleared title.
func (e *Engine) ResetAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	e.disarmSearchLocked()
	if e.store.ResetAll() {
		e.dispatchLocked(metrics.TriggerReset)
	}
	return nil
}

// SetSort replaces the sort key and dispatches immediately. It never waits
// for, or cancels, a settling search.
func (e *Engine) SetSort(raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	changed, err := e.store.SetSort(raw)
	if err != nil {
		return err
	}
	if changed {
		e.dispatchLocked(metrics.TriggerSort)
	}
	return nil
}

// RemoveChip removes the facet behind a chip, through RemoveFacet.
func (e *Engine) RemoveChip(c facet.Chip) error {
	return e.chips.RemoveChip(c)
}

// Refresh drops cached pages and re-requests the current query.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	e.generation.Add(1)
	if e.cache != nil {
		e.cache.Purge(e.ctx)
	}
	e.dispatchLocked(metrics.TriggerRefresh)
	return nil
}

// LoadMore requests the next page of the displayed query and appends it.
func (e *Engine) LoadMore() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	v := e.results.View()
	if (v.State != results.StatePopulated && v.State != results.StateIdle) || !v.HasMore() {
		return ErrNothingToLoad
	}

	fs, sk := e.store.Snapshot()
	q := query.Compile(fs, sk)
	seq := e.results.Issue(q)
	e.metrics.RecordDispatch(metrics.TriggerMore)
	e.log.Debug("engine: load more #%d %s offset=%d", seq, q, len(v.Items))

	e.wg.Add(1)
	go e.fetch(seq, q, len(v.Items), true)
	return nil
}

// dispatchLocked compiles the store and issues a request. Caller holds mu.
func (e *Engine) dispatchLocked(trigger string) uint64 {
	fs, sk := e.store.Snapshot()
	q := query.Compile(fs, sk)
	seq := e.results.Issue(q)
	e.metrics.RecordDispatch(trigger)
	e.log.Debug("engine: dispatch #%d (%s) %s", seq, trigger, q)

	e.wg.Add(1)
	go e.fetch(seq, q, 0, false)
	return seq
}

func (e *Engine) fetch(seq uint64, q domain.Query, offset int, appendItems bool) {
	defer e.wg.Done()

	page, err := e.load(q, offset)
	if e.ctx.Err() != nil {
		return
	}

	var applyErr error
	if appendItems {
		applyErr = e.results.ResolveMore(seq, page, err)
	} else {
		applyErr = e.results.Resolve(seq, page, err)
	}
	if errors.Is(applyErr, domain.ErrStaleResponse) {
		e.metrics.RecordStale()
	}
}

// load returns a page from the cache or the provider. Identical concurrent
// loads within one refresh generation share one provider call.
func (e *Engine) load(q domain.Query, offset int) (domain.ResultPage, error) {
	gen := e.generation.Load()
	key := storage.CacheKey(q, offset, e.pageSize)
	if e.cache != nil {
		if page, err := e.cache.Load(e.ctx, key); err == nil {
			e.metrics.RecordCache(true)
			return page, nil
		}
		e.metrics.RecordCache(false)
	}

	v, err, shared := e.flights.Do(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		return e.fetchProvider(q, offset, key, gen)
	})
	if shared {
		e.log.Debug("engine: shared in-flight fetch %s", key)
	}
	if err != nil {
		return domain.ResultPage{}, err
	}
	return v.(domain.ResultPage), nil
}

func (e *Engine) fetchProvider(q domain.Query, offset int, key string, gen uint64) (domain.ResultPage, error) {
	ctx, cancel := context.WithTimeout(e.ctx, e.fetchTimeout)
	defer cancel()

	start := time.Now()
	page, err := e.provider.FetchRecipes(ctx, q, offset, e.pageSize)
	e.metrics.RecordFetch(time.Since(start), err)
	if err != nil {
		return domain.ResultPage{}, err
	}
	if e.cache != nil && e.generation.Load() == gen {
		_ = e.cache.Save(e.ctx, key, page)
	}
	return page, nil
}

// ── Reads ────────────────────────────────────────────────────────

// View returns what is currently displayed.
func (e *Engine) View() results.View {
	return e.results.View()
}

// OnChange registers a listener called after every display transition.
// Listeners run on the goroutine that caused the transition, sometimes
// with the engine lock held: they must not block or call back into the
// engine synchronously.
func (e *Engine) OnChange(fn func(results.View)) {
	e.results.OnChange(fn)
}

// Snapshot returns the applied facets and sort key.
func (e *Engine) Snapshot() (domain.FacetSet, domain.SortKey) {
	return e.store.Snapshot()
}

// Query returns the compiled form of the applied facets.
func (e *Engine) Query() domain.Query {
	return query.Compile(e.store.Snapshot())
}

// Chips returns the removable chips for the applied facets.
func (e *Engine) Chips() []facet.Chip {
	return e.chips.Chips()
}

// HasAnyFacet reports whether any facet is applied.
func (e *Engine) HasAnyFacet() bool {
	return e.chips.HasAnyFacet()
}

// Messages returns the localized status messages.
func (e *Engine) Messages() *results.Messages {
	return e.msgs
}

// Categories lists the provider's categories, when it can.
func (e *Engine) Categories(ctx context.Context) ([]string, error) {
	cat, ok := e.provider.(domain.Catalog)
	if !ok {
		return nil, ErrNoCatalog
	}
	return cat.Categories(ctx)
}

// Tags lists the provider's tags, when it can.
func (e *Engine) Tags(ctx context.Context) ([]string, error) {
	cat, ok := e.provider.(domain.Catalog)
	if !ok {
		return nil, ErrNoCatalog
	}
	return cat.Tags(ctx)
}

// ── Background refresh ───────────────────────────────────────────

// Prefetch re-fetches the unfiltered first page into the cache without
// touching the display.
func (e *Engine) Prefetch(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	start := time.Now()
	page, err := e.provider.FetchRecipes(ctx, domain.Query{}, 0, e.pageSize)
	e.metrics.RecordFetch(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("prefetching first page: %w", err)
	}
	e.metrics.RecordDispatch(metrics.TriggerPrefetch)
	return e.cache.Save(ctx, storage.CacheKey(domain.Query{}, 0, e.pageSize), page)
}

// StartRefresher revalidates the first page every interval until Close.
func (e *Engine) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.refresher != nil {
		return
	}
	e.refresher = timer.NewRefresher(e.Prefetch, e.log, timer.WithInterval(interval), timer.WithTimeout(e.fetchTimeout))
	e.refresher.Start(ctx)
}

// Close tears the session down: pending search input is cancelled, the
// refresher is stopped and in-flight fetches are abandoned. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.search != nil {
		e.search.closeLocked()
	}
	refresher := e.refresher
	e.mu.Unlock()

	if refresher != nil {
		refresher.Stop()
	}
	e.cancel()
	e.wg.Wait()
	e.log.Debug("engine: closed")
	return nil
}
