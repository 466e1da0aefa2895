// Package storage provides the in-memory page cache that sits between the
// browsing engine and a recipe provider.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultTTL        = 60 * time.Second
	DefaultMaxEntries = 256
)

// CacheKey identifies one page of one query.
func CacheKey(q domain.Query, offset, limit int) string {
	return fmt.Sprintf("%s@%d+%d", q.Key(), offset, limit)
}

// CacheOption configures a PageCache.
type CacheOption func(*PageCache)

// WithTTL sets how long a page stays fresh. Zero disables expiry.
func WithTTL(d time.Duration) CacheOption {
	return func(c *PageCache) {
		c.ttl = d
	}
}

// WithMaxEntries bounds the number of cached pages.
func WithMaxEntries(n int) CacheOption {
	return func(c *PageCache) {
		c.maxEntries = n
	}
}

// WithNow replaces the time source, for tests.
func WithNow(now func() time.Time) CacheOption {
	return func(c *PageCache) {
		c.now = now
	}
}

type entry struct {
	page     domain.ResultPage
	storedAt time.Time
}

// PageCache is an in-memory, TTL'd cache of result pages. When full, the
// oldest entry is evicted. Safe for concurrent access.
type PageCache struct {
	mu         sync.RWMutex
	pages      map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	log        *logger.Logger
}

// NewPageCache creates an empty cache.
func NewPageCache(log *logger.Logger, opts ...CacheOption) *PageCache {
	c := &PageCache{
		pages:      make(map[string]entry),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save stores a page. Overwrites if it already exists.
func (c *PageCache) Save(ctx context.Context, key string, page domain.ResultPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pages[key]; !ok && c.maxEntries > 0 && len(c.pages) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.log.Debug("caching page %s (%d items, total=%d)", key, len(page.Items), page.TotalCount)
	c.pages[key] = entry{page: page.Clone(), storedAt: c.now()}
	return nil
}

// Load retrieves a fresh page. Missing and expired pages return domain.ErrNotFound.
func (c *PageCache) Load(ctx context.Context, key string) (domain.ResultPage, error) {
	c.mu.RLock()
	e, ok := c.pages[key]
	c.mu.RUnlock()

	if !ok {
		return domain.ResultPage{}, domain.ErrNotFound
	}
	if c.expired(e) {
		c.log.Debug("cached page expired: %s", key)
		_ = c.Delete(ctx, key)
		return domain.ResultPage{}, domain.ErrNotFound
	}
	return e.page.Clone(), nil
}

// Delete removes a page.
func (c *PageCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pages[key]; !ok {
		return domain.ErrNotFound
	}
	delete(c.pages, key)
	return nil
}

// Purge drops every page and returns how many were removed.
func (c *PageCache) Purge(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.pages)
	c.pages = make(map[string]entry)
	c.log.Debug("purged %d cached pages", n)
	return n
}

// Len returns the number of stored pages, fresh or not.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

func (c *PageCache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}

func (c *PageCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.pages {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest, first = k, e.storedAt, false
		}
	}
	if !first {
		delete(c.pages, oldestKey)
		c.log.Debug("evicted cached page %s", oldestKey)
	}
}
