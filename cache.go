package portalengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eringen/portalengine/page"
	"github.com/eringen/portalengine/portal"
)

// PageCache memoizes page documents from an upstream source with TTL.
// It implements portal.Source itself, so the renderer reads through it.
type PageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	source  portal.Source
}

type cacheEntry struct {
	doc     page.Document
	fetched time.Time
}

// NewPageCache creates a PageCache backed by the given source.
func NewPageCache(src portal.Source, ttl time.Duration) *PageCache {
	return &PageCache{entries: make(map[string]cacheEntry), ttl: ttl, source: src}
}

// Fetch returns the cached document for slug, loading from the
// upstream source when missing or stale. Errors are never cached, so a
// page that failed to load is retried on the next request.
func (c *PageCache) Fetch(ctx context.Context, slug string) (page.Document, error) {
	c.mu.RLock()
	entry, ok := c.entries[slug]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetched) < c.ttl {
		return entry.doc, nil
	}

	doc, err := c.source.Fetch(ctx, slug)
	if err != nil {
		return page.Document{}, err
	}
	c.mu.Lock()
	c.entries[slug] = cacheEntry{doc: doc, fetched: time.Now()}
	c.mu.Unlock()
	return doc, nil
}

// Invalidate clears every cached document so the next read loads fresh.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// storeSource adapts a Store to the portal.Source interface, translating
// missing rows into the portal's typed not-found error.
type storeSource struct {
	store *Store
}

func (s storeSource) Fetch(ctx context.Context, slug string) (page.Document, error) {
	doc, err := s.store.GetPage(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return page.Document{}, &portal.NotFoundError{Slug: slug}
		}
		return page.Document{}, err
	}
	return doc, nil
}
