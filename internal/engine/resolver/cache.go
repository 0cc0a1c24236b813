package resolver

import (
	"context"
	"sync"

	"repo2text/internal/engine/catalog"
	"repo2text/internal/shared/observability"

	"golang.org/x/sync/singleflight"
)

// ContentFetcher returns the full text of a file.
type ContentFetcher func(ctx context.Context, file catalog.FileDescriptor) (string, error)

type cacheEntry struct {
	content string
	err     error
}

// ContentCache remembers fetched content, including failures, for a single
// resolution call. Each distinct path reaches the fetcher at most once, even
// when Get is called from several goroutines.
type ContentCache struct {
	fetch ContentFetcher

	mu      sync.Mutex
	entries map[string]cacheEntry
	fetches int
	hits    int

	group singleflight.Group
}

func NewContentCache(fetch ContentFetcher) *ContentCache {
	return &ContentCache{
		fetch:   fetch,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ContentCache) Get(ctx context.Context, file catalog.FileDescriptor) (string, error) {
	if e, ok := c.lookup(file.Path); ok {
		observability.ContentCacheHitsTotal.Inc()
		return e.content, e.err
	}
	v, _, _ := c.group.Do(file.Path, func() (any, error) {
		if e, ok := c.lookup(file.Path); ok {
			return e, nil
		}
		var e cacheEntry
		if c.fetch == nil {
			e.err = errNoFetcher
		} else {
			e.content, e.err = c.fetch(ctx, file)
		}
		c.mu.Lock()
		c.entries[file.Path] = e
		c.fetches++
		c.mu.Unlock()
		return e, nil
	})
	e := v.(cacheEntry)
	return e.content, e.err
}

func (c *ContentCache) lookup(path string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if ok {
		c.hits++
	}
	return e, ok
}

// Fetches returns how many times the underlying fetcher was invoked.
func (c *ContentCache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

func (c *ContentCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
