package metadata

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachingFetcher wraps a FieldFetcher with an in-memory cache.
// Concurrent lookups for the same customer key collapse into a single
// backend call; errors are not cached, so a failed fetch retries on
// the next request.
type CachingFetcher struct {
	inner FieldFetcher

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]Field
}

// NewCachingFetcher wraps inner with caching and request collapsing.
func NewCachingFetcher(inner FieldFetcher) *CachingFetcher {
	return &CachingFetcher{
		inner: inner,
		cache: make(map[string][]Field),
	}
}

// FetchFields returns the cached field list for customerKey, fetching
// it at most once regardless of concurrency. Cancelling ctx abandons
// the wait without cancelling the shared in-flight fetch, so other
// waiters still get the result.
func (c *CachingFetcher) FetchFields(ctx context.Context, customerKey string) ([]Field, error) {
	c.mu.RLock()
	fields, ok := c.cache[customerKey]
	c.mu.RUnlock()

	if ok {
		return fields, nil
	}

	ch := c.group.DoChan(customerKey, func() (any, error) {
		fetched, err := c.inner.FetchFields(context.WithoutCancel(ctx), customerKey)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[customerKey] = fetched
		c.mu.Unlock()

		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.([]Field), nil
	}
}

// Invalidate drops the cached entry for customerKey.
func (c *CachingFetcher) Invalidate(customerKey string) {
	c.mu.Lock()
	delete(c.cache, customerKey)
	c.mu.Unlock()
}

// Reset drops the whole cache.
func (c *CachingFetcher) Reset() {
	c.mu.Lock()
	c.cache = make(map[string][]Field)
	c.mu.Unlock()
}
