package advisor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// fetchTimeout bounds a shared fetch, which outlives the caller that started it.
	fetchTimeout = 60 * time.Second
	// staleLimit is how long a value kept for stale fallback survives past its ttl.
	staleLimit = 24 * time.Hour
)

type cacheEntry struct {
	value     string
	fetched   time.Time
	keepStale bool
}

// cache holds completions for ttl and collapses concurrent identical requests.
type cache struct {
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *cache) fresh(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return "", false
	}
	return e.value, true
}

// peek returns the last value for key, fresh or not.
func (c *cache) peek(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// get returns the cached value for key or calls fetch. With keepStale, a failed
// refresh returns the previous value instead of the error.
func (c *cache) get(ctx context.Context, key string, keepStale bool, fetch func(context.Context) (string, error)) (string, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Double-check after winning the flight.
		if v, ok := c.fresh(key); ok {
			return v, nil
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		v, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		now := c.now()
		c.evictLocked(now)
		c.entries[key] = cacheEntry{value: v, fetched: now, keepStale: keepStale}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		if keepStale {
			if stale, ok := c.peek(key); ok {
				return stale, nil
			}
		}
		return "", err
	}
	return v.(string), nil
}

// evictLocked drops expired entries. Entries kept for stale fallback live for
// staleLimit beyond the ttl. c.mu must be held.
func (c *cache) evictLocked(now time.Time) {
	for key, e := range c.entries {
		limit := c.ttl
		if e.keepStale {
			limit += staleLimit
		}
		if now.Sub(e.fetched) >= limit {
			delete(c.entries, key)
		}
	}
}

// len reports how many entries are held.
func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
