package marketdata

import (
	"sync"
	"time"
)

type cacheEntry struct {
	quote     Quote
	expiresAt time.Time
}

// PriceCache memoizes the latest quote per symbol with a TTL. Expired
// entries are retained so a stale price can still be served when the
// provider is unreachable; Get treats them as a miss, GetStale does not.
//
// Derived caches (structured quotes, portfolio summaries) register
// invalidation hooks that run inside the same locked step as a bulk write,
// so readers never observe refreshed prices next to pre-refresh derivations.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	hooks   []func()
}

// NewPriceCache creates a price cache with the given entry TTL
func NewPriceCache(ttl time.Duration) *PriceCache {
	return &PriceCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// OnInvalidate registers a hook that runs whenever prices are bulk-written
// or the cache is dropped. Hooks must not call back into the cache.
func (c *PriceCache) OnInvalidate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Get returns the cached quote for symbol if it is still fresh
func (c *PriceCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || time.Now().After(entry.expiresAt) {
		return Quote{}, false
	}
	return entry.quote, true
}

// GetStale returns the last known quote for symbol regardless of age
func (c *PriceCache) GetStale(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok {
		return Quote{}, false
	}
	return entry.quote, true
}

// Put stores a quote, replacing any existing entry for the symbol
func (c *PriceCache) Put(quote Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[quote.Symbol] = cacheEntry{
		quote:     quote,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// PutBatch stores all quotes and runs the invalidation hooks as one step.
// Used by the scheduled refresh: readers see either the full pre-refresh
// state or the full post-refresh state.
func (c *PriceCache) PutBatch(quotes []Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	for _, q := range quotes {
		c.entries[q.Symbol] = cacheEntry{quote: q, expiresAt: expiresAt}
	}
	for _, hook := range c.hooks {
		hook()
	}
}

// Invalidate drops the entries for the given symbols
func (c *PriceCache) Invalidate(symbols ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		delete(c.entries, s)
	}
}

// InvalidateAll drops every entry and runs the invalidation hooks
func (c *PriceCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	for _, hook := range c.hooks {
		hook()
	}
}

// Len returns the number of cached entries, fresh or stale
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
