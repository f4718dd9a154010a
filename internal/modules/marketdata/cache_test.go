package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func quoteFor(symbol string, price int64) Quote {
	return Quote{
		Symbol:     symbol,
		Price:      decimal.NewFromInt(price),
		ObservedAt: time.Now(),
		Source:     "FAKE",
	}
}

func TestPriceCache_GetFresh(t *testing.T) {
	cache := NewPriceCache(time.Minute)
	cache.Put(quoteFor("AAPL", 150))

	q, ok := cache.Get("AAPL")
	assert.True(t, ok)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(150)))

	_, ok = cache.Get("MSFT")
	assert.False(t, ok)
}

func TestPriceCache_ExpiredEntryIsMissButStaleSurvives(t *testing.T) {
	cache := NewPriceCache(10 * time.Millisecond)
	cache.Put(quoteFor("AAPL", 150))

	time.Sleep(25 * time.Millisecond)

	_, ok := cache.Get("AAPL")
	assert.False(t, ok, "expired entry must be a miss")

	stale, ok := cache.GetStale("AAPL")
	assert.True(t, ok, "expired entry must still be retrievable as stale")
	assert.True(t, stale.Price.Equal(decimal.NewFromInt(150)))
}

func TestPriceCache_StalenessIsNotPromoted(t *testing.T) {
	cache := NewPriceCache(10 * time.Millisecond)
	cache.Put(quoteFor("AAPL", 150))

	time.Sleep(25 * time.Millisecond)

	// Reading the stale entry must not refresh its TTL
	_, _ = cache.GetStale("AAPL")
	_, ok := cache.Get("AAPL")
	assert.False(t, ok)
}

func TestPriceCache_PutBatchRunsHooks(t *testing.T) {
	cache := NewPriceCache(time.Minute)

	hookRuns := 0
	cache.OnInvalidate(func() { hookRuns++ })

	cache.PutBatch([]Quote{quoteFor("AAPL", 150), quoteFor("MSFT", 300)})

	assert.Equal(t, 1, hookRuns, "hooks run once per batch")
	assert.Equal(t, 2, cache.Len())

	q, ok := cache.Get("MSFT")
	assert.True(t, ok)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(300)))
}

func TestPriceCache_PutBatchEmptyStillRunsHooks(t *testing.T) {
	cache := NewPriceCache(time.Minute)

	hookRuns := 0
	cache.OnInvalidate(func() { hookRuns++ })

	cache.PutBatch(nil)
	assert.Equal(t, 1, hookRuns)
}

func TestPriceCache_Invalidate(t *testing.T) {
	cache := NewPriceCache(time.Minute)
	cache.Put(quoteFor("AAPL", 150))
	cache.Put(quoteFor("MSFT", 300))

	cache.Invalidate("AAPL")

	_, ok := cache.Get("AAPL")
	assert.False(t, ok)
	_, ok = cache.GetStale("AAPL")
	assert.False(t, ok, "invalidated entries are gone, not stale")

	_, ok = cache.Get("MSFT")
	assert.True(t, ok)
}

func TestPriceCache_InvalidateAll(t *testing.T) {
	cache := NewPriceCache(time.Minute)
	cache.Put(quoteFor("AAPL", 150))
	cache.Put(quoteFor("MSFT", 300))

	hookRuns := 0
	cache.OnInvalidate(func() { hookRuns++ })

	cache.InvalidateAll()

	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 1, hookRuns)
}

func TestPriceCache_ConcurrentReadersAndWriters(t *testing.T) {
	cache := NewPriceCache(time.Minute)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				if n%2 == 0 {
					cache.Put(quoteFor("AAPL", int64(j)))
				} else {
					cache.Get("AAPL")
					cache.GetStale("AAPL")
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	_, ok := cache.Get("AAPL")
	assert.True(t, ok)
}
