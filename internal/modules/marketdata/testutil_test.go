package marketdata

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/findash/findash/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	return db.Conn()
}

// fakeSource is an in-memory QuoteSource for tests
type fakeSource struct {
	mu      sync.Mutex
	prices  map[string]decimal.Decimal
	crypto  map[string]decimal.Decimal
	err     error
	fetches int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		prices: make(map[string]decimal.Decimal),
		crypto: make(map[string]decimal.Decimal),
	}
}

func (f *fakeSource) Name() string {
	return "FAKE"
}

func (f *fakeSource) setPrice(symbol string, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSource) FetchStockQuote(_ context.Context, symbol string) (*ProviderQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return nil, nil
	}
	return &ProviderQuote{Symbol: symbol, Price: price}, nil
}

func (f *fakeSource) FetchCryptoQuote(_ context.Context, symbol string) (*ProviderQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	price, ok := f.crypto[symbol]
	if !ok {
		return nil, nil
	}
	return &ProviderQuote{Symbol: symbol, Price: price}, nil
}
