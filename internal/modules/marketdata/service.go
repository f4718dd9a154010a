package marketdata

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/events"
	"github.com/findash/findash/pkg/formulas"
)

// Service is the single source of truth for "what is the latest price of X".
// It composes the price cache, the symbol tracker, the quote provider and
// the quote history repository.
type Service struct {
	cache   *PriceCache
	tracker *Tracker
	source  QuoteSource
	repo    *Repository
	events  *events.Manager
	log     zerolog.Logger

	// Derived caches for structured provider quotes. Cleared by the price
	// cache invalidation hooks so a refresh never leaves them behind.
	quoteMu      sync.Mutex
	stockQuotes  map[string]*ProviderQuote
	cryptoQuotes map[string]*ProviderQuote
}

// NewService creates a new market data service
func NewService(
	cache *PriceCache,
	tracker *Tracker,
	source QuoteSource,
	repo *Repository,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	s := &Service{
		cache:        cache,
		tracker:      tracker,
		source:       source,
		repo:         repo,
		events:       eventManager,
		log:          log.With().Str("service", "marketdata").Logger(),
		stockQuotes:  make(map[string]*ProviderQuote),
		cryptoQuotes: make(map[string]*ProviderQuote),
	}

	cache.OnInvalidate(s.clearQuoteCaches)

	return s
}

// OnInvalidate registers a derived-cache invalidation hook with the price
// cache. Used by the portfolio valuator so summary caches clear in the same
// step as a bulk price write.
func (s *Service) OnInvalidate(fn func()) {
	s.cache.OnInvalidate(fn)
}

// GetLatestPrice returns the latest price for symbol. Cache first, then a
// live provider fetch (which persists the quote and enrolls the symbol for
// scheduled refresh). A provider failure degrades to the last known price,
// stale cache entry or persisted quote, before giving up.
func (s *Service) GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = normalizeSymbol(symbol)

	if q, ok := s.cache.Get(symbol); ok {
		return q.Price, nil
	}

	pq, err := s.source.FetchStockQuote(ctx, symbol)
	if err == nil && pq != nil {
		q := s.storeQuote(symbol, pq)
		// First lookup enrolls the symbol for future refresh. This also
		// re-enrolls an explicitly untracked symbol on its next lookup.
		s.tracker.Track(symbol)
		return q.Price, nil
	}

	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider fetch failed, trying fallbacks")
	} else {
		err = domain.ErrQuoteNotFound
	}

	// Staleness is never promoted: the entry stays expired, the caller just
	// gets the best price we still have.
	if q, ok := s.cache.GetStale(symbol); ok {
		s.log.Debug().Str("symbol", symbol).Msg("Serving stale cached price")
		return q.Price, nil
	}

	if persisted, repoErr := s.repo.GetLatest(symbol); repoErr == nil && persisted != nil {
		s.log.Debug().Str("symbol", symbol).Msg("Serving last persisted price")
		return persisted.Price, nil
	}

	return decimal.Decimal{}, &domain.QuoteUnavailableError{Symbol: symbol, Cause: err}
}

// GetBatchPrices resolves prices for all symbols best-effort: a symbol whose
// price cannot be resolved is omitted, never failing the whole batch.
func (s *Service) GetBatchPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		price, err := s.GetLatestPrice(ctx, symbol)
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", symbol).Msg("Omitting symbol from batch")
			continue
		}
		prices[normalizeSymbol(symbol)] = price
	}
	return prices
}

// GetStockQuote returns the structured provider quote for a stock symbol.
// Returns (nil, nil) when the provider has no data; the caller decides
// whether that is an error.
func (s *Service) GetStockQuote(ctx context.Context, symbol string) (*ProviderQuote, error) {
	symbol = normalizeSymbol(symbol)

	s.quoteMu.Lock()
	cached, ok := s.stockQuotes[symbol]
	s.quoteMu.Unlock()
	if ok {
		return cached, nil
	}

	pq, err := s.source.FetchStockQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if pq == nil {
		return nil, nil
	}

	s.quoteMu.Lock()
	s.stockQuotes[symbol] = pq
	s.quoteMu.Unlock()

	return pq, nil
}

// GetCryptoQuote returns the structured provider quote for a crypto symbol
func (s *Service) GetCryptoQuote(ctx context.Context, symbol string) (*ProviderQuote, error) {
	symbol = normalizeSymbol(symbol)

	s.quoteMu.Lock()
	cached, ok := s.cryptoQuotes[symbol]
	s.quoteMu.Unlock()
	if ok {
		return cached, nil
	}

	pq, err := s.source.FetchCryptoQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if pq == nil {
		return nil, nil
	}

	s.quoteMu.Lock()
	s.cryptoQuotes[symbol] = pq
	s.quoteMu.Unlock()

	return pq, nil
}

// RefreshAll fetches a live quote for every tracked symbol and installs the
// results as one batch. Fetches run without holding any lock; the batch
// write and the derived-cache invalidation happen in a single locked step,
// so no reader observes refreshed prices next to pre-refresh summaries.
// Returns the number of symbols refreshed.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	symbols := s.tracker.Snapshot()

	s.events.Emit(events.PriceRefreshStart, "marketdata", map[string]interface{}{
		"symbols": len(symbols),
	})

	fresh := make([]Quote, 0, len(symbols))
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return len(fresh), ctx.Err()
		}

		pq, err := s.source.FetchStockQuote(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Refresh fetch failed, keeping previous price")
			continue
		}
		if pq == nil {
			s.log.Warn().Str("symbol", symbol).Msg("Provider has no data for tracked symbol")
			continue
		}

		q := Quote{
			Symbol:     symbol,
			Price:      pq.Price,
			Volume:     pq.Volume,
			ObservedAt: time.Now(),
			Source:     s.source.Name(),
		}
		if err := s.repo.Save(q); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist quote")
		}
		fresh = append(fresh, q)
	}

	// Even with zero successful fetches the derived caches are dropped,
	// matching the all-entries eviction contract of the refresh.
	s.cache.PutBatch(fresh)

	s.events.Emit(events.PriceRefreshComplete, "marketdata", map[string]interface{}{
		"symbols":   len(symbols),
		"refreshed": len(fresh),
	})

	return len(fresh), nil
}

// Track adds a symbol to the scheduled refresh set
func (s *Service) Track(symbol string) {
	s.tracker.Track(symbol)
	s.events.Emit(events.SymbolTracked, "marketdata", map[string]interface{}{
		"symbol": normalizeSymbol(symbol),
	})
}

// Untrack removes a symbol from the scheduled refresh set
func (s *Service) Untrack(symbol string) {
	s.tracker.Untrack(symbol)
	s.events.Emit(events.SymbolUntracked, "marketdata", map[string]interface{}{
		"symbol": normalizeSymbol(symbol),
	})
}

// TrackedSymbols returns a snapshot of the tracked symbol set
func (s *Service) TrackedSymbols() []string {
	return s.tracker.Snapshot()
}

// CachedPrices returns the number of entries held by the price cache
func (s *Service) CachedPrices() int {
	return s.cache.Len()
}

// GetHistoricalData returns persisted quotes for symbol in [from, to]
func (s *Service) GetHistoricalData(ctx context.Context, symbol string, from, to time.Time) ([]Quote, error) {
	return s.repo.GetRange(normalizeSymbol(symbol), from, to)
}

// GetAnalytics computes return/volatility/RSI statistics over the persisted
// quote history of the last `days` days
func (s *Service) GetAnalytics(ctx context.Context, symbol string, days int) (*Analytics, error) {
	symbol = normalizeSymbol(symbol)

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	quotes, err := s.repo.GetRange(symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(quotes) < 2 {
		return nil, domain.NewNotFoundError("market_data", symbol)
	}

	prices := make([]float64, len(quotes))
	for i, q := range quotes {
		prices[i], _ = q.Price.Float64()
	}

	returns := formulas.Returns(prices)
	vol := formulas.StdDev(returns)

	return &Analytics{
		Symbol:           symbol,
		Observations:     len(quotes),
		MeanDailyReturn:  formulas.Mean(returns),
		Volatility:       vol,
		AnnualVolatility: vol * math.Sqrt(252),
		RSI:              formulas.RSI(prices, 14),
	}, nil
}

func (s *Service) clearQuoteCaches() {
	s.quoteMu.Lock()
	defer s.quoteMu.Unlock()
	s.stockQuotes = make(map[string]*ProviderQuote)
	s.cryptoQuotes = make(map[string]*ProviderQuote)
}

func (s *Service) storeQuote(symbol string, pq *ProviderQuote) Quote {
	q := Quote{
		Symbol:     symbol,
		Price:      pq.Price,
		Volume:     pq.Volume,
		ObservedAt: time.Now(),
		Source:     s.source.Name(),
	}

	if err := s.repo.Save(q); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist quote")
	}
	s.cache.Put(q)

	return q
}
