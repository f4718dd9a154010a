package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/modules/marketdata"
)

// Client fetches quotes from Yahoo Finance via piquette/finance-go,
// implementing marketdata.QuoteSource
type Client struct {
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. The configured timeout
// replaces the library's default HTTP client so every request is bounded the
// same way as the other providers.
func NewClient(timeout time.Duration, log zerolog.Logger) *Client {
	c := &Client{
		timeout: timeout,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
	c.setBackend(finance.YFinURL)
	return c
}

// SetBaseURL points the client at a different endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.setBackend(u)
}

func (c *Client) setBackend(u string) {
	finance.SetBackend(finance.YFinBackend, &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        u,
		HTTPClient: &http.Client{Timeout: c.timeout},
	})
}

// Name identifies the provider in persisted quotes
func (c *Client) Name() string {
	return "YAHOO_FINANCE"
}

// FetchStockQuote fetches a quote for a stock symbol. Returns (nil, nil)
// when Yahoo has no data for the symbol.
func (c *Client) FetchStockQuote(ctx context.Context, symbol string) (*marketdata.ProviderQuote, error) {
	return c.fetch(ctx, symbol)
}

// FetchCryptoQuote fetches a quote for a crypto symbol. Yahoo quotes crypto
// as SYMBOL-USD pairs.
func (c *Client) FetchCryptoQuote(ctx context.Context, symbol string) (*marketdata.ProviderQuote, error) {
	pair := symbol
	if !strings.Contains(pair, "-") {
		pair = symbol + "-USD"
	}

	pq, err := c.fetch(ctx, pair)
	if err != nil || pq == nil {
		return pq, err
	}

	pq.Symbol = symbol
	return pq, nil
}

func (c *Client) fetch(ctx context.Context, symbol string) (*marketdata.ProviderQuote, error) {
	iter := quote.ListP(&quote.Params{
		Params:  finance.Params{Context: &ctx},
		Symbols: []string{symbol},
	})

	if !iter.Next() {
		err := iter.Err()
		if err == nil {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yahoo fetch for %s: %w", symbol, domain.ErrProviderTimeout)
		}
		return nil, fmt.Errorf("yahoo fetch for %s failed: %v: %w", symbol, err, domain.ErrProvider)
	}

	return fromFinanceQuote(symbol, iter.Quote()), nil
}

func fromFinanceQuote(symbol string, q *finance.Quote) *marketdata.ProviderQuote {
	volume := int64(q.RegularMarketVolume)

	return &marketdata.ProviderQuote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(q.RegularMarketPrice),
		Change:        decimal.NewFromFloat(q.RegularMarketChange),
		ChangePercent: strconv.FormatFloat(q.RegularMarketChangePercent, 'f', 4, 64),
		Volume:        &volume,
		AsOf:          strconv.Itoa(q.RegularMarketTime),
	}
}
