package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price observation for a symbol. Quotes are
// immutable: a newer observation supersedes an older one, never mutates it.
type Quote struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Volume     *int64          `json:"volume,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
	Source     string          `json:"source"`
}

// ProviderQuote is the structured quote shape returned by a quote provider
type ProviderQuote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent string          `json:"change_percent"`
	Volume        *int64          `json:"volume,omitempty"`
	AsOf          string          `json:"as_of"`
}

// QuoteSource fetches quotes from a remote market data provider.
// Implementations return (nil, nil) when the provider has no data for the
// symbol, and the typed provider errors from internal/domain otherwise.
type QuoteSource interface {
	Name() string
	FetchStockQuote(ctx context.Context, symbol string) (*ProviderQuote, error)
	FetchCryptoQuote(ctx context.Context, symbol string) (*ProviderQuote, error)
}

// Analytics summarizes persisted price history for a symbol
type Analytics struct {
	Symbol           string  `json:"symbol"`
	Observations     int     `json:"observations"`
	MeanDailyReturn  float64 `json:"mean_daily_return"`
	Volatility       float64 `json:"volatility"`
	AnnualVolatility float64 `json:"annual_volatility"`
	RSI              float64 `json:"rsi"`
}
