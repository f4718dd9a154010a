package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/modules/marketdata"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Client is an Alpha Vantage API client implementing marketdata.QuoteSource
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new Alpha Vantage client. Calls are bounded by the
// given timeout; a timed-out call is reported as domain.ErrProviderTimeout
// and never retried within the same request.
func NewClient(apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		log:     log.With().Str("client", "alphavantage").Logger(),
	}
}

// SetBaseURL overrides the API endpoint, used by tests
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Name identifies the provider in persisted quotes
func (c *Client) Name() string {
	return "ALPHA_VANTAGE"
}

// globalQuoteResponse wraps the GLOBAL_QUOTE payload. Alpha Vantage keys
// carry numeric prefixes ("05. price"), so the quote body stays a map.
type globalQuoteResponse struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	ErrorMessage string            `json:"Error Message"`
}

type exchangeRateResponse struct {
	ExchangeRate map[string]string `json:"Realtime Currency Exchange Rate"`
	Note         string            `json:"Note"`
	ErrorMessage string            `json:"Error Message"`
}

// FetchStockQuote fetches a GLOBAL_QUOTE for the symbol. Returns (nil, nil)
// when the provider has no data for the symbol.
func (c *Client) FetchStockQuote(ctx context.Context, symbol string) (*marketdata.ProviderQuote, error) {
	params := url.Values{}
	params.Add("function", "GLOBAL_QUOTE")
	params.Add("symbol", symbol)
	params.Add("apikey", c.apiKey)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result globalQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", domain.ErrProvider)
	}

	if result.Note != "" {
		// Rate limit notes come back with HTTP 200
		return nil, fmt.Errorf("rate limited: %s: %w", result.Note, domain.ErrProvider)
	}
	if result.ErrorMessage != "" {
		return nil, fmt.Errorf("%s: %w", result.ErrorMessage, domain.ErrProvider)
	}
	if len(result.GlobalQuote) == 0 {
		return nil, nil
	}

	price, err := decimal.NewFromString(result.GlobalQuote["05. price"])
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", result.GlobalQuote["05. price"], domain.ErrProvider)
	}

	change, _ := decimal.NewFromString(result.GlobalQuote["09. change"])

	var volume *int64
	if v, err := strconv.ParseInt(result.GlobalQuote["06. volume"], 10, 64); err == nil {
		volume = &v
	}

	changePercent := result.GlobalQuote["10. change percent"]
	if n := len(changePercent); n > 0 && changePercent[n-1] == '%' {
		changePercent = changePercent[:n-1]
	}

	return &marketdata.ProviderQuote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		AsOf:          result.GlobalQuote["07. latest trading day"],
	}, nil
}

// FetchCryptoQuote fetches the symbol/USD exchange rate. Returns (nil, nil)
// when the provider has no data for the symbol.
func (c *Client) FetchCryptoQuote(ctx context.Context, symbol string) (*marketdata.ProviderQuote, error) {
	params := url.Values{}
	params.Add("function", "CURRENCY_EXCHANGE_RATE")
	params.Add("from_currency", symbol)
	params.Add("to_currency", "USD")
	params.Add("apikey", c.apiKey)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result exchangeRateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse exchange rate response: %w", domain.ErrProvider)
	}

	if result.Note != "" {
		return nil, fmt.Errorf("rate limited: %s: %w", result.Note, domain.ErrProvider)
	}
	if result.ErrorMessage != "" {
		return nil, fmt.Errorf("%s: %w", result.ErrorMessage, domain.ErrProvider)
	}
	if len(result.ExchangeRate) == 0 {
		return nil, nil
	}

	price, err := decimal.NewFromString(result.ExchangeRate["5. Exchange Rate"])
	if err != nil {
		return nil, fmt.Errorf("invalid exchange rate %q: %w", result.ExchangeRate["5. Exchange Rate"], domain.ErrProvider)
	}

	return &marketdata.ProviderQuote{
		Symbol: symbol,
		Price:  price,
		AsOf:   result.ExchangeRate["6. Last Refreshed"],
	}, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("alpha vantage request timed out: %w", domain.ErrProviderTimeout)
		}
		return nil, fmt.Errorf("alpha vantage request failed: %v: %w", err, domain.ErrProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alpha vantage returned status %d: %s: %w", resp.StatusCode, string(body), domain.ErrProvider)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v: %w", err, domain.ErrProvider)
	}

	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
