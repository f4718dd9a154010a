package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findash/findash/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("test-key", 5*time.Second, zerolog.Nop())
	client.SetBaseURL(srv.URL)
	return client
}

func TestFetchStockQuote_ParsesGlobalQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Global Quote": {
				"01. symbol": "AAPL",
				"05. price": "150.2500",
				"06. volume": "48291500",
				"07. latest trading day": "2026-08-28",
				"09. change": "1.2500",
				"10. change percent": "0.8389%"
			}
		}`))
	})

	quote, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "150.25", quote.Price.String())
	assert.Equal(t, "1.25", quote.Change.String())
	assert.Equal(t, "0.8389", quote.ChangePercent, "trailing percent sign is stripped")
	require.NotNil(t, quote.Volume)
	assert.Equal(t, int64(48291500), *quote.Volume)
	assert.Equal(t, "2026-08-28", quote.AsOf)
}

func TestFetchStockQuote_EmptyPayloadMeansNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})

	quote, err := client.FetchStockQuote(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, quote)
}

func TestFetchStockQuote_RateLimitNote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Alpha Vantage reports rate limiting with HTTP 200 and a Note
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	})

	_, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestFetchStockQuote_ErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	})

	_, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestFetchStockQuote_MalformedPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "garbage"}}`))
	})

	_, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestFetchStockQuote_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestFetchStockQuote_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchStockQuote(ctx, "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
}

func TestFetchCryptoQuote_ParsesExchangeRate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CURRENCY_EXCHANGE_RATE", r.URL.Query().Get("function"))
		assert.Equal(t, "BTC", r.URL.Query().Get("from_currency"))
		assert.Equal(t, "USD", r.URL.Query().Get("to_currency"))

		w.Write([]byte(`{
			"Realtime Currency Exchange Rate": {
				"1. From_Currency Code": "BTC",
				"3. To_Currency Code": "USD",
				"5. Exchange Rate": "64123.45000000",
				"6. Last Refreshed": "2026-08-28 16:00:01"
			}
		}`))
	})

	quote, err := client.FetchCryptoQuote(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, "BTC", quote.Symbol)
	assert.Equal(t, "64123.45", quote.Price.String())
	assert.Equal(t, "2026-08-28 16:00:01", quote.AsOf)
}

func TestFetchCryptoQuote_EmptyPayloadMeansNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Realtime Currency Exchange Rate": {}}`))
	})

	quote, err := client.FetchCryptoQuote(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, quote)
}
