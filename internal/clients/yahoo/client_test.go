package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findash/findash/internal/domain"
)

func newTestClient(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(timeout, zerolog.Nop())
	client.SetBaseURL(server.URL)
	return client
}

func quoteResponse(symbol string, price float64) string {
	return fmt.Sprintf(`{"quoteResponse": {"result": [{
		"symbol": %q,
		"regularMarketPrice": %v,
		"regularMarketChange": 1.25,
		"regularMarketChangePercent": 0.8389,
		"regularMarketVolume": 43210000,
		"regularMarketTime": 1700000000
	}], "error": null}}`, symbol, price)
}

func TestFetchStockQuote_ParsesQuote(t *testing.T) {
	client := newTestClient(t, 5*time.Second, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quoteResponse("AAPL", 150.25))
	})

	pq, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, pq)

	assert.Equal(t, "AAPL", pq.Symbol)
	assert.Equal(t, "150.25", pq.Price.String())
	assert.Equal(t, "1.25", pq.Change.String())
	assert.Equal(t, "0.8389", pq.ChangePercent)
	require.NotNil(t, pq.Volume)
	assert.Equal(t, int64(43210000), *pq.Volume)
}

func TestFetchStockQuote_NoDataIsNilNil(t *testing.T) {
	client := newTestClient(t, 5*time.Second, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [], "error": null}}`)
	})

	pq, err := client.FetchStockQuote(context.Background(), "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, pq)
}

func TestFetchStockQuote_ServerErrorIsProviderError(t *testing.T) {
	client := newTestClient(t, 5*time.Second, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})

	_, err := client.FetchStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestFetchStockQuote_TimeoutBoundsRequest(t *testing.T) {
	client := newTestClient(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	_, err := client.FetchStockQuote(context.Background(), "AAPL")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Less(t, elapsed, time.Second, "request must be cut off by the configured timeout")
}

func TestFetchStockQuote_CanceledContext(t *testing.T) {
	client := newTestClient(t, 5*time.Second, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchStockQuote(ctx, "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
}

func TestFetchCryptoQuote_QuotesUSDPair(t *testing.T) {
	var requested string
	client := newTestClient(t, 5*time.Second, func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Query().Get("symbols")
		fmt.Fprint(w, quoteResponse("BTC-USD", 61250.5))
	})

	pq, err := client.FetchCryptoQuote(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, pq)

	assert.Equal(t, "BTC-USD", requested)
	assert.Equal(t, "BTC", pq.Symbol)
	assert.Equal(t, "61250.5", pq.Price.String())
}
