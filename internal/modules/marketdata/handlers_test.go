package marketdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/events"
)

func newTestHandlerRouter(t *testing.T, source QuoteSource) *chi.Mux {
	t.Helper()

	db := setupTestDB(t)
	svc := NewService(
		NewPriceCache(time.Minute),
		NewTracker(),
		source,
		NewRepository(db, zerolog.Nop()),
		events.NewManager(zerolog.Nop()),
		zerolog.Nop(),
	)
	handler := NewHandler(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return r
}

func TestHandleGetPrice(t *testing.T) {
	source := newFakeSource()
	source.setPrice("AAPL", decimal.NewFromFloat(150.25))
	router := newTestHandlerRouter(t, source)

	req := httptest.NewRequest("GET", "/api/market/price/aapl", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, "150.25", resp.Price.String())
}

func TestHandleGetPrice_UnavailableIs503(t *testing.T) {
	source := newFakeSource()
	source.setErr(domain.ErrProvider)
	router := newTestHandlerRouter(t, source)

	req := httptest.NewRequest("GET", "/api/market/price/AAPL", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleBatchPrices(t *testing.T) {
	source := newFakeSource()
	source.setPrice("AAPL", decimal.NewFromInt(150))
	router := newTestHandlerRouter(t, source)

	body := `{"symbols": ["AAPL", "NOPE"]}`
	req := httptest.NewRequest("POST", "/api/market/prices/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Prices    map[string]decimal.Decimal `json:"prices"`
		Requested int                        `json:"requested"`
		Resolved  int                        `json:"resolved"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Requested)
	assert.Equal(t, 1, resp.Resolved)
	assert.Equal(t, "150", resp.Prices["AAPL"].String())
}

func TestHandleBatchPrices_EmptyBodyIs400(t *testing.T) {
	router := newTestHandlerRouter(t, newFakeSource())

	req := httptest.NewRequest("POST", "/api/market/prices/batch", strings.NewReader(`{"symbols": []}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStockQuote_NoDataIs404(t *testing.T) {
	router := newTestHandlerRouter(t, newFakeSource())

	req := httptest.NewRequest("GET", "/api/market/quote/stock/NOPE", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTrackAndUntrack(t *testing.T) {
	router := newTestHandlerRouter(t, newFakeSource())

	req := httptest.NewRequest("POST", "/api/market/track/aapl", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/market/tracked", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tracked struct {
		Symbols []string `json:"symbols"`
		Count   int      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tracked))
	assert.Equal(t, []string{"AAPL"}, tracked.Symbols)

	req = httptest.NewRequest("DELETE", "/api/market/track/AAPL", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/market/tracked", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tracked))
	assert.Equal(t, 0, tracked.Count)
}

func TestHandleRefresh(t *testing.T) {
	source := newFakeSource()
	source.setPrice("AAPL", decimal.NewFromInt(150))
	router := newTestHandlerRouter(t, source)

	req := httptest.NewRequest("POST", "/api/market/track/AAPL", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("POST", "/api/market/refresh", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tracked   int `json:"tracked"`
		Refreshed int `json:"refreshed"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Tracked)
	assert.Equal(t, 1, resp.Refreshed)
}

func TestHandleAnalytics_BadDaysIs400(t *testing.T) {
	router := newTestHandlerRouter(t, newFakeSource())

	req := httptest.NewRequest("GET", "/api/market/analytics/AAPL?days=-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHistorical_BadDateIs400(t *testing.T) {
	router := newTestHandlerRouter(t, newFakeSource())

	req := httptest.NewRequest("GET", "/api/market/historical/AAPL?start=yesterday", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
