package marketdata

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/findash/findash/internal/domain"
)

// Handler provides HTTP handlers for market data endpoints
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/price/{symbol}", h.HandleGetPrice)
		r.Post("/prices/batch", h.HandleGetBatchPrices)
		r.Get("/quote/stock/{symbol}", h.HandleGetStockQuote)
		r.Get("/quote/crypto/{symbol}", h.HandleGetCryptoQuote)
		r.Get("/historical/{symbol}", h.HandleGetHistorical)
		r.Get("/analytics/{symbol}", h.HandleGetAnalytics)
		r.Post("/refresh", h.HandleRefresh)
		r.Post("/track/{symbol}", h.HandleTrack)
		r.Delete("/track/{symbol}", h.HandleUntrack)
		r.Get("/tracked", h.HandleGetTracked)
	})
}

// HandleGetPrice handles GET /price/{symbol}
func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	price, err := h.service.GetLatestPrice(r.Context(), symbol)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get price")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": normalizeSymbol(symbol),
		"price":  price,
	})
}

type batchPricesRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleGetBatchPrices handles POST /prices/batch. Unresolvable symbols are
// omitted from the response rather than failing the batch.
func (h *Handler) HandleGetBatchPrices(w http.ResponseWriter, r *http.Request) {
	var req batchPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	prices := h.service.GetBatchPrices(r.Context(), req.Symbols)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"prices":    prices,
		"requested": len(req.Symbols),
		"resolved":  len(prices),
	})
}

// HandleGetStockQuote handles GET /quote/stock/{symbol}
func (h *Handler) HandleGetStockQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := h.service.GetStockQuote(r.Context(), symbol)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get stock quote")
		return
	}
	if quote == nil {
		h.writeError(w, http.StatusNotFound, "No quote available for "+normalizeSymbol(symbol))
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}

// HandleGetCryptoQuote handles GET /quote/crypto/{symbol}
func (h *Handler) HandleGetCryptoQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := h.service.GetCryptoQuote(r.Context(), symbol)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get crypto quote")
		return
	}
	if quote == nil {
		h.writeError(w, http.StatusNotFound, "No quote available for "+normalizeSymbol(symbol))
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}

// HandleGetHistorical handles GET /historical/{symbol}?start=…&end=…
func (h *Handler) HandleGetHistorical(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	end := time.Now()
	start := end.AddDate(0, -1, 0)

	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid start date. Use YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if e := r.URL.Query().Get("end"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid end date. Use YYYY-MM-DD")
			return
		}
		// Inclusive end day
		end = parsed.AddDate(0, 0, 1)
	}
	if start.After(end) {
		h.writeError(w, http.StatusBadRequest, "start must be <= end")
		return
	}

	quotes, err := h.service.GetHistoricalData(r.Context(), symbol, start, end)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get historical data")
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve historical data")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": normalizeSymbol(symbol),
		"count":  len(quotes),
		"quotes": quotes,
	})
}

// HandleGetAnalytics handles GET /analytics/{symbol}?days=…
func (h *Handler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 || parsed > 3650 {
			h.writeError(w, http.StatusBadRequest, "Invalid days. Must be 1-3650")
			return
		}
		days = parsed
	}

	analytics, err := h.service.GetAnalytics(r.Context(), symbol, days)
	if err != nil {
		h.writeDomainError(w, err, "Failed to compute analytics")
		return
	}

	h.writeJSON(w, http.StatusOK, analytics)
}

// HandleRefresh handles POST /refresh - refresh all tracked symbols now
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.service.RefreshAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual refresh failed")
		h.writeError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracked":   len(h.service.TrackedSymbols()),
		"refreshed": refreshed,
	})
}

// HandleTrack handles POST /track/{symbol}
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if normalizeSymbol(symbol) == "" {
		h.writeError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	h.service.Track(symbol)
	h.writeJSON(w, http.StatusOK, map[string]string{
		"symbol": normalizeSymbol(symbol),
		"status": "tracked",
	})
}

// HandleUntrack handles DELETE /track/{symbol}
func (h *Handler) HandleUntrack(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	h.service.Untrack(symbol)
	h.writeJSON(w, http.StatusOK, map[string]string{
		"symbol": normalizeSymbol(symbol),
		"status": "untracked",
	})
}

// HandleGetTracked handles GET /tracked
func (h *Handler) HandleGetTracked(w http.ResponseWriter, r *http.Request) {
	symbols := h.service.TrackedSymbols()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case domain.IsQuoteUnavailable(err):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg(fallback)
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
}
