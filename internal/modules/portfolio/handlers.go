package portfolio

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
)

// AccountLookup verifies that an account exists before holdings are mutated
type AccountLookup interface {
	Exists(accountID int64) (bool, error)
}

// Handler provides HTTP handlers for portfolio endpoints
type Handler struct {
	service  *Service
	accounts AccountLookup
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *Service, accounts AccountLookup, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		accounts: accounts,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Route("/account/{accountID}", func(r chi.Router) {
			r.Get("/holdings", h.HandleGetHoldings)
			r.Get("/holding/{symbol}", h.HandleGetHolding)
			r.Post("/holding", h.HandleAddHolding)
			r.Get("/summary", h.HandleGetSummary)
			r.Post("/refresh", h.HandleRefresh)
		})
		r.Put("/holding/{id}", h.HandleUpdateHolding)
		r.Delete("/holding/{id}", h.HandleRemoveHolding)
	})
}

// HandleGetHoldings handles GET /account/{accountID}/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	holdings, err := h.service.GetHoldingsByAccount(r.Context(), accountID)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to get holdings")
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve holdings")
		return
	}
	if holdings == nil {
		holdings = []Holding{}
	}

	h.writeJSON(w, http.StatusOK, holdings)
}

// HandleGetHolding handles GET /account/{accountID}/holding/{symbol}
func (h *Handler) HandleGetHolding(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	symbol := chi.URLParam(r, "symbol")

	holding, err := h.service.GetHoldingBySymbol(r.Context(), accountID, symbol)
	if err != nil {
		h.writeDomainError(w, err, "Failed to retrieve holding")
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

type addHoldingRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// HandleAddHolding handles POST /account/{accountID}/holding
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	exists, err := h.accounts.Exists(accountID)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to check account")
		h.writeError(w, http.StatusInternalServerError, "Failed to verify account")
		return
	}
	if !exists {
		h.writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	var req addHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.AddHolding(r.Context(), accountID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		h.writeDomainError(w, err, "Failed to add holding")
		return
	}

	h.writeJSON(w, http.StatusCreated, holding)
}

type updateHoldingRequest struct {
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// HandleUpdateHolding handles PUT /holding/{id}
func (h *Handler) HandleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid holding id")
		return
	}

	var req updateHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == nil && req.Price == nil {
		h.writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	holding, err := h.service.UpdateHolding(r.Context(), id, req.Quantity, req.Price)
	if err != nil {
		h.writeDomainError(w, err, "Failed to update holding")
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// HandleRemoveHolding handles DELETE /holding/{id}
func (h *Handler) HandleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid holding id")
		return
	}

	if err := h.service.RemoveHolding(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "Failed to remove holding")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleGetSummary handles GET /account/{accountID}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetPortfolioSummary(r.Context(), accountID)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to compute summary")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleRefresh handles POST /account/{accountID}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := h.service.RefreshPortfolio(r.Context(), accountID); err != nil {
		h.log.Error().Err(err).Int64("account_id", accountID).Msg("Portfolio refresh failed")
		h.writeError(w, http.StatusInternalServerError, "Portfolio refresh failed")
		return
	}

	summary, err := h.service.GetPortfolioSummary(r.Context(), accountID)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to compute summary")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// Helper methods

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return 0, false
	}
	return id, true
}

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
