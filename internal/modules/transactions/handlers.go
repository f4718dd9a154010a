package transactions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
)

// Handler provides HTTP handlers for transaction endpoints
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new transactions handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "transactions").Logger(),
	}
}

// RegisterRoutes registers all transaction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Get("/account/{accountID}", h.HandleListByAccount)
		r.Delete("/{id}", h.HandleDelete)
	})
}

type createTransactionRequest struct {
	AccountID       int64           `json:"account_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	TransactionDate string          `json:"transaction_date,omitempty"`
}

// HandleCreate handles POST /
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var date time.Time
	if req.TransactionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.TransactionDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid transaction_date. Use YYYY-MM-DD")
			return
		}
		date = parsed
	}

	tx, err := h.service.Create(r.Context(), req.AccountID, req.TransactionType, req.Amount, req.Description, date)
	if err != nil {
		h.writeDomainError(w, err, "Failed to create transaction")
		return
	}

	h.writeJSON(w, http.StatusCreated, tx)
}

// HandleGet handles GET /{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "Failed to retrieve transaction")
		return
	}

	h.writeJSON(w, http.StatusOK, tx)
}

// HandleListByAccount handles GET /account/{accountID} with optional
// type/start_date/end_date/limit query filters
func (h *Handler) HandleListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}

	f := Filter{TransactionType: r.URL.Query().Get("type")}

	if s := r.URL.Query().Get("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid start_date. Use YYYY-MM-DD")
			return
		}
		f.From = parsed
	}
	if e := r.URL.Query().Get("end_date"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid end_date. Use YYYY-MM-DD")
			return
		}
		// Inclusive end day
		f.To = parsed.AddDate(0, 0, 1)
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 || limit > 10000 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit. Must be 1-10000")
			return
		}
		f.Limit = limit
	}

	transactions, err := h.service.ListByAccount(r.Context(), accountID, f)
	if err != nil {
		h.writeDomainError(w, err, "Failed to retrieve transactions")
		return
	}
	if transactions == nil {
		transactions = []Transaction{}
	}

	h.writeJSON(w, http.StatusOK, transactions)
}

// HandleDelete handles DELETE /{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "Failed to delete transaction")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Helper methods

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name)
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
	default:
		h.log.Error().Err(err).Msg(fallback)
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
}
