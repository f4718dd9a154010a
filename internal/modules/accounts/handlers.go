package accounts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/findash/findash/internal/domain"
)

// Handler provides HTTP handlers for account endpoints
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

// RegisterRoutes registers all account routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/user/{userID}", h.HandleListByUser)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

type createAccountRequest struct {
	UserID        int64  `json:"user_id"`
	AccountType   string `json:"account_type"`
	Provider      string `json:"provider"`
	AccountNumber string `json:"account_number"`
	Currency      string `json:"currency"`
}

// HandleCreate handles POST /
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.Create(r.Context(), req.UserID, req.AccountType, req.Provider, req.AccountNumber, req.Currency)
	if err != nil {
		h.writeDomainError(w, err, "Failed to create account")
		return
	}

	h.writeJSON(w, http.StatusCreated, account)
}

// HandleGet handles GET /{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "Failed to retrieve account")
		return
	}

	h.writeJSON(w, http.StatusOK, account)
}

// HandleListByUser handles GET /user/{userID}
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	accounts, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list accounts")
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve accounts")
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}

	h.writeJSON(w, http.StatusOK, accounts)
}

type updateAccountRequest struct {
	Provider      *string `json:"provider,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
}

// HandleUpdate handles PUT /{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.Update(r.Context(), id, req.Provider, req.AccountNumber)
	if err != nil {
		h.writeDomainError(w, err, "Failed to update account")
		return
	}

	h.writeJSON(w, http.StatusOK, account)
}

// HandleDelete handles DELETE /{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "Failed to delete account")
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
