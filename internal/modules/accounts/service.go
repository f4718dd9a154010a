package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/events"
)

// Service implements account lifecycle and balance operations
type Service struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a new accounts service
func NewService(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: eventManager,
		log:    log.With().Str("service", "accounts").Logger(),
	}
}

// Create opens a new account for a user with a zero starting balance
func (s *Service) Create(ctx context.Context, userID int64, accountType, provider, accountNumber, currency string) (*Account, error) {
	accountType = strings.ToUpper(strings.TrimSpace(accountType))
	if !ValidTypes[accountType] {
		return nil, domain.NewValidationError("account_type", "Invalid account type")
	}
	if strings.TrimSpace(provider) == "" {
		return nil, domain.NewValidationError("provider", "Provider is required")
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, domain.NewValidationError("currency", "Currency must be a 3-letter code")
	}

	now := time.Now()
	account := &Account{
		UserID:        userID,
		AccountType:   accountType,
		Provider:      strings.TrimSpace(provider),
		AccountNumber: strings.TrimSpace(accountNumber),
		Balance:       decimal.Zero,
		Currency:      currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(account); err != nil {
		return nil, err
	}

	s.events.Emit(events.AccountCreated, "accounts", map[string]interface{}{
		"account_id": account.ID,
		"user_id":    userID,
		"type":       accountType,
	})

	return account, nil
}

// Get returns an account by id
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.NewNotFoundError("account", id)
	}
	return account, nil
}

// ListByUser returns all accounts of a user
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Account, error) {
	return s.repo.GetByUser(userID)
}

// Update applies a partial update to provider and account number
func (s *Service) Update(ctx context.Context, id int64, provider, accountNumber *string) (*Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if provider != nil {
		if strings.TrimSpace(*provider) == "" {
			return nil, domain.NewValidationError("provider", "Provider is required")
		}
		account.Provider = strings.TrimSpace(*provider)
	}
	if accountNumber != nil {
		account.AccountNumber = strings.TrimSpace(*accountNumber)
	}

	account.UpdatedAt = time.Now()
	if err := s.repo.Update(account); err != nil {
		return nil, err
	}

	return account, nil
}

// Delete removes an account and, via cascade, its transactions and holdings
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NewNotFoundError("account", id)
	}

	s.log.Info().Int64("id", id).Msg("Account deleted")
	return nil
}

// AdjustBalance applies a signed delta to the account balance. The balance
// is never allowed to go negative.
func (s *Service) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	account, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	next := account.Balance.Add(delta)
	if next.IsNegative() {
		return domain.NewValidationError("amount", "Insufficient funds")
	}

	account.Balance = next
	account.UpdatedAt = time.Now()
	return s.repo.Update(account)
}
