package transactions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/events"
)

// BalanceAdjuster applies a transaction's balance effect to its account
type BalanceAdjuster interface {
	AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error
}

// Service implements the transaction ledger. Every created transaction gets
// a uuid reference and applies its balance effect to the account before it
// is persisted; deleting a transaction reverses the effect.
type Service struct {
	repo     *Repository
	accounts BalanceAdjuster
	events   *events.Manager
	log      zerolog.Logger
}

// NewService creates a new transactions service
func NewService(repo *Repository, accounts BalanceAdjuster, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		events:   eventManager,
		log:      log.With().Str("service", "transactions").Logger(),
	}
}

// Create records a transaction and adjusts the account balance. A rejected
// balance adjustment (insufficient funds, missing account) fails the whole
// operation and nothing is persisted.
func (s *Service) Create(ctx context.Context, accountID int64, txType string, amount decimal.Decimal, description string, date time.Time) (*Transaction, error) {
	txType = strings.ToUpper(strings.TrimSpace(txType))
	if !ValidTypes[txType] {
		return nil, domain.NewValidationError("transaction_type", "Invalid transaction type")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("amount", "Amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	tx := &Transaction{
		Reference:       uuid.New().String(),
		AccountID:       accountID,
		TransactionType: txType,
		Amount:          amount,
		Description:     strings.TrimSpace(description),
		TransactionDate: date,
		CreatedAt:       time.Now(),
	}

	if err := s.accounts.AdjustBalance(ctx, accountID, tx.BalanceDelta()); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(tx); err != nil {
		// Roll the balance back so a failed insert leaves the account as it was
		if rbErr := s.accounts.AdjustBalance(ctx, accountID, tx.BalanceDelta().Neg()); rbErr != nil {
			s.log.Error().Err(rbErr).Int64("account_id", accountID).Msg("Failed to roll back balance adjustment")
		}
		return nil, err
	}

	s.events.Emit(events.TransactionCreated, "transactions", map[string]interface{}{
		"transaction_id": tx.ID,
		"account_id":     accountID,
		"type":           txType,
		"amount":         amount.String(),
	})

	return tx, nil
}

// Get returns a transaction by id
func (s *Service) Get(ctx context.Context, id int64) (*Transaction, error) {
	tx, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NewNotFoundError("transaction", id)
	}
	return tx, nil
}

// ListByAccount returns account transactions narrowed by the filter
func (s *Service) ListByAccount(ctx context.Context, accountID int64, f Filter) ([]Transaction, error) {
	if f.TransactionType != "" {
		f.TransactionType = strings.ToUpper(strings.TrimSpace(f.TransactionType))
		if !ValidTypes[f.TransactionType] {
			return nil, domain.NewValidationError("transaction_type", "Invalid transaction type")
		}
	}
	return s.repo.GetByAccount(accountID, f)
}

// Delete removes a transaction and reverses its balance effect
func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.accounts.AdjustBalance(ctx, tx.AccountID, tx.BalanceDelta().Neg()); err != nil {
		return err
	}

	if _, err := s.repo.Delete(id); err != nil {
		if rbErr := s.accounts.AdjustBalance(ctx, tx.AccountID, tx.BalanceDelta()); rbErr != nil {
			s.log.Error().Err(rbErr).Int64("account_id", tx.AccountID).Msg("Failed to roll back balance reversal")
		}
		return err
	}

	s.log.Info().Int64("id", id).Str("reference", tx.Reference).Msg("Transaction deleted")
	return nil
}
