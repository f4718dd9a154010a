package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles financial_accounts database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new accounts repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

const accountColumns = "id, user_id, account_type, provider, account_number, balance, currency, created_at, updated_at"

// GetByID returns an account by primary key, or nil when absent
func (r *Repository) GetByID(id int64) (*Account, error) {
	rows, err := r.db.Query("SELECT "+accountColumns+" FROM financial_accounts WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	a, err := scanAccount(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}

// GetByUser returns all accounts of a user
func (r *Repository) GetByUser(userID int64) ([]Account, error) {
	rows, err := r.db.Query("SELECT "+accountColumns+" FROM financial_accounts WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// Exists reports whether an account row exists
func (r *Repository) Exists(id int64) (bool, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(1) FROM financial_accounts WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return n > 0, nil
}

// Insert creates an account and sets its ID
func (r *Repository) Insert(a *Account) error {
	query := `
		INSERT INTO financial_accounts (user_id, account_type, provider, account_number, balance, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		a.UserID,
		a.AccountType,
		a.Provider,
		a.AccountNumber,
		a.Balance.String(),
		a.Currency,
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get account id: %w", err)
	}
	a.ID = id

	r.log.Info().Int64("id", id).Int64("user_id", a.UserID).Msg("Account created")
	return nil
}

// Update persists the mutable fields of an account
func (r *Repository) Update(a *Account) error {
	query := `
		UPDATE financial_accounts
		SET account_type = ?, provider = ?, account_number = ?, balance = ?, currency = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		a.AccountType,
		a.Provider,
		a.AccountNumber,
		a.Balance.String(),
		a.Currency,
		a.UpdatedAt.UTC().Format(time.RFC3339),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// Delete removes an account, reporting whether a row existed
func (r *Repository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM financial_accounts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanAccount(rows *sql.Rows) (Account, error) {
	var a Account
	var accountNumber sql.NullString
	var balance, createdAt, updatedAt string

	if err := rows.Scan(&a.ID, &a.UserID, &a.AccountType, &a.Provider, &accountNumber, &balance, &a.Currency, &createdAt, &updatedAt); err != nil {
		return a, err
	}

	a.AccountNumber = accountNumber.String

	b, err := decimal.NewFromString(balance)
	if err != nil {
		return a, fmt.Errorf("invalid stored balance %q: %w", balance, err)
	}
	a.Balance = b

	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return a, fmt.Errorf("invalid stored created_at %q: %w", createdAt, err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return a, fmt.Errorf("invalid stored updated_at %q: %w", updatedAt, err)
	}

	return a, nil
}
