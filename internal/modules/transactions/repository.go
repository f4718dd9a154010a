package transactions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Filter narrows a transaction listing. Zero values mean "no filter".
type Filter struct {
	TransactionType string
	From            time.Time
	To              time.Time
	Limit           int
}

// Repository handles transactions database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transactions repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

const txColumns = "id, reference, account_id, transaction_type, amount, description, transaction_date, created_at"

// GetByID returns a transaction by primary key, or nil when absent
func (r *Repository) GetByID(id int64) (*Transaction, error) {
	rows, err := r.db.Query("SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	t, err := scanTransaction(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &t, nil
}

// GetByAccount returns account transactions newest-first, narrowed by the
// optional filter
func (r *Repository) GetByAccount(accountID int64, f Filter) ([]Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE account_id = ?"
	args := []interface{}{accountID}

	if f.TransactionType != "" {
		query += " AND transaction_type = ?"
		args = append(args, f.TransactionType)
	}
	if !f.From.IsZero() {
		query += " AND transaction_date >= ?"
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query += " AND transaction_date <= ?"
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	query += " ORDER BY transaction_date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// Insert creates a transaction and sets its ID
func (r *Repository) Insert(t *Transaction) error {
	query := `
		INSERT INTO transactions (reference, account_id, transaction_type, amount, description, transaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		t.Reference,
		t.AccountID,
		t.TransactionType,
		t.Amount.String(),
		t.Description,
		t.TransactionDate.UTC().Format(time.RFC3339),
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction id: %w", err)
	}
	t.ID = id

	r.log.Info().Int64("id", id).Str("reference", t.Reference).Str("type", t.TransactionType).Msg("Transaction created")
	return nil
}

// Delete removes a transaction, reporting whether a row existed
func (r *Repository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var t Transaction
	var description sql.NullString
	var amount, transactionDate, createdAt string

	if err := rows.Scan(&t.ID, &t.Reference, &t.AccountID, &t.TransactionType, &amount, &description, &transactionDate, &createdAt); err != nil {
		return t, err
	}

	t.Description = description.String

	a, err := decimal.NewFromString(amount)
	if err != nil {
		return t, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	t.Amount = a

	if t.TransactionDate, err = time.Parse(time.RFC3339, transactionDate); err != nil {
		return t, fmt.Errorf("invalid stored transaction_date %q: %w", transactionDate, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return t, fmt.Errorf("invalid stored created_at %q: %w", createdAt, err)
	}

	return t, nil
}
