package portfolio

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HoldingRepository handles portfolio_holdings database operations
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

// GetByAccount returns all holdings for an account, ordered by symbol
func (r *HoldingRepository) GetByAccount(accountID int64) ([]Holding, error) {
	query := `
		SELECT id, account_id, symbol, quantity, average_cost, current_price, last_updated
		FROM portfolio_holdings
		WHERE account_id = ?
		ORDER BY symbol
	`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// GetByID returns a holding by primary key, or nil when absent
func (r *HoldingRepository) GetByID(id int64) (*Holding, error) {
	query := `
		SELECT id, account_id, symbol, quantity, average_cost, current_price, last_updated
		FROM portfolio_holdings
		WHERE id = ?
	`

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	h, err := scanHolding(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}

	return &h, nil
}

// GetByAccountAndSymbol returns the account's holding for a symbol, or nil
// when absent
func (r *HoldingRepository) GetByAccountAndSymbol(accountID int64, symbol string) (*Holding, error) {
	query := `
		SELECT id, account_id, symbol, quantity, average_cost, current_price, last_updated
		FROM portfolio_holdings
		WHERE account_id = ? AND symbol = ?
	`

	rows, err := r.db.Query(query, accountID, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to query holding by symbol: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	h, err := scanHolding(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}

	return &h, nil
}

// Insert creates a holding and sets its ID
func (r *HoldingRepository) Insert(h *Holding) error {
	query := `
		INSERT INTO portfolio_holdings (account_id, symbol, quantity, average_cost, current_price, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		h.AccountID,
		h.Symbol,
		h.Quantity.String(),
		h.AverageCost.String(),
		nullDecimal(h.CurrentPrice),
		h.LastUpdated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get holding id: %w", err)
	}
	h.ID = id

	r.log.Info().Int64("id", id).Str("symbol", h.Symbol).Msg("Holding created")
	return nil
}

// Update persists all mutable fields of a holding
func (r *HoldingRepository) Update(h *Holding) error {
	query := `
		UPDATE portfolio_holdings
		SET quantity = ?, average_cost = ?, current_price = ?, last_updated = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		h.Quantity.String(),
		h.AverageCost.String(),
		nullDecimal(h.CurrentPrice),
		h.LastUpdated.UTC().Format(time.RFC3339),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	return nil
}

// Delete removes a holding, reporting whether a row existed
func (r *HoldingRepository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM portfolio_holdings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		r.log.Info().Int64("id", id).Msg("Holding deleted")
	}
	return affected > 0, nil
}

func scanHolding(rows *sql.Rows) (Holding, error) {
	var h Holding
	var quantity, averageCost, lastUpdated string
	var currentPrice sql.NullString

	if err := rows.Scan(&h.ID, &h.AccountID, &h.Symbol, &quantity, &averageCost, &currentPrice, &lastUpdated); err != nil {
		return h, err
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return h, fmt.Errorf("invalid stored quantity %q: %w", quantity, err)
	}
	h.Quantity = q

	ac, err := decimal.NewFromString(averageCost)
	if err != nil {
		return h, fmt.Errorf("invalid stored average cost %q: %w", averageCost, err)
	}
	h.AverageCost = ac

	if currentPrice.Valid {
		cp, err := decimal.NewFromString(currentPrice.String)
		if err != nil {
			return h, fmt.Errorf("invalid stored current price %q: %w", currentPrice.String, err)
		}
		h.CurrentPrice = &cp
	}

	ts, err := time.Parse(time.RFC3339, lastUpdated)
	if err != nil {
		return h, fmt.Errorf("invalid stored timestamp %q: %w", lastUpdated, err)
	}
	h.LastUpdated = ts

	return h, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
