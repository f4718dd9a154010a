package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository persists quote observations in the market_data table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new market data repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "marketdata").Logger(),
	}
}

// Save appends a quote observation
func (r *Repository) Save(q Quote) error {
	query := `
		INSERT INTO market_data (symbol, price, volume, observed_at, source)
		VALUES (?, ?, ?, ?, ?)
	`

	var volume sql.NullInt64
	if q.Volume != nil {
		volume = sql.NullInt64{Int64: *q.Volume, Valid: true}
	}

	_, err := r.db.Exec(query,
		q.Symbol,
		q.Price.String(),
		volume,
		q.ObservedAt.UTC().Format(time.RFC3339),
		q.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}

	return nil
}

// GetLatest returns the most recent persisted quote for symbol, or nil
// when none exists
func (r *Repository) GetLatest(symbol string) (*Quote, error) {
	query := `
		SELECT symbol, price, volume, observed_at, source
		FROM market_data
		WHERE symbol = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`

	rows, err := r.db.Query(query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest quote: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	q, err := scanQuote(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}

	return &q, nil
}

// GetRange returns persisted quotes for symbol within [from, to], oldest first
func (r *Repository) GetRange(symbol string, from, to time.Time) ([]Quote, error) {
	query := `
		SELECT symbol, price, volume, observed_at, source
		FROM market_data
		WHERE symbol = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := r.db.Query(query, symbol,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote range: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}

	return quotes, nil
}

func scanQuote(rows *sql.Rows) (Quote, error) {
	var q Quote
	var price, observedAt string
	var volume sql.NullInt64

	if err := rows.Scan(&q.Symbol, &price, &volume, &observedAt, &q.Source); err != nil {
		return q, err
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return q, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	q.Price = p

	if volume.Valid {
		q.Volume = &volume.Int64
	}

	ts, err := time.Parse(time.RFC3339, observedAt)
	if err != nil {
		return q, fmt.Errorf("invalid stored timestamp %q: %w", observedAt, err)
	}
	q.ObservedAt = ts

	return q, nil
}
