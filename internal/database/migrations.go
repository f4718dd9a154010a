package database

import "fmt"

// Quantities and prices are stored as TEXT: they are decimal values and
// SQLite REAL would reintroduce binary-float drift into average costs.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS financial_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		account_type TEXT NOT NULL,
		provider TEXT NOT NULL,
		account_number TEXT,
		balance TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_user ON financial_accounts(user_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reference TEXT NOT NULL UNIQUE,
		account_id INTEGER NOT NULL REFERENCES financial_accounts(id) ON DELETE CASCADE,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		transaction_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date)`,
	`CREATE TABLE IF NOT EXISTS portfolio_holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES financial_accounts(id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		quantity TEXT NOT NULL,
		average_cost TEXT NOT NULL,
		current_price TEXT,
		last_updated TEXT NOT NULL,
		UNIQUE(account_id, symbol)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_account ON portfolio_holdings(account_id)`,
	`CREATE TABLE IF NOT EXISTS market_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		price TEXT NOT NULL,
		volume INTEGER,
		observed_at TEXT NOT NULL,
		source TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_data_symbol ON market_data(symbol, observed_at)`,
}

// Migrate creates the schema if it does not exist
func (db *DB) Migrate() error {
	for i, stmt := range migrations {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
