package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types
const (
	TypeChecking   = "CHECKING"
	TypeSavings    = "SAVINGS"
	TypeInvestment = "INVESTMENT"
	TypeCrypto     = "CRYPTO"
)

// ValidTypes is the closed set of account types
var ValidTypes = map[string]bool{
	TypeChecking:   true,
	TypeSavings:    true,
	TypeInvestment: true,
	TypeCrypto:     true,
}

// Account is a financial account owned by a user. Balance is mutated only
// through AdjustBalance so transaction effects stay consistent.
type Account struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	AccountType   string          `json:"account_type"`
	Provider      string          `json:"provider"`
	AccountNumber string          `json:"account_number,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
