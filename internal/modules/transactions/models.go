package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TypeBuy        = "BUY"
	TypeSell       = "SELL"
	TypeDeposit    = "DEPOSIT"
	TypeWithdrawal = "WITHDRAWAL"
	TypeDividend   = "DIVIDEND"
	TypeInterest   = "INTEREST"
)

// ValidTypes is the closed set of transaction types
var ValidTypes = map[string]bool{
	TypeBuy:        true,
	TypeSell:       true,
	TypeDeposit:    true,
	TypeWithdrawal: true,
	TypeDividend:   true,
	TypeInterest:   true,
}

// Transaction is an immutable ledger entry against an account. Amount is
// always positive; the transaction type decides whether it credits or
// debits the account balance.
type Transaction struct {
	ID              int64           `json:"id"`
	Reference       string          `json:"reference"`
	AccountID       int64           `json:"account_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BalanceDelta is the signed effect of the transaction on the account
// balance: deposits, sells, dividends and interest credit; buys and
// withdrawals debit.
func (t *Transaction) BalanceDelta() decimal.Decimal {
	switch t.TransactionType {
	case TypeBuy, TypeWithdrawal:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}
