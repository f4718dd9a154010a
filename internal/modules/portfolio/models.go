package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is an open position of an account in a single security.
// Quantity is always positive: full liquidation deletes the row, it is
// never stored as zero.
type Holding struct {
	ID           int64            `json:"id"`
	AccountID    int64            `json:"account_id"`
	Symbol       string           `json:"symbol"`
	Quantity     decimal.Decimal  `json:"quantity"`
	AverageCost  decimal.Decimal  `json:"average_cost"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
	LastUpdated  time.Time        `json:"last_updated"`
}

// MarketValue is quantity times the current price, falling back to the
// cost basis when no live price is known so a provider outage never
// values a position at zero.
func (h *Holding) MarketValue() decimal.Decimal {
	price := h.AverageCost
	if h.CurrentPrice != nil {
		price = *h.CurrentPrice
	}
	return h.Quantity.Mul(price)
}

// CostBasis is quantity times average cost
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}

// UnrealizedGainLoss is zero when no live price is known
func (h *Holding) UnrealizedGainLoss() decimal.Decimal {
	if h.CurrentPrice == nil {
		return decimal.Zero
	}
	return h.Quantity.Mul(h.CurrentPrice.Sub(h.AverageCost))
}

// Summary is the account-level valuation, derived fresh from holdings and
// the price cache; it is cached but never persisted
type Summary struct {
	AccountID        int64           `json:"account_id"`
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	TotalGainLoss    decimal.Decimal `json:"total_gain_loss"`
	ReturnPercentage decimal.Decimal `json:"return_percentage"`
	HoldingCount     int             `json:"holding_count"`
	ComputedAt       time.Time       `json:"computed_at"`
}
