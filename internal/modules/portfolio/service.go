package portfolio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/events"
)

// MarketData is the slice of the market data engine the valuator needs
type MarketData interface {
	GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	OnInvalidate(fn func())
}

// Service maintains holdings and computes valuations consistent with the
// market data engine
type Service struct {
	repo   *HoldingRepository
	market MarketData
	events *events.Manager
	log    zerolog.Logger

	// Derived summary cache, one entry per account. Dropped for an account
	// on any holding mutation, and for all accounts whenever the price
	// cache takes a bulk write (hook registered below).
	summaryMu sync.Mutex
	summaries map[int64]*Summary
}

// NewService creates a new portfolio service
func NewService(repo *HoldingRepository, market MarketData, eventManager *events.Manager, log zerolog.Logger) *Service {
	s := &Service{
		repo:      repo,
		market:    market,
		events:    eventManager,
		log:       log.With().Str("service", "portfolio").Logger(),
		summaries: make(map[int64]*Summary),
	}

	market.OnInvalidate(s.invalidateAllSummaries)

	return s
}

// GetHoldingsByAccount returns all holdings of an account
func (s *Service) GetHoldingsByAccount(ctx context.Context, accountID int64) ([]Holding, error) {
	return s.repo.GetByAccount(accountID)
}

// GetHoldingBySymbol returns the account's holding for a symbol
func (s *Service) GetHoldingBySymbol(ctx context.Context, accountID int64, symbol string) (*Holding, error) {
	h, err := s.repo.GetByAccountAndSymbol(accountID, symbol)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, domain.NewNotFoundError("portfolio_holding", symbol)
	}
	return h, nil
}

// AddHolding opens a position or enlarges an existing one. Buying into an
// existing position recomputes the average cost with the weighted-average
// rule, rounded half-up to 4 fractional digits; the current price is set
// best-effort and left unset when the provider fails.
func (s *Service) AddHolding(ctx context.Context, accountID int64, symbol string, quantity, price decimal.Decimal) (*Holding, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("quantity", "Quantity must be greater than zero")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("price", "Price must be greater than zero")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.NewValidationError("symbol", "Symbol is required")
	}

	holding, err := s.repo.GetByAccountAndSymbol(accountID, symbol)
	if err != nil {
		return nil, err
	}

	if holding == nil {
		holding = &Holding{
			AccountID:   accountID,
			Symbol:      symbol,
			Quantity:    quantity,
			AverageCost: price,
		}
	} else {
		totalCost := holding.AverageCost.Mul(holding.Quantity).Add(price.Mul(quantity))
		totalQuantity := holding.Quantity.Add(quantity)
		holding.AverageCost = totalCost.DivRound(totalQuantity, 4)
		holding.Quantity = totalQuantity
	}

	holding.CurrentPrice = s.lookupPrice(ctx, symbol)
	holding.LastUpdated = time.Now()

	if holding.ID == 0 {
		err = s.repo.Insert(holding)
	} else {
		err = s.repo.Update(holding)
	}
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(accountID)
	s.events.Emit(events.HoldingAdded, "portfolio", map[string]interface{}{
		"account_id": accountID,
		"symbol":     symbol,
		"quantity":   quantity.String(),
	})

	return holding, nil
}

// UpdateHolding applies a partial update. Supplied fields must be positive;
// quantity decreases deliberately do not recompute average cost.
func (s *Service) UpdateHolding(ctx context.Context, id int64, quantity, price *decimal.Decimal) (*Holding, error) {
	holding, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, domain.NewNotFoundError("portfolio_holding", id)
	}

	if quantity != nil {
		if quantity.LessThanOrEqual(decimal.Zero) {
			return nil, domain.NewValidationError("quantity", "Quantity must be greater than zero")
		}
		holding.Quantity = *quantity
	}

	if price != nil {
		if price.LessThanOrEqual(decimal.Zero) {
			return nil, domain.NewValidationError("price", "Price must be greater than zero")
		}
		holding.AverageCost = *price
	}

	holding.CurrentPrice = s.lookupPrice(ctx, holding.Symbol)
	holding.LastUpdated = time.Now()

	if err := s.repo.Update(holding); err != nil {
		return nil, err
	}

	s.invalidateSummary(holding.AccountID)
	s.events.Emit(events.HoldingUpdated, "portfolio", map[string]interface{}{
		"holding_id": id,
		"symbol":     holding.Symbol,
	})

	return holding, nil
}

// RemoveHolding deletes a holding unconditionally
func (s *Service) RemoveHolding(ctx context.Context, id int64) error {
	holding, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if holding == nil {
		return domain.NewNotFoundError("portfolio_holding", id)
	}

	if _, err := s.repo.Delete(id); err != nil {
		return err
	}

	s.invalidateSummary(holding.AccountID)
	s.events.Emit(events.HoldingRemoved, "portfolio", map[string]interface{}{
		"holding_id": id,
		"symbol":     holding.Symbol,
	})

	return nil
}

// GetPortfolioSummary aggregates the account's holdings into a valuation.
// Return percentage is total gain/loss over total cost, as a percentage
// rounded half-up to 4 digits, and defined as 0 for an empty cost basis.
func (s *Service) GetPortfolioSummary(ctx context.Context, accountID int64) (*Summary, error) {
	s.summaryMu.Lock()
	cached, ok := s.summaries[accountID]
	s.summaryMu.Unlock()
	if ok {
		return cached, nil
	}

	holdings, err := s.repo.GetByAccount(accountID)
	if err != nil {
		return nil, err
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	totalGainLoss := decimal.Zero

	for i := range holdings {
		totalValue = totalValue.Add(holdings[i].MarketValue())
		totalCost = totalCost.Add(holdings[i].CostBasis())
		totalGainLoss = totalGainLoss.Add(holdings[i].UnrealizedGainLoss())
	}

	returnPercentage := decimal.Zero
	if !totalCost.IsZero() {
		returnPercentage = totalGainLoss.Div(totalCost).Mul(decimal.NewFromInt(100)).Round(4)
	}

	summary := &Summary{
		AccountID:        accountID,
		TotalValue:       totalValue,
		TotalCost:        totalCost,
		TotalGainLoss:    totalGainLoss,
		ReturnPercentage: returnPercentage,
		HoldingCount:     len(holdings),
		ComputedAt:       time.Now(),
	}

	s.summaryMu.Lock()
	s.summaries[accountID] = summary
	s.summaryMu.Unlock()

	return summary, nil
}

// RefreshPortfolio re-pulls the current price for every holding of the
// account. Best-effort: a failed symbol keeps its previous price.
func (s *Service) RefreshPortfolio(ctx context.Context, accountID int64) error {
	holdings, err := s.repo.GetByAccount(accountID)
	if err != nil {
		return err
	}

	refreshed := 0
	for i := range holdings {
		price, err := s.market.GetLatestPrice(ctx, holdings[i].Symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", holdings[i].Symbol).Msg("Price refresh failed, keeping previous price")
			continue
		}

		holdings[i].CurrentPrice = &price
		holdings[i].LastUpdated = time.Now()
		if err := s.repo.Update(&holdings[i]); err != nil {
			return err
		}
		refreshed++
	}

	s.invalidateSummary(accountID)
	s.events.Emit(events.PortfolioRefreshed, "portfolio", map[string]interface{}{
		"account_id": accountID,
		"holdings":   len(holdings),
		"refreshed":  refreshed,
	})

	return nil
}

func (s *Service) lookupPrice(ctx context.Context, symbol string) *decimal.Decimal {
	price, err := s.market.GetLatestPrice(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Could not resolve current price")
		return nil
	}
	return &price
}

func (s *Service) invalidateSummary(accountID int64) {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	delete(s.summaries, accountID)
}

func (s *Service) invalidateAllSummaries() {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	s.summaries = make(map[int64]*Summary)
}
