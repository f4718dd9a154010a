package transactions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findash/findash/internal/database"
	"github.com/findash/findash/internal/domain"
	"github.com/findash/findash/internal/events"
	"github.com/findash/findash/internal/modules/accounts"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	return db.Conn()
}

func newTestService(t *testing.T) (*Service, *accounts.Service, int64) {
	t.Helper()

	db := setupTestDB(t)

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		"INSERT INTO users (email, password_hash, first_name, last_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"test@example.com", "x", "Test", "User", now, now,
	)
	require.NoError(t, err)

	accountService := accounts.NewService(accounts.NewRepository(db, zerolog.Nop()), events.NewManager(zerolog.Nop()), zerolog.Nop())
	account, err := accountService.Create(context.Background(), 1, "CHECKING", "Bank", "", "USD")
	require.NoError(t, err)

	svc := NewService(NewRepository(db, zerolog.Nop()), accountService, events.NewManager(zerolog.Nop()), zerolog.Nop())
	return svc, accountService, account.ID
}

func balanceOf(t *testing.T, accountService *accounts.Service, accountID int64) string {
	t.Helper()
	account, err := accountService.Get(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance.String()
}

func TestCreate_DepositCreditsBalance(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	tx, err := svc.Create(context.Background(), accountID, "deposit", decimal.NewFromInt(1000), "Initial funding", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, TypeDeposit, tx.TransactionType)
	_, err = uuid.Parse(tx.Reference)
	assert.NoError(t, err, "reference must be a uuid")
	assert.Equal(t, "1000", balanceOf(t, accountService, accountID))
}

func TestCreate_WithdrawalDebitsBalance(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	_, err := svc.Create(context.Background(), accountID, "DEPOSIT", decimal.NewFromInt(1000), "", time.Time{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), accountID, "WITHDRAWAL", decimal.NewFromInt(300), "", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "700", balanceOf(t, accountService, accountID))
}

func TestCreate_BuyDebitsSellCredits(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	_, err := svc.Create(context.Background(), accountID, "DEPOSIT", decimal.NewFromInt(1000), "", time.Time{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), accountID, "BUY", decimal.NewFromInt(400), "10x AAPL", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "600", balanceOf(t, accountService, accountID))

	_, err = svc.Create(context.Background(), accountID, "SELL", decimal.NewFromInt(450), "10x AAPL", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "1050", balanceOf(t, accountService, accountID))
}

func TestCreate_DividendAndInterestCredit(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	_, err := svc.Create(context.Background(), accountID, "DIVIDEND", decimal.NewFromInt(25), "", time.Time{})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), accountID, "INTEREST", decimal.NewFromInt(5), "", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "30", balanceOf(t, accountService, accountID))
}

func TestCreate_InsufficientFundsRejectsTransaction(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	_, err := svc.Create(context.Background(), accountID, "WITHDRAWAL", decimal.NewFromInt(100), "", time.Time{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "Insufficient funds")

	// Neither balance nor ledger changed
	assert.Equal(t, "0", balanceOf(t, accountService, accountID))
	list, err := svc.ListByAccount(context.Background(), accountID, Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, accountID := newTestService(t)

	_, err := svc.Create(context.Background(), accountID, "BRIBE", decimal.NewFromInt(100), "", time.Time{})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(context.Background(), accountID, "DEPOSIT", decimal.Zero, "", time.Time{})
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_UnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 999, "DEPOSIT", decimal.NewFromInt(100), "", time.Time{})
	assert.True(t, domain.IsNotFound(err))
}

func TestListByAccount_Filters(t *testing.T) {
	svc, _, accountID := newTestService(t)

	_, err := svc.Create(context.Background(), accountID, "DEPOSIT", decimal.NewFromInt(1000), "", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), accountID, "BUY", decimal.NewFromInt(100), "", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), accountID, "BUY", decimal.NewFromInt(200), "", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	byType, err := svc.ListByAccount(context.Background(), accountID, Filter{TransactionType: "buy"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	byRange, err := svc.ListByAccount(context.Background(), accountID, Filter{
		From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, byRange, 1)
	assert.Equal(t, "100", byRange[0].Amount.String())

	limited, err := svc.ListByAccount(context.Background(), accountID, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	// Newest first
	assert.Equal(t, "200", limited[0].Amount.String())
}

func TestListByAccount_InvalidTypeFilter(t *testing.T) {
	svc, _, accountID := newTestService(t)

	_, err := svc.ListByAccount(context.Background(), accountID, Filter{TransactionType: "BRIBE"})
	assert.True(t, domain.IsValidation(err))
}

func TestDelete_ReversesBalanceEffect(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	tx, err := svc.Create(context.Background(), accountID, "DEPOSIT", decimal.NewFromInt(1000), "", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "1000", balanceOf(t, accountService, accountID))

	require.NoError(t, svc.Delete(context.Background(), tx.ID))
	assert.Equal(t, "0", balanceOf(t, accountService, accountID))

	err = svc.Delete(context.Background(), tx.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestDelete_ReversalRespectsInsufficientFunds(t *testing.T) {
	svc, accountService, accountID := newTestService(t)

	deposit, err := svc.Create(context.Background(), accountID, "DEPOSIT", decimal.NewFromInt(100), "", time.Time{})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), accountID, "BUY", decimal.NewFromInt(100), "", time.Time{})
	require.NoError(t, err)

	// Deleting the deposit would drive the balance below zero
	err = svc.Delete(context.Background(), deposit.ID)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "0", balanceOf(t, accountService, accountID))
}
