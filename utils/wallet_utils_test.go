package utils

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetOrCreateWalletIsLazy(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "lazy_wallet")

	first, err := GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.True(t, first.Balance.IsZero())
	assert.Equal(t, "INR", first.Currency)

	second, err := GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, config.DB.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDebitForPurchaseInsufficientFunds(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "poor_buyer")
	wallet := fundWallet(t, user.ID, "50.00", "DEP-poor-1")

	LockWallet(wallet.ID)
	defer UnlockWallet(wallet.ID)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := DebitForPurchase(tx, wallet.ID, decimal.RequireFromString("50.01"),
			nil, "PUR-poor-1", "too expensive")
		return err
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// The rejected debit left no trace
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("50.00")))
	var count int64
	require.NoError(t, config.DB.Model(&models.WalletTransaction{}).
		Where("wallet_id = ? AND type = ?", wallet.ID, models.TransactionTypePurchase).
		Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDebitForPurchaseExactBalance(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "exact_buyer")
	wallet := fundWallet(t, user.ID, "75.00", "DEP-exact-1")

	LockWallet(wallet.ID)
	defer UnlockWallet(wallet.ID)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := DebitForPurchase(tx, wallet.ID, decimal.RequireFromString("75.00"),
			nil, "PUR-exact-1", "spends everything")
		return err
	})
	require.NoError(t, err)
	assert.True(t, walletBalance(t, wallet.ID).IsZero())
}

// Two concurrent debits race for a balance that covers only one of them.
// Exactly one may win and the balance must never go negative.
func TestConcurrentDebitsOnlyOneSucceeds(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "racing_buyer")
	wallet := fundWallet(t, user.ID, "100.00", "DEP-race-1")

	const attempts = 8
	amount := decimal.RequireFromString("100.00")

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			LockWallet(wallet.ID)
			defer UnlockWallet(wallet.ID)
			err := config.DB.Transaction(func(tx *gorm.DB) error {
				_, err := DebitForPurchase(tx, wallet.ID, amount,
					nil, fmt.Sprintf("PUR-race-%d", n), "racing debit")
				return err
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, ErrInsufficientFunds)
		rejections++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, rejections)
	assert.True(t, walletBalance(t, wallet.ID).IsZero())
}

func TestCollectCommission(t *testing.T) {
	setupTestDB(t)
	buyer := createTestUser(t, "com_buyer")
	seller := createTestUser(t, "com_seller")
	agent, pkg := createTestAgent(t, seller.ID, "125.00")

	order := models.Order{
		BuyerID:       buyer.ID,
		SellerID:      seller.ID,
		AgentID:       agent.ID,
		PackageTier:   pkg.Tier,
		Amount:        decimal.RequireFromString("125.00"),
		Status:        models.OrderStatusInProgress,
		PaymentMethod: models.PaymentMethodWallet,
	}
	require.NoError(t, config.DB.Create(&order).Error)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := CollectCommission(tx, order.ID, decimal.RequireFromString("12.50"), decimal.NewFromInt(10))
		return err
	})
	require.NoError(t, err)

	platform, err := GetPlatformWallet()
	require.NoError(t, err)
	assert.True(t, platform.Balance.Equal(decimal.RequireFromString("12.50")))

	var commission models.AdminCommission
	require.NoError(t, config.DB.Where("order_id = ?", order.ID).First(&commission).Error)
	assert.Equal(t, models.CommissionStatusPending, commission.Status)
}

// The platform wallet must hang off a real user row so the wallets table's
// user foreign key holds. The test database enforces foreign keys, so a
// phantom owner would fail the create here.
func TestPlatformWalletHasBackingUser(t *testing.T) {
	setupTestDB(t)

	platform, err := GetPlatformWallet()
	require.NoError(t, err)

	var owner models.User
	require.NoError(t, config.DB.First(&owner, platform.UserID).Error)
	assert.Equal(t, PlatformUsername, owner.Username)
	assert.True(t, owner.IsBlocked)

	// Idempotent across restarts: a second bootstrap reuses the same account
	require.NoError(t, EnsurePlatformUser())
	again, err := GetPlatformWallet()
	require.NoError(t, err)
	assert.Equal(t, platform.ID, again.ID)
}

func TestRequestAndProcessWithdrawal(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "withdrawer")
	wallet := fundWallet(t, user.ID, "500.00", "DEP-wdr-1")

	_, err := RequestWithdrawal(user.ID, decimal.RequireFromString("600.00"), "HDFC", "1234", "W Drawer")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	request, err := RequestWithdrawal(user.ID, decimal.RequireFromString("200.00"), "HDFC", "1234", "W Drawer")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, request.Status)

	// Filing the request moves no funds
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("500.00")))

	// Cannot process before approval
	_, err = ProcessWithdrawal(request.ID, "")
	require.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, config.DB.Model(request).
		Update("status", models.WithdrawalStatusApproved).Error)

	processed, err := ProcessWithdrawal(request.ID, "paid out via NEFT")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusProcessed, processed.Status)
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("300.00")))

	var txn models.WalletTransaction
	require.NoError(t, config.DB.Where("reference = ?", fmt.Sprintf("WDR-%d", request.ID)).First(&txn).Error)
	assert.Equal(t, models.TransactionTypeWithdrawal, txn.Type)
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
}

func TestProcessWithdrawalRechecksBalance(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "shrunk_balance")
	wallet := fundWallet(t, user.ID, "300.00", "DEP-shrunk-1")

	request, err := RequestWithdrawal(user.ID, decimal.RequireFromString("250.00"), "SBI", "9999", "S Balance")
	require.NoError(t, err)
	require.NoError(t, config.DB.Model(request).
		Update("status", models.WithdrawalStatusApproved).Error)

	// Balance shrinks between approval and processing
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypePurchase,
			decimal.RequireFromString("100.00"), models.TransactionStatusSuccess,
			"spent in the meantime", nil, "PUR-shrunk-1")
		return err
	})
	require.NoError(t, err)

	_, err = ProcessWithdrawal(request.ID, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Request stays approved; nothing was debited
	var reloaded models.WithdrawalRequest
	require.NoError(t, config.DB.First(&reloaded, request.ID).Error)
	assert.Equal(t, models.WithdrawalStatusApproved, reloaded.Status)
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("200.00")))
}

func TestSettleDepositByReferenceReplaySafe(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "depositor")
	wallet, err := GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.RequireFromString("150.00"), models.TransactionStatusPending,
			"gateway deposit", nil, "DEP-replay-1")
		return err
	})
	require.NoError(t, err)

	first, err := SettleDepositByReference("DEP-replay-1", models.TransactionStatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, first.Status)

	second, err := SettleDepositByReference("DEP-replay-1", models.TransactionStatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("150.00")))
}
