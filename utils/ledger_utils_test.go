package utils

import (
	"testing"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecordTransactionAdjustsBalance(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "ledger_user")
	wallet := fundWallet(t, user.ID, "500.00", "DEP-ledger-1")

	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("500.00")))

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypePurchase,
			decimal.RequireFromString("120.50"), models.TransactionStatusSuccess,
			"test purchase", nil, "PUR-ledger-1")
		return err
	})
	require.NoError(t, err)

	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("379.50")))
}

func TestRecordTransactionRejectsNonPositiveAmount(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "ledger_zero")
	wallet := fundWallet(t, user.ID, "100.00", "DEP-zero-1")

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.Zero, models.TransactionStatusSuccess, "zero", nil, "DEP-zero-2")
		return err
	})
	assert.Error(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(-5), models.TransactionStatusSuccess, "negative", nil, "DEP-zero-3")
		return err
	})
	assert.Error(t, err)
}

func TestRecordTransactionDuplicateReference(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "ledger_dup")
	wallet := fundWallet(t, user.ID, "100.00", "DEP-dup-1")

	var existing *models.WalletTransaction
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		existing, txErr = RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(50), models.TransactionStatusSuccess,
			"replayed deposit", nil, "DEP-dup-1")
		if txErr != nil {
			return txErr
		}
		return nil
	})
	require.ErrorIs(t, err, ErrDuplicateReference)
	require.NotNil(t, existing)
	assert.True(t, existing.Amount.Equal(decimal.RequireFromString("100.00")))

	// Nothing was double-applied
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.RequireFromString("100.00")))
}

func TestSettleTransactionIsIdempotent(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "settle_user")
	wallet, err := GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	var pending *models.WalletTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		pending, txErr = RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(200), models.TransactionStatusPending,
			"gateway deposit", nil, "DEP-settle-1")
		return txErr
	})
	require.NoError(t, err)

	// Pending never counts
	assert.True(t, walletBalance(t, wallet.ID).IsZero())

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, txErr := SettleTransaction(tx, pending.ID, models.TransactionStatusSuccess)
		return txErr
	})
	require.NoError(t, err)
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(200)))

	// Settling again changes nothing
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		settled, txErr := SettleTransaction(tx, pending.ID, models.TransactionStatusSuccess)
		require.Equal(t, models.TransactionStatusSuccess, settled.Status)
		return txErr
	})
	require.NoError(t, err)
	assert.True(t, walletBalance(t, wallet.ID).Equal(decimal.NewFromInt(200)))
}

func TestSettleTransactionFailedNeverCredits(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "settle_fail")
	wallet, err := GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	var pending *models.WalletTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		pending, txErr = RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(75), models.TransactionStatusPending,
			"doomed deposit", nil, "DEP-fail-1")
		return txErr
	})
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, txErr := SettleTransaction(tx, pending.ID, models.TransactionStatusFailed)
		return txErr
	})
	require.NoError(t, err)
	assert.True(t, walletBalance(t, wallet.ID).IsZero())
}

func TestGetWalletBalanceMatchesCachedColumn(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "balance_user")
	wallet := fundWallet(t, user.ID, "300.00", "DEP-bal-1")

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := RecordTransaction(tx, wallet.ID, models.TransactionTypePurchase,
			decimal.RequireFromString("80.25"), models.TransactionStatusSuccess,
			"purchase", nil, "PUR-bal-1"); err != nil {
			return err
		}
		if _, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeRefund,
			decimal.RequireFromString("10.25"), models.TransactionStatusSuccess,
			"partial refund", nil, "REFUND-bal-1"); err != nil {
			return err
		}
		// A pending row must not show up in either number
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(999), models.TransactionStatusPending,
			"unconfirmed", nil, "DEP-bal-2")
		return err
	})
	require.NoError(t, err)

	computed, err := GetWalletBalance(config.DB, wallet.ID)
	require.NoError(t, err)
	cached := walletBalance(t, wallet.ID)

	assert.True(t, computed.Equal(cached), "computed %s vs cached %s", computed, cached)
	assert.True(t, computed.Equal(decimal.RequireFromString("230.00")))
}

func TestTransactionSign(t *testing.T) {
	assert.Equal(t, 1, TransactionSign(models.TransactionTypeDeposit))
	assert.Equal(t, 1, TransactionSign(models.TransactionTypeSale))
	assert.Equal(t, 1, TransactionSign(models.TransactionTypeRefund))
	assert.Equal(t, 1, TransactionSign(models.TransactionTypeCommission))
	assert.Equal(t, -1, TransactionSign(models.TransactionTypePurchase))
	assert.Equal(t, -1, TransactionSign(models.TransactionTypeWithdrawal))
	assert.Equal(t, 0, TransactionSign("bogus"))
}

func TestReconcileStaleTransactions(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "stale_user")
	wallet, err := GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	var stale, fresh *models.WalletTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		stale, txErr = RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(40), models.TransactionStatusPending, "old", nil, "DEP-stale-1")
		if txErr != nil {
			return txErr
		}
		fresh, txErr = RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.NewFromInt(60), models.TransactionStatusPending, "new", nil, "DEP-stale-2")
		return txErr
	})
	require.NoError(t, err)

	// Age one of them past the window
	cutoff := time.Now().Add(-48 * time.Hour)
	require.NoError(t, config.DB.Model(&models.WalletTransaction{}).
		Where("id = ?", stale.ID).UpdateColumn("created_at", cutoff).Error)

	reconciled, err := ReconcileStaleTransactions(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reconciled)

	var reloaded models.WalletTransaction
	require.NoError(t, config.DB.First(&reloaded, stale.ID).Error)
	assert.Equal(t, models.TransactionStatusFailed, reloaded.Status)

	reloaded = models.WalletTransaction{}
	require.NoError(t, config.DB.First(&reloaded, fresh.ID).Error)
	assert.Equal(t, models.TransactionStatusPending, reloaded.Status)

	assert.True(t, walletBalance(t, wallet.ID).IsZero())
}
