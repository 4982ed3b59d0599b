package utils

import (
	"testing"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points config.DB at a fresh in-memory database with the full
// schema and foreign keys enforced. A single connection keeps the memory
// database alive and serializes writes the way the production pool would
// under contention.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateModels(db))
	config.DB = db
	require.NoError(t, EnsurePlatformUser())

	config.App = &config.Config{
		CommissionPercent:    decimal.NewFromInt(10),
		ServiceFeePercent:    decimal.NewFromInt(5),
		PointsExchangeRate:   decimal.RequireFromString("0.10"),
		MinExchangePoints:    1000,
		DailyLoginPoints:     100,
		SignupBonusPoints:    500,
		ListingBonusPoints:   300,
		OrderBonusPoints:     1000,
		AgentListingPoints:   200,
		BuyerOrderPoints:     100,
		SellerOrderPoints:    50,
		ReconcileWindowHours: 24,
	}
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "hashed",
		ReferralCode: GenerateReferralCode(),
	}
	require.NoError(t, config.DB.Create(&user).Error)
	return &user
}

// fundWallet deposits into a user's wallet through the ledger so the cached
// balance and the transaction log stay in agreement
func fundWallet(t *testing.T, userID uint, amount string, reference string) *models.Wallet {
	t.Helper()
	wallet, err := GetOrCreateWallet(userID)
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.RequireFromString(amount), models.TransactionStatusSuccess,
			"test deposit", nil, reference)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, config.DB.First(wallet, wallet.ID).Error)
	return wallet
}

func walletBalance(t *testing.T, walletID uint) decimal.Decimal {
	t.Helper()
	var wallet models.Wallet
	require.NoError(t, config.DB.First(&wallet, walletID).Error)
	return wallet.Balance
}
