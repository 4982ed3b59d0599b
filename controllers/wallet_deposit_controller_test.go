package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testCheckoutSecret = "rzp_secret_test"

func setupDepositTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("RAZORPAY_SECRET", testCheckoutSecret)

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.MigrateModels(db))
	config.DB = db
	require.NoError(t, utils.EnsurePlatformUser())

	config.App = &config.Config{}
}

// depositVerifyRouter stands in for the session middleware by injecting the
// authenticated user directly
func depositVerifyRouter(user models.User) *gin.Engine {
	router := gin.New()
	router.POST("/v1/wallet/deposit/verify", func(c *gin.Context) {
		c.Set("user", user)
		VerifyDeposit(c)
	})
	return router
}

func createDepositUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		ReferralCode: utils.GenerateReferralCode(),
	}
	require.NoError(t, config.DB.Create(&user).Error)
	return user
}

func recordPendingDeposit(t *testing.T, userID uint, amount, rzOrderID string) *models.Wallet {
	t.Helper()
	wallet, err := utils.GetOrCreateWallet(userID)
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := utils.RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.RequireFromString(amount), models.TransactionStatusPending,
			"gateway deposit", nil, "DEP-"+rzOrderID)
		return err
	})
	require.NoError(t, err)
	return wallet
}

func postVerify(t *testing.T, router *gin.Engine, rzOrderID string) *httptest.ResponseRecorder {
	t.Helper()
	h := hmac.New(sha256.New, []byte(testCheckoutSecret))
	h.Write([]byte(rzOrderID + "|pay_verify_1"))

	payload, err := json.Marshal(gin.H{
		"razorpay_order_id":   rzOrderID,
		"razorpay_payment_id": "pay_verify_1",
		"razorpay_signature":  hex.EncodeToString(h.Sum(nil)),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/wallet/deposit/verify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVerifyDepositSettlesOwnDeposit(t *testing.T) {
	setupDepositTest(t)
	owner := createDepositUser(t, "dep_owner")
	wallet := recordPendingDeposit(t, owner.ID, "400.00", "rz_own_1")

	rec := postVerify(t, depositVerifyRouter(owner), "rz_own_1")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, config.DB.First(wallet, wallet.ID).Error)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("400.00")))
}

// A valid checkout signature is not enough; the reference must belong to
// the caller's own wallet or the verify is refused and nothing settles.
func TestVerifyDepositRejectsForeignReference(t *testing.T) {
	setupDepositTest(t)
	victim := createDepositUser(t, "dep_victim")
	other := createDepositUser(t, "dep_other")
	victimWallet := recordPendingDeposit(t, victim.ID, "400.00", "rz_victim_1")

	rec := postVerify(t, depositVerifyRouter(other), "rz_victim_1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var pending models.WalletTransaction
	require.NoError(t, config.DB.Where("reference = ?", "DEP-rz_victim_1").First(&pending).Error)
	assert.Equal(t, models.TransactionStatusPending, pending.Status)

	require.NoError(t, config.DB.First(victimWallet, victimWallet.ID).Error)
	assert.True(t, victimWallet.Balance.IsZero())
}
