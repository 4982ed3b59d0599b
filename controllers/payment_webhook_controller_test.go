package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
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

const testWebhookSecret = "whsec_test"

func setupWebhookTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", testWebhookSecret)

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

	config.App = &config.Config{
		CommissionPercent: decimal.NewFromInt(10),
		ServiceFeePercent: decimal.NewFromInt(5),
		BuyerOrderPoints:  100,
		SellerOrderPoints: 50,
	}

	router := gin.New()
	router.POST("/v1/payment/webhook", HandlePaymentWebhook)
	return router
}

func postWebhook(t *testing.T, router *gin.Engine, body []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/payment/webhook", bytes.NewReader(body))
	if sign {
		h := hmac.New(sha256.New, []byte(testWebhookSecret))
		h.Write(body)
		req.Header.Set("X-Razorpay-Signature", hex.EncodeToString(h.Sum(nil)))
	} else {
		req.Header.Set("X-Razorpay-Signature", "forged")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func capturedEvent(rzOrderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"%s","status":"captured"}}}}`,
		rzOrderID))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router := setupWebhookTest(t)
	rec := postWebhook(t, router, capturedEvent("rz_wh_forged"), false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookSettlesDepositOnceUnderReplay(t *testing.T) {
	router := setupWebhookTest(t)

	user := models.User{Username: "wh_user", Email: "wh_user@example.com", ReferralCode: utils.GenerateReferralCode()}
	require.NoError(t, config.DB.Create(&user).Error)
	wallet, err := utils.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		_, err := utils.RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			decimal.RequireFromString("250.00"), models.TransactionStatusPending,
			"gateway deposit", nil, "DEP-rz_wh_1")
		return err
	})
	require.NoError(t, err)

	body := capturedEvent("rz_wh_1")
	rec := postWebhook(t, router, body, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, config.DB.First(wallet, wallet.ID).Error)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("250.00")))

	// The gateway redelivers; the balance must not move again
	for i := 0; i < 3; i++ {
		rec = postWebhook(t, router, body, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	require.NoError(t, config.DB.First(wallet, wallet.ID).Error)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("250.00")))
}

func TestWebhookSettlesGatewayOrder(t *testing.T) {
	router := setupWebhookTest(t)

	buyer := models.User{Username: "wh_buyer", Email: "wh_buyer@example.com", ReferralCode: utils.GenerateReferralCode()}
	seller := models.User{Username: "wh_seller", Email: "wh_seller@example.com", ReferralCode: utils.GenerateReferralCode()}
	require.NoError(t, config.DB.Create(&buyer).Error)
	require.NoError(t, config.DB.Create(&seller).Error)

	agent := models.Agent{
		SellerID: seller.ID,
		Name:     "Webhook Agent",
		Status:   models.AgentStatusActive,
		Packages: []models.AgentPackage{{
			Tier:         models.PackageTierBasic,
			Price:        decimal.RequireFromString("100.00"),
			DeliveryDays: 2,
		}},
	}
	require.NoError(t, config.DB.Create(&agent).Error)

	order, err := utils.PlaceOrder(buyer.ID, &agent, &agent.Packages[0], models.PaymentMethodGateway, "rz_wh_order")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, order.Status)

	rec := postWebhook(t, router, capturedEvent("rz_wh_order"), true)
	assert.Equal(t, http.StatusOK, rec.Code)

	var settled models.Order
	require.NoError(t, config.DB.First(&settled, order.ID).Error)
	assert.Equal(t, models.OrderStatusInProgress, settled.Status)
	assert.NotNil(t, settled.PaidAt)

	sellerWallet, err := utils.GetOrCreateWallet(seller.ID)
	require.NoError(t, err)
	assert.True(t, sellerWallet.Balance.Equal(decimal.RequireFromString("90.00")))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	router := setupWebhookTest(t)
	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"rz_wh_2","status":"failed"}}}}`)
	rec := postWebhook(t, router, body, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookUnknownReferenceAcknowledged(t *testing.T) {
	router := setupWebhookTest(t)
	rec := postWebhook(t, router, capturedEvent("rz_wh_unknown"), true)
	assert.Equal(t, http.StatusOK, rec.Code)
}
