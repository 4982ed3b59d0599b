package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InitiateDeposit creates a gateway order and a pending deposit transaction.
// Funds only count toward the balance when the gateway confirms the charge
// and the transaction settles to success.
func InitiateDeposit(c *gin.Context) {
	utils.LogInfo("InitiateDeposit called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Amount is required", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		utils.BadRequest(c, "Amount must be a positive number", nil)
		return
	}

	wallet, err := utils.GetOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	// Razorpay expects the amount in paise
	amountPaise := amount.Mul(decimal.NewFromInt(100)).IntPart()

	client := razorpay.NewClient(os.Getenv("RAZORPAY_KEY"), os.Getenv("RAZORPAY_SECRET"))
	orderData := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        "INR",
		"receipt":         "wallet_deposit_" + strconv.FormatUint(uint64(user.ID), 10) + "_" + time.Now().Format("20060102150405"),
		"payment_capture": 1,
	}
	rzOrder, err := client.Order.Create(orderData, nil)
	if err != nil {
		utils.LogError("Failed to create Razorpay order for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create Razorpay order", err.Error())
		return
	}
	rzOrderID := fmt.Sprintf("%v", rzOrder["id"])
	utils.LogDebug("Created Razorpay order %s for user ID: %d", rzOrderID, user.ID)

	reference := fmt.Sprintf("DEP-%s", rzOrderID)
	var transaction *models.WalletTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = utils.RecordTransaction(tx, wallet.ID, models.TransactionTypeDeposit,
			amount, models.TransactionStatusPending, "Wallet deposit via Razorpay", nil, reference)
		return err
	})
	if err != nil {
		utils.LogError("Failed to record pending deposit for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to record deposit", err.Error())
		return
	}

	utils.LogInfo("Deposit initiated - User ID: %d, Amount: %s, Reference: %s", user.ID, amount.StringFixed(2), reference)
	utils.Success(c, "Deposit initiated successfully", gin.H{
		"transaction_id":    transaction.ID,
		"razorpay_order_id": rzOrderID,
		"amount_display":    "₹" + amount.StringFixed(2),
		"key":               os.Getenv("RAZORPAY_KEY"),
		"user": gin.H{
			"name":  user.Username,
			"email": user.Email,
		},
		"wallet": gin.H{
			"id":      wallet.ID,
			"balance": wallet.Balance.StringFixed(2),
		},
		"payment_type": "wallet_deposit",
	})
}

// VerifyDeposit confirms a gateway payment from the client-side callback and
// settles the pending deposit. The settle is idempotent, so a verify retry
// after the webhook already landed cannot double-credit.
func VerifyDeposit(c *gin.Context) {
	utils.LogInfo("VerifyDeposit called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
		RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
		RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	keySecret := os.Getenv("RAZORPAY_SECRET")
	data := req.RazorpayOrderID + "|" + req.RazorpayPaymentID
	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(data))
	generatedSignature := hex.EncodeToString(h.Sum(nil))
	if generatedSignature != req.RazorpaySignature {
		utils.LogError("Payment verification failed for order ID: %s, user ID: %d", req.RazorpayOrderID, user.ID)
		utils.BadRequest(c, "Payment verification failed", gin.H{"retry": true})
		return
	}
	utils.LogDebug("Payment signature verified for order ID: %s", req.RazorpayOrderID)

	wallet, err := utils.GetOrCreateWallet(user.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	// The reference must belong to the caller's own wallet; otherwise a
	// valid signature for someone else's order could settle their deposit.
	reference := fmt.Sprintf("DEP-%s", req.RazorpayOrderID)
	var pending models.WalletTransaction
	if err := config.DB.Where("reference = ? AND wallet_id = ? AND type = ?",
		reference, wallet.ID, models.TransactionTypeDeposit).First(&pending).Error; err != nil {
		utils.LogError("Deposit %s not found on wallet of user ID: %d", reference, user.ID)
		utils.NotFound(c, "No deposit found for this order")
		return
	}

	transaction, err := utils.SettleDepositByReference(reference, models.TransactionStatusSuccess)
	if err != nil {
		utils.LogError("Failed to settle deposit %s: %v", reference, err)
		utils.NotFound(c, "No deposit found for this order")
		return
	}

	wallet, err = utils.GetOrCreateWallet(user.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to get updated wallet", err.Error())
		return
	}

	utils.LogInfo("Deposit settled - User ID: %d, Reference: %s", user.ID, reference)
	utils.Success(c, "Money added to wallet successfully!", gin.H{
		"amount_added":     transaction.Amount.StringFixed(2),
		"wallet_balance":   wallet.Balance.StringFixed(2),
		"transaction_id":   transaction.ID,
		"transaction_date": transaction.CreatedAt.Format("2006-01-02 15:04:05"),
		"reference":        reference,
	})
}
