package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandlePaymentWebhook receives Razorpay webhook events. Settlement is keyed
// on the gateway order reference, so a replayed event finds the transaction
// already settled and acknowledges without moving funds again.
func HandlePaymentWebhook(c *gin.Context) {
	utils.LogInfo("HandlePaymentWebhook called")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequest(c, "Failed to read webhook body", nil)
		return
	}

	secret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	signature := c.GetHeader("X-Razorpay-Signature")
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		utils.LogError("Webhook signature mismatch")
		utils.Unauthorized(c, "Invalid webhook signature")
		return
	}

	var event struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
					Status  string `json:"status"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		utils.BadRequest(c, "Malformed webhook payload", nil)
		return
	}

	if event.Event != "payment.captured" {
		utils.LogDebug("Ignoring webhook event: %s", event.Event)
		utils.Success(c, "Event ignored", nil)
		return
	}

	rzOrderID := event.Payload.Payment.Entity.OrderID
	utils.LogDebug("Webhook payment captured for gateway order: %s", rzOrderID)

	// Agent order first, wallet deposit otherwise
	order, err := utils.ProcessGatewayPayment(rzOrderID)
	if err == nil {
		utils.LogInfo("Webhook settled order %d for reference: %s", order.ID, rzOrderID)
		utils.Success(c, "Payment processed", gin.H{"order_id": order.ID})
		return
	}
	if !errors.Is(err, utils.ErrOrderNotFound) {
		utils.LogError("Webhook settlement failed for reference %s: %v", rzOrderID, err)
		utils.InternalServerError(c, "Failed to process payment", err.Error())
		return
	}

	reference := fmt.Sprintf("DEP-%s", rzOrderID)
	transaction, err := utils.SettleDepositByReference(reference, models.TransactionStatusSuccess)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing of ours matches; acknowledge so the gateway stops retrying
			utils.LogInfo("Webhook reference %s matches no order or deposit", rzOrderID)
			utils.Success(c, "No matching payment", nil)
			return
		}
		utils.LogError("Webhook deposit settlement failed for %s: %v", reference, err)
		utils.InternalServerError(c, "Failed to settle deposit", err.Error())
		return
	}

	utils.LogInfo("Webhook settled deposit transaction %d for reference: %s", transaction.ID, reference)
	utils.Success(c, "Deposit processed", gin.H{"transaction_id": transaction.ID})
}
