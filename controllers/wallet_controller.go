package controllers

import (
	"strconv"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
)

// GetWallet returns the user's wallet balance and currency
func GetWallet(c *gin.Context) {
	utils.LogInfo("GetWallet called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	wallet, err := utils.GetOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	utils.Success(c, "Wallet retrieved successfully", gin.H{
		"balance":  wallet.Balance.StringFixed(2),
		"currency": wallet.Currency,
	})
}

// GetWalletTransactions returns the user's ledger transactions
func GetWalletTransactions(c *gin.Context) {
	utils.LogInfo("GetWalletTransactions called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	wallet, err := utils.GetOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	offset := (page - 1) * limit

	var transactions []models.WalletTransaction
	var total int64
	if err := config.DB.Model(&models.WalletTransaction{}).Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		utils.LogError("Failed to count transactions for wallet ID: %d: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to count transactions", err.Error())
		return
	}

	if err := config.DB.Where("wallet_id = ?", wallet.ID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&transactions).Error; err != nil {
		utils.LogError("Failed to get transactions for wallet ID: %d: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to get transactions", err.Error())
		return
	}

	formatted := make([]gin.H, len(transactions))
	for i, txn := range transactions {
		formatted[i] = gin.H{
			"id":          txn.ID,
			"amount":      txn.Amount.StringFixed(2),
			"type":        txn.Type,
			"status":      txn.Status,
			"description": txn.Description,
			"reference":   txn.Reference,
			"order_id":    txn.OrderID,
			"created_at":  txn.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Wallet transactions retrieved successfully", gin.H{
		"transactions": formatted,
		"wallet": gin.H{
			"balance":  wallet.Balance.StringFixed(2),
			"currency": wallet.Currency,
		},
	}, total, page, limit)
}
