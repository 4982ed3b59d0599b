package controllers

import (
	"errors"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RequestWithdrawal files a withdrawal request for manual approval. The
// wallet is not debited here; funds move when an operator processes it.
func RequestWithdrawal(c *gin.Context) {
	utils.LogInfo("RequestWithdrawal called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Amount        string `json:"amount" binding:"required"`
		BankName      string `json:"bank_name" binding:"required"`
		AccountNumber string `json:"account_number" binding:"required"`
		AccountName   string `json:"account_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Amount and bank details are required", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		utils.BadRequest(c, "Amount must be a positive number", nil)
		return
	}

	request, err := utils.RequestWithdrawal(user.ID, amount, req.BankName, req.AccountNumber, req.AccountName)
	if err != nil {
		if errors.Is(err, utils.ErrInsufficientFunds) {
			wallet, _ := utils.GetOrCreateWallet(user.ID)
			utils.BadRequest(c, "Insufficient wallet balance", gin.H{
				"required_amount": amount.StringFixed(2),
				"current_balance": wallet.Balance.StringFixed(2),
			})
			return
		}
		utils.LogError("Failed to create withdrawal request for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create withdrawal request", err.Error())
		return
	}

	utils.Created(c, "Withdrawal request submitted for review", gin.H{
		"request": gin.H{
			"id":     request.ID,
			"amount": request.Amount.StringFixed(2),
			"status": request.Status,
		},
	})
}

// GetMyWithdrawals lists the user's withdrawal requests
func GetMyWithdrawals(c *gin.Context) {
	utils.LogInfo("GetMyWithdrawals called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := utils.GetPaginationParams(c)
	offset := (page - 1) * limit

	var requests []models.WithdrawalRequest
	var total int64
	if err := config.DB.Model(&models.WithdrawalRequest{}).Where("user_id = ?", user.ID).Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count withdrawal requests", err.Error())
		return
	}
	if err := config.DB.Where("user_id = ?", user.ID).Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		utils.InternalServerError(c, "Failed to get withdrawal requests", err.Error())
		return
	}

	formatted := make([]gin.H, len(requests))
	for i, r := range requests {
		formatted[i] = gin.H{
			"id":           r.ID,
			"amount":       r.Amount.StringFixed(2),
			"status":       r.Status,
			"bank_name":    r.BankName,
			"admin_notes":  r.AdminNotes,
			"processed_at": r.ProcessedAt,
			"created_at":   r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Withdrawal requests retrieved successfully", formatted, total, page, limit)
}
