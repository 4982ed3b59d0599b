package controllers

import (
	"errors"
	"strconv"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
)

// AdminListWithdrawals lists withdrawal requests, optionally by status
func AdminListWithdrawals(c *gin.Context) {
	utils.LogInfo("AdminListWithdrawals called")

	page, limit := utils.GetPaginationParams(c)
	offset := (page - 1) * limit

	query := config.DB.Model(&models.WithdrawalRequest{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count withdrawal requests", err.Error())
		return
	}

	var requests []models.WithdrawalRequest
	if err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		utils.InternalServerError(c, "Failed to get withdrawal requests", err.Error())
		return
	}

	formatted := make([]gin.H, len(requests))
	for i, r := range requests {
		formatted[i] = gin.H{
			"id":             r.ID,
			"user_id":        r.UserID,
			"amount":         r.Amount.StringFixed(2),
			"bank_name":      r.BankName,
			"account_number": r.AccountNumber,
			"account_name":   r.AccountName,
			"status":         r.Status,
			"admin_notes":    r.AdminNotes,
			"processed_at":   r.ProcessedAt,
			"created_at":     r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Withdrawal requests retrieved successfully", formatted, total, page, limit)
}

// AdminReviewWithdrawal approves or rejects a pending withdrawal request.
// Approval does not move funds; processing does.
func AdminReviewWithdrawal(c *gin.Context) {
	utils.LogInfo("AdminReviewWithdrawal called")

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid request ID", nil)
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=approve reject"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Action must be approve or reject", err.Error())
		return
	}

	var request models.WithdrawalRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		utils.NotFound(c, "Withdrawal request not found")
		return
	}
	if request.Status != models.WithdrawalStatusPending {
		utils.BadRequest(c, "Only pending requests can be reviewed", gin.H{"status": request.Status})
		return
	}

	status := models.WithdrawalStatusApproved
	if req.Action == "reject" {
		status = models.WithdrawalStatusRejected
	}
	if err := config.DB.Model(&request).Updates(map[string]interface{}{
		"status":      status,
		"admin_notes": req.Notes,
	}).Error; err != nil {
		utils.InternalServerError(c, "Failed to update withdrawal request", err.Error())
		return
	}

	utils.LogInfo("Withdrawal request %d %sd", request.ID, req.Action)
	utils.Success(c, "Withdrawal request "+status, gin.H{
		"request": gin.H{
			"id":     request.ID,
			"status": status,
		},
	})
}

// AdminProcessWithdrawal pays out an approved withdrawal: the wallet debit
// and the status change commit atomically
func AdminProcessWithdrawal(c *gin.Context) {
	utils.LogInfo("AdminProcessWithdrawal called")

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid request ID", nil)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	request, err := utils.ProcessWithdrawal(uint(requestID), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidStatus):
			utils.BadRequest(c, "Only approved requests can be processed", nil)
		case errors.Is(err, utils.ErrInsufficientFunds):
			utils.BadRequest(c, "User balance no longer covers this withdrawal", nil)
		default:
			utils.LogError("Failed to process withdrawal %d: %v", requestID, err)
			utils.InternalServerError(c, "Failed to process withdrawal", err.Error())
		}
		return
	}

	var user models.User
	if err := config.DB.First(&user, request.UserID).Error; err == nil {
		if err := utils.SendWithdrawalProcessedEmail(user.Email, request.Amount.StringFixed(2)); err != nil {
			utils.LogError("Failed to send withdrawal email to %s: %v", user.Email, err)
		}
	}

	utils.Success(c, "Withdrawal processed successfully", gin.H{
		"request": gin.H{
			"id":           request.ID,
			"amount":       request.Amount.StringFixed(2),
			"status":       request.Status,
			"processed_at": request.ProcessedAt,
		},
	})
}

// AdminListExchanges lists points exchange requests, optionally by status
func AdminListExchanges(c *gin.Context) {
	utils.LogInfo("AdminListExchanges called")

	page, limit := utils.GetPaginationParams(c)
	offset := (page - 1) * limit

	query := config.DB.Model(&models.PointsExchange{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count exchanges", err.Error())
		return
	}

	var exchanges []models.PointsExchange
	if err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&exchanges).Error; err != nil {
		utils.InternalServerError(c, "Failed to get exchanges", err.Error())
		return
	}

	formatted := make([]gin.H, len(exchanges))
	for i, e := range exchanges {
		formatted[i] = gin.H{
			"id":            e.ID,
			"user_id":       e.UserID,
			"points_spent":  e.PointsSpent,
			"amount":        e.Amount.StringFixed(2),
			"exchange_rate": e.ExchangeRate.String(),
			"status":        e.Status,
			"bank_name":     e.BankName,
			"created_at":    e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Points exchanges retrieved successfully", formatted, total, page, limit)
}

// AdminProcessExchange approves or rejects a pending points exchange.
// Approval records the payout on the platform ledger; rejection returns the
// reserved points.
func AdminProcessExchange(c *gin.Context) {
	utils.LogInfo("AdminProcessExchange called")

	exchangeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid exchange ID", nil)
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=approve reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Action must be approve or reject", err.Error())
		return
	}

	exchange, err := utils.ProcessPointsExchange(uint(exchangeID), req.Action == "approve")
	if err != nil {
		if errors.Is(err, utils.ErrInvalidStatus) {
			utils.BadRequest(c, "Only pending exchanges can be processed", nil)
			return
		}
		utils.LogError("Failed to process exchange %d: %v", exchangeID, err)
		utils.InternalServerError(c, "Failed to process exchange", err.Error())
		return
	}

	if exchange.Status == models.ExchangeStatusProcessed {
		var user models.User
		if err := config.DB.First(&user, exchange.UserID).Error; err == nil {
			if err := utils.SendExchangeProcessedEmail(user.Email, exchange.PointsSpent, exchange.Amount.StringFixed(2)); err != nil {
				utils.LogError("Failed to send exchange email to %s: %v", user.Email, err)
			}
		}
	}

	utils.Success(c, "Points exchange "+exchange.Status, gin.H{
		"exchange": gin.H{
			"id":           exchange.ID,
			"points_spent": exchange.PointsSpent,
			"amount":       exchange.Amount.StringFixed(2),
			"status":       exchange.Status,
		},
	})
}
