package controllers

import (
	"errors"
	"strconv"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
)

// ClaimDailyLogin awards the daily login bonus, at most once per calendar day
func ClaimDailyLogin(c *gin.Context) {
	utils.LogInfo("ClaimDailyLogin called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	points, err := utils.ClaimDailyLogin(user.ID)
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyClaimed) {
			utils.Conflict(c, "Daily login bonus already claimed today", nil)
			return
		}
		utils.LogError("Failed to claim daily login for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to claim daily login bonus", err.Error())
		return
	}

	var refreshed models.User
	if err := config.DB.First(&refreshed, user.ID).Error; err == nil {
		user = refreshed
	}

	utils.Success(c, "Daily login bonus claimed!", gin.H{
		"points_earned": points,
		"login_streak":  user.LoginStreak,
		"total_points":  user.TotalPoints,
	})
}

// GetPointsHistory lists the user's points movements and current balance
func GetPointsHistory(c *gin.Context) {
	utils.LogInfo("GetPointsHistory called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := utils.GetPaginationParams(c)
	offset := (page - 1) * limit

	var history []models.PointsHistory
	var total int64
	if err := config.DB.Model(&models.PointsHistory{}).Where("user_id = ?", user.ID).Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count points history", err.Error())
		return
	}
	if err := config.DB.Where("user_id = ?", user.ID).Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&history).Error; err != nil {
		utils.InternalServerError(c, "Failed to get points history", err.Error())
		return
	}

	balance, err := utils.GetPointsBalance(config.DB, user.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to compute points balance", err.Error())
		return
	}

	formatted := make([]gin.H, len(history))
	for i, h := range history {
		formatted[i] = gin.H{
			"id":          h.ID,
			"points":      h.Points,
			"type":        h.Type,
			"source":      h.Source,
			"description": h.Description,
			"created_at":  h.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Points history retrieved successfully", gin.H{
		"history": formatted,
		"balance": balance,
	}, total, page, limit)
}

// ExchangePoints converts points into a pending currency payout
func ExchangePoints(c *gin.Context) {
	utils.LogInfo("ExchangePoints called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Points        int64  `json:"points" binding:"required,min=1"`
		BankName      string `json:"bank_name" binding:"required"`
		AccountNumber string `json:"account_number" binding:"required"`
		AccountName   string `json:"account_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Points and bank details are required", err.Error())
		return
	}

	exchange, err := utils.ExchangePoints(user.ID, req.Points, req.BankName, req.AccountNumber, req.AccountName)
	if err != nil {
		if errors.Is(err, utils.ErrInsufficientPoints) {
			balance, _ := utils.GetPointsBalance(config.DB, user.ID)
			utils.BadRequest(c, "Insufficient points for exchange", gin.H{
				"requested_points": req.Points,
				"current_balance":  balance,
				"minimum_points":   strconv.FormatInt(config.App.MinExchangePoints, 10),
			})
			return
		}
		utils.LogError("Failed to create points exchange for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create points exchange", err.Error())
		return
	}

	utils.Created(c, "Points exchange submitted for review", gin.H{
		"exchange": gin.H{
			"id":            exchange.ID,
			"points_spent":  exchange.PointsSpent,
			"amount":        exchange.Amount.StringFixed(2),
			"exchange_rate": exchange.ExchangeRate.String(),
			"status":        exchange.Status,
		},
	})
}
