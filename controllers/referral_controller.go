package controllers

import (
	"errors"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
)

// RegisterReferral links the authenticated user to a referrer via invite
// code. Intended to be called once right after signup; re-registration
// returns the existing relationship.
func RegisterReferral(c *gin.Context) {
	utils.LogInfo("RegisterReferral called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Referral code is required", err.Error())
		return
	}

	referral, err := utils.RegisterReferral(req.Code, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidCode):
			utils.NotFound(c, "Invalid referral code")
		case errors.Is(err, utils.ErrSelfReferral):
			utils.BadRequest(c, "You cannot use your own referral code", nil)
		default:
			utils.LogError("Failed to register referral for user ID: %d: %v", user.ID, err)
			utils.InternalServerError(c, "Failed to register referral", err.Error())
		}
		return
	}

	utils.Success(c, "Referral registered successfully", gin.H{
		"referral": gin.H{
			"referrer_user_id": referral.ReferrerUserID,
			"signup_bonus":     referral.SignupBonus,
		},
	})
}

// GetReferralInfo returns the user's invite code and referral progress
func GetReferralInfo(c *gin.Context) {
	utils.LogInfo("GetReferralInfo called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var referred []models.UserReferral
	if err := config.DB.Where("referrer_user_id = ?", user.ID).Find(&referred).Error; err != nil {
		utils.InternalServerError(c, "Failed to get referrals", err.Error())
		return
	}

	formatted := make([]gin.H, len(referred))
	for i, r := range referred {
		formatted[i] = gin.H{
			"referred_user_id": r.ReferredUserID,
			"signup_bonus":     r.SignupBonus,
			"agent_list_bonus": r.AgentListBonus,
			"purchase_bonus":   r.PurchaseBonus,
			"created_at":       r.CreatedAt.Format("2006-01-02"),
		}
	}

	utils.Success(c, "Referral info retrieved successfully", gin.H{
		"referral_code": user.ReferralCode,
		"referred":      formatted,
	})
}
