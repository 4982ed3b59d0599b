package controllers

import (
	"errors"
	"os"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
)

// Register creates a user account and, when a referral code is supplied,
// registers the referral relationship and pays the referrer's signup bonus.
func Register(c *gin.Context) {
	utils.LogInfo("Register called")

	var req struct {
		Username     string `json:"username" binding:"required,min=3,max=30"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required,min=8"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid registration request: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		utils.Conflict(c, "Username or email already registered", nil)
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.LogError("Failed to hash password: %v", err)
		utils.InternalServerError(c, "Failed to create account", nil)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		Password:     hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ReferralCode: utils.GenerateReferralCode(),
	}
	if err := config.DB.Create(&user).Error; err != nil {
		utils.LogError("Failed to create user: %v", err)
		utils.InternalServerError(c, "Failed to create account", err.Error())
		return
	}
	utils.LogInfo("User %d registered", user.ID)

	referralApplied := false
	if req.ReferralCode != "" {
		_, err := utils.RegisterReferral(req.ReferralCode, user.ID)
		switch {
		case err == nil:
			referralApplied = true
		case errors.Is(err, utils.ErrInvalidCode), errors.Is(err, utils.ErrSelfReferral):
			utils.LogInfo("Referral code rejected at signup for user ID: %d: %v", user.ID, err)
		default:
			utils.LogError("Failed to register referral for user ID: %d: %v", user.ID, err)
		}
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.LogError("Failed to generate token for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to generate token", nil)
		return
	}

	utils.Created(c, "Registration successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":            user.ID,
			"username":      user.Username,
			"email":         user.Email,
			"referral_code": user.ReferralCode,
		},
		"referral_applied": referralApplied,
	})
}

// Login authenticates a user and returns a JWT
func Login(c *gin.Context) {
	utils.LogInfo("Login called")

	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		utils.LogError("Failed login attempt for user ID: %d", user.ID)
		utils.Unauthorized(c, "Invalid email or password")
		return
	}
	if user.IsBlocked {
		utils.Forbidden(c, "Your account has been blocked")
		return
	}

	config.DB.Model(&user).Update("last_login_at", time.Now())

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.LogError("Failed to generate token for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to generate token", nil)
		return
	}

	utils.LogInfo("User %d logged in", user.ID)
	utils.Success(c, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"is_admin": user.IsAdmin,
		},
	})
}

// CreateSampleAdmin seeds an admin account on first boot
func CreateSampleAdmin() error {
	var count int64
	if err := config.DB.Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123!"
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     "admin",
		Email:        "admin@agentmarket.local",
		Password:     hashed,
		IsAdmin:      true,
		ReferralCode: utils.GenerateReferralCode(),
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		return err
	}
	utils.LogInfo("Sample admin created with ID: %d", admin.ID)
	return nil
}
