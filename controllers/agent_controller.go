package controllers

import (
	"strconv"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateAgent publishes an agent listing with its package tiers. The first
// listing by a referred user unlocks the referrer's listing-stage bonus; the
// seller also earns listing points once per agent.
func CreateAgent(c *gin.Context) {
	utils.LogInfo("CreateAgent called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=3,max=100"`
		Description string `json:"description" binding:"required,min=10"`
		Category    string `json:"category" binding:"required"`
		Packages    []struct {
			Tier         string `json:"tier" binding:"required,oneof=basic standard premium"`
			Price        string `json:"price" binding:"required"`
			DeliveryDays int    `json:"delivery_days" binding:"required,min=1"`
			Description  string `json:"description"`
		} `json:"packages" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	agent := models.Agent{
		SellerID:    user.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      models.AgentStatusActive,
	}
	for _, p := range req.Packages {
		price, err := decimal.NewFromString(p.Price)
		if err != nil || !price.IsPositive() {
			utils.BadRequest(c, "Package price must be a positive number", gin.H{"tier": p.Tier})
			return
		}
		agent.Packages = append(agent.Packages, models.AgentPackage{
			Tier:         p.Tier,
			Price:        price,
			DeliveryDays: p.DeliveryDays,
			Description:  p.Description,
		})
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agent).Error; err != nil {
			return err
		}
		if !user.IsSeller {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("is_seller", true).Error; err != nil {
				return err
			}
		}
		return utils.AwardPoints(tx, user.ID, models.PointsSourceAgentListing,
			config.App.AgentListingPoints, "Points for listing "+agent.Name,
			"AGENT-"+strconv.FormatUint(uint64(agent.ID), 10))
	})
	if err != nil {
		utils.LogError("Failed to create agent for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create agent", err.Error())
		return
	}

	// Referral listing stage, idempotent behind the flag
	if err := utils.OnAgentListed(user.ID); err != nil {
		utils.LogError("Referral listing stage failed for user ID: %d: %v", user.ID, err)
	}

	utils.LogInfo("Agent %d created by user ID: %d", agent.ID, user.ID)
	utils.Created(c, "Agent listed successfully", gin.H{
		"agent": gin.H{
			"id":       agent.ID,
			"name":     agent.Name,
			"category": agent.Category,
			"status":   agent.Status,
		},
	})
}

// GetAgent returns an agent listing with its tier pricing
func GetAgent(c *gin.Context) {
	utils.LogInfo("GetAgent called")

	agentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid agent ID", nil)
		return
	}

	var agent models.Agent
	if err := config.DB.Preload("Packages").First(&agent, agentID).Error; err != nil {
		utils.NotFound(c, "Agent not found")
		return
	}

	packages := make([]gin.H, len(agent.Packages))
	for i, p := range agent.Packages {
		packages[i] = gin.H{
			"tier":          p.Tier,
			"price":         p.Price.StringFixed(2),
			"delivery_days": p.DeliveryDays,
			"description":   p.Description,
		}
	}

	utils.Success(c, "Agent retrieved successfully", gin.H{
		"agent": gin.H{
			"id":             agent.ID,
			"seller_id":      agent.SellerID,
			"name":           agent.Name,
			"description":    agent.Description,
			"category":       agent.Category,
			"status":         agent.Status,
			"average_rating": agent.AverageRating,
			"total_orders":   agent.TotalOrders,
			"packages":       packages,
		},
	})
}
