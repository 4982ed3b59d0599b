package controllers

import (
	"errors"
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
)

// CreateOrder places an order for an agent package. Wallet payment settles
// immediately; gateway payment returns a checkout payload and leaves the
// order pending until the webhook confirms the charge.
func CreateOrder(c *gin.Context) {
	utils.LogInfo("CreateOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		AgentID       uint   `json:"agent_id" binding:"required"`
		Tier          string `json:"tier" binding:"required,oneof=basic standard premium"`
		PaymentMethod string `json:"payment_method" binding:"required,oneof=wallet gateway"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var agent models.Agent
	if err := config.DB.First(&agent, req.AgentID).Error; err != nil {
		utils.NotFound(c, "Agent not found")
		return
	}
	if agent.Status != models.AgentStatusActive {
		utils.BadRequest(c, "Agent is not available for orders", gin.H{"status": agent.Status})
		return
	}
	if agent.SellerID == user.ID {
		utils.BadRequest(c, "You cannot order your own agent", nil)
		return
	}

	var pkg models.AgentPackage
	if err := config.DB.Where("agent_id = ? AND tier = ?", agent.ID, req.Tier).First(&pkg).Error; err != nil {
		utils.NotFound(c, "Package tier not offered by this agent")
		return
	}

	_, serviceFee, total := utils.ComputeOrderAmounts(pkg.Price)

	if req.PaymentMethod == models.PaymentMethodGateway {
		// Gateway charge covers the full buyer total in paise
		amountPaise := total.Mul(decimal.NewFromInt(100)).IntPart()
		client := razorpay.NewClient(os.Getenv("RAZORPAY_KEY"), os.Getenv("RAZORPAY_SECRET"))
		orderData := map[string]interface{}{
			"amount":          amountPaise,
			"currency":        "INR",
			"receipt":         "agent_order_" + strconv.FormatUint(uint64(user.ID), 10) + "_" + time.Now().Format("20060102150405"),
			"payment_capture": 1,
		}
		rzOrder, err := client.Order.Create(orderData, nil)
		if err != nil {
			utils.LogError("Failed to create Razorpay order for user ID: %d: %v", user.ID, err)
			utils.InternalServerError(c, "Failed to create payment order", err.Error())
			return
		}
		rzOrderID := fmt.Sprintf("%v", rzOrder["id"])

		order, err := utils.PlaceOrder(user.ID, &agent, &pkg, models.PaymentMethodGateway, rzOrderID)
		if err != nil {
			utils.LogError("Failed to create gateway order for user ID: %d: %v", user.ID, err)
			utils.InternalServerError(c, "Failed to create order", err.Error())
			return
		}

		utils.LogInfo("Gateway order %d created for user ID: %d, reference: %s", order.ID, user.ID, rzOrderID)
		utils.Created(c, "Order created, complete payment to confirm", gin.H{
			"order":             formatOrder(order),
			"razorpay_order_id": rzOrderID,
			"amount_display":    "₹" + total.StringFixed(2),
			"key":               os.Getenv("RAZORPAY_KEY"),
			"payment_type":      "agent_order",
		})
		return
	}

	order, err := utils.PlaceOrder(user.ID, &agent, &pkg, models.PaymentMethodWallet, "")
	if err != nil {
		if errors.Is(err, utils.ErrInsufficientFunds) {
			wallet, _ := utils.GetOrCreateWallet(user.ID)
			utils.BadRequest(c, "Insufficient wallet balance", gin.H{
				"required_amount": total.StringFixed(2),
				"service_fee":     serviceFee.StringFixed(2),
				"current_balance": wallet.Balance.StringFixed(2),
			})
			return
		}
		utils.LogError("Failed to place wallet order for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to place order", err.Error())
		return
	}

	utils.LogInfo("Wallet order %d placed by user ID: %d", order.ID, user.ID)
	utils.Created(c, "Order placed and paid successfully", gin.H{
		"order": formatOrder(order),
	})
}

// ListOrders lists orders where the user is buyer or seller
func ListOrders(c *gin.Context) {
	utils.LogInfo("ListOrders called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := utils.GetPaginationParams(c)
	offset := (page - 1) * limit

	query := config.DB.Model(&models.Order{}).Where("buyer_id = ? OR seller_id = ?", user.ID, user.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count orders", err.Error())
		return
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		utils.InternalServerError(c, "Failed to get orders", err.Error())
		return
	}

	formatted := make([]gin.H, len(orders))
	for i := range orders {
		formatted[i] = formatOrder(&orders[i])
	}

	utils.SuccessWithPagination(c, "Orders retrieved successfully", formatted, total, page, limit)
}

// GetOrder returns one order visible to its buyer or seller
func GetOrder(c *gin.Context) {
	utils.LogInfo("GetOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		utils.NotFound(c, "Order not found")
		return
	}
	if order.BuyerID != user.ID && order.SellerID != user.ID {
		utils.NotFound(c, "Order not found")
		return
	}

	utils.Success(c, "Order retrieved successfully", gin.H{"order": formatOrder(&order)})
}

// CompleteOrder is the seller's delivery confirmation
func CompleteOrder(c *gin.Context) {
	utils.LogInfo("CompleteOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	order, err := utils.ConfirmOrderDelivery(uint(orderID), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.NotFound(c, "Order not found")
		case errors.Is(err, utils.ErrInvalidStatus):
			utils.BadRequest(c, "Only in-progress orders can be completed", nil)
		default:
			utils.LogError("Failed to complete order %d: %v", orderID, err)
			utils.InternalServerError(c, "Failed to complete order", err.Error())
		}
		return
	}

	utils.Success(c, "Order marked as completed", gin.H{"order": formatOrder(order)})
}

// CancelOrder cancels a pending order placed by the buyer
func CancelOrder(c *gin.Context) {
	utils.LogInfo("CancelOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := utils.CancelOrder(uint(orderID), user.ID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.NotFound(c, "Order not found")
		case errors.Is(err, utils.ErrInvalidStatus):
			utils.BadRequest(c, "Only pending orders can be cancelled", nil)
		default:
			utils.LogError("Failed to cancel order %d: %v", orderID, err)
			utils.InternalServerError(c, "Failed to cancel order", err.Error())
		}
		return
	}

	utils.Success(c, "Order cancelled successfully", gin.H{"order": formatOrder(order)})
}

// DisputeOrder opens a dispute on a non-terminal order
func DisputeOrder(c *gin.Context) {
	utils.LogInfo("DisputeOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required,min=10"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. A dispute reason is required", err.Error())
		return
	}

	order, err := utils.DisputeOrder(uint(orderID), user.ID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.NotFound(c, "Order not found")
		case errors.Is(err, utils.ErrInvalidStatus):
			utils.BadRequest(c, "Completed or cancelled orders cannot be disputed", nil)
		default:
			utils.LogError("Failed to dispute order %d: %v", orderID, err)
			utils.InternalServerError(c, "Failed to dispute order", err.Error())
		}
		return
	}

	utils.Success(c, "Order disputed, our team will review it", gin.H{"order": formatOrder(order)})
}

func formatOrder(order *models.Order) gin.H {
	return gin.H{
		"id":             order.ID,
		"buyer_id":       order.BuyerID,
		"seller_id":      order.SellerID,
		"agent_id":       order.AgentID,
		"package_tier":   order.PackageTier,
		"amount":         order.Amount.StringFixed(2),
		"service_fee":    order.ServiceFee.StringFixed(2),
		"total_amount":   order.TotalAmount.StringFixed(2),
		"status":         order.Status,
		"payment_method": order.PaymentMethod,
		"paid_at":        order.PaidAt,
		"delivery_date":  order.DeliveryDate,
		"completed_at":   order.CompletedAt,
		"created_at":     order.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
