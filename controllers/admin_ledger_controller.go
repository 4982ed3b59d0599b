package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
)

// AdminListCommissions lists platform commissions with running totals
func AdminListCommissions(c *gin.Context) {
	utils.LogInfo("AdminListCommissions called")

	page, limit := utils.GetPaginationParams(c)
	offset := (page - 1) * limit

	query := config.DB.Model(&models.AdminCommission{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count commissions", err.Error())
		return
	}

	var commissions []models.AdminCommission
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&commissions).Error; err != nil {
		utils.InternalServerError(c, "Failed to get commissions", err.Error())
		return
	}

	platformWallet, err := utils.GetPlatformWallet()
	if err != nil {
		utils.InternalServerError(c, "Failed to get platform wallet", err.Error())
		return
	}

	formatted := make([]gin.H, len(commissions))
	for i, com := range commissions {
		formatted[i] = gin.H{
			"id":         com.ID,
			"order_id":   com.OrderID,
			"amount":     com.Amount.StringFixed(2),
			"percentage": com.Percentage.String(),
			"status":     com.Status,
			"created_at": com.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Commissions retrieved successfully", gin.H{
		"commissions":      formatted,
		"platform_balance": platformWallet.Balance.StringFixed(2),
	}, total, page, limit)
}

// AdminCollectCommission marks a pending commission as collected
func AdminCollectCommission(c *gin.Context) {
	utils.LogInfo("AdminCollectCommission called")

	commissionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid commission ID", nil)
		return
	}

	var commission models.AdminCommission
	if err := config.DB.First(&commission, commissionID).Error; err != nil {
		utils.NotFound(c, "Commission not found")
		return
	}
	if commission.Status != models.CommissionStatusPending {
		utils.BadRequest(c, "Commission already collected", gin.H{"status": commission.Status})
		return
	}

	if err := config.DB.Model(&commission).Update("status", models.CommissionStatusCollected).Error; err != nil {
		utils.InternalServerError(c, "Failed to update commission", err.Error())
		return
	}

	utils.Success(c, "Commission marked as collected", gin.H{
		"commission": gin.H{
			"id":     commission.ID,
			"status": models.CommissionStatusCollected,
		},
	})
}

// AdminResolveDispute closes a disputed order as completed or cancelled
func AdminResolveDispute(c *gin.Context) {
	utils.LogInfo("AdminResolveDispute called")

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=complete cancel"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. Action must be complete or cancel", err.Error())
		return
	}

	order, err := utils.ResolveDispute(uint(orderID), req.Action == "complete", req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.NotFound(c, "Order not found")
		case errors.Is(err, utils.ErrInvalidStatus):
			utils.BadRequest(c, "Only disputed orders can be resolved", nil)
		default:
			utils.LogError("Failed to resolve dispute on order %d: %v", orderID, err)
			utils.InternalServerError(c, "Failed to resolve dispute", err.Error())
		}
		return
	}

	utils.Success(c, "Dispute resolved", gin.H{
		"order": gin.H{
			"id":     order.ID,
			"status": order.Status,
		},
	})
}

// AdminReconcile runs the stale-transaction sweep on demand. The same sweep
// runs hourly on the scheduler; this endpoint exists for operators who do
// not want to wait.
func AdminReconcile(c *gin.Context) {
	utils.LogInfo("AdminReconcile called")

	window := time.Duration(config.App.ReconcileWindowHours) * time.Hour
	if hours := c.Query("window_hours"); hours != "" {
		parsed, err := strconv.Atoi(hours)
		if err != nil || parsed <= 0 {
			utils.BadRequest(c, "window_hours must be a positive integer", nil)
			return
		}
		window = time.Duration(parsed) * time.Hour
	}

	reconciled, err := utils.ReconcileStaleTransactions(window)
	if err != nil {
		utils.LogError("Reconciliation failed: %v", err)
		utils.InternalServerError(c, "Reconciliation failed", err.Error())
		return
	}

	utils.Success(c, "Reconciliation completed", gin.H{
		"failed_transactions": reconciled,
		"window_hours":        int(window.Hours()),
	})
}

// AdminExportLedger downloads the full wallet ledger as an Excel workbook
func AdminExportLedger(c *gin.Context) {
	utils.LogInfo("AdminExportLedger called")

	query := config.DB.Model(&models.WalletTransaction{}).Order("created_at ASC")
	if from := c.Query("from"); from != "" {
		query = query.Where("created_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("created_at <= ?", to)
	}

	var transactions []models.WalletTransaction
	if err := query.Find(&transactions).Error; err != nil {
		utils.InternalServerError(c, "Failed to load ledger", err.Error())
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Ledger")
	if err != nil {
		utils.InternalServerError(c, "Failed to create export sheet", err.Error())
		return
	}

	header := sheet.AddRow()
	for _, title := range []string{"ID", "Wallet ID", "Type", "Amount", "Signed Amount", "Status", "Reference", "Order ID", "Description", "Created At"} {
		cell := header.AddCell()
		cell.Value = title
	}

	for _, txn := range transactions {
		signed := txn.Amount
		if utils.TransactionSign(txn.Type) < 0 {
			signed = txn.Amount.Neg()
		}
		row := sheet.AddRow()
		row.AddCell().SetInt64(int64(txn.ID))
		row.AddCell().SetInt64(int64(txn.WalletID))
		row.AddCell().Value = txn.Type
		row.AddCell().Value = txn.Amount.StringFixed(2)
		row.AddCell().Value = signed.StringFixed(2)
		row.AddCell().Value = txn.Status
		row.AddCell().Value = txn.Reference
		if txn.OrderID != nil {
			row.AddCell().SetInt64(int64(*txn.OrderID))
		} else {
			row.AddCell().Value = ""
		}
		row.AddCell().Value = txn.Description
		row.AddCell().Value = txn.CreatedAt.Format("2006-01-02 15:04:05")
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=ledger_export_"+time.Now().Format("20060102")+".xlsx")
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write ledger export: %v", err)
		utils.InternalServerError(c, "Failed to write export", err.Error())
		return
	}
	utils.LogInfo("Ledger export generated with %d transactions", len(transactions))
}
