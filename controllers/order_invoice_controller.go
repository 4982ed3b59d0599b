package controllers

import (
	"fmt"
	"strconv"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/Sreehari-776/AgentMarket/utils"
	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
)

// DownloadInvoice renders a PDF invoice for a paid order
func DownloadInvoice(c *gin.Context) {
	utils.LogInfo("DownloadInvoice called")
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
	if order.PaidAt == nil {
		utils.BadRequest(c, "Invoice is only available for paid orders", gin.H{"status": order.Status})
		return
	}

	var agent models.Agent
	if err := config.DB.First(&agent, order.AgentID).Error; err != nil {
		utils.InternalServerError(c, "Failed to load agent for invoice", err.Error())
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "AgentMarket")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, "Tax Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice No: INV-%06d", order.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Order Date: "+order.CreatedAt.Format("02 Jan 2006"))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Paid On: "+order.PaidAt.Format("02 Jan 2006 15:04"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Tier", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 8, "Amount (INR)", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(90, 8, agent.Name, "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, order.PackageTier, "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, order.Amount.StringFixed(2), "1", 1, "R", false, 0, "")

	pdf.CellFormat(130, 8, "Service Fee", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, order.ServiceFee.StringFixed(2), "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, order.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 6, "Payment method: "+order.PaymentMethod)
	pdf.Ln(5)
	pdf.Cell(0, 6, "This is a computer generated invoice and does not require a signature.")

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%d.pdf", order.ID))
	if err := pdf.Output(c.Writer); err != nil {
		utils.LogError("Failed to render invoice for order %d: %v", order.ID, err)
		utils.InternalServerError(c, "Failed to generate invoice", err.Error())
		return
	}
	utils.LogInfo("Invoice generated for order %d", order.ID)
}
