package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// ComputeOrderAmounts derives the buyer-side service fee and total from a
// package price using the configured fee percentage.
func ComputeOrderAmounts(price decimal.Decimal) (amount, serviceFee, total decimal.Decimal) {
	amount = price.Round(2)
	serviceFee = amount.Mul(config.App.ServiceFeePercent).Div(hundred).Round(2)
	total = amount.Add(serviceFee)
	return amount, serviceFee, total
}

// PlaceOrder persists an order for one agent package tier and, for the
// wallet path, settles payment in the same database transaction: buyer
// debit, seller credit minus commission, commission row, order moved to
// in_progress. InsufficientFunds aborts the whole transaction, leaving no
// order row behind. The gateway path leaves the order pending until the
// webhook confirms the charge.
func PlaceOrder(buyerID uint, agent *models.Agent, pkg *models.AgentPackage, paymentMethod, gatewayReference string) (*models.Order, error) {
	amount, serviceFee, total := ComputeOrderAmounts(pkg.Price)
	deliveryDate := time.Now().AddDate(0, 0, pkg.DeliveryDays)

	order := models.Order{
		BuyerID:          buyerID,
		SellerID:         agent.SellerID,
		AgentID:          agent.ID,
		PackageTier:      pkg.Tier,
		Amount:           amount,
		ServiceFee:       serviceFee,
		TotalAmount:      total,
		Status:           models.OrderStatusPending,
		PaymentMethod:    paymentMethod,
		GatewayReference: gatewayReference,
		DeliveryDate:     &deliveryDate,
	}

	if paymentMethod == models.PaymentMethodGateway {
		if err := config.DB.Create(&order).Error; err != nil {
			return nil, err
		}
		LogInfo("Gateway order %d created pending for buyer ID: %d, reference: %s", order.ID, buyerID, gatewayReference)
		return &order, nil
	}

	buyerWallet, err := GetOrCreateWallet(buyerID)
	if err != nil {
		return nil, err
	}

	LockWallet(buyerWallet.ID)
	defer UnlockWallet(buyerWallet.ID)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		reference := fmt.Sprintf("PUR-ORDER-%d", order.ID)
		description := fmt.Sprintf("Purchase of %s (%s package)", agent.Name, pkg.Tier)
		if _, err := DebitForPurchase(tx, buyerWallet.ID, total, &order.ID, reference, description); err != nil {
			return err
		}

		return settleOrderPayment(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Wallet order %d placed and paid - buyer ID: %d, total: %s", order.ID, buyerID, total.StringFixed(2))
	return &order, nil
}

// settleOrderPayment performs the post-payment fund movements shared by the
// wallet path and the gateway webhook: seller credit minus commission,
// commission collection, order to in_progress. Must run inside the caller's
// database transaction.
func settleOrderPayment(tx *gorm.DB, order *models.Order) error {
	commission := order.Amount.Mul(config.App.CommissionPercent).Div(hundred).Round(2)
	sellerNet := order.Amount.Sub(commission)

	sellerWallet, err := getOrCreateWallet(tx, order.SellerID)
	if err != nil {
		return err
	}

	reference := fmt.Sprintf("SALE-ORDER-%d", order.ID)
	description := fmt.Sprintf("Sale proceeds for order #%d", order.ID)
	if _, err := CreditFromSale(tx, sellerWallet.ID, sellerNet, &order.ID, reference, description); err != nil {
		return err
	}

	if _, err := CollectCommission(tx, order.ID, commission, config.App.CommissionPercent); err != nil {
		return err
	}

	if err := tx.Model(&models.Agent{}).Where("id = ?", order.AgentID).
		UpdateColumn("total_orders", gorm.Expr("total_orders + ?", 1)).Error; err != nil {
		return err
	}

	now := time.Now()
	order.Status = models.OrderStatusInProgress
	order.PaidAt = &now
	return tx.Model(order).Updates(map[string]interface{}{
		"status":  models.OrderStatusInProgress,
		"paid_at": now,
	}).Error
}

// ProcessGatewayPayment settles a gateway order identified by its charge
// reference. A replayed webhook for an already-settled reference is a safe
// no-op returning the existing order.
func ProcessGatewayPayment(reference string) (*models.Order, error) {
	var order models.Order
	if err := config.DB.Where("gateway_reference = ?", reference).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status != models.OrderStatusPending || order.PaidAt != nil {
		LogDebug("Gateway reference %s already processed, order %d status: %s", reference, order.ID, order.Status)
		return &order, nil
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		return settleOrderPayment(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Gateway payment settled for order %d, reference: %s", order.ID, reference)
	return &order, nil
}

// ConfirmOrderDelivery is the seller's explicit in_progress -> completed
// transition, decoupled from payment settlement. Completion triggers points
// for both parties and the referral purchase stage; all three are idempotent
// under retry.
func ConfirmOrderDelivery(orderID, sellerID uint) (*models.Order, error) {
	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		return nil, ErrOrderNotFound
	}
	if order.SellerID != sellerID {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderStatusInProgress {
		return nil, ErrInvalidStatus
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		// Guarded update: of two racing confirmations only one row change
		// wins, so the point awards below run exactly once.
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusInProgress).
			Updates(map[string]interface{}{
				"status":       models.OrderStatusCompleted,
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidStatus
		}
		order.Status = models.OrderStatusCompleted
		order.CompletedAt = &now

		if err := AwardPoints(tx, order.BuyerID, models.PointsSourceOrderCompleted,
			config.App.BuyerOrderPoints,
			fmt.Sprintf("Order #%d completed", order.ID),
			fmt.Sprintf("ORD-%d-buyer", order.ID)); err != nil {
			return err
		}
		return AwardPoints(tx, order.SellerID, models.PointsSourceOrderSale,
			config.App.SellerOrderPoints,
			fmt.Sprintf("Order #%d delivered", order.ID),
			fmt.Sprintf("ORD-%d-seller", order.ID))
	})
	if err != nil {
		return nil, err
	}

	// First completed order by the buyer may unlock the referral stage
	if err := OnFirstPurchaseCompleted(order.BuyerID); err != nil {
		LogError("Referral purchase stage failed for buyer ID: %d: %v", order.BuyerID, err)
	}

	LogInfo("Order %d completed by seller ID: %d", order.ID, sellerID)
	return &order, nil
}

// CancelOrder cancels a pending order. Paid orders cannot be cancelled this
// way. If a success purchase transaction somehow exists for a still-pending
// order, the buyer is refunded in the same transaction as the guard demands.
func CancelOrder(orderID, buyerID uint, reason string) (*models.Order, error) {
	var order models.Order
	if err := config.DB.Where("id = ? AND buyer_id = ?", orderID, buyerID).First(&order).Error; err != nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrInvalidStatus
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":        models.OrderStatusCancelled,
				"cancel_reason": reason,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidStatus
		}
		order.Status = models.OrderStatusCancelled
		order.CancelReason = reason

		var debit models.WalletTransaction
		err := tx.Where("order_id = ? AND type = ? AND status = ?",
			order.ID, models.TransactionTypePurchase, models.TransactionStatusSuccess).
			First(&debit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		reference := fmt.Sprintf("REFUND-ORDER-%d", order.ID)
		description := fmt.Sprintf("Refund for cancelled order #%d", order.ID)
		_, err = RecordTransaction(tx, debit.WalletID, models.TransactionTypeRefund,
			debit.Amount, models.TransactionStatusSuccess, description, &order.ID, reference)
		return err
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Order %d cancelled by buyer ID: %d", order.ID, buyerID)
	return &order, nil
}

// ResolveDispute is the admin's terminal decision on a disputed order.
// Completing pays points as a normal delivery would. Cancelling refunds the
// buyer's full total as a refund transaction, funded by an offsetting payout
// on the platform wallet so the ledger stays balanced; recovering the money
// from the seller is handled outside the ledger.
func ResolveDispute(orderID uint, complete bool, notes string) (*models.Order, error) {
	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderStatusDisputed {
		return nil, ErrInvalidStatus
	}

	if complete {
		err := config.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			result := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", order.ID, models.OrderStatusDisputed).
				Updates(map[string]interface{}{
					"status":       models.OrderStatusCompleted,
					"completed_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInvalidStatus
			}
			order.Status = models.OrderStatusCompleted
			order.CompletedAt = &now

			if err := AwardPoints(tx, order.BuyerID, models.PointsSourceOrderCompleted,
				config.App.BuyerOrderPoints,
				fmt.Sprintf("Order #%d completed", order.ID),
				fmt.Sprintf("ORD-%d-buyer", order.ID)); err != nil {
				return err
			}
			return AwardPoints(tx, order.SellerID, models.PointsSourceOrderSale,
				config.App.SellerOrderPoints,
				fmt.Sprintf("Order #%d delivered", order.ID),
				fmt.Sprintf("ORD-%d-seller", order.ID))
		})
		if err != nil {
			return nil, err
		}

		// First completed order by the buyer may unlock the referral stage
		if err := OnFirstPurchaseCompleted(order.BuyerID); err != nil {
			LogError("Referral purchase stage failed for buyer ID: %d: %v", order.BuyerID, err)
		}

		LogInfo("Dispute on order %d resolved as completed", order.ID)
		return &order, nil
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusDisputed).
			Updates(map[string]interface{}{
				"status":        models.OrderStatusCancelled,
				"cancel_reason": notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidStatus
		}
		order.Status = models.OrderStatusCancelled
		order.CancelReason = notes

		// Unpaid disputed orders have nothing to refund
		if order.PaidAt == nil {
			return nil
		}

		buyerWallet, err := getOrCreateWallet(tx, order.BuyerID)
		if err != nil {
			return err
		}
		reference := fmt.Sprintf("REFUND-ORDER-%d", order.ID)
		description := fmt.Sprintf("Refund for disputed order #%d", order.ID)
		if _, err := RecordTransaction(tx, buyerWallet.ID, models.TransactionTypeRefund,
			order.TotalAmount, models.TransactionStatusSuccess, description, &order.ID, reference); err != nil {
			return err
		}

		platformWallet, err := getOrCreateWallet(tx, platformUserID)
		if err != nil {
			return err
		}
		payoutRef := fmt.Sprintf("DSP-ORDER-%d", order.ID)
		payoutDesc := fmt.Sprintf("Dispute refund payout for order #%d", order.ID)
		_, err = RecordTransaction(tx, platformWallet.ID, models.TransactionTypeWithdrawal,
			order.TotalAmount, models.TransactionStatusSuccess, payoutDesc, &order.ID, payoutRef)
		return err
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Dispute on order %d resolved as cancelled with refund", order.ID)
	return &order, nil
}

// DisputeOrder moves a non-terminal order to disputed
func DisputeOrder(orderID, userID uint, reason string) (*models.Order, error) {
	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		return nil, ErrOrderNotFound
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, ErrOrderNotFound
	}
	if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
		return nil, ErrInvalidStatus
	}

	result := config.DB.Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", order.ID,
			[]string{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusDisputed,
			"dispute_reason": reason,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidStatus
	}
	order.Status = models.OrderStatusDisputed
	order.DisputeReason = reason

	LogInfo("Order %d disputed by user ID: %d", order.ID, userID)
	return &order, nil
}
