package utils

import (
	"errors"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionSign returns the direction a transaction type moves the wallet
// balance. Amounts are stored unsigned; the type carries the sign.
func TransactionSign(txnType string) int {
	switch txnType {
	case models.TransactionTypeDeposit, models.TransactionTypeSale,
		models.TransactionTypeRefund, models.TransactionTypeCommission:
		return 1
	case models.TransactionTypePurchase, models.TransactionTypeWithdrawal:
		return -1
	}
	return 0
}

// RecordTransaction appends a ledger transaction. When the status is success
// the wallet's cached balance is adjusted in the same database transaction,
// so the ledger row exists before the balance is considered changed. A
// reference already held by a pending or success transaction fails with
// ErrDuplicateReference.
func RecordTransaction(tx *gorm.DB, walletID uint, txnType string, amount decimal.Decimal, status string, description string, orderID *uint, reference string) (*models.WalletTransaction, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, BadRequestError("Transaction amount must be positive", nil)
	}
	if TransactionSign(txnType) == 0 {
		return nil, BadRequestError("Unknown transaction type", nil)
	}

	var existing models.WalletTransaction
	err := tx.Where("reference = ? AND status IN ?", reference,
		[]string{models.TransactionStatusPending, models.TransactionStatusSuccess}).
		First(&existing).Error
	if err == nil {
		LogDebug("Duplicate reference %s for wallet ID: %d", reference, walletID)
		return &existing, ErrDuplicateReference
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	transaction := models.WalletTransaction{
		WalletID:    walletID,
		Amount:      amount,
		Type:        txnType,
		Description: description,
		OrderID:     orderID,
		Reference:   reference,
		Status:      status,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, err
	}

	if status == models.TransactionStatusSuccess {
		if err := applyToBalance(tx, walletID, txnType, amount); err != nil {
			return nil, err
		}
	}

	return &transaction, nil
}

// SettleTransaction moves a pending transaction to a terminal state. Only a
// success outcome counts toward the balance. Settling an already-terminal
// transaction returns the existing state without touching anything.
func SettleTransaction(tx *gorm.DB, transactionID uint, outcome string) (*models.WalletTransaction, error) {
	if outcome != models.TransactionStatusSuccess &&
		outcome != models.TransactionStatusFailed &&
		outcome != models.TransactionStatusCancelled {
		return nil, BadRequestError("Invalid settlement outcome", nil)
	}

	var transaction models.WalletTransaction
	if err := tx.First(&transaction, transactionID).Error; err != nil {
		return nil, err
	}

	if transaction.Status != models.TransactionStatusPending {
		LogDebug("Transaction ID: %d already settled with status %s", transaction.ID, transaction.Status)
		return &transaction, nil
	}

	if err := tx.Model(&transaction).Update("status", outcome).Error; err != nil {
		return nil, err
	}
	transaction.Status = outcome

	if outcome == models.TransactionStatusSuccess {
		if err := applyToBalance(tx, transaction.WalletID, transaction.Type, transaction.Amount); err != nil {
			return nil, err
		}
	}

	return &transaction, nil
}

// applyToBalance adjusts the cached wallet balance by the signed amount
func applyToBalance(tx *gorm.DB, walletID uint, txnType string, amount decimal.Decimal) error {
	delta := amount
	if TransactionSign(txnType) < 0 {
		delta = amount.Neg()
	}
	return tx.Model(&models.Wallet{}).Where("id = ?", walletID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}

// GetWalletBalance computes the balance as the signed sum over success
// transactions. The cached wallet column must always agree with this.
func GetWalletBalance(db *gorm.DB, walletID uint) (decimal.Decimal, error) {
	var transactions []models.WalletTransaction
	if err := db.Where("wallet_id = ? AND status = ?", walletID, models.TransactionStatusSuccess).
		Find(&transactions).Error; err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, txn := range transactions {
		if TransactionSign(txn.Type) < 0 {
			balance = balance.Sub(txn.Amount)
		} else {
			balance = balance.Add(txn.Amount)
		}
	}
	return balance, nil
}

// ReconcileStaleTransactions fails pending transactions older than the
// window and cancels their gateway orders where one is attached. Pending
// rows never counted toward any balance, so no balance adjustment happens
// here. Exposed to admins and run hourly by the scheduler.
func ReconcileStaleTransactions(window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window)
	var reconciled int64

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.WalletTransaction{}).
			Where("status = ? AND created_at < ?", models.TransactionStatusPending, cutoff).
			Update("status", models.TransactionStatusFailed)
		if result.Error != nil {
			return result.Error
		}
		reconciled = result.RowsAffected

		// Gateway orders that never got their webhook are abandoned
		if err := tx.Model(&models.Order{}).
			Where("status = ? AND payment_method = ? AND created_at < ?",
				models.OrderStatusPending, models.PaymentMethodGateway, cutoff).
			Updates(map[string]interface{}{
				"status":        models.OrderStatusCancelled,
				"cancel_reason": "payment not confirmed within the reconciliation window",
			}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	LogInfo("Reconciliation sweep failed %d stale pending transactions", reconciled)
	return reconciled, nil
}
