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

// PlatformUsername names the reserved account that owns the platform
// wallet, where commission income accumulates and points-exchange payouts
// are drawn from. The account is blocked so it can never log in.
const PlatformUsername = "platform"

// platformUserID is resolved by EnsurePlatformUser at bootstrap. The wallets
// table carries a foreign key to users, so the platform wallet needs a real
// user row behind it.
var platformUserID uint

// EnsurePlatformUser creates the reserved platform account if it does not
// exist and records its id. Must run after migration, before any operation
// that touches the platform wallet.
func EnsurePlatformUser() error {
	var user models.User
	err := config.DB.Where("username = ?", PlatformUsername).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username:     PlatformUsername,
			Email:        "platform@agentmarket.local",
			IsBlocked:    true,
			ReferralCode: GenerateReferralCode(),
		}
		if err := config.DB.Create(&user).Error; err != nil {
			return err
		}
		LogInfo("Platform account created with ID: %d", user.ID)
	} else if err != nil {
		return err
	}

	platformUserID = user.ID
	return nil
}

// GetOrCreateWallet retrieves or lazily creates a user's INR wallet
func GetOrCreateWallet(userID uint) (*models.Wallet, error) {
	return getOrCreateWallet(config.DB, userID)
}

// getOrCreateWallet is the db-threaded form; code already inside a database
// transaction must pass tx here instead of going back to the global handle.
func getOrCreateWallet(db *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.Where("user_id = ? AND currency = ?", userID, "INR").First(&wallet).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		wallet = models.Wallet{
			UserID:   userID,
			Currency: "INR",
			Balance:  decimal.Zero,
			IsActive: true,
		}
		if err := db.Create(&wallet).Error; err != nil {
			return nil, err
		}
		LogDebug("Created new wallet for user ID: %d", userID)
	}
	return &wallet, nil
}

// GetPlatformWallet returns the platform's own wallet
func GetPlatformWallet() (*models.Wallet, error) {
	return GetOrCreateWallet(platformUserID)
}

// DebitForPurchase records a success purchase transaction after checking the
// balance. The caller must hold the wallet lock so the check and the debit
// are linearizable per wallet; tx is the surrounding database transaction.
// A balance that would go negative rejects with ErrInsufficientFunds.
func DebitForPurchase(tx *gorm.DB, walletID uint, amount decimal.Decimal, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	var wallet models.Wallet
	if err := tx.First(&wallet, walletID).Error; err != nil {
		return nil, ErrWalletNotFound
	}

	if wallet.Balance.LessThan(amount) {
		LogInfo("Debit rejected - Wallet ID: %d, Required: %s, Available: %s",
			walletID, amount.StringFixed(2), wallet.Balance.StringFixed(2))
		return nil, ErrInsufficientFunds
	}

	return RecordTransaction(tx, walletID, models.TransactionTypePurchase, amount,
		models.TransactionStatusSuccess, description, orderID, reference)
}

// CreditFromSale records a success sale transaction for the seller.
// Crediting never fails on balance grounds.
func CreditFromSale(tx *gorm.DB, walletID uint, amount decimal.Decimal, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	return RecordTransaction(tx, walletID, models.TransactionTypeSale, amount,
		models.TransactionStatusSuccess, description, orderID, reference)
}

// CollectCommission records the platform's cut of an order: an
// AdminCommission row plus a commission ledger transaction against the
// platform wallet, both inside the caller's database transaction.
func CollectCommission(tx *gorm.DB, orderID uint, amount, percentage decimal.Decimal) (*models.AdminCommission, error) {
	platformWallet, err := getOrCreateWallet(tx, platformUserID)
	if err != nil {
		return nil, err
	}

	commission := models.AdminCommission{
		OrderID:    orderID,
		Amount:     amount,
		Percentage: percentage,
		Status:     models.CommissionStatusPending,
	}
	if err := tx.Create(&commission).Error; err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("COM-ORDER-%d", orderID)
	description := fmt.Sprintf("Platform commission for order #%d", orderID)
	if _, err := RecordTransaction(tx, platformWallet.ID, models.TransactionTypeCommission,
		amount, models.TransactionStatusSuccess, description, &orderID, reference); err != nil {
		return nil, err
	}

	return &commission, nil
}

// RequestWithdrawal validates the balance and files a pending withdrawal
// request. No funds move until an operator processes the request.
func RequestWithdrawal(userID uint, amount decimal.Decimal, bankName, accountNumber, accountName string) (*models.WithdrawalRequest, error) {
	wallet, err := GetOrCreateWallet(userID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	request := models.WithdrawalRequest{
		UserID:        userID,
		Amount:        amount,
		BankName:      bankName,
		AccountNumber: accountNumber,
		AccountName:   accountName,
		Status:        models.WithdrawalStatusPending,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		return nil, err
	}

	LogInfo("Withdrawal request %d created for user ID: %d, amount: %s", request.ID, userID, amount.StringFixed(2))
	return &request, nil
}

// SettleDepositByReference resolves a pending deposit transaction by its
// gateway reference and settles it. Already-settled references are returned
// unchanged, so a replayed gateway callback cannot double-credit.
func SettleDepositByReference(reference, outcome string) (*models.WalletTransaction, error) {
	var transaction models.WalletTransaction
	if err := config.DB.Where("reference = ? AND type = ?", reference, models.TransactionTypeDeposit).
		First(&transaction).Error; err != nil {
		return nil, err
	}

	var settled *models.WalletTransaction
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		settled, err = SettleTransaction(tx, transaction.ID, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// ProcessWithdrawal moves an approved request to processed and records the
// withdrawal ledger transaction. The status change and the debit commit
// together or not at all; the balance is re-checked under the wallet lock
// because it may have shrunk since approval.
func ProcessWithdrawal(requestID uint, adminNotes string) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		return nil, err
	}

	if request.Status != models.WithdrawalStatusApproved {
		return nil, ErrInvalidStatus
	}

	wallet, err := GetOrCreateWallet(request.UserID)
	if err != nil {
		return nil, err
	}

	LockWallet(wallet.ID)
	defer UnlockWallet(wallet.ID)

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var current models.Wallet
		if err := tx.First(&current, wallet.ID).Error; err != nil {
			return err
		}
		if current.Balance.LessThan(request.Amount) {
			return ErrInsufficientFunds
		}

		reference := fmt.Sprintf("WDR-%d", request.ID)
		description := fmt.Sprintf("Withdrawal to %s (%s)", request.BankName, request.AccountName)
		if _, err := RecordTransaction(tx, wallet.ID, models.TransactionTypeWithdrawal,
			request.Amount, models.TransactionStatusSuccess, description, nil, reference); err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&request).Updates(map[string]interface{}{
			"status":       models.WithdrawalStatusProcessed,
			"admin_notes":  adminNotes,
			"processed_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Processed withdrawal request %d for user ID: %d", request.ID, request.UserID)
	return &request, nil
}
