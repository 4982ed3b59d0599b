package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet represents a user's stored-value account. One wallet per user per
// currency, created lazily on the first financial operation. Balance is a
// cache over the transaction ledger and is only written in the same database
// transaction as the ledger row it reflects.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `json:"user_id" gorm:"uniqueIndex:idx_user_currency"`
	Currency  string          `json:"currency" gorm:"uniqueIndex:idx_user_currency;default:'INR'"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:numeric(12,2);default:0"`
	IsActive  bool            `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// WalletTransaction is an immutable ledger record of a single
// balance-affecting event. Amount is stored unsigned; the sign is derived
// from the type. Only success transactions count toward the balance.
type WalletTransaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	WalletID    uint            `json:"wallet_id" gorm:"index"`
	Wallet      Wallet          `json:"-" gorm:"foreignKey:WalletID"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	OrderID     *uint           `json:"order_id"`
	Reference   string          `json:"reference" gorm:"uniqueIndex"`
	Status      string          `json:"status" gorm:"index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TransactionType constants
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypePurchase   = "purchase"
	TransactionTypeSale       = "sale"
	TransactionTypeCommission = "commission"
	TransactionTypeRefund     = "refund"
)

// TransactionStatus constants
const (
	TransactionStatusPending   = "pending"
	TransactionStatusSuccess   = "success"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// WithdrawalRequest status constants
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusRejected  = "rejected"
	WithdrawalStatusProcessed = "processed"
)

// WithdrawalRequest is a user's request to move wallet funds to a bank
// account. The wallet is debited only when an operator moves the request to
// processed, at which point the withdrawal ledger transaction is recorded in
// the same database transaction as the status change.
type WithdrawalRequest struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `json:"user_id" gorm:"index"`
	User          User            `json:"-" gorm:"foreignKey:UserID"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Status        string          `json:"status" gorm:"default:'pending';index"`
	AdminNotes    string          `json:"admin_notes"`
	ProcessedAt   *time.Time      `json:"processed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}
