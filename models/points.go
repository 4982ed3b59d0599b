package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PointsHistory type constants
const (
	PointsTypeEarned       = "earned"
	PointsTypeSpent        = "spent"
	PointsTypeAdminGranted = "admin_granted"
)

// Points source constants (trigger names)
const (
	PointsSourceDailyLogin      = "daily_login"
	PointsSourceReferralSignup  = "referral_signup"
	PointsSourceReferralListing = "referral_listing"
	PointsSourceReferralOrder   = "referral_order"
	PointsSourceAgentListing    = "agent_listing"
	PointsSourceOrderCompleted  = "order_completed"
	PointsSourceOrderSale       = "order_sale"
	PointsSourceExchange        = "points_exchange"
)

// PointsHistory is an immutable record of a points movement. A user's
// balance is the running sum of this table; users.total_points is a cache
// updated in the same database transaction as the history row.
type PointsHistory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `json:"user_id" gorm:"index"`
	Points      int64          `json:"points"`
	Type        string         `json:"type"`
	Source      string         `json:"source" gorm:"index"`
	Description string         `json:"description"`
	ReferenceID string         `json:"reference_id" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PointsExchange status constants
const (
	ExchangeStatusPending   = "pending"
	ExchangeStatusProcessed = "processed"
	ExchangeStatusRejected  = "rejected"
)

// PointsExchange converts earned points into currency paid out to a bank
// account. Points are deducted when the request is created, not at payout,
// and the exchange rate is snapshotted so historical payouts stay auditable.
type PointsExchange struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `json:"user_id" gorm:"index"`
	PointsSpent   int64           `json:"points_spent"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate" gorm:"type:numeric(12,6)"`
	Status        string          `json:"status" gorm:"default:'pending';index"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	ProcessedAt   *time.Time      `json:"processed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// DailyLogin records one claimed login bonus per user per calendar day.
// The (user_id, login_date) unique index is the at-most-once guard.
type DailyLogin struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `json:"user_id" gorm:"uniqueIndex:idx_user_login_date"`
	LoginDate string         `json:"login_date" gorm:"uniqueIndex:idx_user_login_date"`
	Points    int64          `json:"points"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
