package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status constants
const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusDisputed   = "disputed"
)

// Payment method constants
const (
	PaymentMethodWallet  = "wallet"
	PaymentMethodGateway = "gateway"
)

// Order represents a purchase of one agent package tier.
// pending -> in_progress -> completed, with pending -> cancelled and any
// non-terminal state -> disputed. completed and cancelled are terminal.
type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	BuyerID          uint            `json:"buyer_id" gorm:"index"`
	Buyer            User            `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	SellerID         uint            `json:"seller_id" gorm:"index"`
	Seller           User            `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	AgentID          uint            `json:"agent_id"`
	Agent            Agent           `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	PackageTier      string          `json:"package_tier"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	ServiceFee       decimal.Decimal `json:"service_fee" gorm:"type:numeric(12,2)"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	Status           string          `json:"status" gorm:"default:'pending';index"`
	PaymentMethod    string          `json:"payment_method"`
	GatewayReference string          `json:"gateway_reference" gorm:"index"`
	PaidAt           *time.Time      `json:"paid_at"`
	DeliveryDate     *time.Time      `json:"delivery_date"`
	CompletedAt      *time.Time      `json:"completed_at"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	DisputeReason    string          `json:"dispute_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AdminCommission status constants
const (
	CommissionStatusPending   = "pending"
	CommissionStatusCollected = "collected"
)

// AdminCommission is the platform's cut of an order, derived from the order
// total at settlement time using the platform commission rate.
type AdminCommission struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `json:"order_id" gorm:"uniqueIndex"`
	Order      Order           `json:"-" gorm:"foreignKey:OrderID"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	Percentage decimal.Decimal `json:"percentage" gorm:"type:numeric(5,2)"`
	Status     string          `json:"status" gorm:"default:'pending';index"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}
