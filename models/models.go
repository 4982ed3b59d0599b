package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a regular user in the system
type User struct {
	gorm.Model
	Username      string     `gorm:"uniqueIndex;not null" json:"username"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `json:"-"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         string     `json:"phone"`
	IsBlocked     bool       `json:"is_blocked"`
	IsAdmin       bool       `json:"is_admin" gorm:"default:false"`
	IsSeller      bool       `json:"is_seller" gorm:"default:false"`
	ReferralCode  string     `gorm:"uniqueIndex" json:"referral_code"`
	TotalPoints   int64      `json:"total_points" gorm:"default:0"`
	LoginStreak   int        `json:"login_streak" gorm:"default:0"`
	LastLoginDate *time.Time `json:"-"`
	LastLoginAt   time.Time  `json:"last_login_at"`
	Wallet        Wallet     `json:"wallet,omitempty" gorm:"foreignKey:UserID"`
}

// Admin represents an administrator in the system
type Admin struct {
	gorm.Model
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	LastLogin time.Time `json:"last_login"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
}

// Agent status constants
const (
	AgentStatusActive  = "active"
	AgentStatusBlocked = "blocked"
)

// Agent represents an AI agent listing published by a seller
type Agent struct {
	gorm.Model
	SellerID      uint           `json:"seller_id" gorm:"index"`
	Seller        User           `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Status        string         `json:"status" gorm:"default:'active'"`
	AverageRating float64        `json:"average_rating" gorm:"default:0"`
	TotalOrders   int            `json:"total_orders" gorm:"default:0"`
	Packages      []AgentPackage `json:"packages" gorm:"foreignKey:AgentID"`
}

// Package tier constants
const (
	PackageTierBasic    = "basic"
	PackageTierStandard = "standard"
	PackageTierPremium  = "premium"
)

// AgentPackage represents one priced tier of an agent listing
type AgentPackage struct {
	gorm.Model
	AgentID      uint            `json:"agent_id" gorm:"uniqueIndex:idx_agent_tier"`
	Tier         string          `json:"tier" gorm:"uniqueIndex:idx_agent_tier"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	DeliveryDays int             `json:"delivery_days" gorm:"default:3"`
	Description  string          `json:"description"`
}
