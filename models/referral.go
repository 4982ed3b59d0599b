package models

import (
	"time"

	"gorm.io/gorm"
)

// UserReferral tracks a referrer/referred pair. Each bonus flag moves
// false -> true exactly once; re-triggering the same stage is a no-op.
type UserReferral struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ReferrerUserID  uint           `json:"referrer_user_id" gorm:"index"`
	ReferredUserID  uint           `json:"referred_user_id" gorm:"uniqueIndex"`
	ReferralCode    string         `json:"referral_code"`
	SignupBonus     bool           `json:"signup_bonus" gorm:"default:false"`
	AgentListBonus  bool           `json:"agent_list_bonus" gorm:"default:false"`
	PurchaseBonus   bool           `json:"purchase_bonus" gorm:"default:false"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
