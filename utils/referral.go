package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerateReferralCode produces a short shareable invite code
func GenerateReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// RegisterReferral resolves an invite code, creates the referrer/referred
// relationship and pays the referrer's signup bonus. Each stage flag flips
// false -> true exactly once; registering an already-referred user returns
// the existing relationship without awarding anything again.
func RegisterReferral(code string, referredUserID uint) (*models.UserReferral, error) {
	var referrer models.User
	if err := config.DB.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	if referrer.ID == referredUserID {
		return nil, ErrSelfReferral
	}

	var existing models.UserReferral
	err := config.DB.Where("referred_user_id = ?", referredUserID).First(&existing).Error
	if err == nil {
		LogDebug("User ID: %d already has a referral relationship", referredUserID)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	referral := models.UserReferral{
		ReferrerUserID: referrer.ID,
		ReferredUserID: referredUserID,
		ReferralCode:   code,
	}
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
		if err := AwardPoints(tx, referrer.ID, models.PointsSourceReferralSignup,
			config.App.SignupBonusPoints,
			fmt.Sprintf("Referral signup bonus for user #%d", referredUserID),
			fmt.Sprintf("REF-SIGNUP-%d", referredUserID)); err != nil {
			return err
		}
		referral.SignupBonus = true
		return tx.Model(&referral).Update("signup_bonus", true).Error
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Referral registered - Referrer ID: %d, Referred ID: %d", referrer.ID, referredUserID)
	return &referral, nil
}

// OnAgentListed pays the referrer's listing-stage bonus the first time the
// referred user publishes an agent. The flag update is a compare-and-set,
// so replays are silent no-ops.
func OnAgentListed(userID uint) error {
	return awardReferralStage(userID, "agent_list_bonus",
		models.PointsSourceReferralListing, config.App.ListingBonusPoints,
		fmt.Sprintf("REF-LIST-%d", userID), "published their first agent")
}

// OnFirstPurchaseCompleted pays the referrer's purchase-stage bonus when the
// referred user's first order completes. Awarded once per referral pair
// regardless of how many orders follow.
func OnFirstPurchaseCompleted(userID uint) error {
	return awardReferralStage(userID, "purchase_bonus",
		models.PointsSourceReferralOrder, config.App.OrderBonusPoints,
		fmt.Sprintf("REF-ORDER-%d", userID), "completed their first purchase")
}

func awardReferralStage(referredUserID uint, flagColumn, source string, points int64, referenceID, what string) error {
	var referral models.UserReferral
	err := config.DB.Where("referred_user_id = ?", referredUserID).First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return config.DB.Transaction(func(tx *gorm.DB) error {
		// Compare-and-set: rows affected is zero when the stage already paid out
		result := tx.Model(&models.UserReferral{}).
			Where("id = ? AND "+flagColumn+" = ?", referral.ID, false).
			Update(flagColumn, true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			LogDebug("Referral stage %s already awarded for referred user ID: %d", flagColumn, referredUserID)
			return nil
		}

		return AwardPoints(tx, referral.ReferrerUserID, source, points,
			fmt.Sprintf("Referral bonus: user #%d %s", referredUserID, what), referenceID)
	})
}
