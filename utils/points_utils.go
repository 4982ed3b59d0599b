package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetPointsBalance returns the running sum of a user's points history.
// users.total_points is a cache of this value, updated in the same
// transaction as every history row.
func GetPointsBalance(db *gorm.DB, userID uint) (int64, error) {
	var balance int64
	err := db.Model(&models.PointsHistory{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// AwardPoints appends an earned history row and bumps the cached total in
// one database transaction. When a reference id is supplied, a prior earned
// entry with the same (user, source, reference) makes the call a no-op, so
// retried event delivery never double-awards.
func AwardPoints(tx *gorm.DB, userID uint, source string, points int64, description, referenceID string) error {
	if points <= 0 {
		return BadRequestError("Points to award must be positive", nil)
	}

	if referenceID != "" {
		var existing models.PointsHistory
		err := tx.Where("user_id = ? AND source = ? AND reference_id = ? AND type = ?",
			userID, source, referenceID, models.PointsTypeEarned).First(&existing).Error
		if err == nil {
			LogDebug("Points already awarded - User ID: %d, Source: %s, Reference: %s", userID, source, referenceID)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	history := models.PointsHistory{
		UserID:      userID,
		Points:      points,
		Type:        models.PointsTypeEarned,
		Source:      source,
		Description: description,
		ReferenceID: referenceID,
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", points)).Error
}

// spendPoints appends a spent history row (negative points) and decrements
// the cached total. Callers are responsible for the balance check.
func spendPoints(tx *gorm.DB, userID uint, source string, points int64, description, referenceID string) error {
	history := models.PointsHistory{
		UserID:      userID,
		Points:      -points,
		Type:        models.PointsTypeSpent,
		Source:      source,
		Description: description,
		ReferenceID: referenceID,
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("total_points", gorm.Expr("total_points - ?", points)).Error
}

// ClaimDailyLogin awards the daily login bonus at most once per UTC calendar
// day. The (user, date) unique index backs the in-transaction check, so a
// duplicate claim fails with ErrAlreadyClaimed either way. Consecutive-day
// claims extend the login streak; a skipped day resets it to 1.
func ClaimDailyLogin(userID uint) (int64, error) {
	today := time.Now().UTC()
	todayStr := today.Format("2006-01-02")
	yesterdayStr := today.AddDate(0, 0, -1).Format("2006-01-02")
	points := config.App.DailyLoginPoints

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.DailyLogin
		err := tx.Where("user_id = ? AND login_date = ?", userID, todayStr).First(&existing).Error
		if err == nil {
			return ErrAlreadyClaimed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		login := models.DailyLogin{
			UserID:    userID,
			LoginDate: todayStr,
			Points:    points,
		}
		if err := tx.Create(&login).Error; err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique") ||
				strings.Contains(strings.ToLower(err.Error()), "duplicate") {
				return ErrAlreadyClaimed
			}
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		streak := 1
		if user.LastLoginDate != nil && user.LastLoginDate.UTC().Format("2006-01-02") == yesterdayStr {
			streak = user.LoginStreak + 1
		}
		loginDay, _ := time.ParseInLocation("2006-01-02", todayStr, time.UTC)
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"login_streak":    streak,
			"last_login_date": loginDay,
		}).Error; err != nil {
			return err
		}

		return AwardPoints(tx, userID, models.PointsSourceDailyLogin, points,
			fmt.Sprintf("Daily login bonus for %s", todayStr), todayStr)
	})
	if err != nil {
		return 0, err
	}

	LogInfo("Daily login bonus claimed - User ID: %d, Points: %d", userID, points)
	return points, nil
}

// ExchangePoints reserves points against a pending payout. Points are
// deducted when the request is created, not when it is paid, so two
// concurrent exchanges cannot spend the same points; the per-user lock
// serializes the balance check with the deduction.
func ExchangePoints(userID uint, points int64, bankName, accountNumber, accountName string) (*models.PointsExchange, error) {
	if points < config.App.MinExchangePoints {
		return nil, ErrInsufficientPoints
	}

	LockUserPoints(userID)
	defer UnlockUserPoints(userID)

	var exchange models.PointsExchange
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		balance, err := GetPointsBalance(tx, userID)
		if err != nil {
			return err
		}
		if points > balance {
			return ErrInsufficientPoints
		}

		rate := config.App.PointsExchangeRate
		amount := rate.Mul(decimal.NewFromInt(points)).Round(2)

		exchange = models.PointsExchange{
			UserID:        userID,
			PointsSpent:   points,
			Amount:        amount,
			ExchangeRate:  rate,
			Status:        models.ExchangeStatusPending,
			BankName:      bankName,
			AccountNumber: accountNumber,
			AccountName:   accountName,
		}
		if err := tx.Create(&exchange).Error; err != nil {
			return err
		}

		return spendPoints(tx, userID, models.PointsSourceExchange, points,
			fmt.Sprintf("Exchange of %d points for ₹%s", points, amount.StringFixed(2)),
			fmt.Sprintf("EXC-%d", exchange.ID))
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Points exchange %d created - User ID: %d, Points: %d, Amount: %s",
		exchange.ID, userID, points, exchange.Amount.StringFixed(2))
	return &exchange, nil
}

// ProcessPointsExchange marks a pending exchange as paid and records the
// payout on the platform wallet ledger in the same transaction. Rejection
// returns the reserved points to the user.
func ProcessPointsExchange(exchangeID uint, approve bool) (*models.PointsExchange, error) {
	var exchange models.PointsExchange
	if err := config.DB.First(&exchange, exchangeID).Error; err != nil {
		return nil, err
	}
	if exchange.Status != models.ExchangeStatusPending {
		return nil, ErrInvalidStatus
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if !approve {
			if err := tx.Model(&exchange).Updates(map[string]interface{}{
				"status":       models.ExchangeStatusRejected,
				"processed_at": now,
			}).Error; err != nil {
				return err
			}
			// Give the reserved points back
			return AwardPoints(tx, exchange.UserID, models.PointsSourceExchange, exchange.PointsSpent,
				fmt.Sprintf("Refund for rejected exchange #%d", exchange.ID),
				fmt.Sprintf("EXC-REFUND-%d", exchange.ID))
		}

		platformWallet, err := getOrCreateWallet(tx, platformUserID)
		if err != nil {
			return err
		}
		reference := fmt.Sprintf("EXC-%d", exchange.ID)
		description := fmt.Sprintf("Points exchange payout for user #%d", exchange.UserID)
		if _, err := RecordTransaction(tx, platformWallet.ID, models.TransactionTypeWithdrawal,
			exchange.Amount, models.TransactionStatusSuccess, description, nil, reference); err != nil {
			return err
		}

		return tx.Model(&exchange).Updates(map[string]interface{}{
			"status":       models.ExchangeStatusProcessed,
			"processed_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Points exchange %d processed, approve=%t", exchange.ID, approve)
	return &exchange, nil
}
