package utils

import (
	"testing"

	"github.com/Sreehari-776/AgentMarket/config"
	"github.com/Sreehari-776/AgentMarket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := GenerateReferralCode()
		assert.Len(t, code, 8)
		assert.False(t, seen[code], "codes should not repeat")
		seen[code] = true
	}
}

func TestRegisterReferralPaysSignupBonusOnce(t *testing.T) {
	setupTestDB(t)
	referrer := createTestUser(t, "referrer")
	referred := createTestUser(t, "referred")

	referral, err := RegisterReferral(referrer.ReferralCode, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, referrer.ID, referral.ReferrerUserID)
	assert.True(t, referral.SignupBonus)
	assert.Equal(t, int64(500), pointsBalance(t, referrer.ID))

	// Registering again returns the relationship without paying again
	again, err := RegisterReferral(referrer.ReferralCode, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, referral.ID, again.ID)
	assert.Equal(t, int64(500), pointsBalance(t, referrer.ID))
}

func TestRegisterReferralRejectsBadInput(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "lonely_user")

	_, err := RegisterReferral("NOSUCHCD", user.ID)
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = RegisterReferral(user.ReferralCode, user.ID)
	require.ErrorIs(t, err, ErrSelfReferral)

	var count int64
	require.NoError(t, config.DB.Model(&models.UserReferral{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestReferralStagesAwardExactlyOnce(t *testing.T) {
	setupTestDB(t)
	referrer := createTestUser(t, "stage_referrer")
	referred := createTestUser(t, "stage_referred")

	_, err := RegisterReferral(referrer.ReferralCode, referred.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500), pointsBalance(t, referrer.ID))

	require.NoError(t, OnAgentListed(referred.ID))
	assert.Equal(t, int64(800), pointsBalance(t, referrer.ID))

	// Replays are silent no-ops
	require.NoError(t, OnAgentListed(referred.ID))
	assert.Equal(t, int64(800), pointsBalance(t, referrer.ID))

	require.NoError(t, OnFirstPurchaseCompleted(referred.ID))
	assert.Equal(t, int64(1800), pointsBalance(t, referrer.ID))

	require.NoError(t, OnFirstPurchaseCompleted(referred.ID))
	require.NoError(t, OnFirstPurchaseCompleted(referred.ID))
	assert.Equal(t, int64(1800), pointsBalance(t, referrer.ID))

	var referral models.UserReferral
	require.NoError(t, config.DB.Where("referred_user_id = ?", referred.ID).First(&referral).Error)
	assert.True(t, referral.SignupBonus)
	assert.True(t, referral.AgentListBonus)
	assert.True(t, referral.PurchaseBonus)
}

func TestReferralStagesIgnoreUnreferredUsers(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "unreferred")

	require.NoError(t, OnAgentListed(user.ID))
	require.NoError(t, OnFirstPurchaseCompleted(user.ID))

	var count int64
	require.NoError(t, config.DB.Model(&models.PointsHistory{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
