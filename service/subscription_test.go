package service

import (
	"Tianji/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionEffectiveTier(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	tier, err := e.Subscription.EffectiveTier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierGuest, tier)

	e.subscribe(t, userID, models.TierPremium, 30)
	tier, err = e.Subscription.EffectiveTier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, tier)

	// 历史漂移留下多条 active 时取最高档
	expires := time.Now().AddDate(0, 0, 10)
	require.NoError(t, e.db.Create(&models.Subscription{
		UserID: userID, Tier: models.TierBasic, Status: models.SubStatusActive,
		StartedAt: time.Now(), ExpiresAt: &expires,
	}).Error)
	tier, err = e.Subscription.EffectiveTier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, tier)

	// 已过期的 active 记录不算数
	past := time.Now().Add(-time.Hour)
	require.NoError(t, e.db.Model(&models.Subscription{}).Where("user_id = ?", userID).
		Update("expires_at", past).Error)
	tier, err = e.Subscription.EffectiveTier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierGuest, tier)
}

func TestSubscriptionUpgradeTier(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	resp, err := e.Subscription.UpgradeTier(ctx, userID, models.TierBasic, 30, false)
	require.NoError(t, err)
	assert.Equal(t, models.TierGuest, resp.OldTier)
	assert.Equal(t, models.TierBasic, resp.NewTier)

	tier, err := e.Subscription.EffectiveTier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, tier)

	// 派生缓存同事务回写
	user, err := e.UserDAO.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, user.Tier)
	assert.Equal(t, models.SubStatusActive, user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionEndAt)

	// 再升一档：旧订阅置 cancelled，只留一条 active
	resp, err = e.Subscription.UpgradeTier(ctx, userID, models.TierVip, 30, true)
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, resp.OldTier)

	var activeCount int64
	require.NoError(t, e.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubStatusActive).
		Count(&activeCount).Error)
	assert.Equal(t, int64(1), activeCount)
}

// 升级触发签到补发
func TestSubscriptionUpgradeTriggersBackpay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	e.seedCheckins(t, userID, models.TierGuest, time.Now().AddDate(0, 0, -5), 5)

	resp, err := e.Subscription.UpgradeTier(ctx, userID, models.TierBasic, 30, false)
	require.NoError(t, err)
	require.NotNil(t, resp.Bonus)
	assert.Equal(t, 5, resp.Bonus.GrantedDates)
	assert.Equal(t, int64(25), resp.Bonus.TotalBonus)
	// 签到实发 50 + 补发 25
	assert.Equal(t, int64(75), e.balance(t, userID))

	// 降级不补发
	resp, err = e.Subscription.UpgradeTier(ctx, userID, models.TierExplorer, 30, false)
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, resp.OldTier)
	assert.Nil(t, resp.Bonus)
	assert.Equal(t, int64(75), e.balance(t, userID))
}

func TestSubscriptionUpgradeValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	_, err := e.Subscription.UpgradeTier(ctx, userID, "platinum", 30, false)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Subscription.UpgradeTier(ctx, userID, models.TierBasic, 0, false)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Subscription.UpgradeTier(ctx, uint64(99999), models.TierBasic, 30, false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubscriptionExpire(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	_, err := e.Subscription.UpgradeTier(ctx, userID, models.TierPremium, 30, false)
	require.NoError(t, err)

	// 把到期时间拨到过去
	past := time.Now().Add(-time.Hour)
	require.NoError(t, e.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubStatusActive).
		Update("expires_at", past).Error)

	expired, err := e.Subscription.ExpireSubscriptions(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	tier, err := e.Subscription.EffectiveTier(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierGuest, tier)

	user, err := e.UserDAO.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierGuest, user.Tier)
	assert.Equal(t, models.SubStatusExpired, user.SubscriptionStatus)

	// 没有到期项时任务空转
	expired, err = e.Subscription.ExpireSubscriptions(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}
