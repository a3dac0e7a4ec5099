package service

import (
	"Tianji/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock 把签到服务的时钟钉在指定日期
func fixedClock(e *env, day time.Time) {
	e.Checkin.now = func() time.Time { return day }
}

func TestCheckinBasic(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	fixedClock(e, day)

	resp, err := e.Checkin.CheckIn(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.CoinsEarned) // guest 基础分
	assert.Equal(t, 1, resp.ConsecutiveDays)
	assert.Equal(t, models.TierGuest, resp.Tier)
	assert.Equal(t, int64(10), e.balance(t, userID))

	// 同日重复签到被拒绝
	_, err = e.Checkin.CheckIn(ctx, userID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Equal(t, int64(10), e.balance(t, userID))
	assert.Equal(t, int64(1), e.txCount(t, userID, models.TxTypeCheckinReward))
}

func TestCheckinStreak(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	// 连签 7 天：第 7 天起连签加成 +10
	var total int64
	for i := 0; i < 7; i++ {
		fixedClock(e, start.AddDate(0, 0, i))
		resp, err := e.Checkin.CheckIn(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, i+1, resp.ConsecutiveDays)
		total += resp.CoinsEarned
	}
	// 前 6 天各 10，第 7 天 20
	assert.Equal(t, int64(6*10+20), total)
	assert.Equal(t, total, e.balance(t, userID))

	// 断一天，连签重置
	fixedClock(e, start.AddDate(0, 0, 8))
	resp, err := e.Checkin.CheckIn(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ConsecutiveDays)
	assert.Equal(t, int64(10), resp.CoinsEarned)
}

// basic 档连签 5 天：15 * 5 = 75
func TestCheckinBasicTierFiveDays(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)
	e.subscribe(t, userID, models.TierBasic, 30)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		fixedClock(e, start.AddDate(0, 0, i))
		resp, err := e.Checkin.CheckIn(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(15), resp.CoinsEarned)
		assert.Equal(t, models.TierBasic, resp.Tier)
	}
	assert.Equal(t, int64(75), e.balance(t, userID))
}

func TestCheckinTierReward(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		tier   string
		reward int64
	}{
		{models.TierGuest, 10},
		{models.TierExplorer, 10},
		{models.TierBasic, 15},
		{models.TierPremium, 20},
		{models.TierVip, 30},
	}
	for _, tc := range cases {
		userID := e.createUser(t, 0)
		if tc.tier != models.TierGuest {
			e.subscribe(t, userID, tc.tier, 30)
		}
		fixedClock(e, time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local))
		resp, err := e.Checkin.CheckIn(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, tc.reward, resp.CoinsEarned, "tier %s", tc.tier)
	}
}

func TestCheckinStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	fixedClock(e, day)

	// 从未签到
	status, err := e.Checkin.GetStatus(ctx, userID)
	require.NoError(t, err)
	assert.False(t, status.CheckedInToday)
	assert.Equal(t, 0, status.ConsecutiveDays)
	assert.Equal(t, int64(10), status.NextReward)
	assert.Equal(t, int64(0), status.TotalDays)

	_, err = e.Checkin.CheckIn(ctx, userID)
	require.NoError(t, err)

	status, err = e.Checkin.GetStatus(ctx, userID)
	require.NoError(t, err)
	assert.True(t, status.CheckedInToday)
	assert.Equal(t, 1, status.ConsecutiveDays)
	assert.Equal(t, int64(1), status.TotalDays)

	// 次日：昨天的连签还算数
	fixedClock(e, day.AddDate(0, 0, 1))
	status, err = e.Checkin.GetStatus(ctx, userID)
	require.NoError(t, err)
	assert.False(t, status.CheckedInToday)
	assert.Equal(t, 1, status.ConsecutiveDays)

	// 隔两天：断签重置
	fixedClock(e, day.AddDate(0, 0, 3))
	status, err = e.Checkin.GetStatus(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, status.ConsecutiveDays)
	assert.Equal(t, int64(10), status.NextReward)

	_, err = e.Checkin.GetStatus(ctx, uint64(99999))
	assert.ErrorIs(t, err, ErrUserNotFound)
}
