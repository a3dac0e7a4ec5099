package service

import (
	"Tianji/models"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletDeduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)

	resp, err := e.Wallet.Deduct(ctx, userID, "star_chart", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), resp.RemainingBalance)
	assert.NotEmpty(t, resp.TransactionSn)
	assert.Equal(t, int64(70), e.balance(t, userID))

	// 扣到刚好为零是合法的
	resp, err = e.Wallet.Deduct(ctx, userID, "tarot_reading", 70)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.RemainingBalance)

	// 余额不足整笔拒绝，不做部分扣减
	_, err = e.Wallet.Deduct(ctx, userID, "star_chart", 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(0), e.balance(t, userID))
	assert.Equal(t, int64(2), e.txCount(t, userID, models.TxTypeDeduct))
}

func TestWalletDeductInvalidParam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)

	_, err := e.Wallet.Deduct(ctx, userID, "", 10)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Wallet.Deduct(ctx, userID, "star_chart", 0)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Wallet.Deduct(ctx, userID, "star_chart", -5)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Wallet.Deduct(ctx, uint64(99999), "star_chart", 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestWalletGetBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 50)

	resp, err := e.Wallet.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.Balance)
	assert.Equal(t, int64(50), resp.Total)
	assert.Equal(t, models.TierGuest, resp.Tier)

	// 未过期的赠币桶计入总额
	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"daily_coins_grant":      20,
		"daily_grant_expires_at": future,
	}).Error)

	resp, err = e.Wallet.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), resp.DailyGrant)
	assert.Equal(t, int64(70), resp.Total)

	// 过期的赠币桶展示为 0
	past := time.Now().Add(-time.Hour)
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", userID).
		Update("daily_grant_expires_at", past).Error)

	resp, err = e.Wallet.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.DailyGrant)
	assert.Equal(t, int64(50), resp.Total)

	_, err = e.Wallet.GetBalance(ctx, uint64(99999))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestWalletRegistrationBonus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	require.NoError(t, e.Wallet.GrantRegistrationBonus(ctx, userID))
	assert.Equal(t, int64(300), e.balance(t, userID))

	// 重复调用不二次发放
	require.NoError(t, e.Wallet.GrantRegistrationBonus(ctx, userID))
	assert.Equal(t, int64(300), e.balance(t, userID))
	assert.Equal(t, int64(1), e.txCount(t, userID, models.TxTypeRegistrationBonus))
}

func TestWalletRefund(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)
	adminID := e.createAdmin(t)

	deduct, err := e.Wallet.Deduct(ctx, userID, "star_chart", 40)
	require.NoError(t, err)

	refund, err := e.Wallet.Refund(ctx, adminID, deduct.TransactionSn, "生成失败")
	require.NoError(t, err)
	assert.Equal(t, int64(100), refund.NewBalance)
	assert.False(t, refund.Replayed)

	// 同一单重复退款只返回当前余额
	refund, err = e.Wallet.Refund(ctx, adminID, deduct.TransactionSn, "生成失败")
	require.NoError(t, err)
	assert.True(t, refund.Replayed)
	assert.Equal(t, int64(100), refund.NewBalance)
	assert.Equal(t, int64(1), e.txCount(t, userID, models.TxTypeRefund))
}

// 退款必须由管理员发起，用户自己拿扣费单号退不回来
func TestWalletRefundRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)

	deduct, err := e.Wallet.Deduct(ctx, userID, "star_chart", 40)
	require.NoError(t, err)

	// 扣费拿到服务后再自助退款，等于白嫖付费功能
	_, err = e.Wallet.Refund(ctx, userID, deduct.TransactionSn, "我觉得没生成好")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, int64(60), e.balance(t, userID))
	assert.Equal(t, int64(0), e.txCount(t, userID, models.TxTypeRefund))
}

func TestWalletRefundValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)
	adminID := e.createAdmin(t)

	_, err := e.Wallet.Refund(ctx, adminID, "", "x")
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Wallet.Refund(ctx, adminID, "NO-SUCH-SN", "x")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// 只有扣费流水可退，入账类流水不行
	_, err = e.Wallet.Refund(ctx, adminID, fmt.Sprintf("SEED-%d", userID), "x")
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestWalletListTransactions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 1000)

	for i := 0; i < 5; i++ {
		_, err := e.Wallet.Deduct(ctx, userID, "tarot_reading", 10)
		require.NoError(t, err)
	}
	require.NoError(t, e.Wallet.GrantRegistrationBonus(ctx, userID))

	resp, err := e.Wallet.ListTransactions(ctx, userID, "", 0, 3)
	require.NoError(t, err)
	assert.Len(t, resp.Records, 3)
	assert.True(t, resp.HasMore)
	assert.Greater(t, resp.NextCursor, int64(0))

	// 游标翻页不重不漏
	page2, err := e.Wallet.ListTransactions(ctx, userID, "", resp.NextCursor, 10)
	require.NoError(t, err)
	assert.Len(t, page2.Records, 4) // 剩余 2 笔扣费 + 注册奖励 + 期初
	assert.False(t, page2.HasMore)

	// 收支筛选
	income, err := e.Wallet.ListTransactions(ctx, userID, "income", 0, 10)
	require.NoError(t, err)
	for _, r := range income.Records {
		assert.Equal(t, "INCOME", r.OrderType)
	}
	expense, err := e.Wallet.ListTransactions(ctx, userID, "expense", 0, 10)
	require.NoError(t, err)
	assert.Len(t, expense.Records, 5)
}

func TestWalletExpireGrants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"daily_coins_grant":         30,
		"daily_grant_expires_at":    past,
		"activity_coins_grant":      50,
		"activity_grant_expires_at": future,
	}).Error)
	// 赠币入账流水，保证对账基线
	require.NoError(t, e.db.Create(&models.Transaction{
		UserID: userID, TransactionSn: "G-DAILY", Type: models.TxTypeGrant,
		CoinsAmount: 30, Status: models.TxStatusCompleted,
	}).Error)
	require.NoError(t, e.db.Create(&models.Transaction{
		UserID: userID, TransactionSn: "G-ACT", Type: models.TxTypeGrant,
		CoinsAmount: 50, Status: models.TxStatusCompleted,
	}).Error)

	cleaned, err := e.Wallet.ExpireGrants(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	user, err := e.UserDAO.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.DailyCoinsGrant)   // 过期桶清零
	assert.Equal(t, int64(50), user.ActivityCoinsGrant) // 未过期桶不动

	ok, diff, err := e.Wallet.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok, "清理后对账应闭合，差额 %d", diff)
}

// 对账不变量：任意一串操作后，余额合计 = 已完成流水合计
func TestWalletReconcile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 200)
	adminID := e.createAdmin(t)

	require.NoError(t, e.Wallet.GrantRegistrationBonus(ctx, userID))
	deduct, err := e.Wallet.Deduct(ctx, userID, "star_chart", 80)
	require.NoError(t, err)
	_, err = e.Wallet.Refund(ctx, adminID, deduct.TransactionSn, "失败补偿")
	require.NoError(t, err)
	_, err = e.Wallet.Deduct(ctx, userID, "tarot_reading", 25)
	require.NoError(t, err)

	ok, diff, err := e.Wallet.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok, "对账差额 %d", diff)
	assert.Equal(t, int64(200+300-25), e.balance(t, userID))
}
