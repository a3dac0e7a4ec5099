package service

import (
	"Tianji/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLedgerApply(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := e.UserDAO.GetForUpdate(tx, userID)
		require.NoError(t, err)

		// 零增量拒绝
		_, _, err = e.Ledger.Apply(tx, user, models.BucketGeneral, 0, LedgerMeta{Type: models.TxTypeGrant})
		assert.ErrorIs(t, err, ErrInvalidParam)

		// 缺类型拒绝
		_, _, err = e.Ledger.Apply(tx, user, models.BucketGeneral, 10, LedgerMeta{})
		assert.ErrorIs(t, err, ErrInvalidParam)

		// 未知桶拒绝
		_, _, err = e.Ledger.Apply(tx, user, "bonus", 10, LedgerMeta{Type: models.TxTypeGrant})
		assert.ErrorIs(t, err, ErrInvalidParam)

		// 非调账类型不允许打负
		_, _, err = e.Ledger.Apply(tx, user, models.BucketGeneral, -200, LedgerMeta{Type: models.TxTypeDeduct})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		// 正常入账：余额与内存快照同步更新
		newBalance, record, err := e.Ledger.Apply(tx, user, models.BucketGeneral, 30, LedgerMeta{
			Type:        models.TxTypeGrant,
			Description: "活动赠币",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(130), newBalance)
		assert.Equal(t, int64(130), user.TianjiCoinsBalance)
		assert.Equal(t, models.TxStatusCompleted, record.Status)
		assert.NotEmpty(t, record.TransactionSn)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(130), e.balance(t, userID))
}

func TestLedgerGrantBuckets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 0)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := e.UserDAO.GetForUpdate(tx, userID)
		require.NoError(t, err)

		_, _, err = e.Ledger.Apply(tx, user, models.BucketDailyGrant, 20, LedgerMeta{Type: models.TxTypeGrant})
		require.NoError(t, err)
		_, _, err = e.Ledger.Apply(tx, user, models.BucketActivityGrant, 40, LedgerMeta{Type: models.TxTypeGrant})
		require.NoError(t, err)
		return nil
	})
	require.NoError(t, err)

	user, err := e.UserDAO.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.TianjiCoinsBalance)
	assert.Equal(t, int64(20), user.DailyCoinsGrant)
	assert.Equal(t, int64(40), user.ActivityCoinsGrant)

	ok, diff, err := e.Wallet.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok, "对账差额 %d", diff)
}
