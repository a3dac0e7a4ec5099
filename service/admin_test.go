package service

import (
	"Tianji/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAdjust(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	adminID := e.createAdmin(t)
	userID := e.createUser(t, 100)

	resp, err := e.Admin.Adjust(ctx, adminID, userID, 50, "客诉补偿", "")
	require.NoError(t, err)
	assert.Equal(t, int64(150), resp.NewBalance)
	assert.NotEmpty(t, resp.TransactionSn)

	// 调账是唯一允许把主余额打负的路径
	resp, err = e.Admin.Adjust(ctx, adminID, userID, -500, "违规回收", "")
	require.NoError(t, err)
	assert.Equal(t, int64(-350), resp.NewBalance)
	assert.Equal(t, int64(-350), e.balance(t, userID))

	// 调账流水带操作人
	row, err := e.TransactionDAO.GetBySn(ctx, resp.TransactionSn)
	require.NoError(t, err)
	assert.Equal(t, adminID, row.OperatorID)
	assert.Equal(t, models.TxTypeAdminAdjust, row.Type)

	ok, diff, err := e.Wallet.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok, "调账后对账差额 %d", diff)
}

func TestAdminAdjustGrantBucket(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	adminID := e.createAdmin(t)
	userID := e.createUser(t, 0)

	resp, err := e.Admin.Adjust(ctx, adminID, userID, 30, "活动发币", models.BucketActivityGrant)
	require.NoError(t, err)
	assert.Equal(t, int64(30), resp.NewBalance)

	user, err := e.UserDAO.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), user.ActivityCoinsGrant)
	assert.Equal(t, int64(0), user.TianjiCoinsBalance)

	// 赠币桶不允许调负
	_, err = e.Admin.Adjust(ctx, adminID, userID, -50, "回收", models.BucketActivityGrant)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestAdminAdjustPermission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, 100)
	otherID := e.createUser(t, 0)

	// 普通用户无权调账
	_, err := e.Admin.Adjust(ctx, userID, otherID, 100, "自肥", "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, int64(0), e.balance(t, otherID))

	// 不存在的操作人同样拒绝
	_, err = e.Admin.Adjust(ctx, uint64(99999), otherID, 100, "x", "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAdminAdjustValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	adminID := e.createAdmin(t)
	userID := e.createUser(t, 0)

	_, err := e.Admin.Adjust(ctx, adminID, userID, 0, "理由", "")
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Admin.Adjust(ctx, adminID, userID, 10, "", "")
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Admin.Adjust(ctx, adminID, userID, 10, "理由", "no_such_bucket")
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = e.Admin.Adjust(ctx, adminID, uint64(99999), 10, "理由", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
