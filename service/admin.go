package service

import (
	"Tianji/dao"
	"Tianji/models"
	"Tianji/pkg/log"
	"Tianji/types"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminService 管理员调账网关
// 唯一允许绕过余额不足保护的变更路径，负余额是有意放行的管理手段
type AdminService struct {
	DB      *gorm.DB
	Redis   *redis.Client
	UserDAO *dao.User
	Ledger  *LedgerService
}

var _ IAdminService = (*AdminService)(nil)

type IAdminService interface {
	Adjust(ctx context.Context, operatorID uint64, targetUserID uint64, amount int64, reason string, bucket string) (*types.AdminAdjustResp, error)
}

// Adjust 直接调整目标用户余额，operator 权限每次都重新查库验证
func (a *AdminService) Adjust(ctx context.Context, operatorID uint64, targetUserID uint64, amount int64, reason string, bucket string) (*types.AdminAdjustResp, error) {
	if amount == 0 || reason == "" {
		return nil, ErrInvalidParam
	}
	if bucket == "" {
		bucket = models.BucketGeneral
	}

	isAdmin, err := a.UserDAO.IsAdmin(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrPermissionDenied
	}

	var resp types.AdminAdjustResp
	err = a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := a.UserDAO.GetForUpdate(tx, targetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var oldBalance int64
		switch bucket {
		case models.BucketGeneral:
			oldBalance = user.TianjiCoinsBalance
		case models.BucketDailyGrant:
			oldBalance = user.DailyCoinsGrant
		case models.BucketActivityGrant:
			oldBalance = user.ActivityCoinsGrant
		default:
			return ErrInvalidParam
		}

		newBalance, record, err := a.Ledger.Apply(tx, user, bucket, amount, LedgerMeta{
			Type:        models.TxTypeAdminAdjust,
			OperatorID:  operatorID,
			Description: fmt.Sprintf("管理员调账: %d -> %d (%s)", oldBalance, oldBalance+amount, reason),
		})
		if err != nil {
			return err
		}

		resp.NewBalance = newBalance
		resp.TransactionSn = record.TransactionSn
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	log.L.Info("admin adjust",
		zap.Uint64("operator_id", operatorID),
		zap.Uint64("target_user_id", targetUserID),
		zap.Int64("amount", amount),
		zap.String("bucket", bucket))

	invalidateBalanceCache(ctx, a.Redis, targetUserID)
	return &resp, nil
}
