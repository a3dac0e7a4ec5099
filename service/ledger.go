package service

import (
	"Tianji/dao"
	"Tianji/models"
	"Tianji/pkg/metrics"
	"Tianji/pkg/utils"
	"fmt"

	"gorm.io/gorm"
)

// LedgerService 账本写入器：余额变更与流水追加必须在同一个数据库事务里落地
// 前置条件：调用方已经用 GetForUpdate 锁住目标用户行，并把锁后读出的 user 传进来
type LedgerService struct {
	UserDAO        *dao.User
	TransactionDAO *dao.Transaction
}

var _ ILedgerService = (*LedgerService)(nil)

type ILedgerService interface {
	Apply(tx *gorm.DB, user *models.User, bucket string, delta int64, meta LedgerMeta) (int64, *models.Transaction, error)
	AdjustBucket(tx *gorm.DB, user *models.User, bucket string, delta int64, allowNegative bool) (int64, error)
}

// LedgerMeta 一笔流水的业务元信息
type LedgerMeta struct {
	Type        string // models.TxType*
	ItemType    string
	PackType    string
	Description string
	SourceSn    string // 幂等关联单号
	OperatorID  uint64 // 仅管理员操作
	Amount      int64  // 法币金额（分），纯币流水为 0
}

// Apply 应用一次余额增量并追加一条流水，二者同事务原子落地
// 每次调用恰好写一条流水、只动一个用户，绝不做跨用户转账
func (l *LedgerService) Apply(tx *gorm.DB, user *models.User, bucket string, delta int64, meta LedgerMeta) (int64, *models.Transaction, error) {
	if delta == 0 || meta.Type == "" {
		return 0, nil, ErrInvalidParam
	}

	// 只有管理员调账允许把 general 打到负数，用户侧路径一律不放行
	allowNegative := meta.Type == models.TxTypeAdminAdjust && bucket == models.BucketGeneral

	newBalance, err := l.AdjustBucket(tx, user, bucket, delta, allowNegative)
	if err != nil {
		return 0, nil, err
	}

	record := &models.Transaction{
		UserID:        user.ID,
		TransactionSn: utils.GenerateTransactionSn(),
		Type:          meta.Type,
		Amount:        meta.Amount,
		CoinsAmount:   delta,
		ItemType:      meta.ItemType,
		PackType:      meta.PackType,
		Description:   meta.Description,
		SourceSn:      meta.SourceSn,
		OperatorID:    meta.OperatorID,
		Status:        models.TxStatusCompleted,
	}
	if err := l.TransactionDAO.CreateTx(tx, record); err != nil {
		return 0, nil, fmt.Errorf("追加流水失败: %w", err)
	}

	metrics.LedgerWritesTotal.WithLabelValues(meta.Type, bucket).Inc()
	return newBalance, record, nil
}

// AdjustBucket 只变更余额桶不写流水，返回变更后的桶余额
// 购买订单结算走这里：订单行本身就是流水行，再追加一条会把对账算重
func (l *LedgerService) AdjustBucket(tx *gorm.DB, user *models.User, bucket string, delta int64, allowNegative bool) (int64, error) {
	var column string
	var current int64

	switch bucket {
	case models.BucketGeneral:
		column = "tianji_coins_balance"
		current = user.TianjiCoinsBalance
	case models.BucketDailyGrant:
		column = "daily_coins_grant"
		current = user.DailyCoinsGrant
	case models.BucketActivityGrant:
		column = "activity_coins_grant"
		current = user.ActivityCoinsGrant
	default:
		return 0, ErrInvalidParam
	}

	newBalance := current + delta
	if newBalance < 0 && !allowNegative {
		return 0, ErrInsufficientFunds
	}

	if err := l.UserDAO.UpdateBalances(tx, user.ID, map[string]interface{}{column: newBalance}); err != nil {
		return 0, fmt.Errorf("更新余额失败: %w", err)
	}

	// 同步内存快照，同一事务里的后续计算以它为准
	switch bucket {
	case models.BucketGeneral:
		user.TianjiCoinsBalance = newBalance
	case models.BucketDailyGrant:
		user.DailyCoinsGrant = newBalance
	case models.BucketActivityGrant:
		user.ActivityCoinsGrant = newBalance
	}

	return newBalance, nil
}
