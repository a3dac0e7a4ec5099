package service

import (
	"Tianji/config"
	"Tianji/dao"
	"Tianji/models"
	"Tianji/pkg/log"
	"Tianji/pkg/metrics"
	"Tianji/types"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const balanceCacheTTL = 5 * time.Minute

func balanceCacheKey(userID uint64) string {
	return fmt.Sprintf("tianji:balance:%d", userID)
}

// WalletService 钱包服务：扣费、查询、注册奖励、退款、赠币过期清理
// 所有付费功能必须经由 Deduct 扣费，任何地方不允许直接改余额字段
type WalletService struct {
	Config         *config.Config
	DB             *gorm.DB
	Redis          *redis.Client
	UserDAO        *dao.User
	TransactionDAO *dao.Transaction
	Ledger         *LedgerService
	Subscription   *SubscriptionService
}

var _ IWalletService = (*WalletService)(nil)

type IWalletService interface {
	Deduct(ctx context.Context, userID uint64, itemType string, price int64) (*types.DeductResp, error)
	GetBalance(ctx context.Context, userID uint64) (*types.BalanceResp, error)
	GrantRegistrationBonus(ctx context.Context, userID uint64) error
	Refund(ctx context.Context, operatorID uint64, sourceSn string, reason string) (*types.RefundResp, error)
	ListTransactions(ctx context.Context, userID uint64, action string, cursor int64, limit int) (*types.ListTransactionsResp, error)
	ExpireGrants(ctx context.Context, now time.Time, limit int) (int, error)
	Reconcile(ctx context.Context, userID uint64) (bool, int64, error)
}

// Deduct 功能付费扣币：锁行读余额，不足则整笔回滚
func (w *WalletService) Deduct(ctx context.Context, userID uint64, itemType string, price int64) (*types.DeductResp, error) {
	if price <= 0 || itemType == "" {
		return nil, ErrInvalidParam
	}

	var resp types.DeductResp
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := w.UserDAO.GetForUpdate(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("锁定用户行失败: %w", err)
		}

		if user.TianjiCoinsBalance < price {
			metrics.InsufficientFundsTotal.WithLabelValues(itemType).Inc()
			return ErrInsufficientFunds
		}

		newBalance, record, err := w.Ledger.Apply(tx, user, models.BucketGeneral, -price, LedgerMeta{
			Type:        models.TxTypeDeduct,
			ItemType:    itemType,
			Description: fmt.Sprintf("功能消费: %s", itemType),
		})
		if err != nil {
			return err
		}

		resp.RemainingBalance = newBalance
		resp.TransactionSn = record.TransactionSn
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	w.invalidateBalance(ctx, userID)
	return &resp, nil
}

// GetBalance 余额查询，旁路缓存 5 分钟，写路径负责失效
func (w *WalletService) GetBalance(ctx context.Context, userID uint64) (*types.BalanceResp, error) {
	if w.Redis != nil {
		if raw, err := w.Redis.Get(ctx, balanceCacheKey(userID)).Result(); err == nil {
			var cached types.BalanceResp
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	user, err := w.UserDAO.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tier, err := w.Subscription.EffectiveTier(ctx, userID)
	if err != nil {
		// 层级查询失败不阻塞余额返回，按档案缓存值兜底
		log.L.Warn("effective tier lookup failed", zap.Uint64("user_id", userID), zap.Error(err))
		tier = user.Tier
	}

	resp := buildBalanceResp(user, tier, time.Now())

	if w.Redis != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := w.Redis.Set(ctx, balanceCacheKey(userID), raw, balanceCacheTTL).Err(); err != nil {
				log.L.Warn("balance cache set failed", zap.Error(err))
			}
		}
	}
	return resp, nil
}

// buildBalanceResp 过期的赠币桶在展示口径里按 0 计，实际清零由定时任务完成
func buildBalanceResp(user *models.User, tier string, now time.Time) *types.BalanceResp {
	resp := &types.BalanceResp{
		Balance: user.TianjiCoinsBalance,
		Tier:    tier,
	}
	if user.DailyCoinsGrant > 0 && (user.DailyGrantExpiresAt == nil || user.DailyGrantExpiresAt.After(now)) {
		resp.DailyGrant = user.DailyCoinsGrant
		if user.DailyGrantExpiresAt != nil {
			resp.DailyExpiresAt = user.DailyGrantExpiresAt.Format("2006-01-02 15:04:05")
		}
	}
	if user.ActivityCoinsGrant > 0 && (user.ActivityGrantExpiresAt == nil || user.ActivityGrantExpiresAt.After(now)) {
		resp.ActivityGrant = user.ActivityCoinsGrant
		if user.ActivityGrantExpiresAt != nil {
			resp.ActivityExpiresAt = user.ActivityGrantExpiresAt.Format("2006-01-02 15:04:05")
		}
	}
	resp.Total = resp.Balance + resp.DailyGrant + resp.ActivityGrant
	return resp
}

// GrantRegistrationBonus 注册奖励，一个用户只发一次
func (w *WalletService) GrantRegistrationBonus(ctx context.Context, userID uint64) error {
	bonus := w.Config.Economy.RegistrationBonus
	if bonus <= 0 {
		return nil
	}

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := w.UserDAO.GetForUpdate(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		exists, err := w.TransactionDAO.ExistsByTypeSource(tx, userID, models.TxTypeRegistrationBonus, "")
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		_, _, err = w.Ledger.Apply(tx, user, models.BucketGeneral, bonus, LedgerMeta{
			Type:        models.TxTypeRegistrationBonus,
			Description: "注册奖励",
		})
		return err
	})
	if err != nil {
		return translateTxError(err)
	}

	w.invalidateBalance(ctx, userID)
	return nil
}

// Refund 付费功能失败后的补偿返还：由管理员在确认功能确实失败后发起，
// 不开放用户自助调用，否则扣费-退款循环会把付费墙掏空。
// 退款对象由原扣费单号定位，同一单只退一次
func (w *WalletService) Refund(ctx context.Context, operatorID uint64, sourceSn string, reason string) (*types.RefundResp, error) {
	if sourceSn == "" {
		return nil, ErrInvalidParam
	}

	isAdmin, err := w.UserDAO.IsAdmin(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrPermissionDenied
	}

	var targetID uint64
	var resp types.RefundResp
	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := w.TransactionDAO.GetBySnTx(tx, sourceSn)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if source.Type != models.TxTypeDeduct || source.CoinsAmount >= 0 {
			return ErrInvalidParam
		}
		targetID = source.UserID

		user, err := w.UserDAO.GetForUpdate(tx, source.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		exists, err := w.TransactionDAO.ExistsByTypeSource(tx, source.UserID, models.TxTypeRefund, sourceSn)
		if err != nil {
			return err
		}
		if exists {
			// 重放：返回当前余额，不重复入账
			resp.NewBalance = user.TianjiCoinsBalance
			resp.Replayed = true
			return nil
		}

		newBalance, record, err := w.Ledger.Apply(tx, user, models.BucketGeneral, -source.CoinsAmount, LedgerMeta{
			Type:        models.TxTypeRefund,
			ItemType:    source.ItemType,
			SourceSn:    sourceSn,
			OperatorID:  operatorID,
			Description: fmt.Sprintf("退款返还: %s", reason),
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

	w.invalidateBalance(ctx, targetID)
	return &resp, nil
}

// ListTransactions 流水分页，游标按 ID 倒序
func (w *WalletService) ListTransactions(ctx context.Context, userID uint64, action string, cursor int64, limit int) (*types.ListTransactionsResp, error) {
	if limit <= 0 {
		limit = 10
	}

	records, err := w.TransactionDAO.ListRecords(ctx, userID, action, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}

	resp := &types.ListTransactionsResp{
		Records: make([]types.TransactionRecord, 0),
		HasMore: false,
	}

	if len(records) > limit {
		resp.HasMore = true
		records = records[:limit]
		resp.NextCursor = int64(records[len(records)-1].ID)
	}

	for _, r := range records {
		orderType := "INCOME"
		if r.CoinsAmount < 0 {
			orderType = "EXPENSE"
		}
		resp.Records = append(resp.Records, types.TransactionRecord{
			ID:          r.ID,
			Sn:          r.TransactionSn,
			Type:        r.Type,
			CoinsAmount: r.CoinsAmount,
			ItemType:    r.ItemType,
			Description: r.Description,
			OrderType:   orderType,
			CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return resp, nil
}

// ExpireGrants 清零已过期的赠币桶，每个桶落一条 grant_expire 扣减流水保证对账闭合
// 定时任务调用，按批处理
func (w *WalletService) ExpireGrants(ctx context.Context, now time.Time, limit int) (int, error) {
	users, err := w.UserDAO.ListExpiredGrants(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, candidate := range users {
		userID := candidate.ID
		err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			user, err := w.UserDAO.GetForUpdate(tx, userID)
			if err != nil {
				return err
			}

			// 锁后复核，避免和并发消费打架
			if user.DailyCoinsGrant > 0 && user.DailyGrantExpiresAt != nil && user.DailyGrantExpiresAt.Before(now) {
				if _, _, err := w.Ledger.Apply(tx, user, models.BucketDailyGrant, -user.DailyCoinsGrant, LedgerMeta{
					Type:        models.TxTypeDeduct,
					ItemType:    "grant_expire",
					Description: "每日赠币过期清零",
				}); err != nil {
					return err
				}
			}
			if user.ActivityCoinsGrant > 0 && user.ActivityGrantExpiresAt != nil && user.ActivityGrantExpiresAt.Before(now) {
				if _, _, err := w.Ledger.Apply(tx, user, models.BucketActivityGrant, -user.ActivityCoinsGrant, LedgerMeta{
					Type:        models.TxTypeDeduct,
					ItemType:    "grant_expire",
					Description: "活动赠币过期清零",
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.L.Error("expire grants failed", zap.Uint64("user_id", userID), zap.Error(err))
			continue
		}
		cleaned++
		w.invalidateBalance(ctx, userID)
	}
	return cleaned, nil
}

// Reconcile 对账：当前主余额 + 赠币桶 是否等于已完成流水合计
// 运维排查用，不在任何请求路径上
func (w *WalletService) Reconcile(ctx context.Context, userID uint64) (bool, int64, error) {
	user, err := w.UserDAO.GetByID(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	sum, err := w.TransactionDAO.SumCompletedCoins(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	current := user.TianjiCoinsBalance + user.DailyCoinsGrant + user.ActivityCoinsGrant
	return current == sum, current - sum, nil
}

func (w *WalletService) invalidateBalance(ctx context.Context, userID uint64) {
	invalidateBalanceCache(ctx, w.Redis, userID)
}

// invalidateBalanceCache 余额旁路缓存失效，所有动余额或层级的写路径提交后必须调用
func invalidateBalanceCache(ctx context.Context, rdb *redis.Client, userID uint64) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, balanceCacheKey(userID)).Err(); err != nil {
		log.L.Warn("balance cache del failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
