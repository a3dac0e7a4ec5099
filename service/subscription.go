package service

import (
	"Tianji/dao"
	"Tianji/models"
	"Tianji/pkg/log"
	"Tianji/types"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubscriptionService 订阅生命周期
// subscriptions 表是层级的权威数据源，profiles.tier 只是同事务维护的派生缓存
type SubscriptionService struct {
	DB              *gorm.DB
	Redis           *redis.Client
	UserDAO         *dao.User
	SubscriptionDAO *dao.Subscription
	Upgrade         *UpgradeService
}

var _ ISubscriptionService = (*SubscriptionService)(nil)

type ISubscriptionService interface {
	EffectiveTier(ctx context.Context, userID uint64) (string, error)
	UpgradeTier(ctx context.Context, userID uint64, newTier string, durationDays int, autoRenew bool) (*types.UpgradeTierResp, error)
	ExpireSubscriptions(ctx context.Context, now time.Time, limit int) (int, error)
}

// EffectiveTier 当前生效层级：有未过期 active 订阅取其层级，否则 guest
func (s *SubscriptionService) EffectiveTier(ctx context.Context, userID uint64) (string, error) {
	sub, err := s.SubscriptionDAO.GetActive(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return models.TierGuest, nil
	}
	return sub.Tier, nil
}

// UpgradeTier 变更订阅层级：老的 active/pending 订阅统一置 cancelled，
// 新订阅落库并回写派生缓存；若是升级，事务提交后触发签到奖励补发
func (s *SubscriptionService) UpgradeTier(ctx context.Context, userID uint64, newTier string, durationDays int, autoRenew bool) (*types.UpgradeTierResp, error) {
	if !models.IsValidTier(newTier) || durationDays <= 0 {
		return nil, ErrInvalidParam
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, durationDays)
	oldTier := models.TierGuest

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.UserDAO.GetForUpdate(tx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		current, err := s.SubscriptionDAO.ListActiveForUpdate(tx, userID)
		if err != nil {
			return err
		}
		for _, sub := range current {
			// 历史漂移可能留下多条，全部按层级序取最高作为旧层级
			if (sub.ExpiresAt == nil || sub.ExpiresAt.After(now)) &&
				sub.Status == models.SubStatusActive &&
				models.TierRank(sub.Tier) > models.TierRank(oldTier) {
				oldTier = sub.Tier
			}
			if err := tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).
				Update("status", models.SubStatusCancelled).Error; err != nil {
				return err
			}
		}

		newSub := &models.Subscription{
			UserID:    userID,
			Tier:      newTier,
			Status:    models.SubStatusActive,
			StartedAt: now,
			ExpiresAt: &expiresAt,
			AutoRenew: autoRenew,
		}
		if err := tx.Create(newSub).Error; err != nil {
			return err
		}

		return s.UserDAO.UpdateTier(tx, userID, newTier, models.SubStatusActive, &expiresAt)
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	// 余额缓存里带着层级快照，订阅一变必须失效
	invalidateBalanceCache(ctx, s.Redis, userID)

	resp := &types.UpgradeTierResp{OldTier: oldTier, NewTier: newTier}

	// 升级才有补发；补发失败不回滚订阅，记日志后由重试或人工补偿兜底
	if models.TierRank(newTier) > models.TierRank(oldTier) {
		bonus, err := s.Upgrade.Grant(ctx, userID, oldTier, newTier, now)
		if err != nil {
			log.L.Error("upgrade bonus grant failed",
				zap.Uint64("user_id", userID),
				zap.String("new_tier", newTier),
				zap.Error(err))
		} else {
			resp.Bonus = bonus
		}
	}
	return resp, nil
}

// ExpireSubscriptions 把到期的 active 订阅置为 expired 并刷新派生缓存，定时任务调用
func (s *SubscriptionService) ExpireSubscriptions(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.SubscriptionDAO.ExpireDue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range due {
		subID, userID := sub.ID, sub.UserID
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Subscription{}).Where("id = ? AND status = ?", subID, models.SubStatusActive).
				Update("status", models.SubStatusExpired).Error; err != nil {
				return err
			}
			// 过期后可能还有别的生效订阅（历史漂移），重算派生层级
			remaining, err := s.SubscriptionDAO.GetActiveTx(tx, userID)
			if err != nil {
				return err
			}
			if remaining != nil {
				return s.UserDAO.UpdateTier(tx, userID, remaining.Tier, models.SubStatusActive, remaining.ExpiresAt)
			}
			return s.UserDAO.UpdateTier(tx, userID, models.TierGuest, models.SubStatusExpired, nil)
		})
		if err != nil {
			log.L.Error("expire subscription failed", zap.Uint64("sub_id", subID), zap.Error(err))
			continue
		}
		invalidateBalanceCache(ctx, s.Redis, userID)
		expired++
	}
	return expired, nil
}
