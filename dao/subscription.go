package dao

import (
	"Tianji/models"
	"context"
	"time"

	"gorm.io/gorm"
)

type Subscription struct {
	Repo[models.Subscription]
}

func NewSubscription(db *gorm.DB) *Subscription {
	return &Subscription{
		Repo: NewRepo[models.Subscription](db),
	}
}

// GetActive 取用户当前生效的订阅
// 历史逻辑允许过多条 active 并存，这里按层级序取最高的一条做容错
func (s *Subscription) GetActive(ctx context.Context, userID uint64) (*models.Subscription, error) {
	return s.GetActiveTx(s.Db.WithContext(ctx), userID)
}

// GetActiveTx 事务内版本，订阅到期处理在事务里重算层级时用
func (s *Subscription) GetActiveTx(tx *gorm.DB, userID uint64) (*models.Subscription, error) {
	var subs []models.Subscription
	err := tx.
		Where("user_id = ? AND status = ?", userID, models.SubStatusActive).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var best *models.Subscription
	for i := range subs {
		sub := &subs[i]
		if sub.ExpiresAt != nil && sub.ExpiresAt.Before(now) {
			continue
		}
		if best == nil || models.TierRank(sub.Tier) > models.TierRank(best.Tier) {
			best = sub
		}
	}
	return best, nil
}

// ListActiveForUpdate 事务内锁定用户全部 active/pending 订阅行
func (s *Subscription) ListActiveForUpdate(tx *gorm.DB, userID uint64) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := ForUpdate(tx).
		Where("user_id = ? AND status IN ?", userID, []string{models.SubStatusActive, models.SubStatusPending}).
		Find(&subs).Error
	return subs, err
}

// ExpireDue 把已过期仍标记 active 的订阅置为 expired，返回受影响的用户
func (s *Subscription) ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var due []models.Subscription
	err := s.Db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.SubStatusActive, now).
		Limit(limit).Find(&due).Error
	return due, err
}
