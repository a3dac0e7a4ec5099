package dao

import (
	"Tianji/models"
	"context"

	"gorm.io/gorm"
)

type Completeness struct {
	Repo[models.CompletenessReward]
}

func NewCompleteness(db *gorm.DB) *Completeness {
	return &Completeness{
		Repo: NewRepo[models.CompletenessReward](db),
	}
}

// ExistsField 某字段奖励是否已发放（快路径，唯一索引才是最终保证）
func (c *Completeness) ExistsField(tx *gorm.DB, userID uint64, field string) (bool, error) {
	var count int64
	err := tx.Model(&models.CompletenessReward{}).
		Where("user_id = ? AND reward_type = ? AND reward_field = ?", userID, models.CompletenessRewardField, field).
		Count(&count).Error
	return count > 0, err
}

// ExistsThreshold 某阈值奖励是否已发放
func (c *Completeness) ExistsThreshold(tx *gorm.DB, userID uint64, threshold int) (bool, error) {
	var count int64
	err := tx.Model(&models.CompletenessReward{}).
		Where("user_id = ? AND reward_type = ? AND reward_threshold = ?", userID, models.CompletenessRewardThreshold, threshold).
		Count(&count).Error
	return count > 0, err
}

// ListByUser 用户已获得的完整度奖励
func (c *Completeness) ListByUser(ctx context.Context, userID uint64) ([]models.CompletenessReward, error) {
	var rows []models.CompletenessReward
	err := c.Db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error
	return rows, err
}
