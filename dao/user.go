package dao

import (
	"Tianji/models"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type User struct {
	Repo[models.User]
}

func NewUser(db *gorm.DB) *User {
	return &User{
		Repo: NewRepo[models.User](db),
	}
}

// GetForUpdate 锁定并读取用户档案行，必须在开启的事务内调用
// 所有余额变更都要先走这里，拿到锁之后的读数才是计算依据
func (u *User) GetForUpdate(tx *gorm.DB, userID uint64) (*models.User, error) {
	var user models.User
	err := ForUpdate(tx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *User) GetByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	err := u.Db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists 用户是否存在
func (u *User) Exists(ctx context.Context, userID uint64) (bool, error) {
	var count int64
	err := u.Db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

// IsAdmin 每次调用都查库，管理员能力绝不信任客户端缓存
func (u *User) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	var user models.User
	err := u.Db.WithContext(ctx).Select("is_admin").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

// UpdateBalances 回写余额桶字段，调用方持有行锁
func (u *User) UpdateBalances(tx *gorm.DB, userID uint64, cols map[string]interface{}) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(cols).Error
}

// ListExpiredGrants 找出赠币桶已过期且仍有余额的用户，定时任务清理用
func (u *User) ListExpiredGrants(ctx context.Context, now time.Time, limit int) ([]models.User, error) {
	var users []models.User
	err := u.Db.WithContext(ctx).
		Where("(daily_coins_grant > 0 AND daily_grant_expires_at IS NOT NULL AND daily_grant_expires_at < ?)"+
			" OR (activity_coins_grant > 0 AND activity_grant_expires_at IS NOT NULL AND activity_grant_expires_at < ?)",
			now, now).
		Limit(limit).Find(&users).Error
	return users, err
}

// UpdateTier 回写派生的层级缓存字段
func (u *User) UpdateTier(tx *gorm.DB, userID uint64, tier string, status string, endAt *time.Time) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"tier":                tier,
		"subscription_status": status,
		"subscription_end_at": endAt,
	}).Error
}
