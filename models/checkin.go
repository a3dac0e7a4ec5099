package models

import "time"

// CheckInLog 签到记录：每用户每自然日至多一条，唯一索引是防并发的最终兜底
type CheckInLog struct {
	ID              uint64    `gorm:"primaryKey;column:id"`
	UserID          uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_user_checkin_date"`
	CheckInDate     string    `gorm:"column:check_in_date;type:varchar(10);not null;uniqueIndex:idx_user_checkin_date"` // YYYY-MM-DD
	CoinsEarned     int64     `gorm:"column:coins_earned;not null"`
	ConsecutiveDays int       `gorm:"column:consecutive_days;not null;default:1"`
	Tier            string    `gorm:"column:tier;type:varchar(20)"` // 签到当时的层级，升级补发要用
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CheckInLog) TableName() string {
	return "check_in_logs"
}

// UpgradeBonusLog 升级补发记录：每个 (user, 签到日期) 只补发一次，本表即防重放账本
type UpgradeBonusLog struct {
	ID          uint64    `gorm:"primaryKey;column:id"`
	UserID      uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_user_bonus_date"`
	CheckInDate string    `gorm:"column:check_in_date;type:varchar(10);not null;uniqueIndex:idx_user_bonus_date"`
	OldTier     string    `gorm:"column:old_tier;type:varchar(20)"`
	NewTier     string    `gorm:"column:new_tier;type:varchar(20)"`
	BaseCoins   int64     `gorm:"column:base_coins"`  // 当时按旧层级实发
	BonusCoins  int64     `gorm:"column:bonus_coins"` // 本次补发差额
	TotalCoins  int64     `gorm:"column:total_coins"` // 补发后该日合计
	UpgradeDate string    `gorm:"column:upgrade_date;type:varchar(10)"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UpgradeBonusLog) TableName() string {
	return "checkin_upgrade_bonus_logs"
}
