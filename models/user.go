package models

import (
	"time"

	"gorm.io/datatypes"
)

// User 用户档案主表：天机币余额、限时赠币、订阅层级、资料完整度字段都挂在这一行上
// 余额相关字段的并发修改必须先 SELECT ... FOR UPDATE 锁行（见 dao.User.GetForUpdate）
type User struct {
	ID                     uint64     `gorm:"primaryKey;column:id"`
	Nickname               string     `gorm:"column:nickname;size:50"`
	TianjiCoinsBalance     int64      `gorm:"column:tianji_coins_balance;default:0"`
	DailyCoinsGrant        int64      `gorm:"column:daily_coins_grant;default:0"`
	DailyGrantExpiresAt    *time.Time `gorm:"column:daily_grant_expires_at"`
	ActivityCoinsGrant     int64      `gorm:"column:activity_coins_grant;default:0"`
	ActivityGrantExpiresAt *time.Time `gorm:"column:activity_grant_expires_at"`
	Tier                   string     `gorm:"column:tier;size:20;default:'guest'"` // 由 subscriptions 表派生的缓存值
	SubscriptionStatus     string     `gorm:"column:subscription_status;size:20"`
	SubscriptionEndAt      *time.Time `gorm:"column:subscription_end_at"`
	IsAdmin                bool       `gorm:"column:is_admin;default:false"`

	// 资料完整度来源字段（生辰 40 / MBTI 10 / 职业 10 / 当前状态 20 / 愿望 20）
	BirthDatetime *time.Time     `gorm:"column:birth_datetime"`
	BirthPlace    string         `gorm:"column:birth_place;size:100"`
	MBTI          string         `gorm:"column:mbti;size:8"`
	Profession    string         `gorm:"column:profession;size:50"`
	CurrentStatus string         `gorm:"column:current_status;size:255"`
	Wishes        datatypes.JSON `gorm:"column:wishes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "profiles"
}

// 余额桶标识
const (
	BucketGeneral       = "general"
	BucketDailyGrant    = "daily_grant"
	BucketActivityGrant = "activity_grant"
)

// HasBirthData 生辰信息视为一个整体字段：日期和地点都填了才算完整
func (u *User) HasBirthData() bool {
	return u.BirthDatetime != nil && u.BirthPlace != ""
}
