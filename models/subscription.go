package models

import "time"

// 订阅层级，按权益从低到高排序
const (
	TierGuest    = "guest"
	TierExplorer = "explorer"
	TierBasic    = "basic"
	TierPremium  = "premium"
	TierVip      = "vip"
)

// tierRank 层级序：guest/explorer < basic < premium < vip
// explorer 与 guest 签到权益相同，排序上仍高于 guest，避免 explorer -> guest 被当成升级
var tierRank = map[string]int{
	TierGuest:    0,
	TierExplorer: 1,
	TierBasic:    2,
	TierPremium:  3,
	TierVip:      4,
}

// TierRank 未知层级按 guest 处理（历史数据里出现过脏值）
func TierRank(tier string) int {
	if r, ok := tierRank[tier]; ok {
		return r
	}
	return 0
}

// IsValidTier 校验层级取值
func IsValidTier(tier string) bool {
	_, ok := tierRank[tier]
	return ok
}

// TierBaseReward 各层级签到基础奖励：免费层 10，basic 15，premium 20，vip 30
// 随层级单调递增，保证升级永远不吃亏
func TierBaseReward(tier string) int64 {
	switch tier {
	case TierBasic:
		return 15
	case TierPremium:
		return 20
	case TierVip:
		return 30
	default:
		return 10
	}
}

// 订阅状态
const (
	SubStatusActive    = "active"
	SubStatusPending   = "pending"
	SubStatusCancelled = "cancelled"
	SubStatusExpired   = "expired"
)

// Subscription 订阅表：层级的权威数据源，profiles.tier 只是派生缓存
// 正常同一用户至多一条 active/pending，历史逻辑曾造成漂移，读取侧要容忍多条
type Subscription struct {
	ID        uint64     `gorm:"primaryKey;column:id"`
	UserID    uint64     `gorm:"column:user_id;not null;index:idx_sub_user_id"`
	Tier      string     `gorm:"column:tier;type:varchar(20);not null"`
	Status    string     `gorm:"column:status;type:varchar(20);not null;index:idx_sub_status"`
	StartedAt time.Time  `gorm:"column:started_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	AutoRenew bool       `gorm:"column:auto_renew;default:false"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
