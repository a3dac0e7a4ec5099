package models

import "time"

// 完整度奖励类型
const (
	CompletenessRewardField     = "field"     // 单字段从空到有
	CompletenessRewardThreshold = "threshold" // 总分跨过阈值
)

// 完整度字段权重（总分 100）
var CompletenessWeights = map[string]int{
	"birth_data":     40,
	"mbti":           10,
	"profession":     10,
	"current_status": 20,
	"wishes":         20,
}

// 字段首次填写奖励
var FieldRewardRules = map[string]int64{
	"birth_data":     20,
	"mbti":           5,
	"profession":     5,
	"current_status": 10,
	"wishes":         10,
}

// 阈值奖励：old < threshold <= new 时发放一次
var ThresholdRewardRules = []struct {
	Threshold int
	Coins     int64
}{
	{30, 10},
	{50, 15},
	{70, 20},
	{100, 30},
}

// CompletenessReward 完整度奖励发放记录
// 唯一索引保证同一 (用户, 类型, 字段/阈值) 永不重复发放，应用层检查只是快路径
type CompletenessReward struct {
	ID              uint64    `gorm:"primaryKey;column:id"`
	UserID          uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_user_reward"`
	RewardType      string    `gorm:"column:reward_type;type:varchar(20);not null;uniqueIndex:idx_user_reward"`
	RewardField     string    `gorm:"column:reward_field;type:varchar(50);uniqueIndex:idx_user_reward"`
	RewardThreshold int       `gorm:"column:reward_threshold;default:0;uniqueIndex:idx_user_reward"`
	Coins           int64     `gorm:"column:coins;not null"`
	Reason          string    `gorm:"column:reason;type:varchar(255)"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CompletenessReward) TableName() string {
	return "completeness_rewards"
}
