package types

// CheckInResp 签到结果
type CheckInResp struct {
	CoinsEarned     int64  `json:"coins_earned"`
	ConsecutiveDays int    `json:"consecutive_days"`
	Tier            string `json:"tier"`
	NewBalance      int64  `json:"new_balance"`
}

// CheckInStatusResp 签到状态查询
type CheckInStatusResp struct {
	CheckedInToday  bool   `json:"checked_in_today"`
	ConsecutiveDays int    `json:"consecutive_days"` // 含今天（若已签）
	TotalDays       int64  `json:"total_days"`
	Tier            string `json:"tier"`
	NextReward      int64  `json:"next_reward"` // 下一次签到可得
}

// UpgradeBonusDetail 单个签到日的补发明细
type UpgradeBonusDetail struct {
	CheckInDate string `json:"check_in_date"`
	BaseCoins   int64  `json:"base_coins"`  // 当时实发
	BonusCoins  int64  `json:"bonus_coins"` // 本次补发差额
}

// UpgradeBonusResult 升级补发结果
type UpgradeBonusResult struct {
	OldTier      string               `json:"old_tier"`
	NewTier      string               `json:"new_tier"`
	TotalBonus   int64                `json:"total_bonus"`
	GrantedDates int                  `json:"granted_dates"` // 本次新补发的日期数
	Details      []UpgradeBonusDetail `json:"details"`
}
