package types

import "time"

// UpdateCompletenessReq 资料更新请求，nil 字段表示不更新
type UpdateCompletenessReq struct {
	BirthDatetime *time.Time `json:"birth_datetime"`
	BirthPlace    *string    `json:"birth_place"`
	MBTI          *string    `json:"mbti"`
	Profession    *string    `json:"profession"`
	CurrentStatus *string    `json:"current_status"`
	Wishes        []string   `json:"wishes"`
}

// GrantedReward 本次更新触发的奖励
type GrantedReward struct {
	RewardType string `json:"reward_type"` // field / threshold
	Field      string `json:"field,omitempty"`
	Threshold  int    `json:"threshold,omitempty"`
	Coins      int64  `json:"coins"`
}

// CompletenessStatusResp 完整度现状
type CompletenessStatusResp struct {
	Score   int             `json:"score"`
	Fields  map[string]bool `json:"fields"` // 各字段是否已填
	Rewards []GrantedReward `json:"rewards"`
}

// CompletenessResp 完整度更新结果
type CompletenessResp struct {
	OldScore   int             `json:"old_score"`
	NewScore   int             `json:"new_score"`
	Granted    []GrantedReward `json:"granted"`
	NewBalance int64           `json:"new_balance"`
}
