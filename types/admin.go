package types

// AdminAdjustReq 管理员调账请求
type AdminAdjustReq struct {
	UserID uint64 `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"` // 正负均可，不可为 0
	Reason string `json:"reason" binding:"required"`
	Bucket string `json:"bucket"` // 缺省 general
}

// AdminAdjustResp 调账结果
type AdminAdjustResp struct {
	NewBalance    int64  `json:"new_balance"`
	TransactionSn string `json:"transaction_sn"`
}

// UpgradeTierReq 订阅升级请求
type UpgradeTierReq struct {
	UserID       uint64 `json:"user_id" binding:"required"`
	Tier         string `json:"tier" binding:"required"`
	DurationDays int    `json:"duration_days" binding:"required,gt=0"`
	AutoRenew    bool   `json:"auto_renew"`
}

// BackpayPreviewReq 升级补发试算请求
type BackpayPreviewReq struct {
	UserID  uint64 `json:"user_id" binding:"required"`
	OldTier string `json:"old_tier" binding:"required"`
	NewTier string `json:"new_tier" binding:"required"`
}

// UpgradeTierResp 升级结果，含补发汇总
type UpgradeTierResp struct {
	OldTier string              `json:"old_tier"`
	NewTier string              `json:"new_tier"`
	Bonus   *UpgradeBonusResult `json:"bonus,omitempty"`
}
