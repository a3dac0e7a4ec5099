package types

// BalanceResp 余额概览：general 主余额 + 两个限时赠币桶
type BalanceResp struct {
	Balance           int64  `json:"balance"`        // 主余额
	DailyGrant        int64  `json:"daily_grant"`    // 每日赠币（未过期部分）
	ActivityGrant     int64  `json:"activity_grant"` // 活动赠币（未过期部分）
	Total             int64  `json:"total"`          // 三桶合计
	Tier              string `json:"tier"`           // 当前生效层级
	DailyExpiresAt    string `json:"daily_expires_at,omitempty"`
	ActivityExpiresAt string `json:"activity_expires_at,omitempty"`
}

// DeductReq 功能扣费请求
type DeductReq struct {
	ItemType string `json:"item_type" binding:"required"` // 消费项目，如 star_chart
	Price    int64  `json:"price" binding:"required,gt=0"`
}

// DeductResp 扣费结果
type DeductResp struct {
	RemainingBalance int64  `json:"remaining_balance"`
	TransactionSn    string `json:"transaction_sn"`
}

// RefundReq 功能退款请求：引用原扣费流水单号
type RefundReq struct {
	SourceSn string `json:"source_sn" binding:"required"`
	Reason   string `json:"reason"`
}

// RefundResp 退款结果
type RefundResp struct {
	NewBalance    int64  `json:"new_balance"`
	TransactionSn string `json:"transaction_sn"`
	Replayed      bool   `json:"replayed"` // 该单已退过，本次未重复入账
}

// TransactionRecord 单条流水
type TransactionRecord struct {
	ID          uint64 `json:"id"`
	Sn          string `json:"sn"`
	Type        string `json:"type"`
	CoinsAmount int64  `json:"coins_amount"`
	ItemType    string `json:"item_type,omitempty"`
	Description string `json:"description,omitempty"`
	OrderType   string `json:"order_type"` // INCOME / EXPENSE
	CreatedAt   string `json:"created_at"`
}

// ListTransactionsResp 流水列表包装
type ListTransactionsResp struct {
	Records    []TransactionRecord `json:"records"`
	NextCursor int64               `json:"next_cursor"`
	HasMore    bool                `json:"has_more"`
}
