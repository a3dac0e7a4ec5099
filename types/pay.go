package types

// CreateOrderReq 下单请求：按币包购买，带 openid 时走微信 JSAPI 预下单
type CreateOrderReq struct {
	PackType string `json:"pack_type" binding:"required"`
	OpenID   string `json:"openid"`
}

// CreateOrderResp 下单响应，pay_params 为唤起微信支付所需的参数
type CreateOrderResp struct {
	Order     *OrderResp  `json:"order"`
	PayParams interface{} `json:"pay_params,omitempty"`
}

// OrderResp 订单信息
type OrderResp struct {
	OrderSn     string `json:"order_sn"`
	Amount      int64  `json:"amount"` // 法币金额，分
	CoinsAmount int64  `json:"coins_amount"`
	PackType    string `json:"pack_type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// SettleResult 结算结果
type SettleResult struct {
	OrderSn    string `json:"order_sn"`
	Status     string `json:"status"`
	NewBalance int64  `json:"new_balance"`
	Replayed   bool   `json:"replayed"` // 回调重放，本次未重复入账
}

// MockSettleReq 模拟结算（仅 debug 配置开启）
type MockSettleReq struct {
	Success bool `json:"success"`
}
