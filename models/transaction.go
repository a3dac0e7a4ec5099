package models

import (
	"time"

	"gorm.io/datatypes"
)

// 交易类型常量定义
const (
	TxTypeDeduct            = "deduct"             // 功能消费扣币
	TxTypeGrant             = "grant"              // 普通赠币（活动、升级补发等）
	TxTypeAdminAdjust       = "admin_adjust"       // 管理员调账
	TxTypeCheckinReward     = "checkin_reward"     // 签到奖励
	TxTypeRegistrationBonus = "registration_bonus" // 注册奖励
	TxTypePurchase          = "purchase"           // 充值购买（订单本体）
	TxTypeRefund            = "refund"             // 退款返还
)

// 交易状态：购买订单走 pending -> completed/failed，其余流水落库即 completed
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction 交易流水表（只追加，不修改不删除；唯一例外是购买订单的状态结算）
// 对账不变量：用户当前余额 = 初始余额 + SUM(coins_amount WHERE status = 'completed')
type Transaction struct {
	ID              uint64         `gorm:"primaryKey;column:id"`
	UserID          uint64         `gorm:"column:user_id;index:idx_user_id;not null"`
	TransactionSn   string         `gorm:"column:transaction_sn;type:varchar(32);uniqueIndex:idx_transaction_sn"`
	Type            string         `gorm:"column:type;type:varchar(32);not null;index:idx_type"`
	Amount          int64          `gorm:"column:amount;default:0"`       // 法币金额，单位：分（纯币流水为 0）
	CoinsAmount     int64          `gorm:"column:coins_amount;default:0"` // 币变动，正为入账负为支出
	ItemType        string         `gorm:"column:item_type;type:varchar(50)"`
	PackType        string         `gorm:"column:pack_type;type:varchar(50)"`
	Description     string         `gorm:"column:description;type:varchar(255)"`
	SourceSn        string         `gorm:"column:source_sn;type:varchar(64);index:idx_source_sn"` // 幂等关联单号（退款/注册等）
	OperatorID      uint64         `gorm:"column:operator_id;default:0"`                          // 仅管理员操作时写入
	Status          string         `gorm:"column:status;type:varchar(20);not null;default:'completed';index:idx_status"`
	PaymentProvider string         `gorm:"column:payment_provider;type:varchar(20)"`
	IsFirstPurchase bool           `gorm:"column:is_first_purchase;default:false"`
	NotifyRaw       datatypes.JSON `gorm:"column:notify_raw"` // 支付回调原文，排查争议用
	PaidAt          *time.Time     `gorm:"column:paid_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal 购买订单是否已进入终态
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusCompleted || t.Status == TxStatusFailed
}
