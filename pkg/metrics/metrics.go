package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 账本核心指标，promauto 注册到默认注册表，/metrics 直接暴露
var (
	// LedgerWritesTotal 流水写入总数（按类型、余额桶）
	LedgerWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tianji_ledger_writes_total",
			Help: "Total number of ledger transaction writes",
		},
		[]string{"type", "bucket"},
	)

	// InsufficientFundsTotal 余额不足被拒次数（按消费项目）
	InsufficientFundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tianji_insufficient_funds_total",
			Help: "Total number of debits rejected for insufficient funds",
		},
		[]string{"item_type"},
	)

	// SettlementTotal 支付结算总数（按结果：completed/failed/replay）
	SettlementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tianji_payment_settlement_total",
			Help: "Total number of payment order settlements",
		},
		[]string{"result"},
	)

	// CheckinTotal 签到总数（按层级）
	CheckinTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tianji_checkin_total",
			Help: "Total number of daily check-ins",
		},
		[]string{"tier"},
	)

	// UpgradeBonusCoinsTotal 升级补发币总量
	UpgradeBonusCoinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tianji_upgrade_bonus_coins_total",
			Help: "Total coins granted as upgrade back-pay",
		},
	)
)
