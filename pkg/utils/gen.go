package utils

import (
	"Tianji/pkg/snowflake"
	"fmt"
	"time"
)

// GenerateOrderSn 生成充值订单号：日期前缀 + 雪花 ID，方便对账时肉眼定位
func GenerateOrderSn(userID uint64) string {
	now := time.Now().Format("20060102")
	return fmt.Sprintf("P%s%d%03d", now, snowflake.GenID(), userID%1000)
}

// GenerateTransactionSn 生成普通流水单号
func GenerateTransactionSn() string {
	return fmt.Sprintf("T%d", snowflake.GenID())
}
