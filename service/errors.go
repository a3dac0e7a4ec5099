package service

import (
	"errors"

	"Tianji/pkg/response"

	"github.com/go-sql-driver/mysql"
)

// 业务错误码，按模块分段：400xx 参数，402xx 余额，403xx 权限，404xx 资源，409xx 状态冲突，429xx 并发
// 控制器用 errors.Is 对这些哨兵值做显式分支，禁止再按错误文案做字符串匹配
var (
	ErrInvalidParam = response.NewError(40001, "参数错误")

	ErrInsufficientFunds = response.NewError(40201, "天机币余额不足")

	ErrPermissionDenied = response.NewError(40301, "无管理员权限")

	ErrUserNotFound  = response.NewError(40401, "用户不存在")
	ErrOrderNotFound = response.NewError(40402, "订单不存在")

	ErrAlreadyCheckedIn     = response.NewError(40901, "今日已签到")
	ErrOrderAlreadyTerminal = response.NewError(40902, "订单已进入终态，不可再变更")

	ErrConcurrencyConflict = response.NewError(42901, "操作冲突，请稍后重试")
)

// translateTxError 把余额事务里冒出来的数据库错误翻译成业务哨兵。
// MySQL 1205 锁等待超时、1213 死锁回滚都算并发冲突，由调用端决定是否重试。
func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && (mysqlErr.Number == 1205 || mysqlErr.Number == 1213) {
		return ErrConcurrencyConflict
	}
	return err
}
