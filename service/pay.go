package service

import (
	"Tianji/config"
	"Tianji/dao"
	"Tianji/models"
	"Tianji/pkg/log"
	"Tianji/pkg/metrics"
	"Tianji/pkg/utils"
	"Tianji/types"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PayService 充值订单与结算状态机
// 状态流转只有 pending -> completed 和 pending -> failed，两个终态都不可再变
type PayService struct {
	Config         *config.Config
	DB             *gorm.DB
	Redis          *redis.Client
	UserDAO        *dao.User
	TransactionDAO *dao.Transaction
	Ledger         *LedgerService
}

var _ IPayService = (*PayService)(nil)

type IPayService interface {
	CreateOrder(ctx context.Context, userID uint64, packType string) (*types.OrderResp, error)
	GetOrder(ctx context.Context, userID uint64, orderSn string) (*types.OrderResp, error)
	HandleCallback(ctx context.Context, orderSn string, status string, provider string, paidAt *time.Time, notifyRaw []byte) (*types.SettleResult, error)
	MockSettle(ctx context.Context, orderSn string, success bool) (*types.SettleResult, error)
}

// CreateOrder 下单：按币包落一条 pending 的 purchase 流水，订单行即流水行
func (p *PayService) CreateOrder(ctx context.Context, userID uint64, packType string) (*types.OrderResp, error) {
	pack := p.Config.Economy.FindPack(packType)
	if pack == nil {
		return nil, ErrInvalidParam
	}

	exists, err := p.UserDAO.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	order := &models.Transaction{
		UserID:        userID,
		TransactionSn: utils.GenerateOrderSn(userID),
		Type:          models.TxTypePurchase,
		Amount:        pack.Amount,
		CoinsAmount:   pack.Coins,
		PackType:      pack.PackType,
		Description:   fmt.Sprintf("充值币包: %s", pack.PackType),
		Status:        models.TxStatusPending,
	}
	if err := p.TransactionDAO.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}

	return orderToResp(order), nil
}

// GetOrder 查询本人订单
func (p *PayService) GetOrder(ctx context.Context, userID uint64, orderSn string) (*types.OrderResp, error) {
	order, err := p.TransactionDAO.GetBySn(ctx, orderSn)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID || order.Type != models.TxTypePurchase {
		return nil, ErrOrderNotFound
	}
	return orderToResp(order), nil
}

// HandleCallback 结算回调，支付渠道超时必重试，幂等是硬契约：
//   - pending + completed：置终态并入账，一个事务内完成
//   - pending + failed：只置终态，不入账
//   - 已 completed 再收 completed：重放，直接返回已结算结果，绝不二次入账
//   - 已 failed 再收 failed：同上视为重放成功
//   - 终态收到相反状态：逻辑错误，报 ErrOrderAlreadyTerminal
//
// 加锁顺序固定：先订单行，后余额行，与全部其他路径一致，避免死锁
func (p *PayService) HandleCallback(ctx context.Context, orderSn string, status string, provider string, paidAt *time.Time, notifyRaw []byte) (*types.SettleResult, error) {
	if orderSn == "" || (status != models.TxStatusCompleted && status != models.TxStatusFailed) {
		return nil, ErrInvalidParam
	}

	var result types.SettleResult
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := p.TransactionDAO.GetOrderForUpdate(tx, orderSn)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("锁定订单失败: %w", err)
		}

		if order.IsTerminal() {
			if order.Status != status {
				return ErrOrderAlreadyTerminal
			}
			// 渠道重试，返回首次结算的结果
			user, err := p.UserDAO.GetForUpdate(tx, order.UserID)
			if err != nil {
				return err
			}
			result = types.SettleResult{
				OrderSn:    orderSn,
				Status:     order.Status,
				NewBalance: user.TianjiCoinsBalance,
				Replayed:   true,
			}
			metrics.SettlementTotal.WithLabelValues("replay").Inc()
			return nil
		}

		updates := map[string]interface{}{
			"status":           status,
			"payment_provider": provider,
		}
		if paidAt != nil {
			updates["paid_at"] = paidAt
		}
		if len(notifyRaw) > 0 {
			updates["notify_raw"] = datatypes.JSON(notifyRaw)
		}

		if status == models.TxStatusFailed {
			if err := tx.Model(order).Updates(updates).Error; err != nil {
				return fmt.Errorf("更新订单状态失败: %w", err)
			}
			result = types.SettleResult{OrderSn: orderSn, Status: models.TxStatusFailed}
			metrics.SettlementTotal.WithLabelValues("failed").Inc()
			return nil
		}

		// 成功结算：先锁余额行，订单行已在手
		user, err := p.UserDAO.GetForUpdate(tx, order.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		first, err := p.TransactionDAO.HasCompletedPurchase(tx, order.UserID)
		if err != nil {
			return err
		}
		updates["is_first_purchase"] = !first

		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新订单状态失败: %w", err)
		}

		// 订单行自身就是这笔入账的流水行，只动余额不再追加流水
		newBalance, err := p.Ledger.AdjustBucket(tx, user, models.BucketGeneral, order.CoinsAmount, false)
		if err != nil {
			return err
		}

		metrics.LedgerWritesTotal.WithLabelValues(models.TxTypePurchase, models.BucketGeneral).Inc()
		metrics.SettlementTotal.WithLabelValues("completed").Inc()
		result = types.SettleResult{
			OrderSn:    orderSn,
			Status:     models.TxStatusCompleted,
			NewBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	if result.Status == models.TxStatusCompleted && !result.Replayed {
		p.invalidateBalance(ctx, orderSn)
	}
	return &result, nil
}

// MockSettle 开发/测试联调用的模拟结算入口，线上 debug 关闭时路由不挂载
func (p *PayService) MockSettle(ctx context.Context, orderSn string, success bool) (*types.SettleResult, error) {
	status := models.TxStatusCompleted
	if !success {
		status = models.TxStatusFailed
	}
	now := time.Now()
	raw := []byte(fmt.Sprintf(`{"mock":true,"transaction_id":"%s"}`, uuid.NewString()))
	return p.HandleCallback(ctx, orderSn, status, "mock", &now, raw)
}

func (p *PayService) invalidateBalance(ctx context.Context, orderSn string) {
	if p.Redis == nil {
		return
	}
	order, err := p.TransactionDAO.GetBySn(ctx, orderSn)
	if err != nil {
		log.L.Warn("balance cache invalidate skipped", zap.String("order_sn", orderSn), zap.Error(err))
		return
	}
	invalidateBalanceCache(ctx, p.Redis, order.UserID)
}

func orderToResp(order *models.Transaction) *types.OrderResp {
	return &types.OrderResp{
		OrderSn:     order.TransactionSn,
		Amount:      order.Amount,
		CoinsAmount: order.CoinsAmount,
		PackType:    order.PackType,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
