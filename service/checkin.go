package service

import (
	"Tianji/dao"
	"Tianji/models"
	"Tianji/pkg/log"
	"Tianji/pkg/metrics"
	"Tianji/types"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const checkinDateLayout = "2006-01-02"

func checkinCacheKey(userID uint64, date string) string {
	return fmt.Sprintf("tianji:checkin:%d:%s", userID, date)
}

// CheckinService 每日签到
// 并发双写的最终防线是 (user_id, check_in_date) 唯一索引，事务前的检查只是快路径
type CheckinService struct {
	DB           *gorm.DB
	Redis        *redis.Client
	UserDAO      *dao.User
	CheckInDAO   *dao.CheckIn
	Ledger       *LedgerService
	Subscription *SubscriptionService

	now func() time.Time // 测试注入时钟，生产走 time.Now
}

func NewCheckinService(db *gorm.DB, rdb *redis.Client, userDAO *dao.User, checkInDAO *dao.CheckIn,
	ledger *LedgerService, subscription *SubscriptionService) *CheckinService {
	return &CheckinService{
		DB:           db,
		Redis:        rdb,
		UserDAO:      userDAO,
		CheckInDAO:   checkInDAO,
		Ledger:       ledger,
		Subscription: subscription,
		now:          time.Now,
	}
}

var _ ICheckinService = (*CheckinService)(nil)

type ICheckinService interface {
	CheckIn(ctx context.Context, userID uint64) (*types.CheckInResp, error)
	GetStatus(ctx context.Context, userID uint64) (*types.CheckInStatusResp, error)
}

// checkinReward 签到奖励 = 层级基础分 + 每满 7 天连签加 10
func checkinReward(tier string, consecutiveDays int) int64 {
	return models.TierBaseReward(tier) + 10*int64(consecutiveDays/7)
}

// CheckIn 签到：日期取服务器本地时间，客户端时间一概不信
func (s *CheckinService) CheckIn(ctx context.Context, userID uint64) (*types.CheckInResp, error) {
	now := s.now()
	today := now.Format(checkinDateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(checkinDateLayout)

	// SETNX 快路径挡掉重复点击，抢不到说明当天的签到已经在处理
	// redis 不可用时直接走数据库兜底，唯一索引才是最终保证
	shieldKey := checkinCacheKey(userID, today)
	if s.Redis != nil {
		if ok, err := s.Redis.SetNX(ctx, shieldKey, 1, 48*time.Hour).Result(); err == nil && !ok {
			return nil, ErrAlreadyCheckedIn
		}
	}

	tier, err := s.Subscription.EffectiveTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	var resp types.CheckInResp
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.UserDAO.GetForUpdate(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("锁定用户行失败: %w", err)
		}

		existing, err := s.CheckInDAO.GetByDate(tx, userID, today)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyCheckedIn
		}

		consecutive := 1
		latest, err := s.CheckInDAO.GetLatest(tx, userID)
		if err != nil {
			return err
		}
		if latest != nil && latest.CheckInDate == yesterday {
			consecutive = latest.ConsecutiveDays + 1
		}

		reward := checkinReward(tier, consecutive)

		logRow := &models.CheckInLog{
			UserID:          userID,
			CheckInDate:     today,
			CoinsEarned:     reward,
			ConsecutiveDays: consecutive,
			Tier:            tier,
		}
		if err := tx.Create(logRow).Error; err != nil {
			// 预检查和插入之间被并发请求抢先，唯一索引兜住
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCheckedIn
			}
			return fmt.Errorf("写入签到记录失败: %w", err)
		}

		newBalance, _, err := s.Ledger.Apply(tx, user, models.BucketGeneral, reward, LedgerMeta{
			Type:        models.TxTypeCheckinReward,
			ItemType:    "daily_checkin",
			Description: fmt.Sprintf("每日签到奖励（连续%d天）", consecutive),
		})
		if err != nil {
			return err
		}

		resp = types.CheckInResp{
			CoinsEarned:     reward,
			ConsecutiveDays: consecutive,
			Tier:            tier,
			NewBalance:      newBalance,
		}
		return nil
	})
	if err != nil {
		// 今天没签上就放开挡板，不然这一天都签不了；已签过的保留
		if s.Redis != nil && !errors.Is(err, ErrAlreadyCheckedIn) {
			if delErr := s.Redis.Del(ctx, shieldKey).Err(); delErr != nil {
				log.L.Warn("checkin shield del failed", zap.Uint64("user_id", userID), zap.Error(delErr))
			}
		}
		return nil, translateTxError(err)
	}

	metrics.CheckinTotal.WithLabelValues(tier).Inc()
	invalidateBalanceCache(ctx, s.Redis, userID)
	return &resp, nil
}

// GetStatus 签到状态：今天是否已签、当前连签、累计天数、下次可得
func (s *CheckinService) GetStatus(ctx context.Context, userID uint64) (*types.CheckInStatusResp, error) {
	now := s.now()
	today := now.Format(checkinDateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(checkinDateLayout)

	exists, err := s.UserDAO.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	tier, err := s.Subscription.EffectiveTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.CheckInDAO.GetLatest(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	total, err := s.CheckInDAO.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &types.CheckInStatusResp{
		Tier:      tier,
		TotalDays: total,
	}
	switch {
	case latest == nil:
		resp.NextReward = checkinReward(tier, 1)
	case latest.CheckInDate == today:
		resp.CheckedInToday = true
		resp.ConsecutiveDays = latest.ConsecutiveDays
		resp.NextReward = checkinReward(tier, latest.ConsecutiveDays+1)
	case latest.CheckInDate == yesterday:
		resp.ConsecutiveDays = latest.ConsecutiveDays
		resp.NextReward = checkinReward(tier, latest.ConsecutiveDays+1)
	default:
		// 断签，重置
		resp.NextReward = checkinReward(tier, 1)
	}
	return resp, nil
}
