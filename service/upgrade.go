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

// 补发回溯窗口：只看升级日前 30 天内的签到
const upgradeLookbackDays = 30

// UpgradeService 层级升级后的签到奖励补发
// checkin_upgrade_bonus_logs 即防重放账本：一个 (用户, 签到日期) 永远只补一次
type UpgradeService struct {
	DB              *gorm.DB
	Redis           *redis.Client
	UserDAO         *dao.User
	CheckInDAO      *dao.CheckIn
	UpgradeBonusDAO *dao.UpgradeBonus
	Ledger          *LedgerService
}

var _ IUpgradeService = (*UpgradeService)(nil)

type IUpgradeService interface {
	Calculate(ctx context.Context, userID uint64, oldTier, newTier string, upgradeDate time.Time) (*types.UpgradeBonusResult, error)
	Grant(ctx context.Context, userID uint64, oldTier, newTier string, upgradeDate time.Time) (*types.UpgradeBonusResult, error)
}

// eligibleBonuses 扫描窗口内签到记录，算出每个未补发日期的差额
// expected 按新层级基础分 + 当日连签加成重算，差额 <= 0 的日期跳过
func (u *UpgradeService) eligibleBonuses(tx *gorm.DB, userID uint64, newTier string, upgradeDate time.Time) ([]types.UpgradeBonusDetail, []models.CheckInLog, error) {
	before := upgradeDate.Format(checkinDateLayout)
	from := upgradeDate.AddDate(0, 0, -upgradeLookbackDays).Format(checkinDateLayout)

	logs, err := u.CheckInDAO.ListBetween(tx, userID, from, before)
	if err != nil {
		return nil, nil, err
	}
	paid, err := u.UpgradeBonusDAO.PaidDates(tx, userID, from, before)
	if err != nil {
		return nil, nil, err
	}

	var details []types.UpgradeBonusDetail
	var eligible []models.CheckInLog
	for _, row := range logs {
		if _, done := paid[row.CheckInDate]; done {
			continue
		}
		expected := models.TierBaseReward(newTier) + 10*int64(row.ConsecutiveDays/7)
		bonus := expected - row.CoinsEarned
		if bonus <= 0 {
			continue
		}
		details = append(details, types.UpgradeBonusDetail{
			CheckInDate: row.CheckInDate,
			BaseCoins:   row.CoinsEarned,
			BonusCoins:  bonus,
		})
		eligible = append(eligible, row)
	}
	return details, eligible, nil
}

// Calculate 试算补发额，不落库
func (u *UpgradeService) Calculate(ctx context.Context, userID uint64, oldTier, newTier string, upgradeDate time.Time) (*types.UpgradeBonusResult, error) {
	if !models.IsValidTier(newTier) {
		return nil, ErrInvalidParam
	}

	result := &types.UpgradeBonusResult{
		OldTier: oldTier,
		NewTier: newTier,
		Details: make([]types.UpgradeBonusDetail, 0),
	}
	// 降级和平级没有可补日期
	if models.TierRank(newTier) <= models.TierRank(oldTier) {
		return result, nil
	}

	details, _, err := u.eligibleBonuses(u.DB.WithContext(ctx), userID, newTier, upgradeDate)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		result.TotalBonus += d.BonusCoins
	}
	result.Details = details
	result.GrantedDates = len(details)
	return result, nil
}

// Grant 实际补发：逐日写防重放记录，再把差额一笔入账
// 全部日期都已补发过时不产生任何流水，返回 GrantedDates = 0
func (u *UpgradeService) Grant(ctx context.Context, userID uint64, oldTier, newTier string, upgradeDate time.Time) (*types.UpgradeBonusResult, error) {
	if !models.IsValidTier(newTier) {
		return nil, ErrInvalidParam
	}

	result := &types.UpgradeBonusResult{
		OldTier: oldTier,
		NewTier: newTier,
		Details: make([]types.UpgradeBonusDetail, 0),
	}
	if models.TierRank(newTier) <= models.TierRank(oldTier) {
		return result, nil
	}

	upgradeDay := upgradeDate.Format(checkinDateLayout)
	err := u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := u.UserDAO.GetForUpdate(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		details, eligible, err := u.eligibleBonuses(tx, userID, newTier, upgradeDate)
		if err != nil {
			return err
		}

		var total int64
		for i, row := range eligible {
			bonusRow := &models.UpgradeBonusLog{
				UserID:      userID,
				CheckInDate: row.CheckInDate,
				OldTier:     row.Tier,
				NewTier:     newTier,
				BaseCoins:   row.CoinsEarned,
				BonusCoins:  details[i].BonusCoins,
				TotalCoins:  row.CoinsEarned + details[i].BonusCoins,
				UpgradeDate: upgradeDay,
			}
			if err := tx.Create(bonusRow).Error; err != nil {
				// 并发触发的同日期补发已先落库，跳过该日
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return fmt.Errorf("写入补发记录失败: %w", err)
			}
			total += details[i].BonusCoins
			result.Details = append(result.Details, details[i])
			result.GrantedDates++
		}

		if total == 0 {
			return nil
		}

		_, _, err = u.Ledger.Apply(tx, user, models.BucketGeneral, total, LedgerMeta{
			Type:        models.TxTypeGrant,
			ItemType:    "checkin_upgrade_bonus",
			SourceSn:    fmt.Sprintf("upgrade:%s:%s:%s", oldTier, newTier, upgradeDay),
			Description: fmt.Sprintf("升级补发签到奖励 %s -> %s，共%d天", oldTier, newTier, result.GrantedDates),
		})
		if err != nil {
			return err
		}
		result.TotalBonus = total
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	if result.TotalBonus > 0 {
		invalidateBalanceCache(ctx, u.Redis, userID)
		metrics.UpgradeBonusCoinsTotal.Add(float64(result.TotalBonus))
		log.L.Info("upgrade bonus granted",
			zap.Uint64("user_id", userID),
			zap.String("new_tier", newTier),
			zap.Int64("total_bonus", result.TotalBonus))
	}
	return result, nil
}
