package service

import (
	"Tianji/dao"
	"Tianji/models"
	"Tianji/types"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompletenessService 资料完整度奖励
// 奖励只由数据完整度的变化驱动，客户端自报的"我解锁了X"一律不采信
type CompletenessService struct {
	DB              *gorm.DB
	Redis           *redis.Client
	UserDAO         *dao.User
	CompletenessDAO *dao.Completeness
	Ledger          *LedgerService
}

var _ ICompletenessService = (*CompletenessService)(nil)

type ICompletenessService interface {
	UpdateFields(ctx context.Context, userID uint64, req *types.UpdateCompletenessReq) (*types.CompletenessResp, error)
	Status(ctx context.Context, userID uint64) (*types.CompletenessStatusResp, error)
	Score(user *models.User) int
}

// fieldStates 各完整度字段当前是否已填
func fieldStates(user *models.User) map[string]bool {
	return map[string]bool{
		"birth_data":     user.HasBirthData(),
		"mbti":           user.MBTI != "",
		"profession":     user.Profession != "",
		"current_status": user.CurrentStatus != "",
		"wishes":         len(user.Wishes) > 0 && string(user.Wishes) != "null" && string(user.Wishes) != "[]",
	}
}

// Score 完整度得分 0-100，按字段权重累加
func (c *CompletenessService) Score(user *models.User) int {
	score := 0
	for field, set := range fieldStates(user) {
		if set {
			score += models.CompletenessWeights[field]
		}
	}
	return score
}

// Status 当前完整度与已领奖励
func (c *CompletenessService) Status(ctx context.Context, userID uint64) (*types.CompletenessStatusResp, error) {
	user, err := c.UserDAO.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	rewards, err := c.CompletenessDAO.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &types.CompletenessStatusResp{
		Score:   c.Score(user),
		Fields:  fieldStates(user),
		Rewards: make([]types.GrantedReward, 0, len(rewards)),
	}
	for _, r := range rewards {
		resp.Rewards = append(resp.Rewards, types.GrantedReward{
			RewardType: r.RewardType,
			Field:      r.RewardField,
			Threshold:  r.RewardThreshold,
			Coins:      r.Coins,
		})
	}
	return resp, nil
}

// UpdateFields 更新资料字段并结算完整度奖励：
// 同一事务内算更新前后的得分，字段从空到有发字段奖励，得分跨过阈值发阈值奖励
// 唯一索引保证每个 (字段/阈值) 终身只发一次，预检查撞上并发时静默跳过
func (c *CompletenessService) UpdateFields(ctx context.Context, userID uint64, req *types.UpdateCompletenessReq) (*types.CompletenessResp, error) {
	if req == nil {
		return nil, ErrInvalidParam
	}

	var resp types.CompletenessResp
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := c.UserDAO.GetForUpdate(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		oldStates := fieldStates(user)
		oldScore := c.Score(user)

		updates := map[string]interface{}{}
		if req.BirthDatetime != nil {
			user.BirthDatetime = req.BirthDatetime
			updates["birth_datetime"] = req.BirthDatetime
		}
		if req.BirthPlace != nil {
			user.BirthPlace = *req.BirthPlace
			updates["birth_place"] = *req.BirthPlace
		}
		if req.MBTI != nil {
			user.MBTI = *req.MBTI
			updates["mbti"] = *req.MBTI
		}
		if req.Profession != nil {
			user.Profession = *req.Profession
			updates["profession"] = *req.Profession
		}
		if req.CurrentStatus != nil {
			user.CurrentStatus = *req.CurrentStatus
			updates["current_status"] = *req.CurrentStatus
		}
		if req.Wishes != nil {
			raw, err := json.Marshal(req.Wishes)
			if err != nil {
				return ErrInvalidParam
			}
			user.Wishes = datatypes.JSON(raw)
			updates["wishes"] = datatypes.JSON(raw)
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
				return fmt.Errorf("更新资料失败: %w", err)
			}
		}

		newStates := fieldStates(user)
		newScore := c.Score(user)
		resp.OldScore = oldScore
		resp.NewScore = newScore

		// 字段奖励：从空到有，终身一次
		for field, setNow := range newStates {
			if !setNow || oldStates[field] {
				continue
			}
			coins := models.FieldRewardRules[field]
			if coins <= 0 {
				continue
			}
			granted, err := c.grantOnce(tx, user, &models.CompletenessReward{
				UserID:      userID,
				RewardType:  models.CompletenessRewardField,
				RewardField: field,
				Coins:       coins,
				Reason:      fmt.Sprintf("完善资料: %s", field),
			})
			if err != nil {
				return err
			}
			if granted {
				resp.Granted = append(resp.Granted, types.GrantedReward{
					RewardType: models.CompletenessRewardField,
					Field:      field,
					Coins:      coins,
				})
			}
		}

		// 阈值奖励：old < threshold <= new
		for _, rule := range models.ThresholdRewardRules {
			if !(oldScore < rule.Threshold && rule.Threshold <= newScore) {
				continue
			}
			granted, err := c.grantOnce(tx, user, &models.CompletenessReward{
				UserID:          userID,
				RewardType:      models.CompletenessRewardThreshold,
				RewardThreshold: rule.Threshold,
				Coins:           rule.Coins,
				Reason:          fmt.Sprintf("完整度达到%d%%", rule.Threshold),
			})
			if err != nil {
				return err
			}
			if granted {
				resp.Granted = append(resp.Granted, types.GrantedReward{
					RewardType: models.CompletenessRewardThreshold,
					Threshold:  rule.Threshold,
					Coins:      rule.Coins,
				})
			}
		}

		resp.NewBalance = user.TianjiCoinsBalance
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	if len(resp.Granted) > 0 {
		invalidateBalanceCache(ctx, c.Redis, userID)
	}
	return &resp, nil
}

// grantOnce 写奖励记录并入账，预检查挡掉已发过的，并发撞上唯一索引时同样跳过
func (c *CompletenessService) grantOnce(tx *gorm.DB, user *models.User, reward *models.CompletenessReward) (bool, error) {
	var exists bool
	var err error
	if reward.RewardType == models.CompletenessRewardField {
		exists, err = c.CompletenessDAO.ExistsField(tx, user.ID, reward.RewardField)
	} else {
		exists, err = c.CompletenessDAO.ExistsThreshold(tx, user.ID, reward.RewardThreshold)
	}
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := tx.Create(reward).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("写入完整度奖励记录失败: %w", err)
	}

	_, _, err = c.Ledger.Apply(tx, user, models.BucketGeneral, reward.Coins, LedgerMeta{
		Type:        models.TxTypeGrant,
		ItemType:    "completeness_reward",
		Description: reward.Reason,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
