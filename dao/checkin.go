package dao

import (
	"Tianji/models"
	"context"

	"gorm.io/gorm"
)

type CheckIn struct {
	Repo[models.CheckInLog]
}

func NewCheckIn(db *gorm.DB) *CheckIn {
	return &CheckIn{
		Repo: NewRepo[models.CheckInLog](db),
	}
}

// GetByDate 查某日签到记录，没有返回 nil
func (c *CheckIn) GetByDate(tx *gorm.DB, userID uint64, date string) (*models.CheckInLog, error) {
	var logRow models.CheckInLog
	err := tx.Where("user_id = ? AND check_in_date = ?", userID, date).First(&logRow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &logRow, nil
}

// GetLatest 最近一次签到记录，没有返回 nil
func (c *CheckIn) GetLatest(tx *gorm.DB, userID uint64) (*models.CheckInLog, error) {
	var logRow models.CheckInLog
	err := tx.Where("user_id = ?", userID).Order("check_in_date DESC").First(&logRow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &logRow, nil
}

// ListBetween 查窗口期内的签到记录，升级补发扫描用（左闭右开）
func (c *CheckIn) ListBetween(tx *gorm.DB, userID uint64, fromDate, beforeDate string) ([]models.CheckInLog, error) {
	var logs []models.CheckInLog
	err := tx.Where("user_id = ? AND check_in_date >= ? AND check_in_date < ?", userID, fromDate, beforeDate).
		Order("check_in_date ASC").Find(&logs).Error
	return logs, err
}

// CountByUser 累计签到天数
func (c *CheckIn) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := c.Db.WithContext(ctx).Model(&models.CheckInLog{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

type UpgradeBonus struct {
	Repo[models.UpgradeBonusLog]
}

func NewUpgradeBonus(db *gorm.DB) *UpgradeBonus {
	return &UpgradeBonus{
		Repo: NewRepo[models.UpgradeBonusLog](db),
	}
}

// PaidDates 窗口内已补发过的签到日期集合，防重放
func (b *UpgradeBonus) PaidDates(tx *gorm.DB, userID uint64, fromDate, beforeDate string) (map[string]struct{}, error) {
	var rows []models.UpgradeBonusLog
	err := tx.Select("check_in_date").
		Where("user_id = ? AND check_in_date >= ? AND check_in_date < ?", userID, fromDate, beforeDate).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	paid := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		paid[row.CheckInDate] = struct{}{}
	}
	return paid, nil
}
