package dao

import (
	"Tianji/models"
	"context"

	"gorm.io/gorm"
)

type Transaction struct {
	Repo[models.Transaction]
}

func NewTransaction(db *gorm.DB) *Transaction {
	return &Transaction{
		Repo: NewRepo[models.Transaction](db),
	}
}

// CreateTx 在调用方事务内追加一条流水
func (t *Transaction) CreateTx(tx *gorm.DB, record *models.Transaction) error {
	return tx.Create(record).Error
}

// GetOrderForUpdate 按单号锁定购买订单行
// 订单与余额是两个争用资源，加锁顺序固定为：先订单行，后余额行
func (t *Transaction) GetOrderForUpdate(tx *gorm.DB, orderSn string) (*models.Transaction, error) {
	var order models.Transaction
	err := ForUpdate(tx).
		Where("transaction_sn = ? AND type = ?", orderSn, models.TxTypePurchase).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetBySn 按单号查询
func (t *Transaction) GetBySn(ctx context.Context, sn string) (*models.Transaction, error) {
	return t.GetBySnTx(t.Db.WithContext(ctx), sn)
}

// GetBySnTx 事务内按单号查询
func (t *Transaction) GetBySnTx(tx *gorm.DB, sn string) (*models.Transaction, error) {
	var record models.Transaction
	err := tx.Where("transaction_sn = ?", sn).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsByTypeSource 幂等检查：同一 (用户, 类型, 来源单号) 是否已有流水
func (t *Transaction) ExistsByTypeSource(tx *gorm.DB, userID uint64, txType string, sourceSn string) (bool, error) {
	var count int64
	query := tx.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, txType)
	if sourceSn != "" {
		query = query.Where("source_sn = ?", sourceSn)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// HasCompletedPurchase 用户此前是否有已完成的购买（首充标记用）
func (t *Transaction) HasCompletedPurchase(tx *gorm.DB, userID uint64) (bool, error) {
	var count int64
	err := tx.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, models.TxTypePurchase, models.TxStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

// SumCompletedCoins 对账：统计用户所有已完成流水的币变动合计
func (t *Transaction) SumCompletedCoins(ctx context.Context, userID uint64) (int64, error) {
	var res struct {
		Total int64
	}
	err := t.Db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(coins_amount), 0) AS total").
		Where("user_id = ? AND status = ?", userID, models.TxStatusCompleted).
		Scan(&res).Error
	return res.Total, err
}

// ListRecords 流水分页筛选查询，游标按 ID 倒序
func (t *Transaction) ListRecords(ctx context.Context, userID uint64, action string, cursor int64, limit int) ([]models.Transaction, error) {
	var records []models.Transaction
	query := t.Db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TxStatusCompleted)

	switch action {
	case "income":
		query = query.Where("coins_amount > ?", 0)
	case "expense":
		query = query.Where("coins_amount < ?", 0)
	}

	if cursor > 0 {
		query = query.Where("id < ?", cursor)
	}

	err := query.Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}
