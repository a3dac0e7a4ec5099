package service

import (
	"Tianji/config"
	"Tianji/dao"
	"Tianji/models"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// env 一套完整的服务编排，跑在内存 sqlite 上，redis 留空走数据库兜底路径
type env struct {
	db *gorm.DB

	UserDAO        *dao.User
	TransactionDAO *dao.Transaction

	Ledger       *LedgerService
	Wallet       *WalletService
	Pay          *PayService
	Checkin      *CheckinService
	Upgrade      *UpgradeService
	Completeness *CompletenessService
	Admin        *AdminService
	Subscription *SubscriptionService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库只有单连接，放宽连接数会拿到互不相通的空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.CheckInLog{},
		&models.UpgradeBonusLog{},
		&models.CompletenessReward{},
		&models.Subscription{},
	))

	cfg := &config.Config{Economy: config.DefaultEconomy()}

	userDAO := dao.NewUser(db)
	txDAO := dao.NewTransaction(db)
	checkinDAO := dao.NewCheckIn(db)
	bonusDAO := dao.NewUpgradeBonus(db)
	completenessDAO := dao.NewCompleteness(db)
	subDAO := dao.NewSubscription(db)

	ledger := &LedgerService{UserDAO: userDAO, TransactionDAO: txDAO}
	upgrade := &UpgradeService{DB: db, UserDAO: userDAO, CheckInDAO: checkinDAO, UpgradeBonusDAO: bonusDAO, Ledger: ledger}
	subscription := &SubscriptionService{DB: db, UserDAO: userDAO, SubscriptionDAO: subDAO, Upgrade: upgrade}
	wallet := &WalletService{Config: cfg, DB: db, UserDAO: userDAO, TransactionDAO: txDAO, Ledger: ledger, Subscription: subscription}
	pay := &PayService{Config: cfg, DB: db, UserDAO: userDAO, TransactionDAO: txDAO, Ledger: ledger}
	checkin := NewCheckinService(db, nil, userDAO, checkinDAO, ledger, subscription)
	completeness := &CompletenessService{DB: db, UserDAO: userDAO, CompletenessDAO: completenessDAO, Ledger: ledger}
	admin := &AdminService{DB: db, UserDAO: userDAO, Ledger: ledger}

	return &env{
		db:             db,
		UserDAO:        userDAO,
		TransactionDAO: txDAO,
		Ledger:         ledger,
		Wallet:         wallet,
		Pay:            pay,
		Checkin:        checkin,
		Upgrade:        upgrade,
		Completeness:   completeness,
		Admin:          admin,
		Subscription:   subscription,
	}
}

// attachRedis 给所有带缓存路径的服务挂上 miniredis，测旁路缓存的读写和失效用
func (e *env) attachRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e.Wallet.Redis = rdb
	e.Pay.Redis = rdb
	e.Checkin.Redis = rdb
	e.Admin.Redis = rdb
	e.Upgrade.Redis = rdb
	e.Completeness.Redis = rdb
	e.Subscription.Redis = rdb
	return mr
}

// createUser 建一个余额指定的用户，返回 ID
func (e *env) createUser(t *testing.T, balance int64) uint64 {
	t.Helper()
	user := &models.User{
		Nickname:           "测试用户",
		TianjiCoinsBalance: balance,
		Tier:               models.TierGuest,
	}
	require.NoError(t, e.db.Create(user).Error)
	// 初始余额补一条调账流水，保证对账闭合
	if balance != 0 {
		require.NoError(t, e.db.Create(&models.Transaction{
			UserID:        user.ID,
			TransactionSn: fmt.Sprintf("SEED-%d", user.ID),
			Type:          models.TxTypeAdminAdjust,
			CoinsAmount:   balance,
			Description:   "期初余额",
			Status:        models.TxStatusCompleted,
		}).Error)
	}
	return user.ID
}

// createAdmin 建一个管理员账号
func (e *env) createAdmin(t *testing.T) uint64 {
	t.Helper()
	admin := &models.User{Nickname: "管理员", IsAdmin: true, Tier: models.TierGuest}
	require.NoError(t, e.db.Create(admin).Error)
	return admin.ID
}

// subscribe 给用户开一档订阅
func (e *env) subscribe(t *testing.T, userID uint64, tier string, days int) {
	t.Helper()
	expires := time.Now().AddDate(0, 0, days)
	require.NoError(t, e.db.Create(&models.Subscription{
		UserID:    userID,
		Tier:      tier,
		Status:    models.SubStatusActive,
		StartedAt: time.Now(),
		ExpiresAt: &expires,
	}).Error)
	require.NoError(t, e.UserDAO.UpdateTier(e.db, userID, tier, models.SubStatusActive, &expires))
}

// balance 读当前主余额
func (e *env) balance(t *testing.T, userID uint64) int64 {
	t.Helper()
	user, err := e.UserDAO.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.TianjiCoinsBalance
}

// txCount 某类型流水条数
func (e *env) txCount(t *testing.T, userID uint64, txType string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, txType).Count(&count).Error)
	return count
}
