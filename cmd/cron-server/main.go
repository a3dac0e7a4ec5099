package main

import (
	"Tianji/config"
	"Tianji/dao"
	"Tianji/pkg/client"
	"Tianji/pkg/database"
	"Tianji/pkg/log"
	"Tianji/service"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 定时任务进程：赠币过期清零 + 订阅到期降级，和 api-server 分开部署避免互相拖累
func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	cfg := config.New(fmt.Sprintf("configs/config.%s.yaml", env))

	db := database.NewDB(cfg)
	rdb := client.NewRedisClient(cfg)
	userDAO := dao.NewUser(db)
	transactionDAO := dao.NewTransaction(db)
	subscriptionDAO := dao.NewSubscription(db)
	checkInDAO := dao.NewCheckIn(db)
	upgradeBonusDAO := dao.NewUpgradeBonus(db)

	ledger := &service.LedgerService{UserDAO: userDAO, TransactionDAO: transactionDAO}
	upgrade := &service.UpgradeService{
		DB: db, Redis: rdb, UserDAO: userDAO, CheckInDAO: checkInDAO,
		UpgradeBonusDAO: upgradeBonusDAO, Ledger: ledger,
	}
	subscription := &service.SubscriptionService{
		DB: db, Redis: rdb, UserDAO: userDAO, SubscriptionDAO: subscriptionDAO, Upgrade: upgrade,
	}
	wallet := &service.WalletService{
		Config: cfg, DB: db, Redis: rdb, UserDAO: userDAO, TransactionDAO: transactionDAO,
		Ledger: ledger, Subscription: subscription,
	}

	c := cron.New()

	// 每天 00:05 清理已过期的赠币桶
	if _, err := c.AddFunc("5 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		cleaned, err := wallet.ExpireGrants(ctx, time.Now(), 1000)
		if err != nil {
			log.L.Error("expire grants job failed", zap.Error(err))
			return
		}
		log.L.Info("expire grants job done", zap.Int("cleaned", cleaned))
	}); err != nil {
		log.L.Fatal("register expire grants job", zap.Error(err))
	}

	// 每小时处理到期订阅
	if _, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		expired, err := subscription.ExpireSubscriptions(ctx, time.Now(), 1000)
		if err != nil {
			log.L.Error("expire subscriptions job failed", zap.Error(err))
			return
		}
		log.L.Info("expire subscriptions job done", zap.Int("expired", expired))
	}); err != nil {
		log.L.Fatal("register expire subscriptions job", zap.Error(err))
	}

	c.Start()
	log.L.Info("cron server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	<-quit

	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.L.Info("cron server stopped")
}
