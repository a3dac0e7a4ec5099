package database

import (
	"Tianji/config"
	"Tianji/pkg/log"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewDB 初始化数据库连接
// 连接句柄在进程启动时创建、关停时释放，按依赖注入传递，不做包级单例
func NewDB(conf *config.Config) *gorm.DB {
	dsn := conf.MySQL.Dsn()
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true, // 唯一键冲突要翻译成 gorm.ErrDuplicatedKey，签到防重依赖它
	})
	if err != nil {
		log.L.Fatal("failed to connect database", zap.Error(err))
	}
	log.L.Info("connect database success")
	return db
}
