package ioc

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/repository/dao"
	"github.com/ecodeclub/ekit/retry"
	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db         *gorm.DB
	dbInitOnce sync.Once
)

func WaitForDBSetup(dsn string) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		panic(err)
	}
	defer sqlDB.Close()
	const maxInterval = 10 * time.Second
	const maxRetries = 10
	strategy, err := retry.NewExponentialBackoffRetryStrategy(time.Second, maxInterval, maxRetries)
	if err != nil {
		panic(err)
	}

	const timeout = 5 * time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = sqlDB.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		next, ok := strategy.Next()
		if !ok {
			panic("WaitForDBSetup 重试失败......")
		}
		time.Sleep(next)
	}
}

// InitDB e2e 测试用，连接 docker compose 里面的 MySQL 并建表
func InitDB() *gorm.DB {
	dbInitOnce.Do(func() {
		dsn := "root:root@tcp(localhost:13316)/repairshop_notification?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=True&loc=Local&timeout=1s&readTimeout=3s&writeTimeout=3s&multiStatements=true"
		WaitForDBSetup(dsn)
		var err error
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			panic(fmt.Errorf("数据库连接失败: %w", err))
		}
		if err = dao.InitTables(db); err != nil {
			panic(err)
		}
	})
	return db
}
