package ioc

import (
	"time"

	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/audit"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/task/ecron"
)

func InitRetentionJob(repo repository.DeliveryAttemptRepository, clk clock.Clock) *audit.RetentionJob {
	type Config struct {
		Retention time.Duration `yaml:"retention"`
		BatchSize int           `yaml:"batchSize"`
	}
	cfg := Config{Retention: 90 * 24 * time.Hour, BatchSize: 500}
	if err := econf.UnmarshalKey("audit", &cfg); err != nil {
		panic(err)
	}
	return audit.NewRetentionJob(repo, clk, cfg.Retention, cfg.BatchSize)
}

func Crons(j *audit.RetentionJob) []ecron.Ecron {
	c1 := ecron.Load("cron.auditRetention").Build(ecron.WithJob(j.Do))
	return []ecron.Ecron{c1}
}
