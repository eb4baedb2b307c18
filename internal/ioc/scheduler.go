package ioc

import (
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"gitee.com/flycash/repairshop-notification/internal/service/scheduler"
	"github.com/gotomicro/ego/core/econf"
)

func InitReminderScheduler(
	repo repository.ScheduledIntentRepository,
	engine *delivery.Engine,
	ids delivery.IDGenerator,
	clk clock.Clock,
) *scheduler.ReminderScheduler {
	cfg := scheduler.DefaultConfig()
	if err := econf.UnmarshalKey("scheduler", &cfg); err != nil {
		panic(err)
	}
	return scheduler.NewReminderScheduler(repo, engine, ids, clk, cfg)
}
