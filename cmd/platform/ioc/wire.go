//go:build wireinject

package ioc

import (
	"gitee.com/flycash/repairshop-notification/internal/ioc"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/repository/cache/local"
	"gitee.com/flycash/repairshop-notification/internal/repository/cache/redis"
	"gitee.com/flycash/repairshop-notification/internal/repository/dao"
	"gitee.com/flycash/repairshop-notification/internal/service/audit"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"gitee.com/flycash/repairshop-notification/internal/service/scheduler"
	"gitee.com/flycash/repairshop-notification/internal/service/ticket"
	"gitee.com/flycash/repairshop-notification/internal/web"
	"github.com/google/wire"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitDistributedLock,
		ioc.InitGoCache,
		ioc.InitMQ,
		ioc.InitIDGenerator,
		ioc.InitClock,
	)
	intentSvcSet = wire.NewSet(
		newIntentRepository,
		dao.NewNotificationIntentDAO,
		local.NewCache,
		redis.NewCache,
	)
	auditSvcSet = wire.NewSet(
		audit.NewRecorder,
		audit.NewService,
		repository.NewDeliveryAttemptRepository,
		dao.NewDeliveryAttemptDAO,
		ioc.InitAttemptEventProducer,
		ioc.InitProviderHealthConsumer,
		ioc.InitRetentionJob,
	)
	deliverySvcSet = wire.NewSet(
		ioc.InitProviders,
		ioc.InitRecipientLimiter,
		ioc.InitValidator,
		ioc.InitRenderer,
		ioc.InitEngine,
		ioc.InitSendingTimeoutTask,
		wire.Bind(new(delivery.Submitter), new(*delivery.Engine)),
		wire.Bind(new(web.IntentService), new(*delivery.Engine)),
	)
	schedulerSvcSet = wire.NewSet(
		ioc.InitReminderScheduler,
		scheduler.NewTask,
		repository.NewScheduledIntentRepository,
		dao.NewScheduledIntentDAO,
		wire.Bind(new(web.ReminderService), new(*scheduler.ReminderScheduler)),
	)
	ticketSvcSet = wire.NewSet(
		ticket.NewService,
		repository.NewTicketRepository,
		dao.NewTicketDAO,
	)
)

// newIntentRepository 本地缓存和 redis 缓存是同一个接口，wire 区分不了
func newIntentRepository(d dao.NotificationIntentDAO, lc *local.Cache, rc *redis.Cache) repository.NotificationIntentRepository {
	return repository.NewNotificationIntentRepository(d, lc, rc)
}

func InitApp() *ioc.App {
	wire.Build(
		// 基础设施
		BaseSet,

		// 通知意图
		intentSvcSet,

		// 审计
		auditSvcSet,

		// 投递
		deliverySvcSet,

		// 定时提醒
		schedulerSvcSet,

		// 维修单
		ticketSvcSet,

		web.NewHandler,
		ioc.InitWebServer,
		ioc.InitTasks,
		ioc.Crons,
		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App)
}
