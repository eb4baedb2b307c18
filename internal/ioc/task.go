package ioc

import (
	auditevt "gitee.com/flycash/repairshop-notification/internal/event/audit"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"gitee.com/flycash/repairshop-notification/internal/service/scheduler"
)

func InitTasks(
	t1 *scheduler.Task,
	t2 *auditevt.ProviderHealthConsumer,
	t3 *delivery.SendingTimeoutTask,
) []Task {
	return []Task{
		t1,
		t2,
		t3,
	}
}
