package scheduler

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/pkg/loopjob"
	"github.com/meoying/dlock-go"
)

// Task 多实例部署时只有抢到分布式锁的实例轮询。
// 每个实例抢到锁后的第一次轮询就是启动恢复
type Task struct {
	scheduler *ReminderScheduler
	dclient   dlock.Client
	clock     clock.Clock
}

func NewTask(scheduler *ReminderScheduler, dclient dlock.Client, clk clock.Clock) *Task {
	return &Task{scheduler: scheduler, dclient: dclient, clock: clk}
}

func (t *Task) Start(ctx context.Context) {
	cfg := t.scheduler.Config()
	// 租约要覆盖一次轮询加一个等待间隔
	lease := 3 * cfg.Interval
	go loopjob.NewInfiniteLoop(t.dclient, t.scheduler.Loop, cfg.LockKey, lease, t.clock).Run(ctx)
}
