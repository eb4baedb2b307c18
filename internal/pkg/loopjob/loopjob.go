package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// 在没有分布式任务调度平台的情况下，使用这个来调度

const defaultTimeout = time.Second * 3

// InfiniteLoop 抢到分布式锁的实例才执行业务，保证同一时刻只有一个实例在跑
type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	// interval 锁的过期时间，也是抢锁失败之后的等待时间
	interval time.Duration
	clock    clock.Clock
	logger   *elog.Component
	biz      func(ctx context.Context) error
}

func NewInfiniteLoop(
	dclient dlock.Client,
	// 你要执行的业务。注意当 ctx 被取消的时候，就会退出全部循环。
	// 每执行一次 biz 续约一次，所以 biz 单次执行的时间要小于 interval
	biz func(ctx context.Context) error,
	key string,
	interval time.Duration,
	clk clock.Clock,
) *InfiniteLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &InfiniteLoop{
		dclient:  dclient,
		key:      key,
		interval: interval,
		clock:    clk,
		logger:   elog.DefaultLogger.With(elog.String("key", key)),
		biz:      biz,
	}
}

// Run 当 ctx 被取消的时候，就会退出
func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.interval)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", elog.FieldErr(err))
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		// 没有拿到锁，不管是系统错误，还是锁被人持有，都没有关系
		// 暂停一段时间之后继续
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			l.logger.Info("没有抢到分布式锁", elog.FieldErr(err))
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		err = l.bizLoop(ctx, lock)
		// 要么是续约失败，要么是 ctx 本身已经过期了
		if err != nil {
			l.logger.Error("执行业务失败，将执行重试", elog.FieldErr(err))
		}
		// 此时 ctx 可能已经被取消，但是仍然要尝试释放锁
		unCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
		}
		err = ctx.Err()
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			l.logger.Info("任务被取消，退出任务循环")
			return
		default:
			if !l.sleep(ctx) {
				return
			}
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		err := l.biz(ctx)
		if err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("分布式锁续约失败 %w", err)
		}
	}
}

// sleep 返回 false 表示 ctx 已经结束
func (l *InfiniteLoop) sleep(ctx context.Context) bool {
	select {
	case <-l.clock.After(l.interval):
		return true
	case <-ctx.Done():
		return false
	}
}
