package delivery

import (
	"context"
	"errors"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/pkg/loopjob"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/meoying/dlock-go"
)

type TimeoutConfig struct {
	// Timeout 非终态停留超过这个时间就认为处理它的进程已经不在了，
	// 要比一次投递加上全部重试和降级的耗时长
	Timeout   time.Duration `yaml:"timeout"`
	BatchSize int           `yaml:"batchSize"`
	// Interval 不足一批时的休息时间
	Interval time.Duration `yaml:"interval"`
	LockKey  string        `yaml:"lockKey"`
}

func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Timeout:   10 * time.Minute,
		BatchSize: 50,
		Interval:  30 * time.Second,
		LockKey:   "repairshop:intent:timeout",
	}
}

// SendingTimeoutTask 把长时间停在 PENDING 或者 SENDING 的意图标记为失败
type SendingTimeoutTask struct {
	dclient dlock.Client
	repo    repository.NotificationIntentRepository
	clock   clock.Clock
	cfg     TimeoutConfig
	logger  *elog.Component
}

func NewSendingTimeoutTask(
	dclient dlock.Client,
	repo repository.NotificationIntentRepository,
	clk clock.Clock,
	cfg TimeoutConfig,
) *SendingTimeoutTask {
	def := DefaultTimeoutConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.LockKey == "" {
		cfg.LockKey = def.LockKey
	}
	return &SendingTimeoutTask{
		dclient: dclient,
		repo:    repo,
		clock:   clk,
		cfg:     cfg,
		logger:  elog.DefaultLogger,
	}
}

func (t *SendingTimeoutTask) Start(ctx context.Context) {
	lj := loopjob.NewInfiniteLoop(t.dclient, t.HandleSendingTimeout, t.cfg.LockKey, 3*t.cfg.Interval, t.clock)
	lj.Run(ctx)
}

// HandleSendingTimeout 处理一批，不足一批说明超时的不多，休息一下
func (t *SendingTimeoutTask) HandleSendingTimeout(ctx context.Context) error {
	cnt, err := t.MarkTimeoutAsFailed(ctx)
	if err != nil {
		return err
	}
	if cnt < t.cfg.BatchSize {
		select {
		case <-t.clock.After(t.cfg.Interval):
		case <-ctx.Done():
		}
	}
	return nil
}

// MarkTimeoutAsFailed 返回本批查到的数量。
// CAS 失败说明投递引擎刚好推进了状态，以引擎的结果为准
func (t *SendingTimeoutTask) MarkTimeoutAsFailed(ctx context.Context) (int, error) {
	before := t.clock.Now().Add(-t.cfg.Timeout)
	stale, err := t.repo.FindStale(ctx, before, t.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	var merr *multierror.Error
	for _, intent := range stale {
		from := intent.Status
		intent.Status = domain.IntentStatusFailed
		intent.FailReason = domain.FailReasonTimeout
		err = t.repo.CASStatus(ctx, intent, from)
		if errors.Is(err, errs.ErrIntentStatusMismatch) {
			continue
		}
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		t.logger.Warn("通知意图处理超时，标记为失败",
			elog.String("intentID", intent.ID),
			elog.String("from", from.String()),
			elog.Int("attempts", intent.Attempts))
	}
	return len(stale), merr.ErrorOrNil()
}
