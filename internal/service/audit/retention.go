package audit

import (
	"context"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"github.com/gotomicro/ego/core/elog"
)

// RetentionJob 定时清理过期的投递审计记录，由 ecron 调度
type RetentionJob struct {
	repo      repository.DeliveryAttemptRepository
	clock     clock.Clock
	retention time.Duration
	batchSize int
	logger    *elog.Component
}

func NewRetentionJob(repo repository.DeliveryAttemptRepository, clk clock.Clock, retention time.Duration, batchSize int) *RetentionJob {
	return &RetentionJob{
		repo:      repo,
		clock:     clk,
		retention: retention,
		batchSize: batchSize,
		logger:    elog.DefaultLogger,
	}
}

// Do 分批删除，直到某一批不满
func (j *RetentionJob) Do(ctx context.Context) error {
	before := j.clock.Now().Add(-j.retention)
	var total int64
	for {
		ctx1, cancel := context.WithTimeout(ctx, time.Second*3)
		cnt, err := j.repo.DeleteBefore(ctx1, before, j.batchSize)
		cancel()
		if err != nil {
			j.logger.Error("清理投递审计记录失败", elog.FieldErr(err))
			return err
		}
		total += cnt
		if cnt < int64(j.batchSize) {
			j.logger.Info("清理投递审计记录", elog.Any("deleted", total), elog.String("before", before.Format(time.RFC3339)))
			return nil
		}
	}
}
