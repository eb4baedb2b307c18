package repository

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/ekit/sqlx"
)

// ScheduledIntentRepository 定时意图的持久化存储，进程重启后依靠它恢复
//
//go:generate mockgen -source=./scheduled.go -destination=./mocks/scheduled.mock.go -package=repomocks ScheduledIntentRepository
type ScheduledIntentRepository interface {
	// Save 失败时返回 errs.ErrSchedulerPersistence
	Save(ctx context.Context, intent domain.NotificationIntent) error
	// Claim 抢占一个到期的提醒，租约到 until 为止。
	// 返回 false 表示已经被取消，或者租约还在别人手里
	Claim(ctx context.Context, id string, now, until time.Time) (bool, error)
	// Release 放弃租约，下一次轮询重新抢占
	Release(ctx context.Context, id string) error
	// Delete 提交结果已经落库之后删除
	Delete(ctx context.Context, id string) (bool, error)
	// Cancel 只删除没有被抢占的提醒，返回 false 表示已经触发、正在触发或者不存在
	Cancel(ctx context.Context, id string, now time.Time) (bool, error)
	// FindDue 到期并且没有被抢占的提醒
	FindDue(ctx context.Context, now time.Time, limit int) ([]domain.NotificationIntent, error)
}

type scheduledIntentRepository struct {
	dao dao.ScheduledIntentDAO
}

func NewScheduledIntentRepository(d dao.ScheduledIntentDAO) ScheduledIntentRepository {
	return &scheduledIntentRepository{dao: d}
}

func (r *scheduledIntentRepository) Save(ctx context.Context, intent domain.NotificationIntent) error {
	err := r.dao.Save(ctx, dao.ScheduledIntent{
		IntentID:   intent.ID,
		TemplateID: intent.TemplateID.String(),
		Recipient:  intent.Recipient,
		Payload:    sqlx.JsonColumn[map[string]string]{Val: intent.Payload, Valid: intent.Payload != nil},
		Priority:   string(intent.Priority),
		NotBefore:  intent.NotBefore.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("%w: id=%s: %w", errs.ErrSchedulerPersistence, intent.ID, err)
	}
	return nil
}

func (r *scheduledIntentRepository) Claim(ctx context.Context, id string, now, until time.Time) (bool, error) {
	ok, err := r.dao.Claim(ctx, id, now.UnixMilli(), until.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("%w: id=%s: %w", errs.ErrSchedulerPersistence, id, err)
	}
	return ok, nil
}

func (r *scheduledIntentRepository) Release(ctx context.Context, id string) error {
	if err := r.dao.Release(ctx, id); err != nil {
		return fmt.Errorf("%w: id=%s: %w", errs.ErrSchedulerPersistence, id, err)
	}
	return nil
}

func (r *scheduledIntentRepository) Cancel(ctx context.Context, id string, now time.Time) (bool, error) {
	ok, err := r.dao.DeleteUnclaimed(ctx, id, now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("%w: id=%s: %w", errs.ErrSchedulerPersistence, id, err)
	}
	return ok, nil
}

func (r *scheduledIntentRepository) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.dao.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: id=%s: %w", errs.ErrSchedulerPersistence, id, err)
	}
	return ok, nil
}

func (r *scheduledIntentRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.NotificationIntent, error) {
	entities, err := r.dao.FindDue(ctx, now.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSchedulerPersistence, err)
	}
	return slice.Map(entities, func(_ int, src dao.ScheduledIntent) domain.NotificationIntent {
		return domain.NotificationIntent{
			ID:         src.IntentID,
			TemplateID: domain.TemplateID(src.TemplateID),
			Recipient:  src.Recipient,
			Payload:    src.Payload.Val,
			Priority:   domain.Priority(src.Priority),
			NotBefore:  time.UnixMilli(src.NotBefore),
			Status:     domain.IntentStatusPending,
		}
	}), nil
}
