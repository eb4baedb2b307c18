package repository

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/repository/cache"
	"gitee.com/flycash/repairshop-notification/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/ekit/sqlx"
	"github.com/gotomicro/ego/core/elog"
)

// NotificationIntentRepository 通知意图仓储
//
//go:generate mockgen -source=./notification.go -destination=./mocks/notification.mock.go -package=repomocks NotificationIntentRepository
type NotificationIntentRepository interface {
	// Create 已存在时返回 errs.ErrIntentDuplicate
	Create(ctx context.Context, intent domain.NotificationIntent) error
	GetByID(ctx context.Context, id string) (domain.NotificationIntent, error)
	// CASStatus 只有当前状态是 from 的时候才写入 intent 的状态和结果字段
	CASStatus(ctx context.Context, intent domain.NotificationIntent, from domain.IntentStatus) error
	// DeliveryStats 统计 since 之后进入终态的意图
	DeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error)
	// FindStale 最后一次更新早于 before 的非终态意图
	FindStale(ctx context.Context, before time.Time, limit int) ([]domain.NotificationIntent, error)
}

type notificationIntentRepository struct {
	dao    dao.NotificationIntentDAO
	local  cache.IntentCache
	redis  cache.IntentCache
	logger *elog.Component
}

// NewNotificationIntentRepository 终态意图先查本地缓存，再查 redis，最后回源数据库
func NewNotificationIntentRepository(d dao.NotificationIntentDAO, local, redis cache.IntentCache) NotificationIntentRepository {
	return &notificationIntentRepository{
		dao:    d,
		local:  local,
		redis:  redis,
		logger: elog.DefaultLogger,
	}
}

func (r *notificationIntentRepository) Create(ctx context.Context, intent domain.NotificationIntent) error {
	return r.dao.Create(ctx, r.toEntity(intent))
}

func (r *notificationIntentRepository) GetByID(ctx context.Context, id string) (domain.NotificationIntent, error) {
	if intent, err := r.local.Get(ctx, id); err == nil {
		return intent, nil
	}
	if intent, err := r.redis.Get(ctx, id); err == nil {
		_ = r.local.Set(ctx, intent)
		return intent, nil
	}
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.NotificationIntent{}, err
	}
	intent := r.toDomain(entity)
	if intent.Status.IsTerminal() {
		r.cacheTerminal(ctx, intent)
	}
	return intent, nil
}

func (r *notificationIntentRepository) CASStatus(ctx context.Context, intent domain.NotificationIntent, from domain.IntentStatus) error {
	if !from.CanTransitTo(intent.Status) {
		return fmt.Errorf("%w: %s -> %s", errs.ErrIntentStatusMismatch, from, intent.Status)
	}
	err := r.dao.CASStatus(ctx, intent.ID, from.String(), dao.IntentUpdate{
		Status:            intent.Status.String(),
		Attempts:          intent.Attempts,
		FailReason:        intent.FailReason,
		Provider:          intent.Provider,
		ProviderMessageID: intent.ProviderMessageID,
	})
	if err != nil {
		return err
	}
	if intent.Status.IsTerminal() {
		r.cacheTerminal(ctx, intent)
	}
	return nil
}

func (r *notificationIntentRepository) DeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error) {
	counts, err := r.dao.CountFinishedSince(ctx, since.UnixMilli())
	if err != nil {
		return domain.DeliveryStats{}, err
	}
	var sent, failed, rateLimited int64
	for _, c := range counts {
		switch domain.IntentStatus(c.Status) {
		case domain.IntentStatusSent:
			sent += c.Cnt
		case domain.IntentStatusFailed:
			failed += c.Cnt
			if c.FailReason == domain.FailReasonRateLimited {
				rateLimited += c.Cnt
			}
		default:
		}
	}
	return domain.NewDeliveryStats(sent, failed, rateLimited), nil
}

func (r *notificationIntentRepository) FindStale(ctx context.Context, before time.Time, limit int) ([]domain.NotificationIntent, error) {
	entities, err := r.dao.FindStale(ctx, before.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.NotificationIntent) domain.NotificationIntent {
		return r.toDomain(src)
	}), nil
}

// cacheTerminal 缓存失败不影响主流程，回源数据库即可
func (r *notificationIntentRepository) cacheTerminal(ctx context.Context, intent domain.NotificationIntent) {
	_ = r.local.Set(ctx, intent)
	if err := r.redis.Set(ctx, intent); err != nil {
		r.logger.Warn("缓存终态通知意图失败", elog.String("intentID", intent.ID), elog.FieldErr(err))
	}
}

func (r *notificationIntentRepository) toEntity(intent domain.NotificationIntent) dao.NotificationIntent {
	var notBefore int64
	if !intent.NotBefore.IsZero() {
		notBefore = intent.NotBefore.UnixMilli()
	}
	return dao.NotificationIntent{
		ID:                intent.ID,
		TemplateID:        intent.TemplateID.String(),
		Recipient:         intent.Recipient,
		Payload:           sqlx.JsonColumn[map[string]string]{Val: intent.Payload, Valid: intent.Payload != nil},
		Priority:          string(intent.Priority),
		NotBefore:         notBefore,
		Attempts:          intent.Attempts,
		Status:            intent.Status.String(),
		FailReason:        intent.FailReason,
		Provider:          intent.Provider,
		ProviderMessageID: intent.ProviderMessageID,
	}
}

func (r *notificationIntentRepository) toDomain(entity dao.NotificationIntent) domain.NotificationIntent {
	var notBefore time.Time
	if entity.NotBefore > 0 {
		notBefore = time.UnixMilli(entity.NotBefore)
	}
	return domain.NotificationIntent{
		ID:                entity.ID,
		TemplateID:        domain.TemplateID(entity.TemplateID),
		Recipient:         entity.Recipient,
		Payload:           entity.Payload.Val,
		Priority:          domain.Priority(entity.Priority),
		NotBefore:         notBefore,
		Attempts:          entity.Attempts,
		Status:            domain.IntentStatus(entity.Status),
		FailReason:        entity.FailReason,
		Provider:          entity.Provider,
		ProviderMessageID: entity.ProviderMessageID,
		Ctime:             entity.Ctime,
		Utime:             entity.Utime,
	}
}
