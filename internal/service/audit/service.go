package audit

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
)

//go:generate mockgen -source=./service.go -destination=./mocks/audit.mock.go -package=auditmocks Service
type Service interface {
	// GetDeliveryStats 统计最近 window 时间内进入终态的意图
	GetDeliveryStats(ctx context.Context, window time.Duration) (domain.DeliveryStats, error)
	// ListAttempts 某个意图的全部投递尝试
	ListAttempts(ctx context.Context, intentID string) ([]domain.DeliveryAttemptRecord, error)
}

type service struct {
	intents  repository.NotificationIntentRepository
	attempts repository.DeliveryAttemptRepository
	clock    clock.Clock
}

func NewService(intents repository.NotificationIntentRepository, attempts repository.DeliveryAttemptRepository, clk clock.Clock) Service {
	return &service{intents: intents, attempts: attempts, clock: clk}
}

func (s *service) GetDeliveryStats(ctx context.Context, window time.Duration) (domain.DeliveryStats, error) {
	if window <= 0 {
		return domain.DeliveryStats{}, fmt.Errorf("%w: window = %s", errs.ErrInvalidParameter, window)
	}
	return s.intents.DeliveryStats(ctx, s.clock.Now().Add(-window))
}

func (s *service) ListAttempts(ctx context.Context, intentID string) ([]domain.DeliveryAttemptRecord, error) {
	return s.attempts.ListByIntent(ctx, intentID)
}
