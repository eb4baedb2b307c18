package web

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
)

// IntentService 由 delivery.Engine 实现
//
//go:generate mockgen -source=./types.go -destination=./mocks/web.mock.go -package=webmocks IntentService,ReminderService
type IntentService interface {
	SubmitIntent(ctx context.Context, req delivery.SubmitRequest) (domain.DeliveryResult, error)
	SendMany(ctx context.Context, intents []domain.NotificationIntent) []domain.DeliveryResult
	Cancel(ctx context.Context, id string) (bool, error)
}

// ReminderService 由 scheduler.ReminderScheduler 实现
type ReminderService interface {
	Schedule(ctx context.Context, intent domain.NotificationIntent) (string, error)
	Cancel(ctx context.Context, id string) (bool, error)
}
