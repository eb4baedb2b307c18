package repository

import (
	"context"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

// DeliveryAttemptRepository 投递审计记录
//
//go:generate mockgen -source=./attempt.go -destination=./mocks/attempt.mock.go -package=repomocks DeliveryAttemptRepository
type DeliveryAttemptRepository interface {
	Append(ctx context.Context, record domain.DeliveryAttemptRecord) error
	ListByIntent(ctx context.Context, intentID string) ([]domain.DeliveryAttemptRecord, error)
	DeleteBefore(ctx context.Context, before time.Time, limit int) (int64, error)
}

type deliveryAttemptRepository struct {
	dao dao.DeliveryAttemptDAO
}

func NewDeliveryAttemptRepository(d dao.DeliveryAttemptDAO) DeliveryAttemptRepository {
	return &deliveryAttemptRepository{dao: d}
}

func (r *deliveryAttemptRepository) Append(ctx context.Context, record domain.DeliveryAttemptRecord) error {
	return r.dao.Append(ctx, dao.DeliveryAttempt{
		IntentID:      record.IntentID,
		AttemptNumber: record.AttemptNumber,
		Provider:      record.Provider,
		Outcome:       string(record.Outcome),
		ErrorKind:     string(record.ErrorKind),
		ErrorDetail:   record.ErrorDetail,
		Ctime:         record.Timestamp.UnixMilli(),
	})
}

func (r *deliveryAttemptRepository) ListByIntent(ctx context.Context, intentID string) ([]domain.DeliveryAttemptRecord, error) {
	entities, err := r.dao.ListByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.DeliveryAttempt) domain.DeliveryAttemptRecord {
		return domain.DeliveryAttemptRecord{
			IntentID:      src.IntentID,
			AttemptNumber: src.AttemptNumber,
			Provider:      src.Provider,
			Outcome:       domain.AttemptOutcome(src.Outcome),
			ErrorKind:     errs.DeliveryErrorKind(src.ErrorKind),
			ErrorDetail:   src.ErrorDetail,
			Timestamp:     time.UnixMilli(src.Ctime),
		}
	}), nil
}

func (r *deliveryAttemptRepository) DeleteBefore(ctx context.Context, before time.Time, limit int) (int64, error) {
	return r.dao.DeleteBefore(ctx, before.UnixMilli(), limit)
}
