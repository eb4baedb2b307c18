package dao

import (
	"context"

	"github.com/ego-component/egorm"
)

type DeliveryAttemptDAO interface {
	// Append 审计记录只追加
	Append(ctx context.Context, data DeliveryAttempt) error
	ListByIntent(ctx context.Context, intentID string) ([]DeliveryAttempt, error)
	// DeleteBefore 删除 ctime 早于 before 的记录，最多 limit 条
	DeleteBefore(ctx context.Context, before int64, limit int) (int64, error)
}

// DeliveryAttempt 投递尝试审计表
type DeliveryAttempt struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	IntentID      string `gorm:"type:VARCHAR(64);NOT NULL;index:idx_intent_attempt,priority:1;comment:'意图ID'"`
	AttemptNumber int    `gorm:"type:INT;NOT NULL;index:idx_intent_attempt,priority:2;comment:'第几次尝试，跨供应商连续编号'"`
	Provider      string `gorm:"type:VARCHAR(64);NOT NULL;comment:'供应商'"`
	Outcome       string `gorm:"type:ENUM('success','transientFailure','permanentFailure');NOT NULL;comment:'结果'"`
	ErrorKind     string `gorm:"type:VARCHAR(32);comment:'错误分类'"`
	ErrorDetail   string `gorm:"type:TEXT;comment:'错误详情'"`
	Ctime         int64  `gorm:"index:idx_ctime"`
}

type deliveryAttemptDAO struct {
	db *egorm.Component
}

func NewDeliveryAttemptDAO(db *egorm.Component) DeliveryAttemptDAO {
	return &deliveryAttemptDAO{db: db}
}

func (d *deliveryAttemptDAO) Append(ctx context.Context, data DeliveryAttempt) error {
	data.ID = 0
	return d.db.WithContext(ctx).Create(&data).Error
}

func (d *deliveryAttemptDAO) ListByIntent(ctx context.Context, intentID string) ([]DeliveryAttempt, error) {
	var res []DeliveryAttempt
	err := d.db.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("attempt_number ASC").
		Find(&res).Error
	return res, err
}

func (d *deliveryAttemptDAO) DeleteBefore(ctx context.Context, before int64, limit int) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("ctime < ?", before).
		Limit(limit).
		Delete(&DeliveryAttempt{})
	return res.RowsAffected, res.Error
}
