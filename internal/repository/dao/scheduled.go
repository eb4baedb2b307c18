package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/errs"
	"github.com/ecodeclub/ekit/sqlx"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type ScheduledIntentDAO interface {
	Save(ctx context.Context, data ScheduledIntent) error
	// Claim 租约已经过期的行才能抢占成功，抢占之后租约到 until 为止
	Claim(ctx context.Context, intentID string, now, until int64) (bool, error)
	// Release 清空租约，下一次轮询可以再次抢占
	Release(ctx context.Context, intentID string) error
	// Delete 返回是否真的删除了一行
	Delete(ctx context.Context, intentID string) (bool, error)
	// DeleteUnclaimed 只删除没有被抢占的行，正在触发的提醒删不掉
	DeleteUnclaimed(ctx context.Context, intentID string, now int64) (bool, error)
	GetByID(ctx context.Context, intentID string) (ScheduledIntent, error)
	// FindDue not_before <= now 并且没有被抢占的意图，按到期时间升序
	FindDue(ctx context.Context, now int64, limit int) ([]ScheduledIntent, error)
}

// ScheduledIntent 定时发送的意图，进程重启之后靠它恢复
type ScheduledIntent struct {
	IntentID   string                             `gorm:"type:VARCHAR(64);primaryKey;comment:'意图ID'"`
	TemplateID string                             `gorm:"type:VARCHAR(64);NOT NULL"`
	Recipient  string                             `gorm:"type:VARCHAR(254);NOT NULL"`
	Payload    sqlx.JsonColumn[map[string]string] `gorm:"type:TEXT"`
	Priority   string                             `gorm:"type:VARCHAR(16);NOT NULL"`
	NotBefore  int64                              `gorm:"NOT NULL;index:idx_not_before;comment:'到期时间，毫秒'"`
	// 抢占租约的到期时间，毫秒。0 表示没有被抢占
	ClaimedUntil int64 `gorm:"NOT NULL;default:0"`
	Ctime        int64
}

type scheduledIntentDAO struct {
	db *egorm.Component
}

func NewScheduledIntentDAO(db *egorm.Component) ScheduledIntentDAO {
	return &scheduledIntentDAO{db: db}
}

func (d *scheduledIntentDAO) Save(ctx context.Context, data ScheduledIntent) error {
	data.Ctime = time.Now().UnixMilli()
	err := d.db.WithContext(ctx).Create(&data).Error
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: id=%s", errs.ErrIntentDuplicate, data.IntentID)
	}
	return err
}

func (d *scheduledIntentDAO) Claim(ctx context.Context, intentID string, now, until int64) (bool, error) {
	res := d.db.WithContext(ctx).Model(&ScheduledIntent{}).
		Where("intent_id = ? AND claimed_until < ?", intentID, now).
		Update("claimed_until", until)
	return res.RowsAffected > 0, res.Error
}

func (d *scheduledIntentDAO) Release(ctx context.Context, intentID string) error {
	return d.db.WithContext(ctx).Model(&ScheduledIntent{}).
		Where("intent_id = ?", intentID).
		Update("claimed_until", 0).Error
}

func (d *scheduledIntentDAO) DeleteUnclaimed(ctx context.Context, intentID string, now int64) (bool, error) {
	res := d.db.WithContext(ctx).
		Where("intent_id = ? AND claimed_until < ?", intentID, now).
		Delete(&ScheduledIntent{})
	return res.RowsAffected > 0, res.Error
}

func (d *scheduledIntentDAO) Delete(ctx context.Context, intentID string) (bool, error) {
	res := d.db.WithContext(ctx).Where("intent_id = ?", intentID).Delete(&ScheduledIntent{})
	return res.RowsAffected > 0, res.Error
}

func (d *scheduledIntentDAO) GetByID(ctx context.Context, intentID string) (ScheduledIntent, error) {
	var res ScheduledIntent
	err := d.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ScheduledIntent{}, fmt.Errorf("%w: id=%s", errs.ErrScheduledIntentNotFound, intentID)
	}
	return res, err
}

func (d *scheduledIntentDAO) FindDue(ctx context.Context, now int64, limit int) ([]ScheduledIntent, error) {
	var res []ScheduledIntent
	err := d.db.WithContext(ctx).
		Where("not_before <= ? AND claimed_until < ?", now, now).
		Order("not_before ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}
