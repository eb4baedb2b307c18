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

type NotificationIntentDAO interface {
	// Create 主键冲突返回 errs.ErrIntentDuplicate，调用方据此走幂等逻辑
	Create(ctx context.Context, data NotificationIntent) error
	GetByID(ctx context.Context, id string) (NotificationIntent, error)
	// CASStatus 只有当前状态等于 from 时才更新
	CASStatus(ctx context.Context, id string, from string, update IntentUpdate) error
	// CountFinishedSince 统计 utime >= since 的终态意图，按状态和失败原因分组
	CountFinishedSince(ctx context.Context, since int64) ([]StatusCount, error)
	// FindStale utime <= before 并且还是 PENDING 或者 SENDING 的意图，按 utime 升序
	FindStale(ctx context.Context, before int64, limit int) ([]NotificationIntent, error)
}

// NotificationIntent 通知意图表
type NotificationIntent struct {
	ID                string                             `gorm:"type:VARCHAR(64);primaryKey;comment:'意图ID，同时是幂等键'"`
	TemplateID        string                             `gorm:"type:VARCHAR(64);NOT NULL;comment:'模板'"`
	Recipient         string                             `gorm:"type:VARCHAR(254);NOT NULL;comment:'收件人邮箱'"`
	Payload           sqlx.JsonColumn[map[string]string] `gorm:"type:TEXT;comment:'模板参数，JSON'"`
	Priority          string                             `gorm:"type:VARCHAR(16);NOT NULL;comment:'优先级'"`
	NotBefore         int64                              `gorm:"comment:'最早发送时间'"`
	Attempts          int                                `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'已尝试次数'"`
	Status            string                             `gorm:"type:ENUM('PENDING','SENDING','SENT','FAILED','CANCELED');DEFAULT:'PENDING';index:idx_status_utime,priority:1;comment:'发送状态'"`
	FailReason        string                             `gorm:"type:VARCHAR(64);comment:'失败原因'"`
	Provider          string                             `gorm:"type:VARCHAR(64);comment:'最终使用的供应商'"`
	ProviderMessageID string                             `gorm:"type:VARCHAR(128);comment:'供应商返回的消息ID'"`
	Ctime             int64
	Utime             int64 `gorm:"index:idx_status_utime,priority:2"`
}

// IntentUpdate CAS 更新的内容，零值字段不更新
type IntentUpdate struct {
	Status            string
	Attempts          int
	FailReason        string
	Provider          string
	ProviderMessageID string
}

type StatusCount struct {
	Status     string
	FailReason string
	Cnt        int64
}

type notificationIntentDAO struct {
	db *egorm.Component
}

func NewNotificationIntentDAO(db *egorm.Component) NotificationIntentDAO {
	return &notificationIntentDAO{db: db}
}

func (d *notificationIntentDAO) Create(ctx context.Context, data NotificationIntent) error {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	err := d.db.WithContext(ctx).Create(&data).Error
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: id=%s", errs.ErrIntentDuplicate, data.ID)
	}
	return err
}

func (d *notificationIntentDAO) GetByID(ctx context.Context, id string) (NotificationIntent, error) {
	var res NotificationIntent
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotificationIntent{}, fmt.Errorf("%w: id=%s", errs.ErrIntentNotFound, id)
	}
	return res, err
}

func (d *notificationIntentDAO) CASStatus(ctx context.Context, id string, from string, update IntentUpdate) error {
	updates := map[string]any{
		"status": update.Status,
		"utime":  time.Now().UnixMilli(),
	}
	if update.Attempts > 0 {
		updates["attempts"] = update.Attempts
	}
	if update.FailReason != "" {
		updates["fail_reason"] = update.FailReason
	}
	if update.Provider != "" {
		updates["provider"] = update.Provider
	}
	if update.ProviderMessageID != "" {
		updates["provider_message_id"] = update.ProviderMessageID
	}
	res := d.db.WithContext(ctx).Model(&NotificationIntent{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("并发竞争失败 %w, id %s, from %s", errs.ErrIntentStatusMismatch, id, from)
	}
	return nil
}

func (d *notificationIntentDAO) CountFinishedSince(ctx context.Context, since int64) ([]StatusCount, error) {
	var res []StatusCount
	err := d.db.WithContext(ctx).Model(&NotificationIntent{}).
		Select("status, fail_reason, COUNT(*) AS cnt").
		Where("status IN ? AND utime >= ?", []string{"SENT", "FAILED"}, since).
		Group("status, fail_reason").
		Scan(&res).Error
	return res, err
}

func (d *notificationIntentDAO) FindStale(ctx context.Context, before int64, limit int) ([]NotificationIntent, error) {
	var res []NotificationIntent
	err := d.db.WithContext(ctx).
		Where("status IN ? AND utime <= ?", []string{"PENDING", "SENDING"}, before).
		Order("utime ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}
