package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type TicketDAO interface {
	Create(ctx context.Context, data RepairTicket) (RepairTicket, error)
	GetByID(ctx context.Context, id int64) (RepairTicket, error)
	// Transit 在一个事务里按版本号更新状态并写入流转记录
	Transit(ctx context.Context, id int64, version int, to string, log TicketTransition) error
	ListTransitions(ctx context.Context, ticketID int64) ([]TicketTransition, error)
}

// RepairTicket 维修单表
type RepairTicket struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Lifecycle         string `gorm:"type:ENUM('repair','service');NOT NULL;comment:'生命周期'"`
	CustomerName      string `gorm:"type:VARCHAR(128);NOT NULL"`
	CustomerEmail     string `gorm:"type:VARCHAR(254);NOT NULL"`
	CustomerPhone     string `gorm:"type:VARCHAR(32)"`
	DeviceDescription string `gorm:"type:VARCHAR(512)"`
	IssueDescription  string `gorm:"type:TEXT"`
	Technician        string `gorm:"type:VARCHAR(128)"`
	Status            string `gorm:"type:VARCHAR(32);NOT NULL;index:idx_status;comment:'规范词表里的状态'"`
	Version           int    `gorm:"type:INT;NOT NULL;DEFAULT:1;comment:'版本号，用于CAS操作'"`
	Ctime             int64
	Utime             int64
}

// TicketTransition 状态流转记录，只追加
type TicketTransition struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	TicketID        int64  `gorm:"NOT NULL;index:idx_ticket_id"`
	FromStatus      string `gorm:"type:VARCHAR(32);NOT NULL"`
	ToStatus        string `gorm:"type:VARCHAR(32);NOT NULL"`
	Actor           string `gorm:"type:VARCHAR(128);NOT NULL"`
	Forced          bool   `gorm:"NOT NULL;DEFAULT:false;comment:'管理员强制修改'"`
	Reason          string `gorm:"type:VARCHAR(512)"`
	EmittedIntentID string `gorm:"type:VARCHAR(64)"`
	Ctime           int64
}

type ticketDAO struct {
	db *egorm.Component
}

func NewTicketDAO(db *egorm.Component) TicketDAO {
	return &ticketDAO{db: db}
}

func (d *ticketDAO) Create(ctx context.Context, data RepairTicket) (RepairTicket, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	data.Version = 1
	err := d.db.WithContext(ctx).Create(&data).Error
	return data, err
}

func (d *ticketDAO) GetByID(ctx context.Context, id int64) (RepairTicket, error) {
	var res RepairTicket
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RepairTicket{}, fmt.Errorf("%w: id=%d", errs.ErrTicketNotFound, id)
	}
	return res, err
}

func (d *ticketDAO) Transit(ctx context.Context, id int64, version int, to string, log TicketTransition) error {
	now := time.Now().UnixMilli()
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&RepairTicket{}).
			Where("id = ? AND version = ?", id, version).
			Updates(map[string]any{
				"status":  to,
				"version": gorm.Expr("version + 1"),
				"utime":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected < 1 {
			return fmt.Errorf("并发竞争失败 %w, id %d", errs.ErrTicketVersionMismatch, id)
		}
		log.ID = 0
		log.TicketID = id
		log.Ctime = now
		return tx.Create(&log).Error
	})
}

func (d *ticketDAO) ListTransitions(ctx context.Context, ticketID int64) ([]TicketTransition, error) {
	var res []TicketTransition
	err := d.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("id ASC").
		Find(&res).Error
	return res, err
}
