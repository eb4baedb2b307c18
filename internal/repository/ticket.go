package repository

import (
	"context"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

// TicketRepository 维修单仓储
//
//go:generate mockgen -source=./ticket.go -destination=./mocks/ticket.mock.go -package=repomocks TicketRepository
type TicketRepository interface {
	Create(ctx context.Context, ticket domain.RepairTicket) (domain.RepairTicket, error)
	GetByID(ctx context.Context, id int64) (domain.RepairTicket, error)
	// Transit 版本号不匹配时返回 errs.ErrTicketVersionMismatch，状态和流转记录同时写入
	Transit(ctx context.Context, ticket domain.RepairTicket, log domain.TicketTransitionLog) error
	ListTransitions(ctx context.Context, ticketID int64) ([]domain.TicketTransitionLog, error)
}

type ticketRepository struct {
	dao dao.TicketDAO
}

func NewTicketRepository(d dao.TicketDAO) TicketRepository {
	return &ticketRepository{dao: d}
}

func (r *ticketRepository) Create(ctx context.Context, ticket domain.RepairTicket) (domain.RepairTicket, error) {
	entity, err := r.dao.Create(ctx, r.toEntity(ticket))
	if err != nil {
		return domain.RepairTicket{}, err
	}
	return r.toDomain(entity), nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (domain.RepairTicket, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.RepairTicket{}, err
	}
	return r.toDomain(entity), nil
}

// Transit ticket.Version 是读取时的版本号
func (r *ticketRepository) Transit(ctx context.Context, ticket domain.RepairTicket, log domain.TicketTransitionLog) error {
	return r.dao.Transit(ctx, ticket.ID, ticket.Version, log.To.String(), dao.TicketTransition{
		FromStatus:      log.From.String(),
		ToStatus:        log.To.String(),
		Actor:           log.Actor,
		Forced:          log.Forced,
		Reason:          log.Reason,
		EmittedIntentID: log.EmittedIntentID,
	})
}

func (r *ticketRepository) ListTransitions(ctx context.Context, ticketID int64) ([]domain.TicketTransitionLog, error) {
	entities, err := r.dao.ListTransitions(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.TicketTransition) domain.TicketTransitionLog {
		return domain.TicketTransitionLog{
			TicketID:        src.TicketID,
			From:            domain.TicketStatus(src.FromStatus),
			To:              domain.TicketStatus(src.ToStatus),
			Actor:           src.Actor,
			Forced:          src.Forced,
			Reason:          src.Reason,
			EmittedIntentID: src.EmittedIntentID,
			Ctime:           time.UnixMilli(src.Ctime),
		}
	}), nil
}

func (r *ticketRepository) toEntity(t domain.RepairTicket) dao.RepairTicket {
	return dao.RepairTicket{
		ID:                t.ID,
		Lifecycle:         string(t.Lifecycle),
		CustomerName:      t.CustomerName,
		CustomerEmail:     t.CustomerEmail,
		CustomerPhone:     t.CustomerPhone,
		DeviceDescription: t.DeviceDescription,
		IssueDescription:  t.IssueDescription,
		Technician:        t.Technician,
		Status:            t.Status.String(),
		Version:           t.Version,
	}
}

func (r *ticketRepository) toDomain(e dao.RepairTicket) domain.RepairTicket {
	return domain.RepairTicket{
		ID:                e.ID,
		Lifecycle:         domain.Lifecycle(e.Lifecycle),
		CustomerName:      e.CustomerName,
		CustomerEmail:     e.CustomerEmail,
		CustomerPhone:     e.CustomerPhone,
		DeviceDescription: e.DeviceDescription,
		IssueDescription:  e.IssueDescription,
		Technician:        e.Technician,
		Status:            domain.TicketStatus(e.Status),
		Version:           e.Version,
		Ctime:             e.Ctime,
		Utime:             e.Utime,
	}
}
