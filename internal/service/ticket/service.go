package ticket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"github.com/gotomicro/ego/core/elog"
)

// Service 维修单状态流转，每一次被接受的流转只发一条通知
//
//go:generate mockgen -source=./service.go -destination=./mocks/ticket.mock.go -package=ticketmocks Service
type Service interface {
	CreateTicket(ctx context.Context, ticket domain.RepairTicket, actor string) (CreateResult, error)
	// TransitionStatus 状态图不允许时返回 *errs.InvalidTransition，维修单保持不变。
	// status 可以是旧的写法，按维修单的生命周期转换
	TransitionStatus(ctx context.Context, ticketID int64, status domain.TicketStatus, actor string) (domain.TransitionResult, error)
	// ForceStatus 管理员绕过状态图
	ForceStatus(ctx context.Context, ticketID int64, status domain.TicketStatus, actor, reason string) (domain.TransitionResult, error)
	ListTransitions(ctx context.Context, ticketID int64) ([]domain.TicketTransitionLog, error)
}

type CreateResult struct {
	Ticket          domain.RepairTicket
	EmittedIntentID string
}

// DefaultTechnician 维修单还没分配技师时邮件里的署名
const DefaultTechnician = "Zespół serwisu"

type service struct {
	repo      repository.TicketRepository
	submitter delivery.Submitter
	ids       delivery.IDGenerator
	clock     clock.Clock
	logger    *elog.Component
}

func NewService(repo repository.TicketRepository, submitter delivery.Submitter, ids delivery.IDGenerator, clk clock.Clock) Service {
	return &service{
		repo:      repo,
		submitter: submitter,
		ids:       ids,
		clock:     clk,
		logger:    elog.DefaultLogger,
	}
}

func (s *service) CreateTicket(ctx context.Context, ticket domain.RepairTicket, actor string) (CreateResult, error) {
	if !ticket.Lifecycle.IsValid() {
		return CreateResult{}, fmt.Errorf("%w: lifecycle = %q", errs.ErrInvalidParameter, ticket.Lifecycle)
	}
	if ticket.CustomerEmail == "" || ticket.CustomerName == "" {
		return CreateResult{}, fmt.Errorf("%w: 客户姓名和邮箱不能为空", errs.ErrInvalidParameter)
	}
	ticket.Status = InitialStatus(ticket.Lifecycle)
	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		return CreateResult{}, err
	}
	s.logger.Info("创建维修单",
		elog.Int64("ticketID", created.ID),
		elog.String("lifecycle", string(created.Lifecycle)),
		elog.String("actor", actor))

	intentID, err := s.emit(ctx, created, domain.TemplateBookingConfirmation, map[string]string{
		"customerName": created.CustomerName,
		"device":       created.DeviceDescription,
		"bookingDate":  s.bookingDate(created),
	})
	return CreateResult{Ticket: created, EmittedIntentID: intentID}, err
}

func (s *service) TransitionStatus(ctx context.Context, ticketID int64, status domain.TicketStatus, actor string) (domain.TransitionResult, error) {
	return s.transit(ctx, ticketID, status, actor, "", false)
}

func (s *service) ForceStatus(ctx context.Context, ticketID int64, status domain.TicketStatus, actor, reason string) (domain.TransitionResult, error) {
	return s.transit(ctx, ticketID, status, actor, reason, true)
}

func (s *service) ListTransitions(ctx context.Context, ticketID int64) ([]domain.TicketTransitionLog, error) {
	return s.repo.ListTransitions(ctx, ticketID)
}

func (s *service) transit(ctx context.Context, ticketID int64, to domain.TicketStatus, actor, reason string, forced bool) (domain.TransitionResult, error) {
	if actor == "" {
		return domain.TransitionResult{}, fmt.Errorf("%w: actor 为空", errs.ErrInvalidParameter)
	}
	ticket, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	from := ticket.Status
	// 旧的状态写法在这里统一转换
	to, err = ParseStatus(ticket.Lifecycle, to.String())
	if err != nil {
		return domain.TransitionResult{}, err
	}
	res := domain.TransitionResult{From: from, To: to, Forced: forced}
	tpl, ok := TemplateFor(from, to)
	if !ok {
		// 重复提交同一个状态，不发通知
		return res, nil
	}
	if !forced && !CanTransit(ticket.Lifecycle, from, to) {
		return domain.TransitionResult{}, &errs.InvalidTransition{
			Lifecycle: string(ticket.Lifecycle),
			From:      from.String(),
			To:        to.String(),
		}
	}

	intentID, err := s.ids.NextID()
	if err != nil {
		return domain.TransitionResult{}, fmt.Errorf("%w: %w", errs.ErrIntentIDGenerateFailed, err)
	}
	err = s.repo.Transit(ctx, ticket, domain.TicketTransitionLog{
		TicketID:        ticket.ID,
		From:            from,
		To:              to,
		Actor:           actor,
		Forced:          forced,
		Reason:          reason,
		EmittedIntentID: intentID,
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	if forced {
		s.logger.Warn("管理员强制修改维修单状态",
			elog.Int64("ticketID", ticket.ID),
			elog.String("from", from.String()),
			elog.String("to", to.String()),
			elog.String("actor", actor),
			elog.String("reason", reason),
			elog.Any("forced", true))
	} else {
		s.logger.Info("维修单状态流转",
			elog.Int64("ticketID", ticket.ID),
			elog.String("from", from.String()),
			elog.String("to", to.String()),
			elog.String("actor", actor))
	}

	ticket.Status = to
	res.Accepted = true
	res.EmittedIntentID = intentID
	_, err = s.emitWithID(ctx, intentID, ticket, tpl, s.payload(ticket, tpl))
	return res, err
}

func (s *service) emit(ctx context.Context, ticket domain.RepairTicket, tpl domain.TemplateID, payload map[string]string) (string, error) {
	id, err := s.ids.NextID()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrIntentIDGenerateFailed, err)
	}
	return s.emitWithID(ctx, id, ticket, tpl, payload)
}

// emitWithID 状态已经落库，通知本身失败只影响意图的终态，不回滚维修单
func (s *service) emitWithID(ctx context.Context, id string, ticket domain.RepairTicket,
	tpl domain.TemplateID, payload map[string]string,
) (string, error) {
	res, err := s.submitter.Deliver(ctx, domain.NotificationIntent{
		ID:         id,
		TemplateID: tpl,
		Recipient:  ticket.CustomerEmail,
		Payload:    payload,
	})
	if err == nil {
		return id, nil
	}
	var vf *errs.ValidationFailure
	if errors.As(err, &vf) || res.Status.IsTerminal() {
		// 校验失败已经记录在意图上，调用方通过意图 ID 查询
		s.logger.Warn("维修单通知未发送",
			elog.Int64("ticketID", ticket.ID),
			elog.String("intentID", id),
			elog.FieldErr(err))
		return id, nil
	}
	s.logger.Error("维修单通知提交失败",
		elog.Int64("ticketID", ticket.ID),
		elog.String("intentID", id),
		elog.FieldErr(err))
	return id, err
}

func (s *service) payload(ticket domain.RepairTicket, tpl domain.TemplateID) map[string]string {
	technician := strings.TrimSpace(ticket.Technician)
	if technician == "" {
		technician = DefaultTechnician
	}
	all := map[string]string{
		"customerName": ticket.CustomerName,
		"device":       ticket.DeviceDescription,
		"issue":        ticket.IssueDescription,
		"progress":     Label(ticket.Status),
		"technician":   technician,
		"ticketNumber": strconv.FormatInt(ticket.ID, 10),
		"status":       ticket.Status.String(),
	}
	res := make(map[string]string, len(all))
	for _, f := range tpl.RequiredFields() {
		res[f] = all[f]
	}
	res["status"] = all["status"]
	return res
}

func (s *service) bookingDate(ticket domain.RepairTicket) string {
	t := s.clock.Now()
	if ticket.Ctime > 0 {
		t = time.UnixMilli(ticket.Ctime).In(t.Location())
	}
	return t.Format("2006-01-02 15:04")
}
