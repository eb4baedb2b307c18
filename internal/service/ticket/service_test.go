package ticket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	repomocks "gitee.com/flycash/repairshop-notification/internal/repository/mocks"
	deliverymocks "gitee.com/flycash/repairshop-notification/internal/service/delivery/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// memTicketRepo 带版本号检查的内存实现
type memTicketRepo struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[int64]domain.RepairTicket
	logs    []domain.TicketTransitionLog
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[int64]domain.RepairTicket{}}
}

func (m *memTicketRepo) Create(_ context.Context, ticket domain.RepairTicket) (domain.RepairTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ticket.ID = m.nextID
	ticket.Version = 1
	ticket.Ctime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC).UnixMilli()
	m.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (m *memTicketRepo) GetByID(_ context.Context, id int64) (domain.RepairTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return domain.RepairTicket{}, fmt.Errorf("%w: id=%d", errs.ErrTicketNotFound, id)
	}
	return t, nil
}

func (m *memTicketRepo) Transit(_ context.Context, ticket domain.RepairTicket, log domain.TicketTransitionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.tickets[ticket.ID]
	if stored.Version != ticket.Version {
		return errs.ErrTicketVersionMismatch
	}
	stored.Status = log.To
	stored.Version++
	m.tickets[ticket.ID] = stored
	m.logs = append(m.logs, log)
	return nil
}

func (m *memTicketRepo) ListTransitions(_ context.Context, ticketID int64) ([]domain.TicketTransitionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.TicketTransitionLog
	for _, l := range m.logs {
		if l.TicketID == ticketID {
			res = append(res, l)
		}
	}
	return res, nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NextID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("t-%d", s.n), nil
}

func newTicket(l domain.Lifecycle) domain.RepairTicket {
	return domain.RepairTicket{
		Lifecycle:         l,
		CustomerName:      "Anna Nowak",
		CustomerEmail:     "anna.nowak@example.com",
		DeviceDescription: "iPhone 13",
		IssueDescription:  "Pęknięty ekran",
		Technician:        "Marek",
	}
}

func sent(_ context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
	return domain.DeliveryResult{IntentID: intent.ID, Status: domain.IntentStatusSent}, nil
}

func TestService_CreateTicket(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	submitter := deliverymocks.NewMockSubmitter(ctrl)
	repo := newMemTicketRepo()
	svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

	submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
			assert.Equal(t, domain.TemplateBookingConfirmation, intent.TemplateID)
			assert.Equal(t, "anna.nowak@example.com", intent.Recipient)
			assert.Equal(t, map[string]string{
				"customerName": "Anna Nowak",
				"device":       "iPhone 13",
				"bookingDate":  "2026-03-02 09:30",
			}, intent.Payload)
			return sent(ctx, intent)
		})

	res, err := svc.CreateTicket(t.Context(), newTicket(domain.LifecycleRepair), "front-desk")
	require.NoError(t, err)
	assert.Equal(t, "t-1", res.EmittedIntentID)
	assert.Equal(t, domain.TicketStatusNew, res.Ticket.Status)

	_, err = svc.CreateTicket(t.Context(), domain.RepairTicket{Lifecycle: "warranty"}, "front-desk")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestService_TransitionStatus(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	submitter := deliverymocks.NewMockSubmitter(ctrl)
	repo := newMemTicketRepo()
	svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Now()))
	ticket, err := repo.Create(t.Context(), domain.RepairTicket{
		Lifecycle:         domain.LifecycleRepair,
		CustomerName:      "Jan",
		CustomerEmail:     "jan@example.com",
		DeviceDescription: "Laptop Dell",
		IssueDescription:  "Nie włącza się",
		Status:            domain.TicketStatusNew,
	})
	require.NoError(t, err)

	var intents []domain.NotificationIntent
	submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
			intents = append(intents, intent)
			return sent(ctx, intent)
		}).Times(5)

	path := []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInRepair,
		domain.TicketStatusWaitingForParts,
		domain.TicketStatusInRepair,
		domain.TicketStatusRepairCompleted,
	}
	for _, next := range path {
		res, err := svc.TransitionStatus(t.Context(), ticket.ID, next, "marek")
		require.NoError(t, err)
		assert.True(t, res.Accepted)
		assert.Equal(t, next, res.To)
		assert.NotEmpty(t, res.EmittedIntentID)
	}
	require.Len(t, intents, 5)
	for _, intent := range intents {
		assert.Equal(t, domain.TemplateRepairStatusUpdate, intent.TemplateID)
		assert.Equal(t, DefaultTechnician, intent.Payload["technician"])
		assert.Empty(t, intent.TemplateID.MissingFields(intent.Payload))
	}
	assert.Equal(t, "Oczekiwanie na części", intents[2].Payload["progress"])

	// 旧写法 zakonczone 对应 repair_completed，和当前状态相同
	res, err := svc.TransitionStatus(t.Context(), ticket.ID, "zakonczone", "marek")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, domain.TicketStatusRepairCompleted, res.To)

	// 同一个状态不发通知，也不写流转记录
	res, err = svc.TransitionStatus(t.Context(), ticket.ID, domain.TicketStatusRepairCompleted, "marek")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Empty(t, res.EmittedIntentID)

	logs, err := svc.ListTransitions(t.Context(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, logs, 5)
	for i, l := range logs {
		assert.Equal(t, intents[i].ID, l.EmittedIntentID)
		assert.False(t, l.Forced)
	}
}

func TestService_ReadyEmitsRepairReady(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		lifecycle domain.Lifecycle
		from      domain.TicketStatus
		to        domain.TicketStatus
	}{
		{name: "维修单", lifecycle: domain.LifecycleRepair, from: domain.TicketStatusRepairCompleted, to: domain.TicketStatusReadyForPickup},
		{name: "服务单", lifecycle: domain.LifecycleService, from: domain.TicketStatusTesting, to: domain.TicketStatusReady},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			submitter := deliverymocks.NewMockSubmitter(ctrl)
			repo := newMemTicketRepo()
			svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Now()))
			tk := newTicket(tc.lifecycle)
			tk.Status = tc.from
			tk, err := repo.Create(t.Context(), tk)
			require.NoError(t, err)

			submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
					assert.Equal(t, domain.TemplateRepairReady, intent.TemplateID)
					assert.Equal(t, fmt.Sprint(tk.ID), intent.Payload["ticketNumber"])
					return sent(ctx, intent)
				})
			res, err := svc.TransitionStatus(t.Context(), tk.ID, tc.to, "marek")
			require.NoError(t, err)
			assert.True(t, res.Accepted)
		})
	}
}

func TestService_InvalidTransition(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		lifecycle domain.Lifecycle
		from      domain.TicketStatus
		to        domain.TicketStatus
		wantErr   error
	}{
		{name: "跳过维修", lifecycle: domain.LifecycleRepair, from: domain.TicketStatusNew, to: domain.TicketStatusReadyForPickup, wantErr: errs.ErrInvalidTransition},
		{name: "回退", lifecycle: domain.LifecycleRepair, from: domain.TicketStatusRepairCompleted, to: domain.TicketStatusInRepair, wantErr: errs.ErrInvalidTransition},
		{name: "终态", lifecycle: domain.LifecycleRepair, from: domain.TicketStatusClosed, to: domain.TicketStatusOpen, wantErr: errs.ErrInvalidTransition},
		{name: "服务单跳过测试", lifecycle: domain.LifecycleService, from: domain.TicketStatusInProgress, to: domain.TicketStatusReady, wantErr: errs.ErrInvalidTransition},
		{name: "其他生命周期的状态", lifecycle: domain.LifecycleService, from: domain.TicketStatusReceived, to: domain.TicketStatusOpen, wantErr: errs.ErrUnknownTicketStatus},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			submitter := deliverymocks.NewMockSubmitter(ctrl)
			submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).Times(0)
			repo := newMemTicketRepo()
			svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Now()))
			tk := newTicket(tc.lifecycle)
			tk.Status = tc.from
			tk, err := repo.Create(t.Context(), tk)
			require.NoError(t, err)

			_, err = svc.TransitionStatus(t.Context(), tk.ID, tc.to, "marek")
			assert.ErrorIs(t, err, tc.wantErr)
			if errors.Is(err, errs.ErrInvalidTransition) {
				var it *errs.InvalidTransition
				require.ErrorAs(t, err, &it)
				assert.Equal(t, tc.from.String(), it.From)
			}
			stored, err := repo.GetByID(t.Context(), tk.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.from, stored.Status)
			assert.Equal(t, 1, stored.Version)
		})
	}
}

func TestService_ForceStatus(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	submitter := deliverymocks.NewMockSubmitter(ctrl)
	repo := newMemTicketRepo()
	svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Now()))
	tk := newTicket(domain.LifecycleRepair)
	tk.Status = domain.TicketStatusNew
	tk, err := repo.Create(t.Context(), tk)
	require.NoError(t, err)

	submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
			assert.Equal(t, domain.TemplateRepairReady, intent.TemplateID)
			return sent(ctx, intent)
		})
	res, err := svc.ForceStatus(t.Context(), tk.ID, domain.TicketStatusReadyForPickup, "admin", "klient odebrał bez naprawy")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Forced)

	logs, err := repo.ListTransitions(t.Context(), tk.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Forced)
	assert.Equal(t, "admin", logs[0].Actor)
	assert.Equal(t, "klient odebrał bez naprawy", logs[0].Reason)
}

func TestService_DeliveryOutcome(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		result  domain.DeliveryResult
		err     error
		wantErr error
	}{
		{
			name:   "校验失败不影响状态流转",
			result: domain.DeliveryResult{Status: domain.IntentStatusFailed, FailReason: "rateLimited"},
			err:    errs.NewValidationFailure(errs.CategoryRateLimited, "limit"),
		},
		{
			name:    "意图落库失败",
			err:     errors.New("db down"),
			wantErr: errors.New("db down"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			submitter := deliverymocks.NewMockSubmitter(ctrl)
			repo := newMemTicketRepo()
			svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Now()))
			tk := newTicket(domain.LifecycleRepair)
			tk.Status = domain.TicketStatusNew
			tk, err := repo.Create(t.Context(), tk)
			require.NoError(t, err)

			submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(tc.result, tc.err)
			res, err := svc.TransitionStatus(t.Context(), tk.ID, domain.TicketStatusOpen, "marek")
			assert.Equal(t, tc.wantErr, err)
			assert.True(t, res.Accepted)
			assert.Equal(t, "t-1", res.EmittedIntentID)

			stored, err := repo.GetByID(t.Context(), tk.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.TicketStatusOpen, stored.Status)
		})
	}
}

func TestService_VersionConflict(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	repo := repomocks.NewMockTicketRepository(ctrl)
	submitter := deliverymocks.NewMockSubmitter(ctrl)
	submitter.EXPECT().Deliver(gomock.Any(), gomock.Any()).Times(0)
	svc := NewService(repo, submitter, &seqIDs{}, clock.NewFake(time.Now()))

	repo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(domain.RepairTicket{
		ID: 7, Lifecycle: domain.LifecycleRepair, Status: domain.TicketStatusOpen, Version: 3,
	}, nil)
	repo.EXPECT().Transit(gomock.Any(), gomock.Any(), gomock.Any()).Return(errs.ErrTicketVersionMismatch)

	_, err := svc.TransitionStatus(t.Context(), 7, domain.TicketStatusInRepair, "marek")
	assert.ErrorIs(t, err, errs.ErrTicketVersionMismatch)

	_, err = svc.TransitionStatus(t.Context(), 7, domain.TicketStatusInRepair, "")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}
