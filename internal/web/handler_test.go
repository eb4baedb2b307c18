package web

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	auditmocks "gitee.com/flycash/repairshop-notification/internal/service/audit/mocks"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"gitee.com/flycash/repairshop-notification/internal/service/ticket"
	ticketmocks "gitee.com/flycash/repairshop-notification/internal/service/ticket/mocks"
	"gitee.com/flycash/repairshop-notification/internal/test"
	webmocks "gitee.com/flycash/repairshop-notification/internal/web/mocks"
	"github.com/ecodeclub/ekit/iox"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type mocks struct {
	intents   *webmocks.MockIntentService
	reminders *webmocks.MockReminderService
	tickets   *ticketmocks.MockService
	stats     *auditmocks.MockService
}

func newServer(t *testing.T, setup func(m mocks)) *egin.Component {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mocks{
		intents:   webmocks.NewMockIntentService(ctrl),
		reminders: webmocks.NewMockReminderService(ctrl),
		tickets:   ticketmocks.NewMockService(ctrl),
		stats:     auditmocks.NewMockService(ctrl),
	}
	setup(m)
	econf.Set("server", map[string]any{"contextTimeout": "1s"})
	server := egin.Load("server").Build()
	NewHandler(m.intents, m.reminders, m.tickets, m.stats).PublicRoutes(server.Engine)
	return server
}

func do[T any](t *testing.T, server *egin.Component, method, path string, body any) test.JSONResponseRecorder[T] {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, path, iox.NewJSONReader(body))
		req.Header.Set("content-type", "application/json")
	} else {
		req, err = http.NewRequest(method, path, nil)
	}
	require.NoError(t, err)
	recorder := test.NewJSONResponseRecorder[T]()
	server.ServeHTTP(recorder, req)
	return recorder
}

func TestHandler_SubmitIntent(t *testing.T) {
	req := SubmitIntentReq{
		TemplateID: "repairReady",
		Recipient:  "anna@example.com",
		Payload:    map[string]string{"customerName": "Anna", "device": "iPhone", "ticketNumber": "12"},
	}
	testCases := []struct {
		name     string
		setup    func(m mocks)
		wantCode int
		assertFn func(t *testing.T, res test.Result[DeliveryResult])
	}{
		{
			name: "发送成功",
			setup: func(m mocks) {
				m.intents.EXPECT().SubmitIntent(gomock.Any(), delivery.SubmitRequest{
					TemplateID: req.TemplateID,
					Recipient:  req.Recipient,
					Payload:    req.Payload,
				}).Return(domain.DeliveryResult{
					IntentID: "1", Status: domain.IntentStatusSent, Attempts: 1, Provider: "resend", ProviderMessageID: "re_1",
				}, nil)
			},
			wantCode: http.StatusOK,
			assertFn: func(t *testing.T, res test.Result[DeliveryResult]) {
				assert.Equal(t, DeliveryResult{
					IntentID: "1", Status: "SENT", Attempts: 1, Provider: "resend", ProviderMessageID: "re_1",
				}, res.Data)
			},
		},
		{
			name: "投递失败也是 200",
			setup: func(m mocks) {
				m.intents.EXPECT().SubmitIntent(gomock.Any(), gomock.Any()).Return(domain.DeliveryResult{
					IntentID: "2", Status: domain.IntentStatusFailed, Attempts: 4, FailReason: domain.FailReasonExhausted,
				}, nil)
			},
			wantCode: http.StatusOK,
			assertFn: func(t *testing.T, res test.Result[DeliveryResult]) {
				assert.Equal(t, "FAILED", res.Data.Status)
				assert.Equal(t, domain.FailReasonExhausted, res.Data.FailReason)
			},
		},
		{
			name: "未知模板",
			setup: func(m mocks) {
				m.intents.EXPECT().SubmitIntent(gomock.Any(), gomock.Any()).
					Return(domain.DeliveryResult{}, fmt.Errorf("%w: %q", errs.ErrUnknownTemplate, "x"))
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "重复提交处理中的意图",
			setup: func(m mocks) {
				m.intents.EXPECT().SubmitIntent(gomock.Any(), gomock.Any()).
					Return(domain.DeliveryResult{IntentID: "3"}, errs.ErrIntentInProgress)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "数据库错误",
			setup: func(m mocks) {
				m.intents.EXPECT().SubmitIntent(gomock.Any(), gomock.Any()).
					Return(domain.DeliveryResult{}, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newServer(t, tc.setup)
			recorder := do[DeliveryResult](t, server, http.MethodPost, "/intents", req)
			require.Equal(t, tc.wantCode, recorder.Code)
			if tc.assertFn != nil {
				tc.assertFn(t, recorder.MustScan())
			}
		})
	}
}

func TestHandler_SubmitIntentValidationFailure(t *testing.T) {
	server := newServer(t, func(m mocks) {
		m.intents.EXPECT().SubmitIntent(gomock.Any(), gomock.Any()).Return(domain.DeliveryResult{
			IntentID:   "9",
			Status:     domain.IntentStatusFailed,
			FailReason: "security",
			Validation: &domain.ValidationReport{
				Category: errs.CategorySecurity,
				Results: []domain.CheckResult{
					{Stage: "security", Errors: []string{"收件人使用一次性邮箱"}},
				},
			},
		}, errs.NewValidationFailure(errs.CategorySecurity, "收件人使用一次性邮箱"))
	})
	recorder := do[ValidationError](t, server, http.MethodPost, "/intents", SubmitIntentReq{
		TemplateID: "emailConfirmation", Recipient: "x@mailinator.com",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	res := recorder.MustScan()
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, "security", res.Data.Category)
	assert.Equal(t, []string{"收件人使用一次性邮箱"}, res.Data.Errors)
	assert.Equal(t, "9", res.Data.Result.IntentID)
	assert.Equal(t, "FAILED", res.Data.Result.Status)
}

func TestHandler_SendMany(t *testing.T) {
	server := newServer(t, func(m mocks) {
		m.intents.EXPECT().SendMany(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, intents []domain.NotificationIntent) []domain.DeliveryResult {
				require.Len(t, intents, 2)
				assert.Equal(t, domain.TemplateAppointmentReminder, intents[0].TemplateID)
				assert.Equal(t, "b", intents[1].ID)
				return []domain.DeliveryResult{
					{IntentID: "a", Status: domain.IntentStatusSent},
					{IntentID: "b", Err: errs.ErrIntentInProgress},
				}
			})
	})
	recorder := do[SendManyResp](t, server, http.MethodPost, "/intents/batch", SendManyReq{
		Intents: []SubmitIntentReq{
			{ID: "a", TemplateID: "appointmentReminder", Recipient: "a@example.com"},
			{ID: "b", TemplateID: "appointmentReminder", Recipient: "b@example.com"},
		},
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	res := recorder.MustScan()
	require.Len(t, res.Data.Results, 2)
	assert.Equal(t, "SENT", res.Data.Results[0].Status)
	assert.Equal(t, errs.ErrIntentInProgress.Error(), res.Data.Results[1].Error)

	empty := do[SendManyResp](t, server, http.MethodPost, "/intents/batch", SendManyReq{})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestHandler_Scheduled(t *testing.T) {
	notBefore := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	server := newServer(t, func(m mocks) {
		m.reminders.EXPECT().Schedule(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, intent domain.NotificationIntent) (string, error) {
				assert.True(t, notBefore.Equal(intent.NotBefore))
				return "42", nil
			})
		m.reminders.EXPECT().Schedule(gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("%w: disk full", errs.ErrSchedulerPersistence))
		m.reminders.EXPECT().Cancel(gomock.Any(), "42").Return(true, nil)
		m.reminders.EXPECT().Cancel(gomock.Any(), "43").Return(false, nil)
	})
	req := ScheduleIntentReq{
		SubmitIntentReq: SubmitIntentReq{TemplateID: "appointmentReminder", Recipient: "a@example.com"},
		NotBefore:       notBefore,
	}

	ok := do[ScheduleIntentResp](t, server, http.MethodPost, "/intents/schedule", req)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "42", ok.MustScan().Data.IntentID)

	failed := do[ScheduleIntentResp](t, server, http.MethodPost, "/intents/schedule", req)
	assert.Equal(t, http.StatusInternalServerError, failed.Code)

	canceled := do[CancelResp](t, server, http.MethodDelete, "/intents/scheduled/42", nil)
	require.Equal(t, http.StatusOK, canceled.Code)
	assert.True(t, canceled.MustScan().Data.Canceled)

	fired := do[CancelResp](t, server, http.MethodDelete, "/intents/scheduled/43", nil)
	require.Equal(t, http.StatusOK, fired.Code)
	assert.False(t, fired.MustScan().Data.Canceled)
}

func TestHandler_CancelIntent(t *testing.T) {
	server := newServer(t, func(m mocks) {
		m.intents.EXPECT().Cancel(gomock.Any(), "7").Return(true, nil)
		m.intents.EXPECT().Cancel(gomock.Any(), "8").Return(false, errs.ErrIntentNotFound)
	})
	ok := do[CancelResp](t, server, http.MethodPost, "/intents/7/cancel", nil)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.True(t, ok.MustScan().Data.Canceled)

	missing := do[CancelResp](t, server, http.MethodPost, "/intents/8/cancel", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHandler_ListAttempts(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	server := newServer(t, func(m mocks) {
		m.stats.EXPECT().ListAttempts(gomock.Any(), "7").Return([]domain.DeliveryAttemptRecord{
			{IntentID: "7", AttemptNumber: 1, Provider: "resend", Outcome: domain.OutcomeTransientFailure,
				ErrorKind: errs.KindTransientNetwork, Timestamp: ts},
			{IntentID: "7", AttemptNumber: 2, Provider: "resend", Outcome: domain.OutcomeSuccess, Timestamp: ts},
		}, nil)
	})
	recorder := do[[]DeliveryAttempt](t, server, http.MethodGet, "/intents/7/attempts", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	res := recorder.MustScan()
	require.Len(t, res.Data, 2)
	assert.Equal(t, "transientFailure", res.Data[0].Outcome)
	assert.Equal(t, ts.UnixMilli(), res.Data[1].Timestamp)
}

func TestHandler_Tickets(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func(m mocks)
		req      TransitionReq
		wantCode int
		wantResp TransitionResp
	}{
		{
			name: "正常流转",
			setup: func(m mocks) {
				m.tickets.EXPECT().TransitionStatus(gomock.Any(), int64(5), domain.TicketStatus("in_repair"), "marek").
					Return(domain.TransitionResult{Accepted: true, From: "open", To: "in_repair", EmittedIntentID: "i-1"}, nil)
			},
			req:      TransitionReq{Status: "in_repair", Actor: "marek"},
			wantCode: http.StatusOK,
			wantResp: TransitionResp{Accepted: true, From: "open", To: "in_repair", EmittedIntentID: "i-1"},
		},
		{
			name: "非法流转",
			setup: func(m mocks) {
				m.tickets.EXPECT().TransitionStatus(gomock.Any(), int64(5), gomock.Any(), gomock.Any()).
					Return(domain.TransitionResult{}, &errs.InvalidTransition{Lifecycle: "repair", From: "new", To: "ready_for_pickup"})
			},
			req:      TransitionReq{Status: "ready_for_pickup", Actor: "marek"},
			wantCode: http.StatusConflict,
		},
		{
			name: "通知提交失败但状态已经修改",
			setup: func(m mocks) {
				m.tickets.EXPECT().TransitionStatus(gomock.Any(), int64(5), gomock.Any(), gomock.Any()).
					Return(domain.TransitionResult{Accepted: true, From: "open", To: "in_repair", EmittedIntentID: "i-2"}, errors.New("db down"))
			},
			req:      TransitionReq{Status: "in_repair", Actor: "marek"},
			wantCode: http.StatusOK,
			wantResp: TransitionResp{Accepted: true, From: "open", To: "in_repair", EmittedIntentID: "i-2"},
		},
		{
			name:     "强制修改缺少原因",
			setup:    func(m mocks) {},
			req:      TransitionReq{Status: "closed", Actor: "admin", Force: true},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "强制修改",
			setup: func(m mocks) {
				m.tickets.EXPECT().ForceStatus(gomock.Any(), int64(5), domain.TicketStatus("closed"), "admin", "klient zrezygnował").
					Return(domain.TransitionResult{Accepted: true, From: "in_repair", To: "closed", EmittedIntentID: "i-3", Forced: true}, nil)
			},
			req:      TransitionReq{Status: "closed", Actor: "admin", Force: true, Reason: "klient zrezygnował"},
			wantCode: http.StatusOK,
			wantResp: TransitionResp{Accepted: true, From: "in_repair", To: "closed", EmittedIntentID: "i-3", Forced: true},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newServer(t, tc.setup)
			recorder := do[TransitionResp](t, server, http.MethodPost, "/tickets/5/status", tc.req)
			require.Equal(t, tc.wantCode, recorder.Code)
			if tc.wantCode == http.StatusOK {
				assert.Equal(t, tc.wantResp, recorder.MustScan().Data)
			}
		})
	}
}

func TestHandler_CreateTicket(t *testing.T) {
	server := newServer(t, func(m mocks) {
		m.tickets.EXPECT().CreateTicket(gomock.Any(), gomock.Any(), "front-desk").DoAndReturn(
			func(_ any, tk domain.RepairTicket, _ string) (ticket.CreateResult, error) {
				assert.Equal(t, domain.LifecycleService, tk.Lifecycle)
				assert.Equal(t, "Konsola PS5", tk.DeviceDescription)
				tk.ID, tk.Status, tk.Version = 11, domain.TicketStatusReceived, 1
				return ticket.CreateResult{Ticket: tk, EmittedIntentID: "i-11"}, nil
			})
		m.tickets.EXPECT().CreateTicket(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ticket.CreateResult{}, errs.ErrInvalidParameter)
	})
	req := CreateTicketReq{
		Lifecycle: "service", CustomerName: "Ewa", CustomerEmail: "ewa@example.com",
		Device: "Konsola PS5", Issue: "Przegrzewa się", Actor: "front-desk",
	}
	recorder := do[CreateTicketResp](t, server, http.MethodPost, "/tickets", req)
	require.Equal(t, http.StatusOK, recorder.Code)
	res := recorder.MustScan()
	assert.Equal(t, int64(11), res.Data.Ticket.ID)
	assert.Equal(t, "received", res.Data.Ticket.Status)
	assert.Equal(t, "i-11", res.Data.EmittedIntentID)

	bad := do[CreateTicketResp](t, server, http.MethodPost, "/tickets", req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHandler_GetDeliveryStats(t *testing.T) {
	server := newServer(t, func(m mocks) {
		m.stats.EXPECT().GetDeliveryStats(gomock.Any(), time.Hour).Return(domain.NewDeliveryStats(3, 1, 1), nil)
		m.stats.EXPECT().GetDeliveryStats(gomock.Any(), 24*time.Hour).Return(domain.NewDeliveryStats(0, 0, 0), nil)
	})
	recorder := do[DeliveryStats](t, server, http.MethodGet, "/stats?window=1h", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, DeliveryStats{
		Window: "1h0m0s", Sent: 3, Failed: 1, RateLimited: 1, Total: 4, SuccessRate: 0.75,
	}, recorder.MustScan().Data)

	def := do[DeliveryStats](t, server, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, def.Code)
	assert.Equal(t, 0.0, def.MustScan().Data.SuccessRate)

	bad := do[DeliveryStats](t, server, http.MethodGet, "/stats?window=abc", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}
