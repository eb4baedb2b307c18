package delivery

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
	"gitee.com/flycash/repairshop-notification/internal/pkg/ratelimit"
	"gitee.com/flycash/repairshop-notification/internal/pkg/retry"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	providermocks "gitee.com/flycash/repairshop-notification/internal/service/provider/mocks"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/sequential"
	"gitee.com/flycash/repairshop-notification/internal/service/template"
	"gitee.com/flycash/repairshop-notification/internal/service/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// memRepo 内存实现，保证 CAS 语义和数据库一致
type memRepo struct {
	mu      sync.Mutex
	clock   clock.Clock
	intents map[string]domain.NotificationIntent
	utime   map[string]time.Time
}

func newMemRepo(clk clock.Clock) *memRepo {
	return &memRepo{
		clock:   clk,
		intents: map[string]domain.NotificationIntent{},
		utime:   map[string]time.Time{},
	}
}

func (r *memRepo) Create(_ context.Context, intent domain.NotificationIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.intents[intent.ID]; ok {
		return fmt.Errorf("%w: %s", errs.ErrIntentDuplicate, intent.ID)
	}
	r.intents[intent.ID] = intent
	r.utime[intent.ID] = r.clock.Now()
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (domain.NotificationIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[id]
	if !ok {
		return domain.NotificationIntent{}, fmt.Errorf("%w: %s", errs.ErrIntentNotFound, id)
	}
	return intent, nil
}

func (r *memRepo) CASStatus(_ context.Context, intent domain.NotificationIntent, from domain.IntentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.intents[intent.ID]
	if !ok || cur.Status != from || !from.CanTransitTo(intent.Status) {
		return fmt.Errorf("%w: %s", errs.ErrIntentStatusMismatch, intent.ID)
	}
	r.intents[intent.ID] = intent
	r.utime[intent.ID] = r.clock.Now()
	return nil
}

func (r *memRepo) DeliveryStats(context.Context, time.Time) (domain.DeliveryStats, error) {
	return domain.DeliveryStats{}, nil
}

func (r *memRepo) FindStale(_ context.Context, before time.Time, limit int) ([]domain.NotificationIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []domain.NotificationIntent
	for id, intent := range r.intents {
		if intent.Status.IsTerminal() || r.utime[id].After(before) {
			continue
		}
		res = append(res, intent)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

var _ repository.NotificationIntentRepository = (*memRepo)(nil)

type memRecorder struct {
	mu          sync.Mutex
	attempts    []domain.DeliveryAttemptRecord
	validations []domain.ValidationReport
}

func (r *memRecorder) RecordAttempt(_ context.Context, record domain.DeliveryAttemptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, record)
	return nil
}

func (r *memRecorder) RecordValidationFailure(_ context.Context, _ domain.NotificationIntent, report domain.ValidationReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = append(r.validations, report)
}

func (r *memRecorder) Attempts() []domain.DeliveryAttemptRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DeliveryAttemptRecord(nil), r.attempts...)
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NextID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("gen-%d", s.n), nil
}

type fixture struct {
	engine   *Engine
	repo     *memRepo
	recorder *memRecorder
	clock    *clock.FakeClock
	primary  *providermocks.MockProvider
	fallback *providermocks.MockProvider
}

type fixtureOption func(cfg *Config, perRecipient *int)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	primary := providermocks.NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("resend").AnyTimes()
	fallback := providermocks.NewMockProvider(ctrl)
	fallback.EXPECT().Name().Return("relay").AnyTimes()

	cfg := DefaultConfig()
	cfg.Sender = SenderConfig{From: "serwis@example.com", ListUnsubscribe: "<mailto:unsubscribe@example.com>"}
	perRecipient := 100
	for _, opt := range opts {
		opt(&cfg, &perRecipient)
	}

	clk := clock.NewFake(start)
	renderer, err := template.NewMarkdownRenderer(nil)
	require.NoError(t, err)
	vcfg := validation.DefaultConfig()
	limiter := ratelimit.NewRecipientLimiter(ratelimit.NewSlidingWindowLimiter(clk, time.Hour, perRecipient), nil)
	pipeline := validation.NewDefaultPipeline(vcfg, validation.NewReachabilityStage(time.Minute, primary, fallback), limiter)

	repo := newMemRepo(clk)
	recorder := &memRecorder{}
	engine, err := NewEngine(repo, renderer, pipeline, sequential.NewSelectorBuilder(primary, fallback),
		recorder, &seqIDs{}, clk, cfg)
	require.NoError(t, err)
	return &fixture{engine: engine, repo: repo, recorder: recorder, clock: clk, primary: primary, fallback: fallback}
}

func statusUpdateRequest(id string) SubmitRequest {
	return SubmitRequest{
		ID:         id,
		TemplateID: domain.TemplateRepairStatusUpdate.String(),
		Recipient:  "jan.kowalski@example.com",
		Payload: map[string]string{
			"device":     "iPhone 12",
			"issue":      "ekran",
			"progress":   "in_progress",
			"technician": "Anna",
		},
	}
}

func deliveryErr(p string, kind errs.DeliveryErrorKind) error {
	return errs.NewDeliveryError(p, kind, errors.New(string(kind)))
}

// submitAsync 在后台投递，测试协程负责推进时钟
func submitAsync(f *fixture, req SubmitRequest) <-chan submitResult {
	ch := make(chan submitResult, 1)
	go func() {
		res, err := f.engine.SubmitIntent(context.Background(), req)
		ch <- submitResult{res: res, err: err}
	}()
	return ch
}

type submitResult struct {
	res domain.DeliveryResult
	err error
}

func TestEngine_TransientThenSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	gomock.InOrder(
		f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("resend", errs.KindTransientNetwork)),
		f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("resend", errs.KindTransientNetwork)),
		f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{Provider: "resend", ProviderMessageID: "re_1"}, nil),
	)
	f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	done := submitAsync(f, statusUpdateRequest("T-1"))
	f.clock.WaitForTimers(1)
	f.clock.Advance(time.Second)
	f.clock.WaitForTimers(1)
	f.clock.Advance(2 * time.Second)
	got := <-done

	require.NoError(t, got.err)
	assert.Equal(t, domain.IntentStatusSent, got.res.Status)
	assert.Equal(t, 3, got.res.Attempts)
	assert.Equal(t, "resend", got.res.Provider)
	assert.Equal(t, "re_1", got.res.ProviderMessageID)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.clock.Afters())

	records := f.recorder.Attempts()
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, i+1, r.AttemptNumber)
		assert.Equal(t, "resend", r.Provider)
	}
	assert.Equal(t, domain.OutcomeTransientFailure, records[0].Outcome)
	assert.Equal(t, errs.KindTransientNetwork, records[1].ErrorKind)
	assert.Equal(t, domain.OutcomeSuccess, records[2].Outcome)

	stored, err := f.repo.GetByID(t.Context(), "T-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSent, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
}

func TestEngine_Fallback(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		before    func(f *fixture)
		advance   []time.Duration
		wantRes   domain.DeliveryResult
		wantKinds []errs.DeliveryErrorKind
	}{
		{
			name: "鉴权失败只降级一次，不在主供应商上重试",
			before: func(f *fixture) {
				f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("resend", errs.KindAuthError)).Times(1)
				f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{ProviderMessageID: "relay-1"}, nil).Times(1)
			},
			wantRes: domain.DeliveryResult{
				IntentID: "T-2", Status: domain.IntentStatusSent, Attempts: 2,
				Provider: "relay", ProviderMessageID: "relay-1",
			},
			wantKinds: []errs.DeliveryErrorKind{errs.KindAuthError, ""},
		},
		{
			name: "收件人被拒绝不降级",
			before: func(f *fixture) {
				f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("resend", errs.KindRecipientRejected)).Times(1)
				f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)
			},
			wantRes: domain.DeliveryResult{
				IntentID: "T-2", Status: domain.IntentStatusFailed, Attempts: 1,
				Provider: "resend", FailReason: domain.FailReasonRejected,
			},
			wantKinds: []errs.DeliveryErrorKind{errs.KindRecipientRejected},
		},
		{
			name: "未知错误算永久失败，仍然可以降级",
			before: func(f *fixture) {
				f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, errors.New("boom")).Times(1)
				f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("relay", errs.KindAuthError)).Times(1)
			},
			wantRes: domain.DeliveryResult{
				IntentID: "T-2", Status: domain.IntentStatusFailed, Attempts: 2,
				Provider: "relay", FailReason: domain.FailReasonExhausted,
			},
			wantKinds: []errs.DeliveryErrorKind{errs.KindUnknown, errs.KindAuthError},
		},
		{
			name: "主供应商重试耗尽后降级",
			before: func(f *fixture) {
				f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("resend", errs.KindProviderUnavailable)).Times(3)
				f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("relay", errs.KindTransientNetwork)).Times(1)
			},
			advance: []time.Duration{time.Second, 2 * time.Second},
			wantRes: domain.DeliveryResult{
				IntentID: "T-2", Status: domain.IntentStatusFailed, Attempts: 4,
				Provider: "relay", FailReason: domain.FailReasonExhausted,
			},
			wantKinds: []errs.DeliveryErrorKind{
				errs.KindProviderUnavailable, errs.KindProviderUnavailable,
				errs.KindProviderUnavailable, errs.KindTransientNetwork,
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			tc.before(f)
			done := submitAsync(f, statusUpdateRequest("T-2"))
			for _, d := range tc.advance {
				f.clock.WaitForTimers(1)
				f.clock.Advance(d)
			}
			got := <-done
			require.NoError(t, got.err)
			got.res.Err = nil
			assert.Equal(t, tc.wantRes, got.res)

			records := f.recorder.Attempts()
			require.Len(t, records, len(tc.wantKinds))
			for i, kind := range tc.wantKinds {
				assert.Equal(t, kind, records[i].ErrorKind)
				assert.Equal(t, i+1, records[i].AttemptNumber)
			}
			assert.Equal(t, tc.advance, nilIfEmpty(f.clock.Afters()))
		})
	}
}

func nilIfEmpty(d []time.Duration) []time.Duration {
	if len(d) == 0 {
		return nil
	}
	return d
}

func TestEngine_SendTimeout(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(cfg *Config, _ *int) {
		cfg.SendTimeout = 20 * time.Millisecond
		cfg.Retry = retry.Policy{MaxAttempts: 1, BaseDelay: time.Second, MaxDelay: time.Second}
	})
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.Message) (domain.SendResponse, error) {
			<-ctx.Done()
			return domain.SendResponse{}, ctx.Err()
		})
	f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{ProviderMessageID: "relay-1"}, nil)

	res, err := f.engine.SubmitIntent(t.Context(), statusUpdateRequest("T-3"))
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSent, res.Status)
	records := f.recorder.Attempts()
	require.Len(t, records, 2)
	assert.Equal(t, errs.KindTransientNetwork, records[0].ErrorKind)
}

func TestEngine_Message(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg domain.Message) (domain.SendResponse, error) {
			assert.Equal(t, "T-4", msg.IntentID)
			assert.Equal(t, "serwis@example.com", msg.From)
			assert.Equal(t, "jan.kowalski@example.com", msg.To)
			assert.Equal(t, "T-4", msg.Headers["X-Entity-Ref-ID"])
			assert.Equal(t, "<mailto:unsubscribe@example.com>", msg.Headers["List-Unsubscribe"])
			assert.Equal(t, map[string]string{"intent_id": "T-4", "template": "repairStatusUpdate"}, msg.Tags)
			assert.Contains(t, msg.HTML, "iPhone 12")
			return domain.SendResponse{ProviderMessageID: "re_4"}, nil
		})

	res, err := f.engine.SubmitIntent(t.Context(), statusUpdateRequest("T-4"))
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSent, res.Status)
	stored, err := f.repo.GetByID(t.Context(), "T-4")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, stored.Priority)
}

func TestEngine_Idempotency(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{ProviderMessageID: "re_5"}, nil).Times(1)

	first, err := f.engine.SubmitIntent(t.Context(), statusUpdateRequest("T-5"))
	require.NoError(t, err)
	assert.False(t, first.Idempotent)

	second, err := f.engine.SubmitIntent(t.Context(), statusUpdateRequest("T-5"))
	require.NoError(t, err)
	assert.True(t, second.Idempotent)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, "re_5", second.ProviderMessageID)
	assert.Len(t, f.recorder.Attempts(), 1)

	// 还没有终态的意图
	require.NoError(t, f.repo.Create(t.Context(), domain.NotificationIntent{ID: "T-6", Status: domain.IntentStatusSending}))
	_, err = f.engine.SubmitIntent(t.Context(), statusUpdateRequest("T-6"))
	assert.ErrorIs(t, err, errs.ErrIntentInProgress)
}

func TestEngine_ValidationFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)
	f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	req := statusUpdateRequest("T-7")
	delete(req.Payload, "technician")
	res, err := f.engine.SubmitIntent(t.Context(), req)

	var failure *errs.ValidationFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, errs.CategoryTemplate, failure.Category)
	assert.Equal(t, domain.IntentStatusFailed, res.Status)
	assert.Equal(t, "template", res.FailReason)
	require.NotNil(t, res.Validation)
	assert.False(t, res.Validation.IsValid())
	assert.Len(t, f.recorder.validations, 1)
	assert.Empty(t, f.recorder.Attempts())

	_, err = f.engine.SubmitIntent(t.Context(), SubmitRequest{TemplateID: "invoice", Recipient: "a@example.com"})
	assert.ErrorIs(t, err, errs.ErrUnknownTemplate)
}

func TestEngine_RateLimit(t *testing.T) {
	t.Parallel()
	const limit = 2
	f := newFixture(t, func(_ *Config, perRecipient *int) { *perRecipient = limit })
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{ProviderMessageID: "ok"}, nil).Times(limit)

	for i := 0; i < limit; i++ {
		res, err := f.engine.SubmitIntent(t.Context(), statusUpdateRequest(fmt.Sprintf("R-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, domain.IntentStatusSent, res.Status)
	}
	res, err := f.engine.SubmitIntent(t.Context(), statusUpdateRequest("R-over"))
	assert.ErrorIs(t, err, errs.ErrRateLimited)
	assert.Equal(t, domain.IntentStatusFailed, res.Status)
	assert.Equal(t, domain.FailReasonRateLimited, res.FailReason)
	assert.Equal(t, 0, res.Attempts)
}

func TestEngine_CancelDuringRetry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.SendResponse{}, deliveryErr("resend", errs.KindTransientNetwork)).Times(1)
	f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	done := submitAsync(f, statusUpdateRequest("C-1"))
	f.clock.WaitForTimers(1)
	ok, err := f.engine.Cancel(t.Context(), "C-1")
	require.NoError(t, err)
	assert.True(t, ok)
	f.clock.Advance(time.Second)

	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, domain.IntentStatusCanceled, got.res.Status)
	assert.Equal(t, 1, got.res.Attempts)

	// 终态不能再取消
	ok, err = f.engine.Cancel(t.Context(), "C-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_CancelPending(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.NoError(t, f.repo.Create(t.Context(), domain.NotificationIntent{ID: "C-2", Status: domain.IntentStatusPending}))

	ok, err := f.engine.Cancel(t.Context(), "C-2")
	require.NoError(t, err)
	assert.True(t, ok)
	stored, err := f.repo.GetByID(t.Context(), "C-2")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusCanceled, stored.Status)

	_, err = f.engine.Cancel(t.Context(), "missing")
	assert.ErrorIs(t, err, errs.ErrIntentNotFound)
}

func TestEngine_CancelInflightReportsOutcome(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sending := make(chan struct{})
	release := make(chan struct{})
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Message) (domain.SendResponse, error) {
			close(sending)
			<-release
			return domain.SendResponse{Provider: "resend", ProviderMessageID: "re_9"}, nil
		})
	f.fallback.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	done := submitAsync(f, statusUpdateRequest("C-3"))
	<-sending

	type cancelResult struct {
		ok  bool
		err error
	}
	canceled := make(chan cancelResult, 1)
	go func() {
		ok, err := f.engine.Cancel(context.Background(), "C-3")
		canceled <- cancelResult{ok: ok, err: err}
	}()
	require.Eventually(t, func() bool {
		flight, ok := f.engine.inflight.Load("C-3")
		return ok && flight.canceled.Load()
	}, 5*time.Second, 10*time.Millisecond)

	// 已经发出的调用成功了，取消没有生效
	close(release)
	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, domain.IntentStatusSent, got.res.Status)
	res := <-canceled
	require.NoError(t, res.err)
	assert.False(t, res.ok)
}

func TestEngine_SendMany(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.primary.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg domain.Message) (domain.SendResponse, error) {
			if msg.To == "odrzucony@example.com" {
				return domain.SendResponse{}, deliveryErr("resend", errs.KindRecipientRejected)
			}
			return domain.SendResponse{ProviderMessageID: "m-" + msg.IntentID}, nil
		}).Times(4)

	var intents []domain.NotificationIntent
	for i := 0; i < 5; i++ {
		req := statusUpdateRequest(fmt.Sprintf("B-%d", i))
		intent, err := req.toIntent()
		require.NoError(t, err)
		switch i {
		case 2:
			intent.Recipient = "odrzucony@example.com"
		case 4:
			intent.Payload = nil
		}
		intents = append(intents, intent)
	}

	results := f.engine.SendMany(t.Context(), intents)
	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("B-%d", i), res.IntentID)
	}
	assert.Equal(t, domain.IntentStatusSent, results[0].Status)
	assert.Equal(t, "m-B-1", results[1].ProviderMessageID)
	assert.Equal(t, domain.FailReasonRejected, results[2].FailReason)
	assert.Equal(t, domain.IntentStatusSent, results[3].Status)
	assert.Equal(t, domain.IntentStatusFailed, results[4].Status)
	assert.ErrorIs(t, results[4].Err, errs.ErrValidationFailed)
}

var _ provider.Provider = (*providermocks.MockProvider)(nil)
