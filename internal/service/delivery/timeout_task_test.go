package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	repomocks "gitee.com/flycash/repairshop-notification/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSendingTimeoutTask_MarkTimeoutAsFailed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := NewSendingTimeoutTask(nil, f.repo, f.clock, TimeoutConfig{Timeout: 10 * time.Minute})

	// 进程崩溃前留下的意图
	req := statusUpdateRequest("S-1")
	stuck, err := req.toIntent()
	require.NoError(t, err)
	stuck.Status = domain.IntentStatusPending
	require.NoError(t, f.repo.Create(t.Context(), stuck))
	sending := stuck
	sending.ID = "S-2"
	require.NoError(t, f.repo.Create(t.Context(), sending))
	sending.Status = domain.IntentStatusSending
	sending.Attempts = 1
	require.NoError(t, f.repo.CASStatus(t.Context(), sending, domain.IntentStatusPending))
	sent := stuck
	sent.ID = "S-3"
	sent.Status = domain.IntentStatusSent
	require.NoError(t, f.repo.Create(t.Context(), sent))

	// 还没到超时时间
	n, err := task.MarkTimeoutAsFailed(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Advance(11 * time.Minute)
	fresh := stuck
	fresh.ID = "S-4"
	require.NoError(t, f.repo.Create(t.Context(), fresh))

	n, err = task.MarkTimeoutAsFailed(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, id := range []string{"S-1", "S-2"} {
		got, err := f.repo.GetByID(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.IntentStatusFailed, got.Status, id)
		assert.Equal(t, domain.FailReasonTimeout, got.FailReason, id)
	}
	got, err := f.repo.GetByID(t.Context(), "S-4")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusPending, got.Status)

	// 之前卡住的意图再次提交，拿到的是可以查询的终态
	res, err := f.engine.SubmitIntent(t.Context(), req)
	require.NoError(t, err)
	assert.True(t, res.Idempotent)
	assert.Equal(t, domain.IntentStatusFailed, res.Status)
	assert.Equal(t, domain.FailReasonTimeout, res.FailReason)
}

func TestSendingTimeoutTask_CASConflict(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		casErr  error
		wantErr error
	}{
		{
			name:   "引擎刚好推进了状态",
			casErr: fmt.Errorf("%w: S-1", errs.ErrIntentStatusMismatch),
		},
		{
			name:    "数据库错误",
			casErr:  errors.New("db down"),
			wantErr: errors.New("db down"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			repo := repomocks.NewMockNotificationIntentRepository(ctrl)
			clk := clock.NewFake(start)
			repo.EXPECT().FindStale(gomock.Any(), start.Add(-time.Minute), 10).
				Return([]domain.NotificationIntent{{ID: "S-1", Status: domain.IntentStatusSending}}, nil)
			repo.EXPECT().CASStatus(gomock.Any(), gomock.Any(), domain.IntentStatusSending).DoAndReturn(
				func(_ context.Context, intent domain.NotificationIntent, _ domain.IntentStatus) error {
					assert.Equal(t, domain.IntentStatusFailed, intent.Status)
					assert.Equal(t, domain.FailReasonTimeout, intent.FailReason)
					return tc.casErr
				})
			task := NewSendingTimeoutTask(nil, repo, clk, TimeoutConfig{Timeout: time.Minute, BatchSize: 10})
			n, err := task.MarkTimeoutAsFailed(t.Context())
			assert.Equal(t, 1, n)
			if tc.wantErr != nil {
				assert.ErrorContains(t, err, tc.wantErr.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSendingTimeoutTask_HandleSendingTimeout(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	repo := repomocks.NewMockNotificationIntentRepository(ctrl)
	clk := clock.NewFake(start)
	task := NewSendingTimeoutTask(nil, repo, clk, TimeoutConfig{BatchSize: 2, Interval: 30 * time.Second})

	gomock.InOrder(
		// 满一批，马上处理下一批
		repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 2).
			Return([]domain.NotificationIntent{
				{ID: "S-1", Status: domain.IntentStatusPending},
				{ID: "S-2", Status: domain.IntentStatusPending},
			}, nil),
		repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 2).Return(nil, nil),
	)
	repo.EXPECT().CASStatus(gomock.Any(), gomock.Any(), domain.IntentStatusPending).Return(nil).Times(2)

	require.NoError(t, task.HandleSendingTimeout(t.Context()))
	assert.Equal(t, 0, clk.PendingCount())

	done := make(chan error, 1)
	go func() {
		done <- task.HandleSendingTimeout(t.Context())
	}()
	clk.WaitForTimers(1)
	assert.Equal(t, []time.Duration{30 * time.Second}, clk.Afters())
	clk.Advance(30 * time.Second)
	require.NoError(t, <-done)
}
