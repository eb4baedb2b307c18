package metrics

import (
	"errors"
	"testing"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	providermocks "gitee.com/flycash/repairshop-notification/internal/service/provider/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestProvider_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := providermocks.NewMockProvider(ctrl)
	inner.EXPECT().Name().Return("metrics-test").AnyTimes()
	msg := domain.Message{IntentID: "1", Tags: map[string]string{"template": "repairReady"}}
	gomock.InOrder(
		inner.EXPECT().Send(gomock.Any(), msg).Return(domain.SendResponse{ProviderMessageID: "m-1"}, nil),
		inner.EXPECT().Send(gomock.Any(), msg).Return(domain.SendResponse{},
			errs.NewDeliveryError("metrics-test", errs.KindAuthError, errors.New("401"))),
	)

	// 装饰多个供应商不会重复注册
	p := NewProvider(inner)
	_ = NewProvider(inner)

	resp, err := p.Send(t.Context(), msg)
	require.NoError(t, err)
	assert.Equal(t, "m-1", resp.ProviderMessageID)
	_, err = p.Send(t.Context(), msg)
	require.ErrorIs(t, err, errs.ErrDeliveryFailed)

	assert.InDelta(t, 2, testutil.ToFloat64(sendCounter.WithLabelValues("metrics-test", "repairReady")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(sendStatusCounter.WithLabelValues("metrics-test", "repairReady", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(sendStatusCounter.WithLabelValues("metrics-test", "repairReady", "authError")), 0)
}
