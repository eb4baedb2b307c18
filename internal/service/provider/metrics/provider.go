// Package metrics 为供应商实现添加指标收集的装饰器
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ provider.Provider      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)

var (
	registerOnce sync.Once

	sendDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "provider_send_duration_seconds",
			Help:       "供应商发送邮件耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"provider", "template", "status"},
	)

	sendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_send_total",
			Help: "供应商发送邮件总数",
		},
		[]string{"provider", "template"},
	)

	sendStatusCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_send_status_total",
			Help: "供应商发送结果统计，失败按错误分类",
		},
		[]string{"provider", "template", "status"},
	)
)

// Provider 为供应商实现添加指标收集的装饰器
type Provider struct {
	provider provider.Provider
}

// NewProvider 同一个进程里面可以装饰多个供应商，指标只注册一次
func NewProvider(p provider.Provider) *Provider {
	registerOnce.Do(func() {
		prometheus.MustRegister(sendDurationSummary, sendCounter, sendStatusCounter)
	})
	return &Provider{provider: p}
}

func (p *Provider) Name() string {
	return p.provider.Name()
}

// Send 发送邮件并记录指标
func (p *Provider) Send(ctx context.Context, msg domain.Message) (domain.SendResponse, error) {
	startTime := time.Now()
	template := msg.Tags["template"]
	sendCounter.WithLabelValues(p.Name(), template).Inc()

	response, err := p.provider.Send(ctx, msg)

	status := statusOf(err)
	sendStatusCounter.WithLabelValues(p.Name(), template, status).Inc()
	sendDurationSummary.WithLabelValues(p.Name(), template, status).Observe(time.Since(startTime).Seconds())
	return response, err
}

func (p *Provider) CheckHealth(ctx context.Context) error {
	return provider.CheckHealth(ctx, p.provider)
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	var de *errs.DeliveryError
	if errors.As(err, &de) {
		return string(de.Kind)
	}
	return string(errs.KindUnknown)
}
