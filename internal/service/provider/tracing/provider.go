package tracing

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	_ provider.Provider      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)

// Provider 为供应商实现添加链路追踪的装饰器
type Provider struct {
	provider provider.Provider
	tracer   trace.Tracer
}

func NewProvider(p provider.Provider) *Provider {
	return &Provider{
		provider: p,
		tracer:   otel.Tracer("repairshop-notification/provider"),
	}
}

func (p *Provider) Name() string {
	return p.provider.Name()
}

func (p *Provider) Send(ctx context.Context, msg domain.Message) (domain.SendResponse, error) {
	ctx, span := p.tracer.Start(ctx, "Provider.Send",
		trace.WithAttributes(
			attribute.String("provider", p.Name()),
			attribute.String("intent.id", msg.IntentID),
			attribute.String("intent.template", msg.Tags["template"]),
		))
	defer span.End()

	response, err := p.provider.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("provider.message_id", response.ProviderMessageID))
	}
	return response, err
}

func (p *Provider) CheckHealth(ctx context.Context) error {
	return provider.CheckHealth(ctx, p.provider)
}
