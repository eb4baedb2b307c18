package provider

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/domain"
)

// Provider 邮件供应商。Send 失败时返回 *errs.DeliveryError
//
//go:generate mockgen -source=./types.go -destination=./mocks/provider.mock.go -package=providermocks Provider,HealthChecker,Selector,SelectorBuilder
type Provider interface {
	Name() string
	// Send 发送邮件，主供应商和备用供应商的能力不对等，备用供应商可以忽略追踪元数据
	Send(ctx context.Context, msg domain.Message) (domain.SendResponse, error)
}

// HealthChecker 轻量的连通性和鉴权检查
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Selector 供应商选择器接口
type Selector interface {
	// Next 获取下一个供应商，无可用供应商时返回错误
	Next(ctx context.Context) (Provider, error)
}

// SelectorBuilder 供应商选择器的构造器，每个意图构造一个选择器
type SelectorBuilder interface {
	Build() (Selector, error)
}

// CheckHealth 供应商没有实现 HealthChecker 的视为可达
func CheckHealth(ctx context.Context, p Provider) error {
	if hc, ok := p.(HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}
