package ioc

import (
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/metrics"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/relay"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/resend"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/sequential"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/tracing"
	"github.com/gotomicro/ego/core/econf"
)

// InitProviders 第一个是主供应商 Resend，第二个是备用的 HTTP 中继
func InitProviders() *sequential.SelectorBuilder {
	var primary resend.Config
	if err := econf.UnmarshalKey("email.primary", &primary); err != nil {
		panic(err)
	}
	var fallback relay.Config
	if err := econf.UnmarshalKey("email.fallback", &fallback); err != nil {
		panic(err)
	}
	p, err := resend.NewProvider("resend", primary)
	if err != nil {
		panic(err)
	}
	return sequential.NewSelectorBuilder(
		decorate(p),
		decorate(relay.NewProvider("relay", fallback)),
	)
}

func decorate(p provider.Provider) provider.Provider {
	return tracing.NewProvider(metrics.NewProvider(p))
}
