package ioc

import (
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/audit"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/sequential"
	"gitee.com/flycash/repairshop-notification/internal/service/template"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
)

func InitRenderer() template.Renderer {
	r, err := template.NewMarkdownRenderer(nil)
	if err != nil {
		panic(err)
	}
	return r
}

func InitEngine(
	repo repository.NotificationIntentRepository,
	renderer template.Renderer,
	validator delivery.Validator,
	providers *sequential.SelectorBuilder,
	recorder *audit.Recorder,
	ids delivery.IDGenerator,
	clk clock.Clock,
) *delivery.Engine {
	cfg := delivery.DefaultConfig()
	if err := econf.UnmarshalKey("delivery", &cfg); err != nil {
		panic(err)
	}
	if err := econf.UnmarshalKey("email.sender", &cfg.Sender); err != nil {
		panic(err)
	}
	engine, err := delivery.NewEngine(repo, renderer, validator, providers, recorder, ids, clk, cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

func InitSendingTimeoutTask(
	dclient dlock.Client,
	repo repository.NotificationIntentRepository,
	clk clock.Clock,
) *delivery.SendingTimeoutTask {
	cfg := delivery.DefaultTimeoutConfig()
	if err := econf.UnmarshalKey("intentTimeout", &cfg); err != nil {
		panic(err)
	}
	return delivery.NewSendingTimeoutTask(dclient, repo, clk, cfg)
}
