package ioc

import (
	"time"

	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/pkg/ratelimit"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"gitee.com/flycash/repairshop-notification/internal/service/provider/sequential"
	"gitee.com/flycash/repairshop-notification/internal/service/validation"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

// InitRecipientLimiter backend 为 redis 时多实例共享窗口
func InitRecipientLimiter(rdb redis.Cmdable, clk clock.Clock) validation.RecipientChecker {
	type Config struct {
		Backend      string        `yaml:"backend"`
		PerRecipient int           `yaml:"perRecipient"`
		Window       time.Duration `yaml:"window"`
		Global       int           `yaml:"global"`
		GlobalWindow time.Duration `yaml:"globalWindow"`
	}
	cfg := Config{
		Backend:      "memory",
		PerRecipient: 5,
		Window:       time.Hour,
		Global:       1000,
		GlobalWindow: time.Minute,
	}
	if err := econf.UnmarshalKey("ratelimit", &cfg); err != nil {
		panic(err)
	}
	newLimiter := func(interval time.Duration, rate int) ratelimit.Limiter {
		if cfg.Backend == "redis" {
			return ratelimit.NewRedisSlidingWindowLimiter(rdb, clk, interval, rate)
		}
		return ratelimit.NewSlidingWindowLimiter(clk, interval, rate)
	}
	var global ratelimit.Limiter
	if cfg.Global > 0 {
		global = newLimiter(cfg.GlobalWindow, cfg.Global)
	}
	return ratelimit.NewRecipientLimiter(newLimiter(cfg.Window, cfg.PerRecipient), global)
}

func InitValidator(providers *sequential.SelectorBuilder, limiter validation.RecipientChecker) delivery.Validator {
	cfg := validation.DefaultConfig()
	if err := econf.UnmarshalKey("validation", &cfg); err != nil {
		panic(err)
	}
	reachability := validation.NewReachabilityStage(cfg.ReachabilityTTL, providers.Primary())
	return validation.NewDefaultPipeline(cfg, reachability, limiter)
}
