package validation

import (
	"context"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
	"github.com/patrickmn/go-cache"
)

// ReachabilityStage 发送前确认至少有一个供应商可达。
// 只缓存成功的检查结果，TTL 内不再重复检查
type ReachabilityStage struct {
	providers []provider.Provider
	cache     *cache.Cache
	ttl       time.Duration
	logger    *elog.Component
}

// NewReachabilityStage providers 按优先级排列，主供应商可达时不检查备用供应商
func NewReachabilityStage(ttl time.Duration, providers ...provider.Provider) *ReachabilityStage {
	if ttl <= 0 {
		ttl = DefaultConfig().ReachabilityTTL
	}
	return &ReachabilityStage{
		providers: providers,
		cache:     cache.New(ttl, 2*ttl),
		ttl:       ttl,
		logger:    elog.DefaultLogger,
	}
}

func (s *ReachabilityStage) Name() string {
	return "reachability"
}

func (s *ReachabilityStage) Category() errs.ValidationCategory {
	return errs.CategoryReachability
}

func (s *ReachabilityStage) Check(ctx context.Context, _ Input) (domain.CheckResult, error) {
	var errors []string
	for _, p := range s.providers {
		if _, ok := s.cache.Get(p.Name()); ok {
			return s.reachable(errors), nil
		}
		err := provider.CheckHealth(ctx, p)
		if err == nil {
			s.cache.Set(p.Name(), struct{}{}, s.ttl)
			return s.reachable(errors), nil
		}
		s.logger.Warn("供应商不可达", elog.String("provider", p.Name()), elog.FieldErr(err))
		errors = append(errors, "供应商不可达: "+p.Name())
	}
	if len(errors) == 0 {
		errors = append(errors, "没有配置供应商")
	}
	res := newResult(s.Name(), errors)
	res.IsValid = false
	return res, nil
}

// reachable 只有备用供应商可达时仍然通过，但是扣分
func (s *ReachabilityStage) reachable(unreachable []string) domain.CheckResult {
	res := newResult(s.Name(), nil)
	res.Score = max(0, fullScore-penalty*len(unreachable))
	return res
}
