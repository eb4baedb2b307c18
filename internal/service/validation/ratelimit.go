package validation

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/ratelimit"
)

// RecipientChecker 由 ratelimit.RecipientLimiter 实现
//
//go:generate mockgen -source=./ratelimit.go -destination=./mocks/ratelimit.mock.go -package=validationmocks RecipientChecker
type RecipientChecker interface {
	Check(ctx context.Context, recipient string) (ratelimit.Decision, error)
}

// RateLimitStage 超过频率限制的意图直接失败，不会重试
type RateLimitStage struct {
	limiter RecipientChecker
}

func NewRateLimitStage(limiter RecipientChecker) *RateLimitStage {
	return &RateLimitStage{limiter: limiter}
}

func (s *RateLimitStage) Name() string {
	return "rateLimit"
}

func (s *RateLimitStage) Category() errs.ValidationCategory {
	return errs.CategoryRateLimited
}

func (s *RateLimitStage) Check(ctx context.Context, in Input) (domain.CheckResult, error) {
	decision, err := s.limiter.Check(ctx, in.Intent.Recipient)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if !decision.Allowed {
		res := newResult(s.Name(), []string{"触发限流: " + decision.Reason})
		res.Score = 0
		return res, nil
	}
	return newResult(s.Name(), nil), nil
}
