package ratelimit

import (
	"context"
	"fmt"
	"strings"
)

const (
	ReasonRecipient = "recipient"
	ReasonGlobal    = "global"

	globalKey = "global"
)

// Decision 限流判定结果，Reason 只在被拒绝时有值
type Decision struct {
	Allowed bool
	Reason  string
}

// RecipientLimiter 先按收件人限流，再检查全局的粗粒度上限
type RecipientLimiter struct {
	perRecipient Limiter
	global       Limiter
}

// NewRecipientLimiter global 为 nil 时不做全局限流
func NewRecipientLimiter(perRecipient, global Limiter) *RecipientLimiter {
	return &RecipientLimiter{perRecipient: perRecipient, global: global}
}

func (r *RecipientLimiter) Check(ctx context.Context, recipient string) (Decision, error) {
	limited, err := r.perRecipient.Limit(ctx, RecipientKey(recipient))
	if err != nil {
		return Decision{}, fmt.Errorf("收件人限流检查失败: %w", err)
	}
	if limited {
		return Decision{Allowed: false, Reason: ReasonRecipient}, nil
	}
	if r.global == nil {
		return Decision{Allowed: true}, nil
	}
	limited, err = r.global.Limit(ctx, globalKey)
	if err != nil {
		return Decision{}, fmt.Errorf("全局限流检查失败: %w", err)
	}
	if limited {
		return Decision{Allowed: false, Reason: ReasonGlobal}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecipientKey 邮箱地址大小写不敏感
func RecipientKey(recipient string) string {
	return "recipient:" + strings.ToLower(strings.TrimSpace(recipient))
}
