package retry

import (
	"fmt"
	"time"

	"github.com/ecodeclub/ekit/retry"
)

// Policy 单个供应商上的重试策略。MaxAttempts 包含第一次发送
type Policy struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
	}
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("重试策略 MaxAttempts 必须大于 0: %d", p.MaxAttempts)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("重试策略 BaseDelay 必须大于 0: %s", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("重试策略 MaxDelay %s 小于 BaseDelay %s", p.MaxDelay, p.BaseDelay)
	}
	return nil
}

// NewStrategy 每个意图一份，第 N 次重试的间隔是 BaseDelay * 2^(N-1)，不超过 MaxDelay
func (p Policy) NewStrategy() (retry.Strategy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// ekit 里 maxRetries <= 0 表示无限重试，这里至少给 1，真正的上限由调用方的 MaxAttempts 控制
	maxRetries := int32(p.MaxAttempts - 1)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return retry.NewExponentialBackoffRetryStrategy(p.BaseDelay, p.MaxDelay, maxRetries)
}

// Delays 按顺序返回全部重试间隔
func (p Policy) Delays() ([]time.Duration, error) {
	s, err := p.NewStrategy()
	if err != nil {
		return nil, err
	}
	res := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		d, ok := s.Next()
		if !ok {
			break
		}
		res = append(res, d)
	}
	return res, nil
}
