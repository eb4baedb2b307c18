package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"sync/atomic"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed lua/slide_window.lua
	slidingWindowScript string

	_ Limiter = (*RedisSlidingWindowLimiter)(nil)
)

// RedisSlidingWindowLimiter 多实例部署时共享窗口，原子性由 lua 脚本保证
type RedisSlidingWindowLimiter struct {
	cmd       redis.Cmdable
	clock     clock.Clock
	interval  time.Duration
	rate      int
	keyPrefix string
	seq       atomic.Int64
}

// NewRedisSlidingWindowLimiter 创建一个基于Redis的滑动窗口限流器
func NewRedisSlidingWindowLimiter(cmd redis.Cmdable, clk clock.Clock, interval time.Duration, rate int) *RedisSlidingWindowLimiter {
	return &RedisSlidingWindowLimiter{
		cmd:       cmd,
		clock:     clk,
		interval:  interval,
		rate:      rate,
		keyPrefix: "ratelimit:",
	}
}

func (r *RedisSlidingWindowLimiter) Limit(ctx context.Context, key string) (bool, error) {
	now := r.clock.Now().UnixMilli()
	member := fmt.Sprintf("%d:%d", now, r.seq.Add(1))
	return r.cmd.Eval(ctx, slidingWindowScript,
		[]string{r.getCountKey(key)},
		r.interval.Milliseconds(),
		r.rate,
		now,
		member,
	).Bool()
}

// Reset 清空某个 key 的窗口
func (r *RedisSlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	return r.cmd.Del(ctx, r.getCountKey(key)).Err()
}

// getCountKey 获取请求计数的Redis键
func (r *RedisSlidingWindowLimiter) getCountKey(key string) string {
	return fmt.Sprintf("%scount:%s", r.keyPrefix, key)
}
