package ratelimit

import "context"

//go:generate mockgen -source=./types.go -package=limitmocks -destination=./mocks/limiter.mock.go Limiter
type Limiter interface {
	// Limit 判断是否应该限流，返回 true 表示被限流。没有被限流的请求会占用一个名额
	Limit(ctx context.Context, key string) (bool, error)
}
