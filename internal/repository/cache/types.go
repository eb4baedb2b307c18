package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
)

const (
	IntentPrefix = "notif:sent"
	// DefaultExpiredTime 幂等窗口，超过之后回源到数据库
	DefaultExpiredTime = 24 * time.Hour
)

var ErrKeyNotFound = errors.New("key not found")

// IntentCache 只缓存终态的意图，终态不可变所以不需要失效
type IntentCache interface {
	Get(ctx context.Context, id string) (domain.NotificationIntent, error)
	Set(ctx context.Context, intent domain.NotificationIntent) error
}

func IntentKey(id string) string {
	return fmt.Sprintf("%s:%s", IntentPrefix, id)
}
