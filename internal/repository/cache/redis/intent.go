package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/repository/cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ cache.IntentCache = (*Cache)(nil)

// Cache 多实例共享的幂等标记，值是终态意图本身
type Cache struct {
	rdb redis.Cmdable
}

func NewCache(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, id string) (domain.NotificationIntent, error) {
	val, err := c.rdb.Get(ctx, cache.IntentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NotificationIntent{}, cache.ErrKeyNotFound
		}
		return domain.NotificationIntent{}, fmt.Errorf("failed to get intent from redis %w", err)
	}
	var intent domain.NotificationIntent
	if err = json.Unmarshal(val, &intent); err != nil {
		return domain.NotificationIntent{}, fmt.Errorf("failed to unmarshal intent data %w", err)
	}
	return intent, nil
}

func (c *Cache) Set(ctx context.Context, intent domain.NotificationIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent data %w", err)
	}
	err = c.rdb.Set(ctx, cache.IntentKey(intent.ID), data, cache.DefaultExpiredTime).Err()
	if err != nil {
		return fmt.Errorf("failed to set intent to redis %w", err)
	}
	return nil
}
