package local

import (
	"context"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/repository/cache"
	ca "github.com/patrickmn/go-cache"
)

var _ cache.IntentCache = (*Cache)(nil)

type Cache struct {
	c *ca.Cache
}

func NewCache(c *ca.Cache) *Cache {
	return &Cache{c: c}
}

func (l *Cache) Get(_ context.Context, id string) (domain.NotificationIntent, error) {
	v, ok := l.c.Get(cache.IntentKey(id))
	if !ok {
		return domain.NotificationIntent{}, cache.ErrKeyNotFound
	}
	return v.(domain.NotificationIntent), nil
}

func (l *Cache) Set(_ context.Context, intent domain.NotificationIntent) error {
	l.c.Set(cache.IntentKey(intent.ID), intent, ca.DefaultExpiration)
	return nil
}
