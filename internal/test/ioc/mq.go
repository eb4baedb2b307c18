package ioc

import (
	"context"
	"sync"

	"gitee.com/flycash/repairshop-notification/internal/event/audit"
	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
)

var (
	q          mq.MQ
	mqInitOnce sync.Once
)

// InitMQ 替换用内存实现，方便测试
func InitMQ() mq.MQ {
	mqInitOnce.Do(func() {
		q = memory.NewMQ()
		err := q.CreateTopic(context.Background(), audit.AttemptEventTopic, 1)
		if err != nil {
			panic(err)
		}
	})
	return q
}
