package ioc

import (
	"context"

	auditevt "gitee.com/flycash/repairshop-notification/internal/event/audit"
	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
	"github.com/gotomicro/ego/core/econf"
)

// InitMQ 投递尝试事件只在进程内消费，使用内存实现
func InitMQ() mq.MQ {
	type Config struct {
		Partitions int `yaml:"partitions"`
	}
	cfg := Config{Partitions: 1}
	if err := econf.UnmarshalKey("mq", &cfg); err != nil {
		panic(err)
	}
	q := memory.NewMQ()
	if err := q.CreateTopic(context.Background(), auditevt.AttemptEventTopic, cfg.Partitions); err != nil {
		panic(err)
	}
	return q
}

func InitAttemptEventProducer(q mq.MQ) auditevt.AttemptEventProducer {
	p, err := auditevt.NewAttemptEventProducer(q)
	if err != nil {
		panic(err)
	}
	return p
}

func InitProviderHealthConsumer(q mq.MQ) *auditevt.ProviderHealthConsumer {
	type Config struct {
		FailureThreshold int `yaml:"failureThreshold"`
	}
	cfg := Config{FailureThreshold: 5}
	if err := econf.UnmarshalKey("providerHealth", &cfg); err != nil {
		panic(err)
	}
	c, err := auditevt.NewProviderHealthConsumer(q, cfg.FailureThreshold)
	if err != nil {
		panic(err)
	}
	return c
}
