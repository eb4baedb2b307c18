package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ecodeclub/mq-api"
	"github.com/gotomicro/ego/core/elog"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	consecutiveFailures = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "repairshop",
		Name:      "provider_consecutive_failures",
		Help:      "供应商连续失败的次数，成功一次清零",
	}, []string{"provider"})
	gaugeOnce sync.Once
)

// ProviderHealthConsumer 消费投递尝试事件，统计每个供应商连续失败的次数，超过阈值告警
type ProviderHealthConsumer struct {
	consumer  mq.Consumer
	threshold int
	logger    *elog.Component

	mu       sync.Mutex
	failures map[string]int
}

func NewProviderHealthConsumer(q mq.MQ, threshold int) (*ProviderHealthConsumer, error) {
	const groupID = "provider-health"
	consumer, err := q.Consumer(AttemptEventTopic, groupID)
	if err != nil {
		return nil, err
	}
	gaugeOnce.Do(func() {
		prometheus.MustRegister(consecutiveFailures)
	})
	return &ProviderHealthConsumer{
		consumer:  consumer,
		threshold: threshold,
		logger:    elog.DefaultLogger,
		failures:  make(map[string]int),
	}, nil
}

func (c *ProviderHealthConsumer) Start(ctx context.Context) {
	go func() {
		for {
			err := c.Consume(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				c.logger.Error("消费投递尝试事件失败", elog.FieldErr(err))
			}
		}
	}()
}

// Consume 处理一条消息。ctx 结束前没有拿到消息时原样返回 ctx 的错误
func (c *ProviderHealthConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.Consume(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("获取消息失败: %w", err)
	}
	var evt AttemptEvent
	if err = json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Warn("解析消息失败", elog.FieldErr(err), elog.Any("msg", msg.Value))
		return nil
	}
	c.handle(evt)
	return nil
}

func (c *ProviderHealthConsumer) handle(evt AttemptEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if evt.Outcome == "success" {
		c.failures[evt.Provider] = 0
		consecutiveFailures.WithLabelValues(evt.Provider).Set(0)
		return
	}
	// 收件人的问题和供应商无关
	if evt.ErrorKind == "recipientRejected" {
		return
	}
	c.failures[evt.Provider]++
	n := c.failures[evt.Provider]
	consecutiveFailures.WithLabelValues(evt.Provider).Set(float64(n))
	if n == c.threshold {
		c.logger.Warn("供应商连续失败",
			elog.String("provider", evt.Provider),
			elog.Int("failures", n),
			elog.String("lastErrorKind", evt.ErrorKind),
			elog.String("intentID", evt.IntentID))
	}
}

// Failures 当前连续失败次数
func (c *ProviderHealthConsumer) Failures(provider string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[provider]
}
