package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"github.com/ecodeclub/mq-api"
)

const AttemptEventTopic = "delivery_attempt_events"

// AttemptEvent 每一次供应商调用产生一个事件，供下游统计和告警使用
type AttemptEvent struct {
	IntentID      string `json:"intentId"`
	AttemptNumber int    `json:"attemptNumber"`
	Provider      string `json:"provider"`
	Outcome       string `json:"outcome"`
	ErrorKind     string `json:"errorKind,omitempty"`
	ErrorDetail   string `json:"errorDetail,omitempty"`
	// Timestamp 毫秒
	Timestamp int64 `json:"timestamp"`
}

func NewAttemptEvent(record domain.DeliveryAttemptRecord) AttemptEvent {
	return AttemptEvent{
		IntentID:      record.IntentID,
		AttemptNumber: record.AttemptNumber,
		Provider:      record.Provider,
		Outcome:       string(record.Outcome),
		ErrorKind:     string(record.ErrorKind),
		ErrorDetail:   record.ErrorDetail,
		Timestamp:     record.Timestamp.UnixMilli(),
	}
}

//go:generate mockgen -source=./producer.go -package=evtmocks -destination=../mocks/attempt_event_producer.mock.go AttemptEventProducer
type AttemptEventProducer interface {
	Produce(ctx context.Context, evt AttemptEvent) error
}

type Producer struct {
	producer mq.Producer
}

func NewAttemptEventProducer(q mq.MQ) (*Producer, error) {
	producer, err := q.Producer(AttemptEventTopic)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: producer}, nil
}

func (p *Producer) Produce(ctx context.Context, evt AttemptEvent) error {
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化投递尝试事件失败 %w", err)
	}
	_, err = p.producer.Produce(ctx, &mq.Message{
		Topic: AttemptEventTopic,
		Key:   []byte(evt.IntentID),
		Value: val,
	})
	return err
}
