package delivery

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/retry"
	"gitee.com/flycash/repairshop-notification/internal/service/validation"
)

// Submitter 投递入口，定时调度器和维修单服务都依赖它
//
//go:generate mockgen -source=./types.go -destination=./mocks/delivery.mock.go -package=deliverymocks Submitter,Validator,Recorder,IDGenerator
type Submitter interface {
	Deliver(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error)
}

type Validator interface {
	Validate(ctx context.Context, in validation.Input) (domain.ValidationReport, error)
}

// Recorder 审计日志，每一次供应商调用记录一次
type Recorder interface {
	RecordAttempt(ctx context.Context, record domain.DeliveryAttemptRecord) error
	RecordValidationFailure(ctx context.Context, intent domain.NotificationIntent, report domain.ValidationReport)
}

type IDGenerator interface {
	NextID() (string, error)
}

type Config struct {
	Retry retry.Policy `yaml:"retry"`
	// SendTimeout 单次供应商调用的超时时间
	SendTimeout time.Duration `yaml:"sendTimeout"`
	// Concurrency SendMany 的并发上限
	Concurrency int          `yaml:"concurrency"`
	Sender      SenderConfig `yaml:"sender"`
}

// SenderConfig 发件人和反滥用头部
type SenderConfig struct {
	From            string `yaml:"from"`
	ListUnsubscribe string `yaml:"listUnsubscribe"`
}

func DefaultConfig() Config {
	return Config{
		Retry:       retry.DefaultPolicy(),
		SendTimeout: 10 * time.Second,
		Concurrency: 8,
	}
}

// SubmitRequest ID 为空时自动生成，不为空时作为幂等键
type SubmitRequest struct {
	ID         string
	TemplateID string
	Recipient  string
	Payload    map[string]string
	Priority   domain.Priority
}

func (r SubmitRequest) toIntent() (domain.NotificationIntent, error) {
	tpl, err := domain.ParseTemplateID(r.TemplateID)
	if err != nil {
		return domain.NotificationIntent{}, err
	}
	if r.Recipient == "" {
		return domain.NotificationIntent{}, fmt.Errorf("%w: 收件人为空", errs.ErrInvalidParameter)
	}
	return domain.NotificationIntent{
		ID:         r.ID,
		TemplateID: tpl,
		Recipient:  r.Recipient,
		Payload:    r.Payload,
		Priority:   r.Priority,
	}, nil
}
