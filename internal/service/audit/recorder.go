package audit

import (
	"context"
	"sync"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	auditevt "gitee.com/flycash/repairshop-notification/internal/event/audit"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"github.com/gotomicro/ego/core/elog"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	attemptCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_attempts_total",
			Help: "供应商调用次数，按结果和错误分类统计",
		},
		[]string{"provider", "outcome", "kind"},
	)
	validationFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_validation_failures_total",
			Help: "发送前校验失败次数",
		},
		[]string{"category", "template"},
	)
)

// Recorder 审计日志。先落库，再更新指标和发布事件，后两者失败只打日志
type Recorder struct {
	repo     repository.DeliveryAttemptRepository
	producer auditevt.AttemptEventProducer
	logger   *elog.Component
}

func NewRecorder(repo repository.DeliveryAttemptRepository, producer auditevt.AttemptEventProducer) *Recorder {
	registerOnce.Do(func() {
		prometheus.MustRegister(attemptCounter, validationFailureCounter)
	})
	return &Recorder{
		repo:     repo,
		producer: producer,
		logger:   elog.DefaultLogger,
	}
}

func (r *Recorder) RecordAttempt(ctx context.Context, record domain.DeliveryAttemptRecord) error {
	if err := r.repo.Append(ctx, record); err != nil {
		return err
	}
	attemptCounter.WithLabelValues(record.Provider, string(record.Outcome), string(record.ErrorKind)).Inc()
	if record.Outcome != domain.OutcomeSuccess {
		r.logger.Warn("供应商调用失败",
			elog.String("intentID", record.IntentID),
			elog.Int("attempt", record.AttemptNumber),
			elog.String("provider", record.Provider),
			elog.String("kind", string(record.ErrorKind)),
			elog.String("detail", record.ErrorDetail))
	}
	if r.producer == nil {
		return nil
	}
	if err := r.producer.Produce(ctx, auditevt.NewAttemptEvent(record)); err != nil {
		r.logger.Warn("发布投递尝试事件失败", elog.String("intentID", record.IntentID), elog.FieldErr(err))
	}
	return nil
}

func (r *Recorder) RecordValidationFailure(_ context.Context, intent domain.NotificationIntent, report domain.ValidationReport) {
	validationFailureCounter.WithLabelValues(report.Category.String(), intent.TemplateID.String()).Inc()
	r.logger.Info("发送前校验失败",
		elog.String("intentID", intent.ID),
		elog.String("category", report.Category.String()),
		elog.Int("score", report.Score()))
}
