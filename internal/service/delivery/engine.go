package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"gitee.com/flycash/repairshop-notification/internal/service/template"
	"gitee.com/flycash/repairshop-notification/internal/service/validation"
	"github.com/ecodeclub/ekit/syncx"
	"github.com/gotomicro/ego/core/elog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var _ Submitter = (*Engine)(nil)

// Engine 校验、选择供应商、发送、错误分类、重试和降级
type Engine struct {
	repo      repository.NotificationIntentRepository
	renderer  template.Renderer
	validator Validator
	providers provider.SelectorBuilder
	recorder  Recorder
	ids       IDGenerator
	clock     clock.Clock
	cfg       Config

	// inflight 本实例正在处理的意图
	inflight syncx.Map[string, *inflightIntent]

	tracer trace.Tracer
	logger *elog.Component
}

func NewEngine(
	repo repository.NotificationIntentRepository,
	renderer template.Renderer,
	validator Validator,
	providers provider.SelectorBuilder,
	recorder Recorder,
	ids IDGenerator,
	clk clock.Clock,
	cfg Config,
) (*Engine, error) {
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultConfig().SendTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Engine{
		repo:      repo,
		renderer:  renderer,
		validator: validator,
		providers: providers,
		recorder:  recorder,
		ids:       ids,
		clock:     clk,
		cfg:       cfg,
		tracer:    otel.Tracer("repairshop-notification/delivery"),
		logger:    elog.DefaultLogger,
	}, nil
}

// SubmitIntent 同步投递一个意图。校验失败时同时返回结果和 *errs.ValidationFailure，
// 供应商的错误不会返回，而是体现在 FAILED 的结果里
func (e *Engine) SubmitIntent(ctx context.Context, req SubmitRequest) (domain.DeliveryResult, error) {
	intent, err := req.toIntent()
	if err != nil {
		return domain.DeliveryResult{IntentID: req.ID}, err
	}
	return e.Deliver(ctx, intent)
}

// SendMany 并发投递，结果和输入一一对应，单个意图的错误放在 Err 里
func (e *Engine) SendMany(ctx context.Context, intents []domain.NotificationIntent) []domain.DeliveryResult {
	results := make([]domain.DeliveryResult, len(intents))
	var eg errgroup.Group
	eg.SetLimit(e.cfg.Concurrency)
	for i := range intents {
		eg.Go(func() error {
			res, err := e.Deliver(ctx, intents[i])
			if res.IntentID == "" {
				res.IntentID = intents[i].ID
			}
			if err != nil {
				res.Err = err
			}
			results[i] = res
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (e *Engine) Deliver(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
	if intent.Priority == "" {
		intent.Priority = intent.TemplateID.DefaultPriority()
	}
	if intent.ID == "" {
		id, err := e.ids.NextID()
		if err != nil {
			return domain.DeliveryResult{}, fmt.Errorf("%w: %w", errs.ErrIntentIDGenerateFailed, err)
		}
		intent.ID = id
	}
	if err := intent.Validate(); err != nil {
		return domain.DeliveryResult{IntentID: intent.ID}, err
	}
	if intent.IsScheduled(e.clock.Now()) {
		return domain.DeliveryResult{IntentID: intent.ID},
			fmt.Errorf("%w: notBefore 在未来，需要通过定时调度提交", errs.ErrInvalidParameter)
	}

	if res, found, err := e.existing(ctx, intent.ID); found {
		return res, err
	}
	intent.Status = domain.IntentStatusPending
	intent.Attempts = 0
	if err := e.repo.Create(ctx, intent); err != nil {
		if errors.Is(err, errs.ErrIntentDuplicate) {
			if res, found, err2 := e.existing(ctx, intent.ID); found {
				return res, err2
			}
		}
		return domain.DeliveryResult{IntentID: intent.ID}, err
	}
	return e.process(ctx, intent)
}

// existing 同一个 ID 已经存在时，终态直接返回，非终态说明另一个请求正在处理
func (e *Engine) existing(ctx context.Context, id string) (domain.DeliveryResult, bool, error) {
	stored, err := e.repo.GetByID(ctx, id)
	if errors.Is(err, errs.ErrIntentNotFound) {
		return domain.DeliveryResult{}, false, nil
	}
	if err != nil {
		return domain.DeliveryResult{IntentID: id}, true, err
	}
	res := stored.Result()
	if !stored.Status.IsTerminal() {
		return res, true, fmt.Errorf("%w: %s", errs.ErrIntentInProgress, id)
	}
	res.Idempotent = true
	return res, true, nil
}

func (e *Engine) process(ctx context.Context, intent domain.NotificationIntent) (domain.DeliveryResult, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Deliver", trace.WithAttributes(
		attribute.String("intent.id", intent.ID),
		attribute.String("intent.template", intent.TemplateID.String()),
		attribute.String("intent.priority", string(intent.Priority)),
	))
	defer span.End()

	flight := newInflightIntent()
	e.inflight.Store(intent.ID, flight)
	defer func() {
		e.inflight.Delete(intent.ID)
		close(flight.done)
	}()

	e.logState(intent, "validating")
	msg, err := e.renderer.Render(ctx, intent.TemplateID, intent.Payload)
	if err != nil {
		return e.abort(ctx, &intent, domain.IntentStatusPending, fmt.Errorf("渲染模板失败: %w", err))
	}
	msg = e.compose(intent, msg)

	report, err := e.validator.Validate(ctx, validation.Input{Intent: intent, Message: msg})
	if err != nil {
		return e.abort(ctx, &intent, domain.IntentStatusPending, err)
	}
	if !report.IsValid() {
		e.recorder.RecordValidationFailure(ctx, intent, report)
		failure := report.Failure()
		intent.FailReason = failure.Category.String()
		res, err := e.finish(ctx, &intent, domain.IntentStatusPending, domain.IntentStatusFailed)
		res.Validation = &report
		res.Err = failure
		if err != nil {
			return res, err
		}
		return res, failure
	}
	if flight.canceled.Load() {
		return e.finish(ctx, &intent, domain.IntentStatusPending, domain.IntentStatusCanceled)
	}

	if res, err := e.finish(ctx, &intent, domain.IntentStatusPending, domain.IntentStatusSending); err != nil ||
		res.Status != domain.IntentStatusSending {
		// 在进入发送之前被取消了
		return res, err
	}
	e.logState(intent, "sending")
	out, err := e.send(ctx, &intent, msg, flight)
	if err != nil {
		return e.abort(ctx, &intent, domain.IntentStatusSending, err)
	}
	switch {
	case out.canceled:
		return e.finish(ctx, &intent, domain.IntentStatusSending, domain.IntentStatusCanceled)
	case out.err == nil:
		intent.Provider = out.resp.Provider
		intent.ProviderMessageID = out.resp.ProviderMessageID
		return e.finish(ctx, &intent, domain.IntentStatusSending, domain.IntentStatusSent)
	default:
		intent.Provider = out.err.Provider
		intent.FailReason = domain.FailReasonExhausted
		if out.err.Kind.SkipFallback() {
			intent.FailReason = domain.FailReasonRejected
		}
		span.RecordError(out.err)
		res, err := e.finish(ctx, &intent, domain.IntentStatusSending, domain.IntentStatusFailed)
		res.Err = out.err
		return res, err
	}
}

// Cancel 待发送的意图直接取消。本实例正在发送的意图设置取消标记，
// 正在等待重试的立刻结束，已经发出的供应商调用不会被打断，
// 等处理结束之后按最终状态返回：只有最终是 CANCELED 才返回 true。终态意图返回 false
func (e *Engine) Cancel(ctx context.Context, id string) (bool, error) {
	if flight, ok := e.inflight.Load(id); ok {
		return e.cancelInflight(ctx, id, flight)
	}
	intent, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if intent.Status.IsTerminal() {
		return false, nil
	}
	from := intent.Status
	intent.Status = domain.IntentStatusCanceled
	err = e.repo.CASStatus(ctx, intent, from)
	if errors.Is(err, errs.ErrIntentStatusMismatch) {
		// 并发地被处理了，再看一次
		if flight, ok := e.inflight.Load(id); ok {
			return e.cancelInflight(ctx, id, flight)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	e.logger.Info("取消通知意图", elog.String("intentID", id), elog.String("from", from.String()))
	return true, nil
}

func (e *Engine) cancelInflight(ctx context.Context, id string, flight *inflightIntent) (bool, error) {
	flight.cancel()
	select {
	case <-flight.done:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	stored, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if stored.Status != domain.IntentStatusCanceled {
		e.logger.Info("取消请求到达时发送已经结束",
			elog.String("intentID", id), elog.String("status", stored.Status.String()))
		return false, nil
	}
	e.logger.Info("取消通知意图", elog.String("intentID", id), elog.String("from", domain.IntentStatusSending.String()))
	return true, nil
}

// inflightIntent 取消标记。cancelCh 用来唤醒正在等待重试的 goroutine，done 在处理结束后关闭
type inflightIntent struct {
	canceled atomic.Bool
	cancelCh chan struct{}
	once     sync.Once
	done     chan struct{}
}

func newInflightIntent() *inflightIntent {
	return &inflightIntent{
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (f *inflightIntent) cancel() {
	f.canceled.Store(true)
	f.once.Do(func() { close(f.cancelCh) })
}

// compose 补全发件人、收件人、反滥用头部和追踪标签
func (e *Engine) compose(intent domain.NotificationIntent, msg domain.Message) domain.Message {
	msg.IntentID = intent.ID
	msg.From = e.cfg.Sender.From
	msg.To = intent.Recipient
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["X-Entity-Ref-ID"] = intent.ID
	if e.cfg.Sender.ListUnsubscribe != "" {
		headers["List-Unsubscribe"] = e.cfg.Sender.ListUnsubscribe
	}
	msg.Headers = headers
	msg.Tags = map[string]string{
		"intent_id": intent.ID,
		"template":  intent.TemplateID.String(),
	}
	return msg
}

// finish 通过 CAS 推进状态。状态已经被别人改掉时，以存储里的为准
func (e *Engine) finish(ctx context.Context, intent *domain.NotificationIntent, from, to domain.IntentStatus) (domain.DeliveryResult, error) {
	intent.Status = to
	err := e.repo.CASStatus(context.WithoutCancel(ctx), *intent, from)
	if errors.Is(err, errs.ErrIntentStatusMismatch) {
		stored, gerr := e.repo.GetByID(context.WithoutCancel(ctx), intent.ID)
		if gerr != nil {
			return intent.Result(), gerr
		}
		e.logger.Warn("通知意图状态已经被修改",
			elog.String("intentID", intent.ID),
			elog.String("expected", from.String()),
			elog.String("actual", stored.Status.String()))
		return stored.Result(), nil
	}
	if err != nil {
		return intent.Result(), err
	}
	if to.IsTerminal() {
		e.logState(*intent, to.String())
	}
	return intent.Result(), nil
}

// abort 内部错误，意图标记为失败，同时把错误返回给调用方
func (e *Engine) abort(ctx context.Context, intent *domain.NotificationIntent, from domain.IntentStatus, cause error) (domain.DeliveryResult, error) {
	e.logger.Error("投递内部错误", elog.String("intentID", intent.ID), elog.FieldErr(cause))
	intent.FailReason = domain.FailReasonInternal
	res, err := e.finish(ctx, intent, from, domain.IntentStatusFailed)
	if err != nil {
		return res, errors.Join(cause, err)
	}
	res.Err = cause
	return res, cause
}

func (e *Engine) logState(intent domain.NotificationIntent, state string) {
	e.logger.Info("通知意图状态",
		elog.String("intentID", intent.ID),
		elog.String("template", intent.TemplateID.String()),
		elog.String("state", state),
		elog.Int("attempts", intent.Attempts))
}
