package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

type sendOutcome struct {
	resp     domain.SendResponse
	err      *errs.DeliveryError
	canceled bool
}

// send 主供应商最多 MaxAttempts 次，可重试的错误按指数退避等待；
// 之后每个备用供应商只尝试一次。收件人被拒绝时不降级
func (e *Engine) send(ctx context.Context, intent *domain.NotificationIntent, msg domain.Message, flight *inflightIntent) (sendOutcome, error) {
	selector, err := e.providers.Build()
	if err != nil {
		return sendOutcome{}, err
	}
	primary, err := selector.Next(ctx)
	if err != nil {
		return sendOutcome{}, err
	}
	strategy, err := e.cfg.Retry.NewStrategy()
	if err != nil {
		return sendOutcome{}, err
	}

	var last *errs.DeliveryError
	for i := 0; i < e.cfg.Retry.MaxAttempts; i++ {
		if i > 0 {
			delay, ok := strategy.Next()
			if !ok {
				break
			}
			e.logger.Info("通知意图状态",
				elog.String("intentID", intent.ID),
				elog.String("state", "retrying"),
				elog.String("provider", primary.Name()),
				elog.Int("attempts", intent.Attempts),
				elog.String("delay", delay.String()))
			if err = e.wait(ctx, delay, flight.cancelCh); err != nil {
				return sendOutcome{}, err
			}
			if flight.canceled.Load() {
				return sendOutcome{err: last, canceled: true}, nil
			}
		}
		resp, derr := e.attempt(ctx, intent, primary, msg)
		if derr == nil {
			return sendOutcome{resp: resp}, nil
		}
		last = derr
		if derr.Kind.SkipFallback() {
			return sendOutcome{err: derr}, nil
		}
		if derr.Kind.Permanent() {
			break
		}
	}

	for {
		if flight.canceled.Load() {
			return sendOutcome{err: last, canceled: true}, nil
		}
		fallback, err := selector.Next(ctx)
		if errors.Is(err, errs.ErrNoAvailableProvider) {
			return sendOutcome{err: last}, nil
		}
		if err != nil {
			return sendOutcome{}, err
		}
		e.logger.Warn("切换备用供应商",
			elog.String("intentID", intent.ID),
			elog.String("from", last.Provider),
			elog.String("to", fallback.Name()),
			elog.String("kind", string(last.Kind)))
		resp, derr := e.attempt(ctx, intent, fallback, msg)
		if derr == nil {
			return sendOutcome{resp: resp}, nil
		}
		last = derr
		if derr.Kind.SkipFallback() {
			return sendOutcome{err: derr}, nil
		}
	}
}

// attempt 调用一次供应商并写一条审计记录
func (e *Engine) attempt(ctx context.Context, intent *domain.NotificationIntent, p provider.Provider, msg domain.Message) (domain.SendResponse, *errs.DeliveryError) {
	intent.Attempts++
	sendCtx, cancel := context.WithTimeout(ctx, e.cfg.SendTimeout)
	resp, err := p.Send(sendCtx, msg)
	timeout := errors.Is(sendCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()

	var derr *errs.DeliveryError
	if err != nil {
		derr = errs.ClassifyError(p.Name(), err)
		if timeout && derr.Kind == errs.KindUnknown {
			derr = errs.NewDeliveryError(p.Name(), errs.KindTransientNetwork, err)
		}
	}
	record := domain.DeliveryAttemptRecord{
		IntentID:      intent.ID,
		AttemptNumber: intent.Attempts,
		Provider:      p.Name(),
		Outcome:       domain.OutcomeOf(derr),
		Timestamp:     e.clock.Now(),
	}
	if derr != nil {
		record.ErrorKind = derr.Kind
		record.ErrorDetail = derr.Error()
	}
	if rerr := e.recorder.RecordAttempt(context.WithoutCancel(ctx), record); rerr != nil {
		e.logger.Error("记录投递尝试失败",
			elog.String("intentID", intent.ID),
			elog.Int("attempt", intent.Attempts),
			elog.FieldErr(rerr))
	}
	if derr != nil {
		return domain.SendResponse{}, derr
	}
	if resp.Provider == "" {
		resp.Provider = p.Name()
	}
	return resp, nil
}

// wait 等待期间不持有任何锁，被取消时提前返回
func (e *Engine) wait(ctx context.Context, delay time.Duration, canceled <-chan struct{}) error {
	select {
	case <-e.clock.After(delay):
		return nil
	case <-canceled:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待重试时被中断: %w", ctx.Err())
	}
}
