package web

import (
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"github.com/ecodeclub/ekit/slice"
)

// Result 统一的响应格式
type Result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

type SubmitIntentReq struct {
	// ID 幂等键，可以不传
	ID         string            `json:"id"`
	TemplateID string            `json:"templateId"`
	Recipient  string            `json:"recipient"`
	Payload    map[string]string `json:"payload"`
	Priority   string            `json:"priority"`
}

func (r SubmitIntentReq) toSubmitRequest() delivery.SubmitRequest {
	return delivery.SubmitRequest{
		ID:         r.ID,
		TemplateID: r.TemplateID,
		Recipient:  r.Recipient,
		Payload:    r.Payload,
		Priority:   domain.Priority(r.Priority),
	}
}

func (r SubmitIntentReq) toIntent() domain.NotificationIntent {
	return domain.NotificationIntent{
		ID:         r.ID,
		TemplateID: domain.TemplateID(r.TemplateID),
		Recipient:  r.Recipient,
		Payload:    r.Payload,
		Priority:   domain.Priority(r.Priority),
	}
}

type SendManyReq struct {
	Intents []SubmitIntentReq `json:"intents"`
}

type ScheduleIntentReq struct {
	SubmitIntentReq
	NotBefore time.Time `json:"notBefore"`
}

type ScheduleIntentResp struct {
	IntentID string `json:"intentId"`
}

type CancelResp struct {
	Canceled bool `json:"canceled"`
}

type DeliveryResult struct {
	IntentID          string   `json:"intentId"`
	Status            string   `json:"status"`
	Attempts          int      `json:"attempts"`
	Provider          string   `json:"provider,omitempty"`
	ProviderMessageID string   `json:"providerMessageId,omitempty"`
	FailReason        string   `json:"failReason,omitempty"`
	Category          string   `json:"category,omitempty"`
	ValidationErrors  []string `json:"validationErrors,omitempty"`
	Idempotent        bool     `json:"idempotent"`
	Error             string   `json:"error,omitempty"`
}

func newDeliveryResult(res domain.DeliveryResult) DeliveryResult {
	vo := DeliveryResult{
		IntentID:          res.IntentID,
		Status:            res.Status.String(),
		Attempts:          res.Attempts,
		Provider:          res.Provider,
		ProviderMessageID: res.ProviderMessageID,
		FailReason:        res.FailReason,
		Idempotent:        res.Idempotent,
	}
	if res.Validation != nil {
		vo.Category = res.Validation.Category.String()
		for _, r := range res.Validation.Results {
			vo.ValidationErrors = append(vo.ValidationErrors, r.Errors...)
		}
	}
	if res.Err != nil {
		vo.Error = res.Err.Error()
	}
	return vo
}

type SendManyResp struct {
	Results []DeliveryResult `json:"results"`
}

type CreateTicketReq struct {
	Lifecycle     string `json:"lifecycle"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Device        string `json:"device"`
	Issue         string `json:"issue"`
	Technician    string `json:"technician"`
	Actor         string `json:"actor"`
}

type Ticket struct {
	ID            int64  `json:"id"`
	Lifecycle     string `json:"lifecycle"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Device        string `json:"device"`
	Issue         string `json:"issue"`
	Technician    string `json:"technician"`
	Status        string `json:"status"`
	Version       int    `json:"version"`
}

type CreateTicketResp struct {
	Ticket          Ticket `json:"ticket"`
	EmittedIntentID string `json:"emittedIntentId"`
}

type TransitionReq struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	// Force 管理员强制修改，需要填写 Reason
	Force  bool   `json:"force"`
	Reason string `json:"reason"`
}

type TransitionResp struct {
	Accepted        bool   `json:"accepted"`
	From            string `json:"from"`
	To              string `json:"to"`
	EmittedIntentID string `json:"emittedIntentId,omitempty"`
	Forced          bool   `json:"forced"`
}

type TicketTransition struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Actor           string `json:"actor"`
	Forced          bool   `json:"forced"`
	Reason          string `json:"reason,omitempty"`
	EmittedIntentID string `json:"emittedIntentId,omitempty"`
	Ctime           int64  `json:"ctime"`
}

func newTicketTransitions(logs []domain.TicketTransitionLog) []TicketTransition {
	return slice.Map(logs, func(_ int, src domain.TicketTransitionLog) TicketTransition {
		return TicketTransition{
			From:            src.From.String(),
			To:              src.To.String(),
			Actor:           src.Actor,
			Forced:          src.Forced,
			Reason:          src.Reason,
			EmittedIntentID: src.EmittedIntentID,
			Ctime:           src.Ctime.UnixMilli(),
		}
	})
}

type DeliveryAttempt struct {
	AttemptNumber int    `json:"attemptNumber"`
	Provider      string `json:"provider"`
	Outcome       string `json:"outcome"`
	ErrorKind     string `json:"errorKind,omitempty"`
	ErrorDetail   string `json:"errorDetail,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

func newDeliveryAttempts(records []domain.DeliveryAttemptRecord) []DeliveryAttempt {
	return slice.Map(records, func(_ int, src domain.DeliveryAttemptRecord) DeliveryAttempt {
		return DeliveryAttempt{
			AttemptNumber: src.AttemptNumber,
			Provider:      src.Provider,
			Outcome:       string(src.Outcome),
			ErrorKind:     string(src.ErrorKind),
			ErrorDetail:   src.ErrorDetail,
			Timestamp:     src.Timestamp.UnixMilli(),
		}
	})
}

type DeliveryStats struct {
	Window      string  `json:"window"`
	Sent        int64   `json:"sent"`
	Failed      int64   `json:"failed"`
	RateLimited int64   `json:"rateLimited"`
	Total       int64   `json:"total"`
	SuccessRate float64 `json:"successRate"`
}

// ValidationError 422 的响应体，Category 用于给用户提示
type ValidationError struct {
	Category string         `json:"category"`
	Errors   []string       `json:"errors"`
	Result   DeliveryResult `json:"result"`
}

func newValidationError(vf *errs.ValidationFailure, res domain.DeliveryResult) ValidationError {
	return ValidationError{
		Category: vf.Category.String(),
		Errors:   vf.Errors,
		Result:   newDeliveryResult(res),
	}
}
