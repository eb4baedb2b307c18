package domain

import (
	"fmt"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// Priority 只影响响应时间的预期，不保证投递顺序
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// IntentStatus 通知意图状态
type IntentStatus string

const (
	IntentStatusPending  IntentStatus = "PENDING"  // 待发送
	IntentStatusSending  IntentStatus = "SENDING"  // 发送中
	IntentStatusSent     IntentStatus = "SENT"     // 发送成功
	IntentStatusFailed   IntentStatus = "FAILED"   // 发送失败
	IntentStatusCanceled IntentStatus = "CANCELED" // 已取消
)

func (s IntentStatus) String() string {
	return string(s)
}

// IsTerminal 终态不可再修改
func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusSent || s == IntentStatusFailed || s == IntentStatusCanceled
}

// CanTransitTo 只允许向前流转，CANCELED 只能从 PENDING 或者 SENDING 进入
func (s IntentStatus) CanTransitTo(next IntentStatus) bool {
	switch s {
	case IntentStatusPending:
		return next == IntentStatusSending || next == IntentStatusFailed || next == IntentStatusCanceled
	case IntentStatusSending:
		return next == IntentStatusSent || next == IntentStatusFailed || next == IntentStatusCanceled
	default:
		return false
	}
}

// 失败原因
const (
	FailReasonRateLimited = "rateLimited"
	FailReasonExhausted   = "retriesExhausted"
	FailReasonRejected    = "recipientRejected"
	FailReasonInternal    = "internal"
	// FailReasonTimeout 进程崩溃之类的原因，意图长时间停在非终态
	FailReasonTimeout = "timeout"
)

// NotificationIntent 通知意图，投递的基本单位。ID 同时是幂等键
type NotificationIntent struct {
	ID         string
	TemplateID TemplateID
	Recipient  string
	Payload    map[string]string
	Priority   Priority
	// NotBefore 不为零且在未来的，交给定时调度器
	NotBefore time.Time
	Attempts  int
	Status    IntentStatus

	// FailReason 失败时记录校验类别或者最后的错误分类
	FailReason        string
	Provider          string
	ProviderMessageID string

	Ctime int64
	Utime int64
}

func (n *NotificationIntent) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: ID = %q", errs.ErrInvalidParameter, n.ID)
	}
	if !n.TemplateID.IsValid() {
		return fmt.Errorf("%w: TemplateID = %q", errs.ErrUnknownTemplate, n.TemplateID)
	}
	if n.Recipient == "" {
		return fmt.Errorf("%w: Recipient = %q", errs.ErrInvalidParameter, n.Recipient)
	}
	if n.Priority != "" && !n.Priority.IsValid() {
		return fmt.Errorf("%w: Priority = %q", errs.ErrInvalidParameter, n.Priority)
	}
	return nil
}

// IsScheduled 是否需要等到未来某个时刻再发送
func (n *NotificationIntent) IsScheduled(now time.Time) bool {
	return !n.NotBefore.IsZero() && n.NotBefore.After(now)
}

// Result 把意图当前状态转成对外返回的结果
func (n *NotificationIntent) Result() DeliveryResult {
	return DeliveryResult{
		IntentID:          n.ID,
		Status:            n.Status,
		Attempts:          n.Attempts,
		Provider:          n.Provider,
		ProviderMessageID: n.ProviderMessageID,
		FailReason:        n.FailReason,
	}
}

// SendResponse 供应商发送成功的响应
type SendResponse struct {
	Provider          string
	ProviderMessageID string
}

// DeliveryResult 单个意图的投递结果
type DeliveryResult struct {
	IntentID          string
	Status            IntentStatus
	Attempts          int
	Provider          string
	ProviderMessageID string
	FailReason        string
	// Validation 只有在发送前校验失败时才有值
	Validation *ValidationReport
	// Idempotent 为 true 表示返回的是已经存在的终态结果，没有再次发送
	Idempotent bool
	// Err 批量发送时单个意图的错误
	Err error
}
