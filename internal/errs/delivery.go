package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
)

// DeliveryErrorKind 供应商返回错误的归一化分类
type DeliveryErrorKind string

const (
	KindAuthError           DeliveryErrorKind = "authError"
	KindTransientNetwork    DeliveryErrorKind = "transientNetwork"
	KindRecipientRejected   DeliveryErrorKind = "recipientRejected"
	KindProviderUnavailable DeliveryErrorKind = "providerUnavailable"
	KindUnknown             DeliveryErrorKind = "unknown"
)

// Retryable 可以在同一个供应商上重试
func (k DeliveryErrorKind) Retryable() bool {
	return k == KindTransientNetwork || k == KindProviderUnavailable
}

// Permanent 同一个供应商上不再重试
func (k DeliveryErrorKind) Permanent() bool {
	return !k.Retryable()
}

// SkipFallback 收件人本身有问题，换供应商也没用
func (k DeliveryErrorKind) SkipFallback() bool {
	return k == KindRecipientRejected
}

// DeliveryError 供应商发送失败
type DeliveryError struct {
	Kind     DeliveryErrorKind
	Provider string
	Err      error
}

func NewDeliveryError(provider string, kind DeliveryErrorKind, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, Provider: provider, Err: err}
}

func (d *DeliveryError) Error() string {
	return fmt.Sprintf("%s: provider=%s kind=%s: %v", ErrDeliveryFailed.Error(), d.Provider, d.Kind, d.Err)
}

func (d *DeliveryError) Unwrap() error {
	return d.Err
}

func (d *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

// ClassifyError 把任意错误归类。已经是 DeliveryError 的保持原样，
// 超时和网络错误算 transientNetwork，其余都是 unknown
func ClassifyError(provider string, err error) *DeliveryError {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewDeliveryError(provider, KindTransientNetwork, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewDeliveryError(provider, KindTransientNetwork, err)
	}
	return NewDeliveryError(provider, KindUnknown, err)
}

// ClassifyStatusCode 根据 HTTP 状态码归类供应商错误。
// 只看状态码分不清是收件人还是请求本身的问题，400 和 422 都算 unknown
func ClassifyStatusCode(code int) DeliveryErrorKind {
	switch {
	case code == 401 || code == 403:
		return KindAuthError
	case code == 408:
		return KindTransientNetwork
	case code == 429 || code >= 500:
		return KindProviderUnavailable
	default:
		return KindUnknown
	}
}

var recipientDetail = regexp.MustCompile("(?i)recipient|mailbox|`to`|\"to\"|\binvalid to\b|\bto field\b|\bto address\b")

// ClassifyResponse 400 和 422 只有错误信息指向收件人时才算 recipientRejected，
// 其他的请求错误允许降级
func ClassifyResponse(code int, detail string) DeliveryErrorKind {
	if (code == 400 || code == 422) && recipientDetail.MatchString(detail) {
		return KindRecipientRejected
	}
	return ClassifyStatusCode(code)
}
