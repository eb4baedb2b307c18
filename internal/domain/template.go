package domain

import (
	"fmt"

	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// TemplateID 通知模板，封闭枚举
type TemplateID string

const (
	TemplateBookingConfirmation TemplateID = "bookingConfirmation"
	TemplateRepairStatusUpdate  TemplateID = "repairStatusUpdate"
	TemplateRepairReady         TemplateID = "repairReady"
	TemplateAppointmentReminder TemplateID = "appointmentReminder"
	TemplateEmailConfirmation   TemplateID = "emailConfirmation"
)

// requiredFields 各模板渲染所必需的参数
var requiredFields = map[TemplateID][]string{
	TemplateBookingConfirmation: {"customerName", "device", "bookingDate"},
	TemplateRepairStatusUpdate:  {"device", "issue", "progress", "technician"},
	TemplateRepairReady:         {"customerName", "device", "ticketNumber"},
	TemplateAppointmentReminder: {"customerName", "appointmentDate"},
	TemplateEmailConfirmation:   {"customerName", "confirmationLink"},
}

// AllTemplates 返回全部模板，顺序固定
func AllTemplates() []TemplateID {
	return []TemplateID{
		TemplateBookingConfirmation,
		TemplateRepairStatusUpdate,
		TemplateRepairReady,
		TemplateAppointmentReminder,
		TemplateEmailConfirmation,
	}
}

// ParseTemplateID 未知模板直接报错，而不是等到渲染时才发现
func ParseTemplateID(s string) (TemplateID, error) {
	t := TemplateID(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownTemplate, s)
	}
	return t, nil
}

func (t TemplateID) IsValid() bool {
	_, ok := requiredFields[t]
	return ok
}

func (t TemplateID) String() string {
	return string(t)
}

// RequiredFields 模板要求的参数，返回副本
func (t TemplateID) RequiredFields() []string {
	fields := requiredFields[t]
	res := make([]string, len(fields))
	copy(res, fields)
	return res
}

// MissingFields 返回 payload 中缺失或者为空的必填参数
func (t TemplateID) MissingFields(payload map[string]string) []string {
	var missing []string
	for _, f := range requiredFields[t] {
		if payload[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// DefaultPriority 根据模板所属的业务类别推导优先级
func (t TemplateID) DefaultPriority() Priority {
	switch t {
	case TemplateRepairReady, TemplateEmailConfirmation:
		return PriorityHigh
	case TemplateAppointmentReminder:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Message 渲染之后真正交给供应商发送的邮件
type Message struct {
	// IntentID 供应商侧的幂等键
	IntentID string
	From     string
	To       string
	Subject  string
	HTML     string
	Text     string
	// Headers 反滥用相关的头部，主供应商会原样带上
	Headers map[string]string
	// Tags 追踪元数据，备用供应商可以忽略
	Tags map[string]string
}

// Body 优先返回 HTML
func (m Message) Body() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Text
}
