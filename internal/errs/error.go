package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter        = errors.New("参数错误")
	ErrUnknownTemplate         = errors.New("未知的通知模板")
	ErrValidationFailed        = errors.New("通知校验失败")
	ErrDeliveryFailed          = errors.New("通知投递失败")
	ErrIntentNotFound          = errors.New("通知意图不存在")
	ErrIntentDuplicate         = errors.New("通知意图主键冲突")
	ErrIntentStatusMismatch    = errors.New("通知意图状态不匹配")
	ErrIntentInProgress        = errors.New("通知意图正在处理中")
	ErrIntentIDGenerateFailed  = errors.New("通知意图ID生成失败")
	ErrNoAvailableProvider     = errors.New("无可用供应商")
	ErrRateLimited             = errors.New("已达到速率限制")
	ErrSchedulerPersistence    = errors.New("定时通知持久化失败")
	ErrScheduledIntentNotFound = errors.New("定时通知不存在")

	ErrTicketNotFound        = errors.New("维修单不存在")
	ErrTicketVersionMismatch = errors.New("维修单版本不匹配")
	ErrInvalidTransition     = errors.New("非法的状态流转")
	ErrUnknownTicketStatus   = errors.New("未知的维修单状态")
)
