package domain

import "time"

// Lifecycle 维修单所属的生命周期
type Lifecycle string

const (
	// LifecycleRepair 门店维修单
	LifecycleRepair Lifecycle = "repair"
	// LifecycleService 简化的服务单
	LifecycleService Lifecycle = "service"
)

func (l Lifecycle) IsValid() bool {
	return l == LifecycleRepair || l == LifecycleService
}

// TicketStatus 维修单状态，规范词表
type TicketStatus string

// 维修流程
const (
	TicketStatusNew             TicketStatus = "new"
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusWaitingForParts TicketStatus = "waiting_for_parts"
	TicketStatusInRepair        TicketStatus = "in_repair"
	TicketStatusRepairCompleted TicketStatus = "repair_completed"
	TicketStatusReadyForPickup  TicketStatus = "ready_for_pickup"
)

// 服务流程
const (
	TicketStatusReceived   TicketStatus = "received"
	TicketStatusDiagnosed  TicketStatus = "diagnosed"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusTesting    TicketStatus = "testing"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusReady      TicketStatus = "ready"
)

// TicketStatusClosed 管理员关闭，两个流程共用
const TicketStatusClosed TicketStatus = "closed"

func (s TicketStatus) String() string {
	return string(s)
}

// RepairTicket 维修单
type RepairTicket struct {
	ID                int64
	Lifecycle         Lifecycle
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	DeviceDescription string
	IssueDescription  string
	Technician        string
	Status            TicketStatus
	// Version 乐观锁
	Version int
	Ctime   int64
	Utime   int64
}

// TicketTransitionLog 每一次被接受的状态变更
type TicketTransitionLog struct {
	TicketID int64
	From     TicketStatus
	To       TicketStatus
	Actor    string
	// Forced 管理员强制修改，绕过了状态图
	Forced          bool
	Reason          string
	EmittedIntentID string
	Ctime           time.Time
}

// TransitionResult 状态变更的结果
type TransitionResult struct {
	Accepted        bool
	From            TicketStatus
	To              TicketStatus
	EmittedIntentID string
	Forced          bool
}
