package ticket

import (
	"fmt"
	"slices"
	"strings"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
)

// transitions 两个生命周期的状态图，closed 单独处理
var transitions = map[domain.Lifecycle]map[domain.TicketStatus][]domain.TicketStatus{
	domain.LifecycleRepair: {
		domain.TicketStatusNew:             {domain.TicketStatusOpen},
		domain.TicketStatusOpen:            {domain.TicketStatusWaitingForParts, domain.TicketStatusInRepair},
		domain.TicketStatusWaitingForParts: {domain.TicketStatusInRepair},
		domain.TicketStatusInRepair:        {domain.TicketStatusWaitingForParts, domain.TicketStatusRepairCompleted},
		domain.TicketStatusRepairCompleted: {domain.TicketStatusReadyForPickup},
		domain.TicketStatusReadyForPickup:  nil,
	},
	domain.LifecycleService: {
		domain.TicketStatusReceived:   {domain.TicketStatusDiagnosed},
		domain.TicketStatusDiagnosed:  {domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.TicketStatusTesting},
		// 测试没通过回到维修中
		domain.TicketStatusTesting:   {domain.TicketStatusCompleted, domain.TicketStatusReady, domain.TicketStatusInProgress},
		domain.TicketStatusCompleted: nil,
		domain.TicketStatusReady:     nil,
	},
}

var initialStatus = map[domain.Lifecycle]domain.TicketStatus{
	domain.LifecycleRepair:  domain.TicketStatusNew,
	domain.LifecycleService: domain.TicketStatusReceived,
}

// legacyStatus 旧页面和旧表里的状态写法
var legacyStatus = map[domain.Lifecycle]map[string]domain.TicketStatus{
	domain.LifecycleRepair: {
		"new_request":  domain.TicketStatusNew,
		"nowe":         domain.TicketStatusNew,
		"otwarte":      domain.TicketStatusOpen,
		"w_realizacji": domain.TicketStatusInRepair,
		"zakonczone":   domain.TicketStatusRepairCompleted,
	},
	domain.LifecycleService: {
		"nowe":         domain.TicketStatusReceived,
		"otwarte":      domain.TicketStatusDiagnosed,
		"w_realizacji": domain.TicketStatusInProgress,
		"zakonczone":   domain.TicketStatusCompleted,
	},
}

// InitialStatus 新建维修单的状态
func InitialStatus(l domain.Lifecycle) domain.TicketStatus {
	return initialStatus[l]
}

// Statuses 生命周期内的全部状态，包括 closed
func Statuses(l domain.Lifecycle) []domain.TicketStatus {
	graph := transitions[l]
	res := make([]domain.TicketStatus, 0, len(graph)+1)
	for s := range graph {
		res = append(res, s)
	}
	if len(graph) > 0 {
		res = append(res, domain.TicketStatusClosed)
	}
	slices.Sort(res)
	return res
}

// Belongs 状态是否属于这个生命周期
func Belongs(l domain.Lifecycle, s domain.TicketStatus) bool {
	graph, ok := transitions[l]
	if !ok {
		return false
	}
	if s == domain.TicketStatusClosed {
		return true
	}
	_, ok = graph[s]
	return ok
}

func IsTerminal(s domain.TicketStatus) bool {
	switch s {
	case domain.TicketStatusReadyForPickup, domain.TicketStatusCompleted,
		domain.TicketStatusReady, domain.TicketStatusClosed:
		return true
	default:
		return false
	}
}

// CanTransit 同状态不算流转
func CanTransit(l domain.Lifecycle, from, to domain.TicketStatus) bool {
	if !Belongs(l, from) || !Belongs(l, to) || from == to {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	if to == domain.TicketStatusClosed {
		return true
	}
	for _, next := range transitions[l][from] {
		if next == to {
			return true
		}
	}
	return false
}

// TemplateFor 只取决于前后两个状态。进入待取件状态一定发 repairReady
func TemplateFor(prev, next domain.TicketStatus) (domain.TemplateID, bool) {
	if prev == next {
		return "", false
	}
	if next == domain.TicketStatusReadyForPickup || next == domain.TicketStatusReady {
		return domain.TemplateRepairReady, true
	}
	return domain.TemplateRepairStatusUpdate, true
}

// ParseStatus 接受规范状态和旧的写法
func ParseStatus(l domain.Lifecycle, raw string) (domain.TicketStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := legacyStatus[l][key]; ok {
		return s, nil
	}
	s := domain.TicketStatus(key)
	if !Belongs(l, s) {
		return "", fmt.Errorf("%w: lifecycle=%s status=%q", errs.ErrUnknownTicketStatus, l, raw)
	}
	return s, nil
}

// statusLabels 邮件里展示给客户的进度描述
var statusLabels = map[domain.TicketStatus]string{
	domain.TicketStatusNew:             "Zgłoszenie przyjęte",
	domain.TicketStatusOpen:            "Zgłoszenie otwarte",
	domain.TicketStatusWaitingForParts: "Oczekiwanie na części",
	domain.TicketStatusInRepair:        "W naprawie",
	domain.TicketStatusRepairCompleted: "Naprawa zakończona",
	domain.TicketStatusReadyForPickup:  "Gotowe do odbioru",
	domain.TicketStatusReceived:        "Urządzenie przyjęte",
	domain.TicketStatusDiagnosed:       "Diagnoza zakończona",
	domain.TicketStatusInProgress:      "W realizacji",
	domain.TicketStatusTesting:         "Testy",
	domain.TicketStatusCompleted:       "Zakończone",
	domain.TicketStatusReady:           "Gotowe",
	domain.TicketStatusClosed:          "Zgłoszenie zamknięte",
}

func Label(s domain.TicketStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s.String()
}
