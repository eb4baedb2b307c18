package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/service/audit"
	"gitee.com/flycash/repairshop-notification/internal/service/ticket"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

const defaultStatsWindow = 24 * time.Hour

type Handler struct {
	intents   IntentService
	reminders ReminderService
	tickets   ticket.Service
	stats     audit.Service
	logger    *elog.Component
}

func NewHandler(intents IntentService, reminders ReminderService, tickets ticket.Service, stats audit.Service) *Handler {
	return &Handler{
		intents:   intents,
		reminders: reminders,
		tickets:   tickets,
		stats:     stats,
		logger:    elog.DefaultLogger,
	}
}

func (h *Handler) PublicRoutes(server *gin.Engine) {
	ig := server.Group("/intents")
	ig.POST("", h.SubmitIntent)
	ig.POST("/batch", h.SendMany)
	ig.POST("/schedule", h.ScheduleIntent)
	ig.DELETE("/scheduled/:id", h.CancelScheduled)
	ig.POST("/:id/cancel", h.CancelIntent)
	ig.GET("/:id/attempts", h.ListAttempts)

	tg := server.Group("/tickets")
	tg.POST("", h.CreateTicket)
	tg.POST("/:id/status", h.TransitionStatus)
	tg.GET("/:id/transitions", h.ListTransitions)

	server.GET("/stats", h.GetDeliveryStats)
}

func (h *Handler) SubmitIntent(ctx *gin.Context) {
	var req SubmitIntentReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	res, err := h.intents.SubmitIntent(ctx.Request.Context(), req.toSubmitRequest())
	if err != nil {
		h.fail(ctx, err, res)
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: newDeliveryResult(res)})
}

// SendMany 单个意图失败不影响其他意图，整体总是 200
func (h *Handler) SendMany(ctx *gin.Context) {
	var req SendManyReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	if len(req.Intents) == 0 {
		h.badRequest(ctx, errors.New("intents 为空"))
		return
	}
	intents := slice.Map(req.Intents, func(_ int, src SubmitIntentReq) domain.NotificationIntent {
		return src.toIntent()
	})
	results := h.intents.SendMany(ctx.Request.Context(), intents)
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: SendManyResp{
		Results: slice.Map(results, func(_ int, src domain.DeliveryResult) DeliveryResult {
			return newDeliveryResult(src)
		}),
	}})
}

func (h *Handler) ScheduleIntent(ctx *gin.Context) {
	var req ScheduleIntentReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	intent := req.toIntent()
	intent.NotBefore = req.NotBefore
	id, err := h.reminders.Schedule(ctx.Request.Context(), intent)
	if err != nil {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: ScheduleIntentResp{IntentID: id}})
}

func (h *Handler) CancelScheduled(ctx *gin.Context) {
	ok, err := h.reminders.Cancel(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: CancelResp{Canceled: ok}})
}

func (h *Handler) CancelIntent(ctx *gin.Context) {
	ok, err := h.intents.Cancel(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: CancelResp{Canceled: ok}})
}

func (h *Handler) ListAttempts(ctx *gin.Context) {
	records, err := h.stats.ListAttempts(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: newDeliveryAttempts(records)})
}

func (h *Handler) CreateTicket(ctx *gin.Context) {
	var req CreateTicketReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	res, err := h.tickets.CreateTicket(ctx.Request.Context(), domain.RepairTicket{
		Lifecycle:         domain.Lifecycle(req.Lifecycle),
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     req.CustomerPhone,
		DeviceDescription: req.Device,
		IssueDescription:  req.Issue,
		Technician:        req.Technician,
	}, req.Actor)
	if err != nil && res.Ticket.ID == 0 {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	if err != nil {
		// 维修单已经创建，只是确认邮件没有提交成功
		h.logger.Warn("维修单确认邮件提交失败", elog.Int64("ticketID", res.Ticket.ID), elog.FieldErr(err))
	}
	t := res.Ticket
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: CreateTicketResp{
		Ticket: Ticket{
			ID:            t.ID,
			Lifecycle:     string(t.Lifecycle),
			CustomerName:  t.CustomerName,
			CustomerEmail: t.CustomerEmail,
			Device:        t.DeviceDescription,
			Issue:         t.IssueDescription,
			Technician:    t.Technician,
			Status:        t.Status.String(),
			Version:       t.Version,
		},
		EmittedIntentID: res.EmittedIntentID,
	}})
}

func (h *Handler) TransitionStatus(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(ctx, err)
		return
	}
	var req TransitionReq
	if err = ctx.ShouldBindJSON(&req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	var res domain.TransitionResult
	if req.Force {
		if req.Reason == "" {
			h.badRequest(ctx, errors.New("强制修改需要填写原因"))
			return
		}
		res, err = h.tickets.ForceStatus(ctx.Request.Context(), id, domain.TicketStatus(req.Status), req.Actor, req.Reason)
	} else {
		res, err = h.tickets.TransitionStatus(ctx.Request.Context(), id, domain.TicketStatus(req.Status), req.Actor)
	}
	if err != nil && !res.Accepted {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	if err != nil {
		h.logger.Warn("状态已经修改，通知提交失败",
			elog.Int64("ticketID", id),
			elog.String("intentID", res.EmittedIntentID),
			elog.FieldErr(err))
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: TransitionResp{
		Accepted:        res.Accepted,
		From:            res.From.String(),
		To:              res.To.String(),
		EmittedIntentID: res.EmittedIntentID,
		Forced:          res.Forced,
	}})
}

func (h *Handler) ListTransitions(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(ctx, err)
		return
	}
	logs, err := h.tickets.ListTransitions(ctx.Request.Context(), id)
	if err != nil {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: newTicketTransitions(logs)})
}

// GetDeliveryStats window 使用 time.ParseDuration 的格式，默认 24h
func (h *Handler) GetDeliveryStats(ctx *gin.Context) {
	window := defaultStatsWindow
	if raw := ctx.Query("window"); raw != "" {
		w, err := time.ParseDuration(raw)
		if err != nil {
			h.badRequest(ctx, err)
			return
		}
		window = w
	}
	stats, err := h.stats.GetDeliveryStats(ctx.Request.Context(), window)
	if err != nil {
		h.fail(ctx, err, domain.DeliveryResult{})
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: DeliveryStats{
		Window:      window.String(),
		Sent:        stats.Sent,
		Failed:      stats.Failed,
		RateLimited: stats.RateLimited,
		Total:       stats.Total,
		SuccessRate: stats.SuccessRate,
	}})
}

func (h *Handler) badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, Result{Code: http.StatusBadRequest, Msg: err.Error()})
}

// fail 把业务错误映射成 HTTP 状态码，校验失败带上类别
func (h *Handler) fail(ctx *gin.Context, err error, res domain.DeliveryResult) {
	var vf *errs.ValidationFailure
	if errors.As(err, &vf) {
		ctx.JSON(http.StatusUnprocessableEntity, Result{
			Code: http.StatusUnprocessableEntity,
			Msg:  err.Error(),
			Data: newValidationError(vf, res),
		})
		return
	}
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("请求处理失败",
			elog.String("path", ctx.FullPath()),
			elog.FieldErr(err))
	}
	ctx.JSON(code, Result{Code: code, Msg: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidParameter),
		errors.Is(err, errs.ErrUnknownTemplate),
		errors.Is(err, errs.ErrUnknownTicketStatus):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrIntentNotFound),
		errors.Is(err, errs.ErrTicketNotFound),
		errors.Is(err, errs.ErrScheduledIntentNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrTicketVersionMismatch),
		errors.Is(err, errs.ErrIntentInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
