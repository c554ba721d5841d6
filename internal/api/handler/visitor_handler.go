package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"vms/backend/internal/dto"
	"vms/backend/internal/service"
	"vms/backend/pkg/response"
)

// VisitorHandler 访客模块 HTTP 处理器
type VisitorHandler struct {
	visitorSvc service.VisitorService
	inviteSvc  service.InviteService
}

// NewVisitorHandler 创建 VisitorHandler
func NewVisitorHandler(visitorSvc service.VisitorService, inviteSvc service.InviteService) *VisitorHandler {
	return &VisitorHandler{visitorSvc: visitorSvc, inviteSvc: inviteSvc}
}

// Register 访客自助登记（公开）
// POST /api/v1/visitors/register
func (h *VisitorHandler) Register(c *gin.Context) {
	var req dto.RegisterVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	visitor, err := h.visitorSvc.Register(c.Request.Context(), &req)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.Created(c, visitor)
}

// PreSchedule 员工预约访客
// POST /api/v1/visitors
func (h *VisitorHandler) PreSchedule(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RegisterVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	visitor, err := h.visitorSvc.PreSchedule(c.Request.Context(), &req, actor)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.Created(c, visitor)
}

// ListVisitors 访客列表
// GET /api/v1/visitors
func (h *VisitorHandler) ListVisitors(c *gin.Context) {
	var req dto.VisitorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.visitorSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetVisitor 访客详情
// GET /api/v1/visitors/:id
func (h *VisitorHandler) GetVisitor(c *gin.Context) {
	visitor, err := h.visitorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, visitor)
}

// UpdateVisitor 更新访客资料
// PUT /api/v1/visitors/:id
func (h *VisitorHandler) UpdateVisitor(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	visitor, err := h.visitorSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, visitor)
}

// Approve 审批通过
// POST /api/v1/visitors/:id/approve
func (h *VisitorHandler) Approve(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	visitor, err := h.visitorSvc.Approve(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, visitor)
}

// Reject 审批拒绝
// POST /api/v1/visitors/:id/reject
func (h *VisitorHandler) Reject(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	// 拒绝理由可选，允许空请求体
	var req dto.RejectVisitorRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		bindFailed(c, err)
		return
	}

	visitor, err := h.visitorSvc.Reject(c.Request.Context(), c.Param("id"), req.Reason, actor)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, visitor)
}

// CheckIn 前台签到
// POST /api/v1/visitors/:id/check-in
func (h *VisitorHandler) CheckIn(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	visitor, err := h.visitorSvc.CheckIn(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, visitor)
}

// CheckOut 前台签退
// POST /api/v1/visitors/:id/check-out
func (h *VisitorHandler) CheckOut(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	visitor, err := h.visitorSvc.CheckOut(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, visitor)
}

// History 状态变更历史
// GET /api/v1/visitors/:id/history
func (h *VisitorHandler) History(c *gin.Context) {
	logs, err := h.visitorSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, gin.H{"list": logs})
}

// Invite 下载日历邀请（.ics）
// GET /api/v1/visitors/:id/invite.ics
func (h *VisitorHandler) Invite(c *gin.Context) {
	data, filename, err := h.inviteSvc.VisitInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// ── 自助终端 ──

// KioskCheckIn 凭访问码签到（公开）
// POST /api/v1/kiosk/check-in
func (h *VisitorHandler) KioskCheckIn(c *gin.Context) {
	var req dto.KioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.visitorSvc.KioskCheckIn(c.Request.Context(), req.AccessCode)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, result)
}

// KioskCheckOut 凭访问码签退（公开）
// POST /api/v1/kiosk/check-out
func (h *VisitorHandler) KioskCheckOut(c *gin.Context) {
	var req dto.KioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.visitorSvc.KioskCheckOut(c.Request.Context(), req.AccessCode)
	if err != nil {
		handleVisitorError(c, err)
		return
	}

	response.OK(c, result)
}

// handleVisitorError 统一处理访客模块业务错误
func handleVisitorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVisitorNotFound):
		response.NotFound(c, 17001, "访客记录不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		response.BadRequest(c, 17002, "当前状态不允许该操作")
	case errors.Is(err, service.ErrTransitionUnauthorized):
		response.Forbidden(c, 17003, "当前角色无权执行该操作")
	case errors.Is(err, service.ErrTrainingIncomplete):
		response.BadRequest(c, 17004, "承包商尚未完成必修安全培训")
	case errors.Is(err, service.ErrVisitorStatusConflict):
		response.Conflict(c, 17005, "访客记录已被其他操作变更，请刷新后重试")
	case errors.Is(err, service.ErrHostNotFound):
		response.BadRequest(c, 17006, "接待人不存在或已停用")
	case errors.Is(err, service.ErrContractorFieldsOnVisitor):
		response.BadRequest(c, 17007, "普通访客不能填写危险源或防护装备")
	case errors.Is(err, service.ErrVisitorNotEditable):
		response.BadRequest(c, 17008, "访客已入场或流程已结束，不能修改")
	case errors.Is(err, service.ErrSelfRegistrationDisabled):
		response.Forbidden(c, 17009, "自助登记功能未开放")
	case errors.Is(err, service.ErrKioskDisabled):
		response.Forbidden(c, 17010, "自助终端功能未开放")
	case errors.Is(err, service.ErrAccessCodeInvalid):
		response.NotFound(c, 17011, "访问码无效")
	case errors.Is(err, service.ErrInviteUnavailable):
		response.BadRequest(c, 17012, "仅已审批且有预约时间的到访可生成日历邀请")
	default:
		response.InternalError(c)
	}
}
