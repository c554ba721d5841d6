package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"vms/backend/internal/dto"
	"vms/backend/internal/service"
	"vms/backend/pkg/response"
)

// TrainingHandler 安全培训模块 HTTP 处理器
type TrainingHandler struct {
	trainingSvc service.TrainingService
}

// NewTrainingHandler 创建 TrainingHandler
func NewTrainingHandler(trainingSvc service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingSvc: trainingSvc}
}

// ListTrainings 培训课程列表
// GET /api/v1/trainings
func (h *TrainingHandler) ListTrainings(c *gin.Context) {
	var req dto.TrainingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.trainingSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetTraining 培训课程详情
// GET /api/v1/trainings/:id
func (h *TrainingHandler) GetTraining(c *gin.Context) {
	training, err := h.trainingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTrainingError(c, err)
		return
	}

	response.OK(c, training)
}

// CreateTraining 创建培训课程
// POST /api/v1/trainings
func (h *TrainingHandler) CreateTraining(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	training, err := h.trainingSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleTrainingError(c, err)
		return
	}

	response.Created(c, training)
}

// UpdateTraining 更新培训课程
// PUT /api/v1/trainings/:id
func (h *TrainingHandler) UpdateTraining(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	training, err := h.trainingSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleTrainingError(c, err)
		return
	}

	response.OK(c, training)
}

// DeleteTraining 删除培训课程
// DELETE /api/v1/trainings/:id
func (h *TrainingHandler) DeleteTraining(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.trainingSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleTrainingError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 承包商培训进度 ──

// Assign 为承包商分配培训
// POST /api/v1/visitors/:id/trainings
func (h *TrainingHandler) Assign(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	status, err := h.trainingSvc.Assign(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleTrainingError(c, err)
		return
	}

	response.OK(c, status)
}

// SubmitScore 提交培训成绩
// POST /api/v1/visitors/:id/trainings/:trainingId/score
func (h *TrainingHandler) SubmitScore(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	status, err := h.trainingSvc.SubmitScore(c.Request.Context(), c.Param("id"), c.Param("trainingId"), req.Score, actor)
	if err != nil {
		handleTrainingError(c, err)
		return
	}

	response.OK(c, status)
}

// Status 承包商培训总体状态
// GET /api/v1/visitors/:id/trainings
func (h *TrainingHandler) Status(c *gin.Context) {
	status, err := h.trainingSvc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTrainingError(c, err)
		return
	}

	response.OK(c, status)
}

// handleTrainingError 统一处理培训模块业务错误
func handleTrainingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTrainingNotFound):
		response.NotFound(c, 18001, "培训课程不存在")
	case errors.Is(err, service.ErrTrainingInactive):
		response.BadRequest(c, 18002, "培训课程已停用")
	case errors.Is(err, service.ErrTrainingNotForVisitor):
		response.BadRequest(c, 18003, "仅承包商需要分配安全培训")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 18004, "该承包商未分配此培训")
	case errors.Is(err, service.ErrVisitorNotFound):
		response.NotFound(c, 17001, "访客记录不存在")
	case errors.Is(err, service.ErrVisitorNotEditable):
		response.BadRequest(c, 17008, "访客已入场或流程已结束，不能修改")
	default:
		response.InternalError(c)
	}
}
