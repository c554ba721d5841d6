package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"vms/backend/internal/dto"
	"vms/backend/internal/service"
	"vms/backend/pkg/response"
)

// SettingHandler 系统设置 HTTP 处理器
type SettingHandler struct {
	settingSvc service.SystemSettingService
}

// NewSettingHandler 创建 SettingHandler
func NewSettingHandler(settingSvc service.SystemSettingService) *SettingHandler {
	return &SettingHandler{settingSvc: settingSvc}
}

// GetSetting 获取系统设置
// GET /api/v1/settings
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingSvc.Get(c.Request.Context())
	if err != nil {
		handleSettingError(c, err)
		return
	}

	response.OK(c, setting)
}

// UpdateSetting 更新系统设置
// PUT /api/v1/settings
func (h *SettingHandler) UpdateSetting(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	setting, err := h.settingSvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		handleSettingError(c, err)
		return
	}

	response.OK(c, setting)
}

func handleSettingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSystemSettingNotFound):
		response.NotFound(c, 21001, "系统设置未初始化")
	default:
		response.InternalError(c)
	}
}
