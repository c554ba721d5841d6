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

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportVisitors 导出访客记录
// GET /api/v1/export/visitors?from=2026-10-01&to=2026-10-31
func (h *ExportHandler) ExportVisitors(c *gin.Context) {
	var req dto.ExportVisitorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from / to 须为 YYYY-MM-DD 格式")
		return
	}

	buf, filename, err := h.exportSvc.ExportVisitors(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportRangeInvalid):
		response.BadRequest(c, 16101, "导出起始日期不能晚于结束日期")
	case errors.Is(err, service.ErrExportRangeTooLarge):
		response.BadRequest(c, 16102, "单次导出跨度不能超过 366 天")
	default:
		response.InternalError(c)
	}
}
