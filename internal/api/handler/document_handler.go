package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"vms/backend/internal/dto"
	"vms/backend/internal/service"
	"vms/backend/pkg/response"
)

// DocumentHandler 承包商资质文件元数据 HTTP 处理器
type DocumentHandler struct {
	documentSvc service.DocumentService
}

// NewDocumentHandler 创建 DocumentHandler
func NewDocumentHandler(documentSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc}
}

// AddDocument 登记文件元数据
// POST /api/v1/visitors/:id/documents
func (h *DocumentHandler) AddDocument(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	doc, err := h.documentSvc.Add(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleDocumentError(c, err)
		return
	}

	response.Created(c, doc)
}

// ListDocuments 文件列表
// GET /api/v1/visitors/:id/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.documentSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDocumentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": docs})
}

// DeleteDocument 删除文件元数据
// DELETE /api/v1/visitors/:id/documents/:docId
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.documentSvc.Delete(c.Request.Context(), c.Param("id"), c.Param("docId"), callerID); err != nil {
		handleDocumentError(c, err)
		return
	}

	response.OK(c, nil)
}

func handleDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		response.NotFound(c, 19001, "文件不存在")
	case errors.Is(err, service.ErrDocumentNotForVisitor):
		response.BadRequest(c, 19002, "仅承包商需要提交资质文件")
	case errors.Is(err, service.ErrVisitorNotFound):
		response.NotFound(c, 17001, "访客记录不存在")
	case errors.Is(err, service.ErrVisitorNotEditable):
		response.BadRequest(c, 17008, "访客已入场或流程已结束，不能修改")
	default:
		response.InternalError(c)
	}
}
