package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

// ── 文件元数据模块业务错误 ──

var (
	ErrDocumentNotFound      = errors.New("文件不存在")
	ErrDocumentNotForVisitor = errors.New("仅承包商需要提交资质文件")
)

// DocumentService 承包商资质文件元数据业务接口
type DocumentService interface {
	Add(ctx context.Context, visitorID string, req *dto.AddDocumentRequest, callerID string) (*dto.DocumentResponse, error)
	List(ctx context.Context, visitorID string) ([]dto.DocumentResponse, error)
	Delete(ctx context.Context, visitorID, documentID string, callerID string) error
}

type documentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDocumentService 创建 DocumentService 实例
func NewDocumentService(repo *repository.Repository, logger *zap.Logger) DocumentService {
	return &documentService{repo: repo, logger: logger}
}

// ────────────────────── Add ──────────────────────

func (s *documentService) Add(ctx context.Context, visitorID string, req *dto.AddDocumentRequest, callerID string) (*dto.DocumentResponse, error) {
	visitor, err := s.loadVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if !visitor.IsContractor() {
		return nil, ErrDocumentNotForVisitor
	}
	if visitor.Status.Terminal() {
		return nil, ErrVisitorNotEditable
	}

	doc := &model.VisitorDocument{
		VisitorID:    visitorID,
		DocumentType: req.DocumentType,
		FileName:     req.FileName,
		ContentType:  req.ContentType,
		SizeBytes:    req.SizeBytes,
		StorageKey:   req.StorageKey,
		ExpiresAt:    req.ExpiresAt,
	}
	doc.CreatedBy = &callerID
	doc.UpdatedBy = &callerID

	if err := s.repo.VisitorDocument.Create(ctx, doc); err != nil {
		s.logger.Error("登记文件失败", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil, err
	}

	resp := toDocumentResponse(doc, time.Now())
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *documentService) List(ctx context.Context, visitorID string) ([]dto.DocumentResponse, error) {
	if _, err := s.loadVisitor(ctx, visitorID); err != nil {
		return nil, err
	}

	docs, err := s.repo.VisitorDocument.ListByVisitor(ctx, visitorID)
	if err != nil {
		s.logger.Error("列出文件失败", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil, err
	}

	now := time.Now()
	result := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		result = append(result, toDocumentResponse(&docs[i], now))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *documentService) Delete(ctx context.Context, visitorID, documentID string, callerID string) error {
	doc, err := s.repo.VisitorDocument.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		s.logger.Error("查询文件失败", zap.String("id", documentID), zap.Error(err))
		return err
	}
	// 文件必须属于路径中的访客
	if doc.VisitorID != visitorID {
		return ErrDocumentNotFound
	}

	if err := s.repo.VisitorDocument.Delete(ctx, documentID); err != nil {
		s.logger.Error("删除文件失败", zap.String("id", documentID), zap.String("caller", callerID), zap.Error(err))
		return err
	}
	return nil
}

func (s *documentService) loadVisitor(ctx context.Context, id string) (*model.Visitor, error) {
	visitor, err := s.repo.Visitor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		s.logger.Error("查询访客失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return visitor, nil
}
