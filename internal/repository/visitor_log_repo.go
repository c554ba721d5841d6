package repository

import (
	"context"

	"gorm.io/gorm"

	"vms/backend/internal/model"
)

// VisitorDocumentRepository 访客文件元数据访问接口
type VisitorDocumentRepository interface {
	Create(ctx context.Context, doc *model.VisitorDocument) error
	GetByID(ctx context.Context, id string) (*model.VisitorDocument, error)
	ListByVisitor(ctx context.Context, visitorID string) ([]model.VisitorDocument, error)
	Delete(ctx context.Context, id string) error
}

// VisitorStatusLogRepository 访客状态日志访问接口（只追加）
type VisitorStatusLogRepository interface {
	Create(ctx context.Context, log *model.VisitorStatusLog) error
	ListByVisitor(ctx context.Context, visitorID string) ([]model.VisitorStatusLog, error)
}

// ── VisitorDocument Repository 实现 ──

type visitorDocumentRepo struct {
	db *gorm.DB
}

func NewVisitorDocumentRepo(db *gorm.DB) VisitorDocumentRepository {
	return &visitorDocumentRepo{db: db}
}

func (r *visitorDocumentRepo) Create(ctx context.Context, doc *model.VisitorDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *visitorDocumentRepo) GetByID(ctx context.Context, id string) (*model.VisitorDocument, error) {
	var doc model.VisitorDocument
	err := r.db.WithContext(ctx).
		Where("document_id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *visitorDocumentRepo) ListByVisitor(ctx context.Context, visitorID string) ([]model.VisitorDocument, error) {
	var docs []model.VisitorDocument
	err := r.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

func (r *visitorDocumentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", id).
		Delete(&model.VisitorDocument{}).Error
}

// ── VisitorStatusLog Repository 实现 ──

type visitorStatusLogRepo struct {
	db *gorm.DB
}

func NewVisitorStatusLogRepo(db *gorm.DB) VisitorStatusLogRepository {
	return &visitorStatusLogRepo{db: db}
}

func (r *visitorStatusLogRepo) Create(ctx context.Context, log *model.VisitorStatusLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *visitorStatusLogRepo) ListByVisitor(ctx context.Context, visitorID string) ([]model.VisitorStatusLog, error) {
	var logs []model.VisitorStatusLog
	err := r.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
