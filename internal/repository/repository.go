package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User               UserRepository
	Visitor            VisitorRepository
	VisitorDocument    VisitorDocumentRepository
	VisitorStatusLog   VisitorStatusLogRepository
	Training           TrainingRepository
	TrainingEnrollment TrainingEnrollmentRepository
	SystemSetting      SystemSettingRepository
	Notification       NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                 db,
		User:               NewUserRepo(db),
		Visitor:            NewVisitorRepo(db),
		VisitorDocument:    NewVisitorDocumentRepo(db),
		VisitorStatusLog:   NewVisitorStatusLogRepo(db),
		Training:           NewTrainingRepo(db),
		TrainingEnrollment: NewTrainingEnrollmentRepo(db),
		SystemSetting:      NewSystemSettingRepo(db),
		Notification:       NewNotificationRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// RunInTx 在事务中执行 fn，fn 返回错误时回滚
func (r *Repository) RunInTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		// 单元测试中使用 mock 聚合，无事务连接
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
