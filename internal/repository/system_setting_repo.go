package repository

import (
	"context"

	"gorm.io/gorm"

	"vms/backend/internal/model"
)

// SystemSettingRepository 系统设置数据访问接口
type SystemSettingRepository interface {
	Get(ctx context.Context) (*model.SystemSetting, error)
	Update(ctx context.Context, setting *model.SystemSetting) error
}

type systemSettingRepo struct {
	db *gorm.DB
}

// NewSystemSettingRepo 创建 SystemSettingRepository 实例
func NewSystemSettingRepo(db *gorm.DB) SystemSettingRepository {
	return &systemSettingRepo{db: db}
}

// Get 读取单行设置，不存在时以默认值初始化
func (r *systemSettingRepo) Get(ctx context.Context) (*model.SystemSetting, error) {
	setting := model.SystemSetting{
		Singleton:               true,
		TrainingRequired:        true,
		AutoApprovePrescheduled: true,
		SiteName:                "Main Site",
	}
	err := r.db.WithContext(ctx).
		Where("singleton = ?", true).
		FirstOrCreate(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *systemSettingRepo) Update(ctx context.Context, setting *model.SystemSetting) error {
	setting.Singleton = true
	return r.db.WithContext(ctx).Save(setting).Error
}
