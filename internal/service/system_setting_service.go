package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

// ── 系统设置模块业务错误 ──

var (
	ErrSystemSettingNotFound = errors.New("系统设置未初始化")
)

// SystemSettingService 系统设置业务接口
type SystemSettingService interface {
	Get(ctx context.Context) (*dto.SettingResponse, error)
	Update(ctx context.Context, req *dto.UpdateSettingRequest, callerID string) (*dto.SettingResponse, error)
}

type systemSettingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemSettingService 创建 SystemSettingService 实例
func NewSystemSettingService(repo *repository.Repository, logger *zap.Logger) SystemSettingService {
	return &systemSettingService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemSettingService) Get(ctx context.Context) (*dto.SettingResponse, error) {
	setting, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return toSettingResponse(setting), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemSettingService) Update(ctx context.Context, req *dto.UpdateSettingRequest, callerID string) (*dto.SettingResponse, error) {
	setting, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if req.TrainingRequired != nil {
		setting.TrainingRequired = *req.TrainingRequired
	}
	if req.AutoApprovePrescheduled != nil {
		setting.AutoApprovePrescheduled = *req.AutoApprovePrescheduled
	}
	if req.SiteName != nil {
		setting.SiteName = *req.SiteName
	}
	setting.UpdatedBy = &callerID

	if err := s.repo.SystemSetting.Update(ctx, setting); err != nil {
		s.logger.Error("更新系统设置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("系统设置已更新",
		zap.Bool("training_required", setting.TrainingRequired),
		zap.Bool("auto_approve_prescheduled", setting.AutoApprovePrescheduled),
		zap.String("caller", callerID),
	)
	return toSettingResponse(setting), nil
}

func (s *systemSettingService) load(ctx context.Context) (*model.SystemSetting, error) {
	setting, err := s.repo.SystemSetting.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSystemSettingNotFound
		}
		s.logger.Error("查询系统设置失败", zap.Error(err))
		return nil, err
	}
	return setting, nil
}

func toSettingResponse(setting *model.SystemSetting) *dto.SettingResponse {
	return &dto.SettingResponse{
		TrainingRequired:        setting.TrainingRequired,
		AutoApprovePrescheduled: setting.AutoApprovePrescheduled,
		SiteName:                setting.SiteName,
		UpdatedAt:               formatTime(setting.UpdatedAt),
	}
}
