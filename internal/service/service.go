package service

import (
	"go.uber.org/zap"

	"vms/backend/config"
	"vms/backend/internal/repository"
	"vms/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Visitor      VisitorService
	Invite       InviteService
	Training     TrainingService
	Document     DocumentService
	Setting      SystemSettingService
	Notification NotificationService
	Dashboard    DashboardService
	Export       ExportService
}

// NewService 创建 Service 聚合
// tokens 为 nil 时登出与 refresh 轮换不做黑名单记录
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenStore,
	notifier EventDispatcher,
	logger *zap.Logger,
) *Service {
	gate := NewTrainingGate(repo.TrainingEnrollment, logger)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, tokens, logger),
		User:         NewUserService(repo, logger),
		Visitor:      NewVisitorService(repo, gate, notifier, cfg.Feature, logger),
		Invite:       NewInviteService(repo, logger),
		Training:     NewTrainingService(repo, gate, logger),
		Document:     NewDocumentService(repo, logger),
		Setting:      NewSystemSettingService(repo, logger),
		Notification: NewNotificationService(repo, logger),
		Dashboard:    NewDashboardService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
