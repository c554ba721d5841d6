package handler

import "vms/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Visitor      *VisitorHandler
	Training     *TrainingHandler
	Document     *DocumentHandler
	Setting      *SettingHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Visitor:      NewVisitorHandler(svc.Visitor, svc.Invite),
		Training:     NewTrainingHandler(svc.Training),
		Document:     NewDocumentHandler(svc.Document),
		Setting:      NewSettingHandler(svc.Setting),
		Notification: NewNotificationHandler(svc.Notification),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
		Export:       NewExportHandler(svc.Export),
	}
}
