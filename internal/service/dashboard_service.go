package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

// DashboardService 看板统计业务接口
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStatsResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger, now: time.Now}
}

func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	counts, err := s.repo.Visitor.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("按状态统计访客失败", zap.Error(err))
		return nil, err
	}

	// 所有状态都输出，缺失的补 0
	byStatus := map[string]int64{
		string(model.StatusPending):    0,
		string(model.StatusApproved):   0,
		string(model.StatusCancelled):  0,
		string(model.StatusCheckedIn):  0,
		string(model.StatusCheckedOut): 0,
	}
	for _, c := range counts {
		byStatus[string(c.Status)] = c.Count
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.repo.Visitor.CountCheckedInSince(ctx, startOfDay)
	if err != nil {
		s.logger.Error("统计今日签到失败", zap.Error(err))
		return nil, err
	}

	onSite, err := s.repo.Visitor.CountOnSite(ctx, "")
	if err != nil {
		s.logger.Error("统计在场人数失败", zap.Error(err))
		return nil, err
	}
	contractors, err := s.repo.Visitor.CountOnSite(ctx, model.CategoryContractor)
	if err != nil {
		s.logger.Error("统计在场承包商失败", zap.Error(err))
		return nil, err
	}

	return &dto.DashboardStatsResponse{
		ByStatus:          byStatus,
		CheckedInToday:    today,
		OnSite:            onSite,
		OnSiteContractors: contractors,
		GeneratedAt:       formatTime(now),
	}, nil
}
