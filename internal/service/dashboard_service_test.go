package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"vms/backend/internal/model"
)

func TestDashboardService_Stats(t *testing.T) {
	repo, m := newMockRepos()
	svc := NewDashboardService(repo, zap.NewNop()).(*dashboardService)
	svc.now = func() time.Time { return testNow }

	today := testNow.Add(-2 * time.Hour)
	yesterday := testNow.Add(-26 * time.Hour)

	seedVisitor(m, "v-0001", model.CategoryVisitor, model.StatusPending)
	in1 := seedVisitor(m, "v-0002", model.CategoryContractor, model.StatusCheckedIn)
	in1.CheckInTime = &today
	in2 := seedVisitor(m, "v-0003", model.CategoryVisitor, model.StatusCheckedIn)
	in2.CheckInTime = &yesterday
	out := seedVisitor(m, "v-0004", model.CategoryVisitor, model.StatusCheckedOut)
	out.CheckInTime = &today

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if stats.ByStatus["pending"] != 1 || stats.ByStatus["checked_in"] != 2 || stats.ByStatus["approved"] != 0 {
		t.Errorf("按状态统计错误: %v", stats.ByStatus)
	}
	if len(stats.ByStatus) != 5 {
		t.Errorf("期望输出全部 5 个状态，实际=%d", len(stats.ByStatus))
	}
	if stats.CheckedInToday != 2 {
		t.Errorf("期望今日签到 2，实际=%d", stats.CheckedInToday)
	}
	if stats.OnSite != 2 || stats.OnSiteContractors != 1 {
		t.Errorf("在场统计错误: %d / %d", stats.OnSite, stats.OnSiteContractors)
	}
}
