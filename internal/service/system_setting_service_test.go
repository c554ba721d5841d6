package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
)

func TestSystemSettingService_PartialUpdate(t *testing.T) {
	repo, m := newMockRepos()
	svc := NewSystemSettingService(repo, zap.NewNop())

	off := false
	resp, err := svc.Update(context.Background(), &dto.UpdateSettingRequest{TrainingRequired: &off}, "admin-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.TrainingRequired {
		t.Error("期望 training_required=false")
	}
	if !resp.AutoApprovePrescheduled || resp.SiteName != "Main Site" {
		t.Errorf("未传字段不应改变: %+v", resp)
	}
	if m.settings.setting.UpdatedBy == nil || *m.settings.setting.UpdatedBy != "admin-1" {
		t.Error("期望记录 updated_by")
	}
}

// 设置变更对下一次流转立即生效
func TestSystemSettingService_AffectsNextCheckIn(t *testing.T) {
	visitors, m, _ := setupTestVisitorService()
	settings := NewSystemSettingService(visitors.repo, zap.NewNop())
	seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusApproved)
	seedTraining(m, "t-1", 80, true)
	seedEnrollment(m, "v-0001", "t-1", nil)

	if _, err := visitors.CheckIn(context.Background(), "v-0001", staffActor); err == nil {
		t.Fatal("培训未完成时签到应失败")
	}

	off := false
	if _, err := settings.Update(context.Background(), &dto.UpdateSettingRequest{TrainingRequired: &off}, "admin-1"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if _, err := visitors.CheckIn(context.Background(), "v-0001", staffActor); err != nil {
		t.Errorf("关闭培训要求后签到应成功: %v", err)
	}
}
