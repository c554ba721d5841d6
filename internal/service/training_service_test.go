package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestTrainingService() (TrainingService, *mockRepos) {
	repo, m := newMockRepos()
	svc := NewTrainingService(repo, NewTrainingGate(repo.TrainingEnrollment, zap.NewNop()), zap.NewNop())
	svc.(*trainingService).now = func() time.Time { return testNow }
	return svc, m
}

// ── TrainingGate 测试 ──

func TestTrainingGate(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(m *mockRepos)
		required bool
		want     bool
	}{
		{
			name:     "不要求培训时恒满足",
			setup:    func(m *mockRepos) { seedTraining(m, "t-1", 80, true); seedEnrollment(m, "v-1", "t-1", nil) },
			required: false,
			want:     true,
		},
		{
			name:     "未分配任何课程视为满足",
			setup:    func(m *mockRepos) {},
			required: true,
			want:     true,
		},
		{
			name:     "未作答",
			setup:    func(m *mockRepos) { seedTraining(m, "t-1", 80, true); seedEnrollment(m, "v-1", "t-1", nil) },
			required: true,
			want:     false,
		},
		{
			name:     "低于及格线",
			setup:    func(m *mockRepos) { seedTraining(m, "t-1", 80, true); seedEnrollment(m, "v-1", "t-1", intPtr(79)) },
			required: true,
			want:     false,
		},
		{
			name:     "恰好及格",
			setup:    func(m *mockRepos) { seedTraining(m, "t-1", 80, true); seedEnrollment(m, "v-1", "t-1", intPtr(80)) },
			required: true,
			want:     true,
		},
		{
			name: "停用课程不计入",
			setup: func(m *mockRepos) {
				seedTraining(m, "t-1", 80, true)
				seedTraining(m, "t-2", 80, false)
				seedEnrollment(m, "v-1", "t-1", intPtr(90))
				seedEnrollment(m, "v-1", "t-2", nil)
			},
			required: true,
			want:     true,
		},
		{
			name: "已删除课程不计入",
			setup: func(m *mockRepos) {
				tr := seedTraining(m, "t-1", 80, true)
				tr.DeletedAt = gorm.DeletedAt{Time: testNow, Valid: true}
				seedEnrollment(m, "v-1", "t-1", nil)
			},
			required: true,
			want:     true,
		},
		{
			name: "多门课程需全部通过",
			setup: func(m *mockRepos) {
				seedTraining(m, "t-1", 80, true)
				seedTraining(m, "t-2", 60, true)
				seedEnrollment(m, "v-1", "t-1", intPtr(95))
				seedEnrollment(m, "v-1", "t-2", intPtr(50))
			},
			required: true,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, m := newMockRepos()
			tt.setup(m)
			gate := NewTrainingGate(repo.TrainingEnrollment, zap.NewNop())

			got, err := gate.IsTrainingSatisfied(context.Background(), "v-1", tt.required)
			if err != nil {
				t.Fatalf("IsTrainingSatisfied 返回错误: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestTrainingGate_RepoError(t *testing.T) {
	repo, m := newMockRepos()
	m.enrollments.listErr = errors.New("db down")

	_, err := NewTrainingGate(repo.TrainingEnrollment, zap.NewNop()).IsTrainingSatisfied(context.Background(), "v-1", true)
	if err == nil {
		t.Error("期望透传仓储错误")
	}
}

func TestTrainingGate_NoAssignmentWarns(t *testing.T) {
	repo, m := newMockRepos()
	seedTraining(m, "t-1", 80, false)
	seedEnrollment(m, "v-1", "t-1", nil)

	core, logs := observer.New(zap.WarnLevel)
	ok, err := NewTrainingGate(repo.TrainingEnrollment, zap.New(core)).IsTrainingSatisfied(context.Background(), "v-1", true)
	if err != nil {
		t.Fatalf("IsTrainingSatisfied 返回错误: %v", err)
	}
	if !ok {
		t.Error("无有效课程时应视为满足")
	}
	if logs.Len() != 1 {
		t.Errorf("期望 1 条告警日志，实际 %d", logs.Len())
	}

	// 有有效课程时不告警
	seedTraining(m, "t-2", 60, true)
	seedEnrollment(m, "v-1", "t-2", intPtr(70))
	if _, err := NewTrainingGate(repo.TrainingEnrollment, zap.New(core)).IsTrainingSatisfied(context.Background(), "v-1", true); err != nil {
		t.Fatalf("IsTrainingSatisfied 返回错误: %v", err)
	}
	if logs.Len() != 1 {
		t.Errorf("有有效课程时不应告警，实际 %d 条", logs.Len())
	}
}

// ── CRUD 测试 ──

func TestTrainingService_CreateDefaults(t *testing.T) {
	svc, _ := setupTestTrainingService()

	resp, err := svc.Create(context.Background(), &dto.CreateTrainingRequest{Title: "入厂安全须知"}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.RequiredScore != 80 || !resp.IsActive {
		t.Errorf("期望默认及格线 80 且启用，实际=%+v", resp)
	}
}

func TestTrainingService_UpdateAndList(t *testing.T) {
	svc, m := setupTestTrainingService()
	seedTraining(m, "t-1", 80, true)
	seedTraining(m, "t-2", 80, true)

	inactive := false
	if _, err := svc.Update(context.Background(), "t-2", &dto.UpdateTrainingRequest{IsActive: &inactive}, "admin-1"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	active, _ := svc.List(context.Background(), &dto.TrainingListRequest{})
	all, _ := svc.List(context.Background(), &dto.TrainingListRequest{IncludeInactive: true})
	if len(active) != 1 || len(all) != 2 {
		t.Errorf("期望启用 1 / 全部 2，实际 %d / %d", len(active), len(all))
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrTrainingNotFound) {
		t.Errorf("期望 ErrTrainingNotFound，实际: %v", err)
	}
}

// ── Assign 测试 ──

func TestTrainingService_Assign_Idempotent(t *testing.T) {
	svc, m := setupTestTrainingService()
	v := seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusPending)
	v.TrainingCompleted = true
	seedTraining(m, "t-1", 80, true)
	seedTraining(m, "t-2", 70, true)

	status, err := svc.Assign(context.Background(), "v-0001", &dto.AssignTrainingRequest{TrainingIDs: []string{"t-1", "t-2", "t-1"}}, "mgr-1")
	if err != nil {
		t.Fatalf("Assign 应成功: %v", err)
	}
	if len(status.Enrollments) != 2 {
		t.Errorf("期望 2 条分配，实际=%d", len(status.Enrollments))
	}
	if status.TrainingCompleted {
		t.Error("新分配未作答的课程后 training_completed 应为 false")
	}
	if m.visitors.visitors["v-0001"].TrainingCompleted {
		t.Error("期望持久化 training_completed=false")
	}

	// 重复分配不报错也不新增
	status, err = svc.Assign(context.Background(), "v-0001", &dto.AssignTrainingRequest{TrainingIDs: []string{"t-1"}}, "mgr-1")
	if err != nil {
		t.Fatalf("重复 Assign 应成功: %v", err)
	}
	if len(status.Enrollments) != 2 {
		t.Errorf("重复分配后仍应为 2 条，实际=%d", len(status.Enrollments))
	}
}

func TestTrainingService_Assign_Errors(t *testing.T) {
	svc, m := setupTestTrainingService()
	seedVisitor(m, "v-0001", model.CategoryVisitor, model.StatusPending)
	seedVisitor(m, "v-0002", model.CategoryContractor, model.StatusCheckedOut)
	seedVisitor(m, "v-0003", model.CategoryContractor, model.StatusApproved)
	seedTraining(m, "t-off", 80, false)

	tests := []struct {
		name      string
		visitorID string
		ids       []string
		wantErr   error
	}{
		{"普通访客", "v-0001", []string{"t-off"}, ErrTrainingNotForVisitor},
		{"终态访客", "v-0002", []string{"t-off"}, ErrVisitorNotEditable},
		{"课程不存在", "v-0003", []string{"missing"}, ErrTrainingNotFound},
		{"课程已停用", "v-0003", []string{"t-off"}, ErrTrainingInactive},
		{"访客不存在", "missing", []string{"t-off"}, ErrVisitorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Assign(context.Background(), tt.visitorID, &dto.AssignTrainingRequest{TrainingIDs: tt.ids}, "mgr-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

// ── SubmitScore 测试 ──

func TestTrainingService_SubmitScore(t *testing.T) {
	svc, m := setupTestTrainingService()
	seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusApproved)
	seedTraining(m, "t-1", 80, true)
	seedEnrollment(m, "v-0001", "t-1", nil)

	status, err := svc.SubmitScore(context.Background(), "v-0001", "t-1", 60, staffActor)
	if err != nil {
		t.Fatalf("SubmitScore 应成功: %v", err)
	}
	if status.TrainingCompleted || status.Enrollments[0].Passed || status.Enrollments[0].Attempts != 1 {
		t.Errorf("不及格结果错误: %+v", status)
	}

	status, err = svc.SubmitScore(context.Background(), "v-0001", "t-1", 90, staffActor)
	if err != nil {
		t.Fatalf("SubmitScore 应成功: %v", err)
	}
	e := status.Enrollments[0]
	if !status.TrainingCompleted || !e.Passed || e.Attempts != 2 || e.CompletedAt == "" {
		t.Errorf("及格结果错误: %+v", status)
	}
	if !m.visitors.visitors["v-0001"].TrainingCompleted {
		t.Error("期望持久化 training_completed=true")
	}
}

func TestTrainingService_SubmitScore_NotAssigned(t *testing.T) {
	svc, m := setupTestTrainingService()
	seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusApproved)
	seedTraining(m, "t-1", 80, true)

	_, err := svc.SubmitScore(context.Background(), "v-0001", "t-1", 90, staffActor)
	if !errors.Is(err, ErrEnrollmentNotFound) {
		t.Errorf("期望 ErrEnrollmentNotFound，实际: %v", err)
	}
}

func TestTrainingService_SubmitScore_TerminalVisitor(t *testing.T) {
	for _, status := range []model.VisitorStatus{model.StatusCheckedOut, model.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			svc, m := setupTestTrainingService()
			seedVisitor(m, "v-0001", model.CategoryContractor, status)
			seedTraining(m, "t-1", 80, true)
			seedEnrollment(m, "v-0001", "t-1", nil)

			_, err := svc.SubmitScore(context.Background(), "v-0001", "t-1", 90, staffActor)
			if !errors.Is(err, ErrVisitorNotEditable) {
				t.Errorf("期望 ErrVisitorNotEditable，实际: %v", err)
			}
			if e := m.enrollments.enrollments[enrollmentKey("v-0001", "t-1")]; e.Score != nil || e.Attempts != 0 {
				t.Errorf("终态访客不应记录成绩: %+v", e)
			}
		})
	}
}

// 及格线调整后按新及格线重新判定
func TestTrainingService_RequiredScoreRaised(t *testing.T) {
	svc, m := setupTestTrainingService()
	seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusApproved)
	seedTraining(m, "t-1", 70, true)
	seedEnrollment(m, "v-0001", "t-1", nil)

	if _, err := svc.SubmitScore(context.Background(), "v-0001", "t-1", 75, staffActor); err != nil {
		t.Fatalf("SubmitScore 应成功: %v", err)
	}

	raised := 80
	if _, err := svc.Update(context.Background(), "t-1", &dto.UpdateTrainingRequest{RequiredScore: &raised}, "admin-1"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	status, err := svc.Status(context.Background(), "v-0001")
	if err != nil {
		t.Fatalf("Status 应成功: %v", err)
	}
	if status.Enrollments[0].Passed {
		t.Error("提高及格线后 75 分不应视为通过")
	}
}
