package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vms/backend/internal/model"
)

func setupTestExportService() (ExportService, *mockRepos) {
	repo, m := newMockRepos()
	return NewExportService(repo, zap.NewNop()), m
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func TestExportService_RangeValidation(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportVisitors(context.Background(), day(2026, 10, 2), day(2026, 10, 1))
	if !errors.Is(err, ErrExportRangeInvalid) {
		t.Errorf("期望 ErrExportRangeInvalid，实际: %v", err)
	}

	_, _, err = svc.ExportVisitors(context.Background(), day(2025, 1, 1), day(2026, 10, 1))
	if !errors.Is(err, ErrExportRangeTooLarge) {
		t.Errorf("期望 ErrExportRangeTooLarge，实际: %v", err)
	}
}

func TestExportService_ExportVisitors(t *testing.T) {
	svc, m := setupTestExportService()
	seedHost(m, "host-1", "李经理", model.RoleManager)

	in := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	outAt := in.Add(95 * time.Minute)
	v := seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusCheckedOut)
	v.Host = m.users.users["host-1"]
	v.Company = "某某工程公司"
	v.CheckInTime = &in
	v.CheckOutTime = &outAt
	v.TrainingCompleted = true

	// 范围外
	old := seedVisitor(m, "v-0002", model.CategoryVisitor, model.StatusPending)
	old.CreatedAt = day(2026, 9, 1)

	buf, filename, err := svc.ExportVisitors(context.Background(), day(2026, 10, 15), day(2026, 10, 15))
	if err != nil {
		t.Fatalf("ExportVisitors 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") || !strings.Contains(filename, "20261015") {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件无法打开: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("访客记录")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行数据，实际=%d", len(rows))
	}
	row := rows[1]
	if row[1] != "承包商" || row[2] != "访客 v-0001" || row[5] != "李经理" || row[6] != "已离场" {
		t.Errorf("数据行内容错误: %v", row)
	}
	if row[10] != "95" || row[11] != "是" {
		t.Errorf("停留时长或培训列错误: %v", row)
	}
}
