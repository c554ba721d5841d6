package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"vms/backend/internal/model"
)

func TestInviteService_VisitInvite(t *testing.T) {
	repo, m := newMockRepos()
	svc := NewInviteService(repo, zap.NewNop())
	seedHost(m, "host-1", "李经理", model.RoleManager)

	at := time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC)
	v := seedVisitor(m, "v-0001", model.CategoryContractor, model.StatusApproved)
	v.ScheduledAt = &at
	v.ExpectedMinutes = 90
	v.Email = "guest@example.com"
	v.Host = m.users.users["host-1"]

	data, filename, err := svc.VisitInvite(context.Background(), "v-0001")
	if err != nil {
		t.Fatalf("VisitInvite 应成功: %v", err)
	}
	if filename != "visit-CODE0001.ics" {
		t.Errorf("文件名错误: %s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("生成的日历无法解析: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际=%d", len(events))
	}
	start, err := events[0].GetStartAt()
	if err != nil || !start.Equal(at) {
		t.Errorf("开始时间错误: %v err=%v", start, err)
	}
	end, err := events[0].GetEndAt()
	if err != nil || !end.Equal(at.Add(90*time.Minute)) {
		t.Errorf("结束时间错误: %v err=%v", end, err)
	}
	if !strings.Contains(string(data), "CODE0001") {
		t.Error("描述中应包含访问码")
	}
	if len(events[0].Attendees()) != 1 {
		t.Error("期望访客作为参与人")
	}
}

func TestInviteService_Unavailable(t *testing.T) {
	repo, m := newMockRepos()
	svc := NewInviteService(repo, zap.NewNop())
	seedVisitor(m, "v-0001", model.CategoryVisitor, model.StatusApproved) // 无预约时间
	at := time.Now()
	seedVisitor(m, "v-0002", model.CategoryVisitor, model.StatusPending).ScheduledAt = &at

	for _, id := range []string{"v-0001", "v-0002"} {
		if _, _, err := svc.VisitInvite(context.Background(), id); !errors.Is(err, ErrInviteUnavailable) {
			t.Errorf("%s 期望 ErrInviteUnavailable，实际: %v", id, err)
		}
	}
	if _, _, err := svc.VisitInvite(context.Background(), "missing"); !errors.Is(err, ErrVisitorNotFound) {
		t.Errorf("期望 ErrVisitorNotFound，实际: %v", err)
	}
}
