package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

var ErrInviteUnavailable = errors.New("仅已审批且有预约时间的到访可生成日历邀请")

// InviteService 到访日历邀请（iCalendar）
type InviteService interface {
	// VisitInvite 返回 .ics 内容与建议文件名
	VisitInvite(ctx context.Context, visitorID string) ([]byte, string, error)
}

type inviteService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewInviteService 创建 InviteService 实例
func NewInviteService(repo *repository.Repository, logger *zap.Logger) InviteService {
	return &inviteService{repo: repo, logger: logger, now: time.Now}
}

func (s *inviteService) VisitInvite(ctx context.Context, visitorID string) ([]byte, string, error) {
	visitor, err := s.repo.Visitor.GetByID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrVisitorNotFound
		}
		s.logger.Error("查询访客失败", zap.String("id", visitorID), zap.Error(err))
		return nil, "", err
	}
	if visitor.Status != model.StatusApproved || visitor.ScheduledAt == nil {
		return nil, "", ErrInviteUnavailable
	}

	setting, err := s.repo.SystemSetting.Get(ctx)
	if err != nil {
		s.logger.Error("读取系统设置失败", zap.Error(err))
		return nil, "", err
	}

	cal := buildVisitCalendar(visitor, setting.SiteName, s.now())
	filename := fmt.Sprintf("visit-%s.ics", visitor.AccessCode)
	return []byte(cal.Serialize()), filename, nil
}

// buildVisitCalendar 生成单个 VEVENT 的 REQUEST 日历
func buildVisitCalendar(v *model.Visitor, siteName string, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//vms//visitor invite//ZH")

	start := v.ScheduledAt.UTC()
	end := start.Add(time.Duration(v.ExpectedMinutes) * time.Minute)

	event := cal.AddEvent(v.VisitorID + "@vms")
	event.SetCreatedTime(now)
	event.SetDtStampTime(now)
	event.SetModifiedAt(now)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(fmt.Sprintf("到访：%s", v.FullName))
	event.SetLocation(siteName)

	desc := fmt.Sprintf("访问码：%s", v.AccessCode)
	if v.Purpose != "" {
		desc += "\n事由：" + v.Purpose
	}
	if v.IsContractor() {
		desc += "\n承包商入场前须完成指定安全培训。"
	}
	event.SetDescription(desc)

	if v.Host != nil && v.Host.Email != "" {
		event.SetOrganizer("mailto:"+v.Host.Email, ics.WithCN(v.Host.Name))
	}
	if v.Email != "" {
		event.AddAttendee("mailto:"+v.Email,
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusNeedsAction,
			ics.ParticipationRoleReqParticipant,
			ics.WithRSVP(true),
		)
	}
	return cal
}
