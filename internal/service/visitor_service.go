package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vms/backend/config"
	"vms/backend/internal/dto"
	"vms/backend/internal/model"
	"vms/backend/internal/notify"
	"vms/backend/internal/repository"
	pkgerrors "vms/backend/pkg/errors"
)

// ── 访客模块业务错误 ──

var (
	ErrVisitorNotFound           = errors.New("访客记录不存在")
	ErrVisitorStatusConflict     = errors.New("访客记录已被其他操作变更，请刷新后重试")
	ErrHostNotFound              = errors.New("接待人不存在或已停用")
	ErrContractorFieldsOnVisitor = errors.New("普通访客不能填写危险源或防护装备")
	ErrVisitorNotEditable        = errors.New("访客已入场或流程已结束，不能修改")
	ErrSelfRegistrationDisabled  = errors.New("自助登记功能未开放")
	ErrKioskDisabled             = errors.New("自助终端功能未开放")
	ErrAccessCodeInvalid         = errors.New("访问码无效")
)

// EventDispatcher 访客事件通知（异步，失败不回滚业务）
type EventDispatcher interface {
	Dispatch(event notify.Event, visitor *model.Visitor)
}

// VisitorService 访客业务接口
type VisitorService interface {
	Register(ctx context.Context, req *dto.RegisterVisitorRequest) (*dto.VisitorResponse, error)
	PreSchedule(ctx context.Context, req *dto.RegisterVisitorRequest, actor Actor) (*dto.VisitorResponse, error)
	GetByID(ctx context.Context, id string) (*dto.VisitorResponse, error)
	List(ctx context.Context, req *dto.VisitorListRequest) ([]dto.VisitorResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateVisitorRequest, actor Actor) (*dto.VisitorResponse, error)
	Approve(ctx context.Context, id string, actor Actor) (*dto.VisitorResponse, error)
	Reject(ctx context.Context, id string, reason string, actor Actor) (*dto.VisitorResponse, error)
	CheckIn(ctx context.Context, id string, actor Actor) (*dto.VisitorResponse, error)
	CheckOut(ctx context.Context, id string, actor Actor) (*dto.VisitorResponse, error)
	KioskCheckIn(ctx context.Context, accessCode string) (*dto.KioskResponse, error)
	KioskCheckOut(ctx context.Context, accessCode string) (*dto.KioskResponse, error)
	History(ctx context.Context, id string) ([]dto.StatusLogResponse, error)
}

type visitorService struct {
	repo     *repository.Repository
	gate     TrainingGate
	notifier EventDispatcher
	features config.FeatureConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewVisitorService 创建 VisitorService 实例
func NewVisitorService(
	repo *repository.Repository,
	gate TrainingGate,
	notifier EventDispatcher,
	features config.FeatureConfig,
	logger *zap.Logger,
) VisitorService {
	return &visitorService{
		repo:     repo,
		gate:     gate,
		notifier: notifier,
		features: features,
		logger:   logger,
		now:      time.Now,
	}
}

var actionEvents = map[model.VisitorAction]notify.Event{
	model.ActionApprove:  notify.EventVisitorApproved,
	model.ActionReject:   notify.EventVisitorRejected,
	model.ActionCheckIn:  notify.EventVisitorCheckedIn,
	model.ActionCheckOut: notify.EventVisitorCheckedOut,
}

// ────────────────────── Register ──────────────────────

func (s *visitorService) Register(ctx context.Context, req *dto.RegisterVisitorRequest) (*dto.VisitorResponse, error) {
	if !s.features.SelfRegistrationOn {
		return nil, ErrSelfRegistrationDisabled
	}

	visitor, err := s.buildVisitor(ctx, req)
	if err != nil {
		return nil, err
	}
	visitor.Status = model.StatusPending

	if err := s.create(ctx, visitor, Actor{Role: model.RoleVisitor}); err != nil {
		return nil, err
	}

	s.notifier.Dispatch(notify.EventVisitorRegistered, visitor)
	return toVisitorResponse(visitor), nil
}

// ────────────────────── PreSchedule ──────────────────────

// PreSchedule 员工代为预约；开启自动审批时直接进入 approved
func (s *visitorService) PreSchedule(ctx context.Context, req *dto.RegisterVisitorRequest, actor Actor) (*dto.VisitorResponse, error) {
	setting, err := s.repo.SystemSetting.Get(ctx)
	if err != nil {
		s.logger.Error("读取系统设置失败", zap.Error(err))
		return nil, err
	}

	visitor, err := s.buildVisitor(ctx, req)
	if err != nil {
		return nil, err
	}
	visitor.CreatedBy = actor.idPtr()
	visitor.UpdatedBy = actor.idPtr()

	event := notify.EventVisitorRegistered
	if setting.AutoApprovePrescheduled {
		now := s.now()
		visitor.Status = model.StatusApproved
		visitor.ApprovedBy = actor.idPtr()
		visitor.ApprovedAt = &now
		event = notify.EventVisitorApproved
	} else {
		visitor.Status = model.StatusPending
	}

	if err := s.create(ctx, visitor, actor); err != nil {
		return nil, err
	}

	s.notifier.Dispatch(event, visitor)
	return toVisitorResponse(visitor), nil
}

// buildVisitor 校验登记请求并构造模型（不含状态）
func (s *visitorService) buildVisitor(ctx context.Context, req *dto.RegisterVisitorRequest) (*model.Visitor, error) {
	category := model.VisitorCategory(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("未知访客类别: %s", req.Category)
	}
	if category == model.CategoryVisitor && (len(req.Hazards) > 0 || len(req.PPE) > 0) {
		return nil, ErrContractorFieldsOnVisitor
	}

	host, err := s.loadHost(ctx, req.HostID)
	if err != nil {
		return nil, err
	}

	minutes := req.ExpectedMinutes
	if minutes <= 0 {
		minutes = 60
	}

	return &model.Visitor{
		Category:        category,
		FullName:        strings.TrimSpace(req.FullName),
		Email:           req.Email,
		Phone:           req.Phone,
		Company:         req.Company,
		Purpose:         req.Purpose,
		HostID:          host.UserID,
		Host:            host,
		ScheduledAt:     req.ScheduledAt,
		ExpectedMinutes: minutes,
		Hazards:         hazardsFromDTO(req.Hazards),
		PPE:             ppeFromDTO(req.PPE),
	}, nil
}

func (s *visitorService) loadHost(ctx context.Context, hostID string) (*model.User, error) {
	host, err := s.repo.User.GetByID(ctx, hostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHostNotFound
		}
		s.logger.Error("查询接待人失败", zap.String("host_id", hostID), zap.Error(err))
		return nil, err
	}
	if !host.IsActive {
		return nil, ErrHostNotFound
	}
	return host, nil
}

// create 生成访问码并在同一事务内写入访客与首条状态日志
func (s *visitorService) create(ctx context.Context, visitor *model.Visitor, actor Actor) error {
	code, err := s.uniqueAccessCode(ctx)
	if err != nil {
		s.logger.Error("生成访问码失败", zap.Error(err))
		return err
	}
	visitor.AccessCode = code

	host := visitor.Host
	visitor.Host = nil // 避免 gorm 级联写入关联

	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Visitor.Create(ctx, visitor); err != nil {
			return err
		}
		return tx.VisitorStatusLog.Create(ctx, &model.VisitorStatusLog{
			VisitorID: visitor.VisitorID,
			Action:    model.ActionRegister,
			ToStatus:  visitor.Status,
			ActorID:   actor.idPtr(),
			ActorRole: actor.Role,
		})
	})
	visitor.Host = host
	if err != nil {
		s.logger.Error("创建访客失败", zap.Error(err))
		return err
	}

	s.logger.Info("访客已登记",
		zap.String("visitor_id", visitor.VisitorID),
		zap.String("category", string(visitor.Category)),
		zap.String("status", string(visitor.Status)),
	)
	return nil
}

const accessCodeRetries = 5

func (s *visitorService) uniqueAccessCode(ctx context.Context) (string, error) {
	for i := 0; i < accessCodeRetries; i++ {
		code, err := generateAccessCode(8)
		if err != nil {
			return "", err
		}
		_, err = s.repo.Visitor.GetByAccessCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("连续 %d 次生成的访问码均已被占用", accessCodeRetries)
}

const accessCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateAccessCode 生成 n 位大写字母数字访问码（排除易混淆的 0/O/1/I）
func generateAccessCode(n int) (string, error) {
	var sb strings.Builder
	alphaLen := big.NewInt(int64(len(accessCodeCharset)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(accessCodeCharset[num.Int64()])
	}
	return sb.String(), nil
}

var accessCodeSeparators = strings.NewReplacer("-", "", " ", "")

// normalizeAccessCode 兼容 XXXX-XXXX、空格分组与小写输入
func normalizeAccessCode(raw string) string {
	return accessCodeSeparators.Replace(strings.ToUpper(strings.TrimSpace(raw)))
}

// ────────────────────── GetByID / List ──────────────────────

func (s *visitorService) GetByID(ctx context.Context, id string) (*dto.VisitorResponse, error) {
	visitor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toVisitorResponse(visitor), nil
}

func (s *visitorService) List(ctx context.Context, req *dto.VisitorListRequest) ([]dto.VisitorResponse, int64, error) {
	filter := repository.VisitorFilter{
		Status:   req.Status,
		Category: req.Category,
		HostID:   req.HostID,
		Keyword:  req.Keyword,
		From:     req.From,
		Offset:   req.GetOffset(),
		Limit:    req.GetPageSize(),
	}
	if req.To != nil {
		// 结束日期按整天包含
		end := req.To.AddDate(0, 0, 1)
		filter.To = &end
	}

	visitors, total, err := s.repo.Visitor.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出访客失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.VisitorResponse, 0, len(visitors))
	for i := range visitors {
		result = append(result, *toVisitorResponse(&visitors[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *visitorService) Update(ctx context.Context, id string, req *dto.UpdateVisitorRequest, actor Actor) (*dto.VisitorResponse, error) {
	visitor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if visitor.Status != model.StatusPending && visitor.Status != model.StatusApproved {
		return nil, ErrVisitorNotEditable
	}
	if !visitor.IsContractor() && (len(req.Hazards) > 0 || len(req.PPE) > 0) {
		return nil, ErrContractorFieldsOnVisitor
	}

	if req.FullName != nil {
		visitor.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		visitor.Email = *req.Email
	}
	if req.Phone != nil {
		visitor.Phone = *req.Phone
	}
	if req.Company != nil {
		visitor.Company = *req.Company
	}
	if req.Purpose != nil {
		visitor.Purpose = *req.Purpose
	}
	if req.HostID != nil && *req.HostID != visitor.HostID {
		host, err := s.loadHost(ctx, *req.HostID)
		if err != nil {
			return nil, err
		}
		visitor.HostID = host.UserID
		visitor.Host = host
	}
	if req.ScheduledAt != nil {
		visitor.ScheduledAt = req.ScheduledAt
	}
	if req.ExpectedMinutes != nil {
		visitor.ExpectedMinutes = *req.ExpectedMinutes
	}
	if req.Hazards != nil {
		visitor.Hazards = hazardsFromDTO(req.Hazards)
	}
	if req.PPE != nil {
		visitor.PPE = ppeFromDTO(req.PPE)
	}
	visitor.UpdatedBy = actor.idPtr()

	if err := s.repo.Visitor.Update(ctx, visitor); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrVisitorStatusConflict
		}
		s.logger.Error("更新访客失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toVisitorResponse(visitor), nil
}

// ────────────────────── 状态流转 ──────────────────────

func (s *visitorService) Approve(ctx context.Context, id string, actor Actor) (*dto.VisitorResponse, error) {
	return s.transitionByID(ctx, id, model.ActionApprove, actor, "")
}

func (s *visitorService) Reject(ctx context.Context, id string, reason string, actor Actor) (*dto.VisitorResponse, error) {
	return s.transitionByID(ctx, id, model.ActionReject, actor, reason)
}

func (s *visitorService) CheckIn(ctx context.Context, id string, actor Actor) (*dto.VisitorResponse, error) {
	return s.transitionByID(ctx, id, model.ActionCheckIn, actor, "")
}

func (s *visitorService) CheckOut(ctx context.Context, id string, actor Actor) (*dto.VisitorResponse, error) {
	return s.transitionByID(ctx, id, model.ActionCheckOut, actor, "")
}

func (s *visitorService) KioskCheckIn(ctx context.Context, accessCode string) (*dto.KioskResponse, error) {
	return s.kioskTransition(ctx, accessCode, model.ActionCheckIn)
}

func (s *visitorService) KioskCheckOut(ctx context.Context, accessCode string) (*dto.KioskResponse, error) {
	return s.kioskTransition(ctx, accessCode, model.ActionCheckOut)
}

func (s *visitorService) transitionByID(ctx context.Context, id string, action model.VisitorAction, actor Actor, note string) (*dto.VisitorResponse, error) {
	visitor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.applyTransition(ctx, visitor, action, actor, note)
	if err != nil {
		return nil, err
	}
	return toVisitorResponse(next), nil
}

func (s *visitorService) kioskTransition(ctx context.Context, accessCode string, action model.VisitorAction) (*dto.KioskResponse, error) {
	if !s.features.KioskEnabled {
		return nil, ErrKioskDisabled
	}

	visitor, err := s.repo.Visitor.GetByAccessCode(ctx, normalizeAccessCode(accessCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccessCodeInvalid
		}
		s.logger.Error("按访问码查询访客失败", zap.Error(err))
		return nil, err
	}

	next, err := s.applyTransition(ctx, visitor, action, Actor{Role: model.RoleVisitor}, "kiosk")
	if err != nil {
		return nil, err
	}
	return toKioskResponse(next), nil
}

// applyTransition 计算 → 条件更新 → 写日志 → 异步通知
func (s *visitorService) applyTransition(
	ctx context.Context,
	current *model.Visitor,
	action model.VisitorAction,
	actor Actor,
	note string,
) (*model.Visitor, error) {
	setting, err := s.repo.SystemSetting.Get(ctx)
	if err != nil {
		s.logger.Error("读取系统设置失败", zap.Error(err))
		return nil, err
	}

	// 签到前按最新培训成绩刷新完成标记；与库中不一致时先回写，签到被拦截也不留旧值
	if action == model.ActionCheckIn && current.IsContractor() && setting.TrainingRequired {
		ok, err := s.gate.IsTrainingSatisfied(ctx, current.VisitorID, true)
		if err != nil {
			s.logger.Error("培训完成度校验失败", zap.String("visitor_id", current.VisitorID), zap.Error(err))
			return nil, err
		}
		if ok != current.TrainingCompleted {
			if err := s.repo.Visitor.UpdateTrainingCompleted(ctx, current.VisitorID, ok); err != nil {
				s.logger.Error("回写培训完成标记失败", zap.String("visitor_id", current.VisitorID), zap.Error(err))
				return nil, err
			}
		}
		refreshed := *current
		refreshed.TrainingCompleted = ok
		current = &refreshed
	}

	next, err := Transition(current, action, TransitionContext{
		ActorID:          actor.ID,
		ActorRole:        actor.Role,
		Now:              s.now(),
		TrainingRequired: setting.TrainingRequired,
	})
	if err != nil {
		return nil, err
	}
	if action == model.ActionReject {
		next.RejectReason = note
	}
	next.UpdatedBy = actor.idPtr()

	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Visitor.UpdateStatus(ctx, next, current.Status); err != nil {
			return err
		}
		return tx.VisitorStatusLog.Create(ctx, &model.VisitorStatusLog{
			VisitorID:  next.VisitorID,
			Action:     action,
			FromStatus: current.Status,
			ToStatus:   next.Status,
			ActorID:    actor.idPtr(),
			ActorRole:  actor.Role,
			Note:       note,
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStatusConflict) {
			return nil, ErrVisitorStatusConflict
		}
		s.logger.Error("持久化访客状态失败",
			zap.String("visitor_id", current.VisitorID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("访客状态变更",
		zap.String("visitor_id", next.VisitorID),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.String("actor_role", string(actor.Role)),
	)

	s.notifier.Dispatch(actionEvents[action], next)
	return next, nil
}

// ────────────────────── History ──────────────────────

func (s *visitorService) History(ctx context.Context, id string) ([]dto.StatusLogResponse, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	logs, err := s.repo.VisitorStatusLog.ListByVisitor(ctx, id)
	if err != nil {
		s.logger.Error("查询状态日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.StatusLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toStatusLogResponse(&logs[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *visitorService) load(ctx context.Context, id string) (*model.Visitor, error) {
	visitor, err := s.repo.Visitor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		s.logger.Error("查询访客失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return visitor, nil
}
