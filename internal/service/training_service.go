package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

// ── 培训模块业务错误 ──

var (
	ErrTrainingNotFound      = errors.New("培训课程不存在")
	ErrTrainingInactive      = errors.New("培训课程已停用")
	ErrTrainingNotForVisitor = errors.New("仅承包商需要分配安全培训")
	ErrEnrollmentNotFound    = errors.New("该承包商未分配此培训")
)

// TrainingService 培训业务接口
type TrainingService interface {
	Create(ctx context.Context, req *dto.CreateTrainingRequest, callerID string) (*dto.TrainingResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TrainingResponse, error)
	List(ctx context.Context, req *dto.TrainingListRequest) ([]dto.TrainingResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTrainingRequest, callerID string) (*dto.TrainingResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	Assign(ctx context.Context, visitorID string, req *dto.AssignTrainingRequest, callerID string) (*dto.TrainingStatusResponse, error)
	SubmitScore(ctx context.Context, visitorID, trainingID string, score int, actor Actor) (*dto.TrainingStatusResponse, error)
	Status(ctx context.Context, visitorID string) (*dto.TrainingStatusResponse, error)
}

type trainingService struct {
	repo   *repository.Repository
	gate   TrainingGate
	logger *zap.Logger
	now    func() time.Time
}

// NewTrainingService 创建 TrainingService 实例
func NewTrainingService(repo *repository.Repository, gate TrainingGate, logger *zap.Logger) TrainingService {
	return &trainingService{repo: repo, gate: gate, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *trainingService) Create(ctx context.Context, req *dto.CreateTrainingRequest, callerID string) (*dto.TrainingResponse, error) {
	training := &model.Training{
		Title:         req.Title,
		Description:   req.Description,
		ContentURL:    req.ContentURL,
		RequiredScore: 80,
		IsActive:      true,
	}
	if req.RequiredScore != nil {
		training.RequiredScore = *req.RequiredScore
	}
	training.CreatedBy = &callerID
	training.UpdatedBy = &callerID

	if err := s.repo.Training.Create(ctx, training); err != nil {
		s.logger.Error("创建培训课程失败", zap.Error(err))
		return nil, err
	}

	return toTrainingResponse(training), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *trainingService) GetByID(ctx context.Context, id string) (*dto.TrainingResponse, error) {
	training, err := s.loadTraining(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTrainingResponse(training), nil
}

func (s *trainingService) List(ctx context.Context, req *dto.TrainingListRequest) ([]dto.TrainingResponse, error) {
	trainings, err := s.repo.Training.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出培训课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TrainingResponse, 0, len(trainings))
	for i := range trainings {
		result = append(result, *toTrainingResponse(&trainings[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *trainingService) Update(ctx context.Context, id string, req *dto.UpdateTrainingRequest, callerID string) (*dto.TrainingResponse, error) {
	training, err := s.loadTraining(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		training.Title = *req.Title
	}
	if req.Description != nil {
		training.Description = *req.Description
	}
	if req.ContentURL != nil {
		training.ContentURL = *req.ContentURL
	}
	if req.RequiredScore != nil {
		training.RequiredScore = *req.RequiredScore
	}
	if req.IsActive != nil {
		training.IsActive = *req.IsActive
	}
	training.UpdatedBy = &callerID

	if err := s.repo.Training.Update(ctx, training); err != nil {
		s.logger.Error("更新培训课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toTrainingResponse(training), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除课程；已分配记录保留，判定时自动忽略
func (s *trainingService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.loadTraining(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Training.Delete(ctx, id); err != nil {
		s.logger.Error("删除培训课程失败", zap.String("id", id), zap.String("caller", callerID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Assign ──────────────────────

// Assign 为承包商分配培训，已分配的课程跳过
func (s *trainingService) Assign(ctx context.Context, visitorID string, req *dto.AssignTrainingRequest, callerID string) (*dto.TrainingStatusResponse, error) {
	visitor, err := s.loadContractor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if visitor.Status.Terminal() {
		return nil, ErrVisitorNotEditable
	}

	trainings, err := s.repo.Training.GetByIDs(ctx, req.TrainingIDs)
	if err != nil {
		s.logger.Error("查询培训课程失败", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]*model.Training, len(trainings))
	for i := range trainings {
		byID[trainings[i].TrainingID] = &trainings[i]
	}

	existing, err := s.repo.TrainingEnrollment.ListByVisitor(ctx, visitorID)
	if err != nil {
		s.logger.Error("查询培训分配失败", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil, err
	}
	assigned := make(map[string]bool, len(existing))
	for _, e := range existing {
		assigned[e.TrainingID] = true
	}

	var toCreate []model.TrainingEnrollment
	for _, tid := range req.TrainingIDs {
		t, ok := byID[tid]
		if !ok {
			return nil, ErrTrainingNotFound
		}
		if !t.IsActive {
			return nil, ErrTrainingInactive
		}
		if assigned[tid] {
			continue
		}
		assigned[tid] = true
		e := model.TrainingEnrollment{TrainingID: tid, VisitorID: visitorID}
		e.CreatedBy = &callerID
		toCreate = append(toCreate, e)
	}

	if err := s.repo.TrainingEnrollment.BatchCreate(ctx, toCreate); err != nil {
		s.logger.Error("分配培训失败", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil, err
	}

	return s.recompute(ctx, visitor)
}

// ────────────────────── SubmitScore ──────────────────────

// SubmitScore 记录一次作答成绩并刷新访客的培训完成标记
func (s *trainingService) SubmitScore(ctx context.Context, visitorID, trainingID string, score int, actor Actor) (*dto.TrainingStatusResponse, error) {
	visitor, err := s.loadContractor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if visitor.Status.Terminal() {
		return nil, ErrVisitorNotEditable
	}

	enrollment, err := s.repo.TrainingEnrollment.GetByVisitorAndTraining(ctx, visitorID, trainingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询培训分配失败", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil, err
	}
	if enrollment.Training == nil || !enrollment.Training.IsActive {
		return nil, ErrTrainingInactive
	}

	enrollment.Score = &score
	enrollment.Attempts++
	enrollment.Passed = score >= enrollment.Training.RequiredScore
	if enrollment.Passed && enrollment.CompletedAt == nil {
		now := s.now()
		enrollment.CompletedAt = &now
	}
	enrollment.UpdatedBy = actor.idPtr()

	if err := s.repo.TrainingEnrollment.Update(ctx, enrollment); err != nil {
		s.logger.Error("记录培训成绩失败", zap.String("visitor_id", visitorID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("培训成绩已记录",
		zap.String("visitor_id", visitorID),
		zap.String("training_id", trainingID),
		zap.Int("score", score),
		zap.Bool("passed", enrollment.Passed),
	)

	return s.recompute(ctx, visitor)
}

// ────────────────────── Status ──────────────────────

func (s *trainingService) Status(ctx context.Context, visitorID string) (*dto.TrainingStatusResponse, error) {
	visitor, err := s.loadVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	return s.buildStatus(ctx, visitor)
}

// ── 内部辅助方法 ──

// recompute 按判定结果回写 training_completed，再返回最新进度
func (s *trainingService) recompute(ctx context.Context, visitor *model.Visitor) (*dto.TrainingStatusResponse, error) {
	ok, err := s.gate.IsTrainingSatisfied(ctx, visitor.VisitorID, true)
	if err != nil {
		s.logger.Error("培训完成度校验失败", zap.String("visitor_id", visitor.VisitorID), zap.Error(err))
		return nil, err
	}
	if ok != visitor.TrainingCompleted {
		if err := s.repo.Visitor.UpdateTrainingCompleted(ctx, visitor.VisitorID, ok); err != nil {
			s.logger.Error("更新培训完成标记失败", zap.String("visitor_id", visitor.VisitorID), zap.Error(err))
			return nil, err
		}
		visitor.TrainingCompleted = ok
	}
	return s.buildStatus(ctx, visitor)
}

func (s *trainingService) buildStatus(ctx context.Context, visitor *model.Visitor) (*dto.TrainingStatusResponse, error) {
	enrollments, err := s.repo.TrainingEnrollment.ListByVisitor(ctx, visitor.VisitorID)
	if err != nil {
		s.logger.Error("查询培训分配失败", zap.String("visitor_id", visitor.VisitorID), zap.Error(err))
		return nil, err
	}

	resp := &dto.TrainingStatusResponse{
		VisitorID:         visitor.VisitorID,
		TrainingCompleted: visitor.TrainingCompleted,
		Enrollments:       make([]dto.EnrollmentResponse, 0, len(enrollments)),
	}
	for i := range enrollments {
		e := &enrollments[i]
		item := dto.EnrollmentResponse{
			TrainingID:  e.TrainingID,
			Score:       e.Score,
			Attempts:    e.Attempts,
			Passed:      e.Satisfied(),
			CompletedAt: formatTimePtr(e.CompletedAt),
		}
		if e.Training != nil {
			item.Title = e.Training.Title
			item.RequiredScore = e.Training.RequiredScore
			item.Active = e.Training.IsActive && !e.Training.DeletedAt.Valid
		}
		resp.Enrollments = append(resp.Enrollments, item)
	}
	return resp, nil
}

func (s *trainingService) loadTraining(ctx context.Context, id string) (*model.Training, error) {
	training, err := s.repo.Training.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrainingNotFound
		}
		s.logger.Error("查询培训课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return training, nil
}

func (s *trainingService) loadVisitor(ctx context.Context, id string) (*model.Visitor, error) {
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

func (s *trainingService) loadContractor(ctx context.Context, id string) (*model.Visitor, error) {
	visitor, err := s.loadVisitor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visitor.IsContractor() {
		return nil, ErrTrainingNotForVisitor
	}
	return visitor, nil
}

func toTrainingResponse(t *model.Training) *dto.TrainingResponse {
	return &dto.TrainingResponse{
		ID:            t.TrainingID,
		Title:         t.Title,
		Description:   t.Description,
		ContentURL:    t.ContentURL,
		RequiredScore: t.RequiredScore,
		IsActive:      t.IsActive,
		CreatedAt:     formatTime(t.CreatedAt),
		UpdatedAt:     formatTime(t.UpdatedAt),
	}
}
