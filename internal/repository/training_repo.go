package repository

import (
	"context"

	"gorm.io/gorm"

	"vms/backend/internal/model"
)

// TrainingRepository 培训课程数据访问接口
type TrainingRepository interface {
	Create(ctx context.Context, training *model.Training) error
	GetByID(ctx context.Context, id string) (*model.Training, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Training, error)
	List(ctx context.Context, includeInactive bool) ([]model.Training, error)
	Update(ctx context.Context, training *model.Training) error
	Delete(ctx context.Context, id string) error
}

// TrainingEnrollmentRepository 培训分配数据访问接口
type TrainingEnrollmentRepository interface {
	BatchCreate(ctx context.Context, enrollments []model.TrainingEnrollment) error
	GetByVisitorAndTraining(ctx context.Context, visitorID, trainingID string) (*model.TrainingEnrollment, error)
	ListByVisitor(ctx context.Context, visitorID string) ([]model.TrainingEnrollment, error)
	Update(ctx context.Context, enrollment *model.TrainingEnrollment) error
}

// ── Training Repository 实现 ──

type trainingRepo struct {
	db *gorm.DB
}

func NewTrainingRepo(db *gorm.DB) TrainingRepository {
	return &trainingRepo{db: db}
}

func (r *trainingRepo) Create(ctx context.Context, training *model.Training) error {
	return r.db.WithContext(ctx).Create(training).Error
}

func (r *trainingRepo) GetByID(ctx context.Context, id string) (*model.Training, error) {
	var training model.Training
	err := r.db.WithContext(ctx).
		Where("training_id = ?", id).
		First(&training).Error
	if err != nil {
		return nil, err
	}
	return &training, nil
}

func (r *trainingRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Training, error) {
	var trainings []model.Training
	if len(ids) == 0 {
		return trainings, nil
	}
	err := r.db.WithContext(ctx).
		Where("training_id IN ?", ids).
		Find(&trainings).Error
	return trainings, err
}

func (r *trainingRepo) List(ctx context.Context, includeInactive bool) ([]model.Training, error) {
	var trainings []model.Training
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("created_at ASC").Find(&trainings).Error
	return trainings, err
}

func (r *trainingRepo) Update(ctx context.Context, training *model.Training) error {
	return r.db.WithContext(ctx).Save(training).Error
}

func (r *trainingRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("training_id = ?", id).
		Delete(&model.Training{}).Error
}

// ── TrainingEnrollment Repository 实现 ──

type trainingEnrollmentRepo struct {
	db *gorm.DB
}

func NewTrainingEnrollmentRepo(db *gorm.DB) TrainingEnrollmentRepository {
	return &trainingEnrollmentRepo{db: db}
}

func (r *trainingEnrollmentRepo) BatchCreate(ctx context.Context, enrollments []model.TrainingEnrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&enrollments).Error
}

func (r *trainingEnrollmentRepo) GetByVisitorAndTraining(ctx context.Context, visitorID, trainingID string) (*model.TrainingEnrollment, error) {
	var enrollment model.TrainingEnrollment
	err := r.db.WithContext(ctx).
		Preload("Training").
		Where("visitor_id = ? AND training_id = ?", visitorID, trainingID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByVisitor 返回访客的全部培训分配，预加载课程（含已软删除课程）
func (r *trainingEnrollmentRepo) ListByVisitor(ctx context.Context, visitorID string) ([]model.TrainingEnrollment, error) {
	var enrollments []model.TrainingEnrollment
	err := r.db.WithContext(ctx).
		Preload("Training", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("visitor_id = ?", visitorID).
		Order("created_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *trainingEnrollmentRepo) Update(ctx context.Context, enrollment *model.TrainingEnrollment) error {
	return r.db.WithContext(ctx).
		Model(&model.TrainingEnrollment{}).
		Where("enrollment_id = ?", enrollment.EnrollmentID).
		Updates(map[string]interface{}{
			"score":        enrollment.Score,
			"attempts":     enrollment.Attempts,
			"passed":       enrollment.Passed,
			"completed_at": enrollment.CompletedAt,
			"updated_by":   enrollment.UpdatedBy,
		}).Error
}
