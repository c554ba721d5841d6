package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vms/backend/internal/model"
	pkgerrors "vms/backend/pkg/errors"
)

// VisitorFilter 访客列表过滤条件
type VisitorFilter struct {
	Status   string
	Category string
	HostID   string
	Keyword  string // 匹配姓名、公司或邮箱
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
}

// StatusCount 按状态统计结果
type StatusCount struct {
	Status model.VisitorStatus `json:"status"`
	Count  int64               `json:"count"`
}

// VisitorRepository 访客数据访问接口
type VisitorRepository interface {
	Create(ctx context.Context, visitor *model.Visitor) error
	GetByID(ctx context.Context, id string) (*model.Visitor, error)
	GetByAccessCode(ctx context.Context, code string) (*model.Visitor, error)
	List(ctx context.Context, filter VisitorFilter) ([]model.Visitor, int64, error)
	Update(ctx context.Context, visitor *model.Visitor) error
	UpdateStatus(ctx context.Context, visitor *model.Visitor, from model.VisitorStatus) error
	UpdateTrainingCompleted(ctx context.Context, id string, completed bool) error
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	CountCheckedInSince(ctx context.Context, since time.Time) (int64, error)
	CountOnSite(ctx context.Context, category model.VisitorCategory) (int64, error)
	ListForExport(ctx context.Context, from, to time.Time) ([]model.Visitor, error)
}

type visitorRepo struct {
	db *gorm.DB
}

// NewVisitorRepo 创建 VisitorRepository 实例
func NewVisitorRepo(db *gorm.DB) VisitorRepository {
	return &visitorRepo{db: db}
}

func (r *visitorRepo) Create(ctx context.Context, visitor *model.Visitor) error {
	return r.db.WithContext(ctx).Create(visitor).Error
}

func (r *visitorRepo) GetByID(ctx context.Context, id string) (*model.Visitor, error) {
	var visitor model.Visitor
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Documents").
		Where("visitor_id = ?", id).
		First(&visitor).Error
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *visitorRepo) GetByAccessCode(ctx context.Context, code string) (*model.Visitor, error) {
	var visitor model.Visitor
	err := r.db.WithContext(ctx).
		Preload("Host").
		Where("access_code = ?", code).
		First(&visitor).Error
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *visitorRepo) List(ctx context.Context, filter VisitorFilter) ([]model.Visitor, int64, error) {
	var visitors []model.Visitor
	var total int64

	db := r.applyFilter(r.db.WithContext(ctx).Model(&model.Visitor{}), filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Host").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&visitors).Error; err != nil {
		return nil, 0, err
	}

	return visitors, total, nil
}

func (r *visitorRepo) applyFilter(db *gorm.DB, filter VisitorFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.HostID != "" {
		db = db.Where("host_id = ?", filter.HostID)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("full_name LIKE ? OR company LIKE ? OR email LIKE ?", like, like, like)
	}
	if filter.From != nil {
		db = db.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("created_at < ?", *filter.To)
	}
	return db
}

// Update 更新访客资料（不含状态字段），带乐观锁
func (r *visitorRepo) Update(ctx context.Context, visitor *model.Visitor) error {
	oldVersion := visitor.Version
	result := r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Where("visitor_id = ? AND version = ?", visitor.VisitorID, oldVersion).
		Updates(map[string]interface{}{
			"full_name":        visitor.FullName,
			"email":            visitor.Email,
			"phone":            visitor.Phone,
			"company":          visitor.Company,
			"purpose":          visitor.Purpose,
			"host_id":          visitor.HostID,
			"scheduled_at":     visitor.ScheduledAt,
			"expected_minutes": visitor.ExpectedMinutes,
			"hazards":          visitor.Hazards,
			"ppe":              visitor.PPE,
			"updated_by":       visitor.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	visitor.Version = oldVersion + 1
	return nil
}

// UpdateStatus 条件更新状态相关字段
// 仅当库中状态仍为 from 时生效，否则返回 ErrStatusConflict
func (r *visitorRepo) UpdateStatus(ctx context.Context, visitor *model.Visitor, from model.VisitorStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Where("visitor_id = ? AND status = ?", visitor.VisitorID, from).
		Updates(map[string]interface{}{
			"status":             visitor.Status,
			"check_in_time":      visitor.CheckInTime,
			"check_out_time":     visitor.CheckOutTime,
			"approved_by":        visitor.ApprovedBy,
			"approved_at":        visitor.ApprovedAt,
			"reject_reason":      visitor.RejectReason,
			"training_completed": visitor.TrainingCompleted,
			"updated_by":         visitor.UpdatedBy,
			"version":            gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStatusConflict
	}
	visitor.Version++
	return nil
}

func (r *visitorRepo) UpdateTrainingCompleted(ctx context.Context, id string, completed bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Where("visitor_id = ?", id).
		Update("training_completed", completed).Error
}

func (r *visitorRepo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *visitorRepo) CountCheckedInSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Where("check_in_time >= ?", since).
		Count(&count).Error
	return count, err
}

// CountOnSite 统计当前在场（已签到未签退）人数，category 为空表示全部类别
func (r *visitorRepo) CountOnSite(ctx context.Context, category model.VisitorCategory) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Where("status = ?", model.StatusCheckedIn)
	if category != "" {
		db = db.Where("category = ?", category)
	}
	err := db.Count(&count).Error
	return count, err
}

// ListForExport 按登记时间区间 [from, to) 查询，不分页
func (r *visitorRepo) ListForExport(ctx context.Context, from, to time.Time) ([]model.Visitor, error) {
	var visitors []model.Visitor
	err := r.db.WithContext(ctx).
		Preload("Host").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&visitors).Error
	return visitors, err
}
