package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Training 安全培训课程，对应 trainings
type Training struct {
	TrainingID    string `gorm:"size:36;primaryKey"          json:"training_id"`
	Title         string `gorm:"type:varchar(200);not null"  json:"title"`
	Description   string `gorm:"type:text"                   json:"description,omitempty"`
	ContentURL    string `gorm:"type:varchar(500)"           json:"content_url,omitempty"`
	RequiredScore int    `gorm:"not null;default:80"         json:"required_score"` // 0-100
	IsActive      bool   `gorm:"not null;default:true"       json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Training) TableName() string { return "trainings" }

// BeforeCreate 未指定主键时生成 UUID
func (t *Training) BeforeCreate(_ *gorm.DB) error {
	if t.TrainingID == "" {
		t.TrainingID = uuid.NewString()
	}
	return nil
}

// TrainingEnrollment 培训分配与成绩，对应 training_enrollments
type TrainingEnrollment struct {
	EnrollmentID string     `gorm:"size:36;primaryKey"                                    json:"enrollment_id"`
	TrainingID   string     `gorm:"size:36;not null;uniqueIndex:uk_enrollment_visitor_training" json:"training_id"`
	VisitorID    string     `gorm:"size:36;not null;uniqueIndex:uk_enrollment_visitor_training;index" json:"visitor_id"`
	Score        *int       `json:"score,omitempty"` // 最近一次成绩，nil 表示未作答
	Attempts     int        `gorm:"not null;default:0"                                    json:"attempts"`
	Passed       bool       `gorm:"not null;default:false"                                json:"passed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	BaseModel

	// 关联
	Training *Training `gorm:"foreignKey:TrainingID;references:TrainingID" json:"training,omitempty"`
}

// TableName 指定表名
func (TrainingEnrollment) TableName() string { return "training_enrollments" }

// BeforeCreate 未指定主键时生成 UUID
func (e *TrainingEnrollment) BeforeCreate(_ *gorm.DB) error {
	if e.EnrollmentID == "" {
		e.EnrollmentID = uuid.NewString()
	}
	return nil
}

// Satisfied 按课程当前及格线判断本条分配是否已通过
func (e *TrainingEnrollment) Satisfied() bool {
	if e.Training == nil || e.Score == nil {
		return false
	}
	return *e.Score >= e.Training.RequiredScore
}
