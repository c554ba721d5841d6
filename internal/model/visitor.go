package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VisitorCategory 访客类别
type VisitorCategory string

const (
	CategoryVisitor    VisitorCategory = "visitor"
	CategoryContractor VisitorCategory = "contractor"
)

// Valid 判断类别是否合法
func (c VisitorCategory) Valid() bool {
	return c == CategoryVisitor || c == CategoryContractor
}

// VisitorStatus 访客状态
// pending → approved | cancelled；approved → checked_in；checked_in → checked_out
type VisitorStatus string

const (
	StatusPending    VisitorStatus = "pending"
	StatusApproved   VisitorStatus = "approved"
	StatusCancelled  VisitorStatus = "cancelled"
	StatusCheckedIn  VisitorStatus = "checked_in"
	StatusCheckedOut VisitorStatus = "checked_out"
)

// Valid 判断状态是否合法
func (s VisitorStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCancelled, StatusCheckedIn, StatusCheckedOut:
		return true
	}
	return false
}

// Terminal 是否为终态
func (s VisitorStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCheckedOut
}

// VisitorAction 访客状态流转动作
type VisitorAction string

const (
	ActionApprove  VisitorAction = "approve"
	ActionReject   VisitorAction = "reject"
	ActionCheckIn  VisitorAction = "check_in"
	ActionCheckOut VisitorAction = "check_out"
	// ActionRegister 仅用于状态日志，记录创建
	ActionRegister VisitorAction = "register"
)

// HazardRecord 承包商作业危险源（自由格式）
type HazardRecord struct {
	Name     string `json:"name"`
	Severity string `json:"severity,omitempty"` // low | medium | high
	Controls string `json:"controls,omitempty"`
}

// PPERecord 承包商个人防护装备
type PPERecord struct {
	Item     string `json:"item"`
	Required bool   `json:"required"`
	Notes    string `json:"notes,omitempty"`
}

// Visitor 访客/承包商到访记录，对应 visitors
type Visitor struct {
	VisitorID         string                           `gorm:"size:36;primaryKey"                          json:"visitor_id"`
	Category          VisitorCategory                  `gorm:"type:varchar(20);not null;default:'visitor'" json:"category"`
	Status            VisitorStatus                    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	FullName          string                           `gorm:"type:varchar(100);not null"                  json:"full_name"`
	Email             string                           `gorm:"type:varchar(255)"                           json:"email,omitempty"`
	Phone             string                           `gorm:"type:varchar(30)"                            json:"phone,omitempty"`
	Company           string                           `gorm:"type:varchar(200)"                           json:"company,omitempty"`
	Purpose           string                           `gorm:"type:varchar(500)"                           json:"purpose,omitempty"`
	HostID            string                           `gorm:"size:36;not null;index"                      json:"host_id"`
	ScheduledAt       *time.Time                       `json:"scheduled_at,omitempty"`
	ExpectedMinutes   int                              `gorm:"not null;default:60"                         json:"expected_minutes"`
	AccessCode        string                           `gorm:"type:varchar(16);not null;uniqueIndex"       json:"access_code"`
	TrainingCompleted bool                             `gorm:"not null;default:false"                      json:"training_completed"`
	CheckInTime       *time.Time                       `json:"check_in_time,omitempty"`
	CheckOutTime      *time.Time                       `json:"check_out_time,omitempty"`
	ApprovedBy        *string                          `gorm:"size:36"                                     json:"approved_by,omitempty"`
	ApprovedAt        *time.Time                       `json:"approved_at,omitempty"`
	RejectReason      string                           `gorm:"type:varchar(500)"                           json:"reject_reason,omitempty"`
	Hazards           datatypes.JSONSlice[HazardRecord] `json:"hazards,omitempty"`
	PPE               datatypes.JSONSlice[PPERecord]    `gorm:"column:ppe"                                  json:"ppe,omitempty"`
	VersionedModel

	// 关联
	Host      *User             `gorm:"foreignKey:HostID;references:UserID"       json:"host,omitempty"`
	Documents []VisitorDocument `gorm:"foreignKey:VisitorID;references:VisitorID" json:"documents,omitempty"`
}

// TableName 指定表名
func (Visitor) TableName() string { return "visitors" }

// BeforeCreate 未指定主键时生成 UUID
func (v *Visitor) BeforeCreate(_ *gorm.DB) error {
	if v.VisitorID == "" {
		v.VisitorID = uuid.NewString()
	}
	return nil
}

// IsContractor 是否为承包商
func (v *Visitor) IsContractor() bool {
	return v.Category == CategoryContractor
}

// VisitorDocument 访客上传文件元数据，对应 visitor_documents
type VisitorDocument struct {
	DocumentID   string     `gorm:"size:36;primaryKey"         json:"document_id"`
	VisitorID    string     `gorm:"size:36;not null;index"     json:"visitor_id"`
	DocumentType string     `gorm:"type:varchar(50);not null"  json:"document_type"` // insurance | permit | identity | method_statement | other
	FileName     string     `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType  string     `gorm:"type:varchar(100)"          json:"content_type,omitempty"`
	SizeBytes    int64      `gorm:"not null;default:0"         json:"size_bytes"`
	StorageKey   string     `gorm:"type:varchar(500);not null" json:"storage_key"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (VisitorDocument) TableName() string { return "visitor_documents" }

// BeforeCreate 未指定主键时生成 UUID
func (d *VisitorDocument) BeforeCreate(_ *gorm.DB) error {
	if d.DocumentID == "" {
		d.DocumentID = uuid.NewString()
	}
	return nil
}

// VisitorStatusLog 访客状态变更日志，对应 visitor_status_logs（只追加）
type VisitorStatusLog struct {
	LogID      string        `gorm:"size:36;primaryKey"             json:"log_id"`
	VisitorID  string        `gorm:"size:36;not null;index"         json:"visitor_id"`
	Action     VisitorAction `gorm:"type:varchar(20);not null"      json:"action"`
	FromStatus VisitorStatus `gorm:"type:varchar(20)"               json:"from_status,omitempty"`
	ToStatus   VisitorStatus `gorm:"type:varchar(20);not null"      json:"to_status"`
	ActorID    *string       `gorm:"size:36"                        json:"actor_id,omitempty"`
	ActorRole  Role          `gorm:"type:varchar(20)"               json:"actor_role,omitempty"`
	Note       string        `gorm:"type:varchar(500)"              json:"note,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (VisitorStatusLog) TableName() string { return "visitor_status_logs" }

// BeforeCreate 未指定主键时生成 UUID
func (l *VisitorStatusLog) BeforeCreate(_ *gorm.DB) error {
	if l.LogID == "" {
		l.LogID = uuid.NewString()
	}
	return nil
}
