package dto

import "time"

// ── 访客模块 DTO ──

// HazardItem 承包商危险源
type HazardItem struct {
	Name     string `json:"name"     binding:"required,max=200"`
	Severity string `json:"severity" binding:"omitempty,oneof=low medium high"`
	Controls string `json:"controls" binding:"omitempty,max=500"`
}

// PPEItem 承包商个人防护装备
type PPEItem struct {
	Item     string `json:"item"     binding:"required,max=200"`
	Required bool   `json:"required"`
	Notes    string `json:"notes"    binding:"omitempty,max=500"`
}

// RegisterVisitorRequest 访客自助登记 / 员工预约请求
type RegisterVisitorRequest struct {
	Category        string       `json:"category"         binding:"required,oneof=visitor contractor"`
	FullName        string       `json:"full_name"        binding:"required,min=1,max=100"`
	Email           string       `json:"email"            binding:"omitempty,email"`
	Phone           string       `json:"phone"            binding:"omitempty,max=30"`
	Company         string       `json:"company"          binding:"omitempty,max=200"`
	Purpose         string       `json:"purpose"          binding:"omitempty,max=500"`
	HostID          string       `json:"host_id"          binding:"required,uuid"`
	ScheduledAt     *time.Time   `json:"scheduled_at"`
	ExpectedMinutes int          `json:"expected_minutes" binding:"omitempty,min=1,max=1440"`
	Hazards         []HazardItem `json:"hazards"          binding:"omitempty,dive"`
	PPE             []PPEItem    `json:"ppe"              binding:"omitempty,dive"`
}

// UpdateVisitorRequest 更新访客资料请求（不含状态）
type UpdateVisitorRequest struct {
	FullName        *string      `json:"full_name"        binding:"omitempty,min=1,max=100"`
	Email           *string      `json:"email"            binding:"omitempty,email"`
	Phone           *string      `json:"phone"            binding:"omitempty,max=30"`
	Company         *string      `json:"company"          binding:"omitempty,max=200"`
	Purpose         *string      `json:"purpose"          binding:"omitempty,max=500"`
	HostID          *string      `json:"host_id"          binding:"omitempty,uuid"`
	ScheduledAt     *time.Time   `json:"scheduled_at"`
	ExpectedMinutes *int         `json:"expected_minutes" binding:"omitempty,min=1,max=1440"`
	Hazards         []HazardItem `json:"hazards"          binding:"omitempty,dive"`
	PPE             []PPEItem    `json:"ppe"              binding:"omitempty,dive"`
}

// VisitorListRequest 访客列表查询参数
type VisitorListRequest struct {
	PaginationRequest
	Status   string     `form:"status"   binding:"omitempty,oneof=pending approved cancelled checked_in checked_out"`
	Category string     `form:"category" binding:"omitempty,oneof=visitor contractor"`
	HostID   string     `form:"host_id"  binding:"omitempty,uuid"`
	Keyword  string     `form:"keyword"  binding:"omitempty,max=50"`
	From     *time.Time `form:"from"     time_format:"2006-01-02"`
	To       *time.Time `form:"to"       time_format:"2006-01-02"`
}

// RejectVisitorRequest 拒绝请求
type RejectVisitorRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// KioskRequest 自助终端签到/签退请求
type KioskRequest struct {
	AccessCode string `json:"access_code" binding:"required,min=8,max=16"` // 允许分隔符与空格，归一化后再校验
}

// VisitorResponse 访客详情响应
type VisitorResponse struct {
	ID                string             `json:"id"`
	Category          string             `json:"category"`
	Status            string             `json:"status"`
	FullName          string             `json:"full_name"`
	Email             string             `json:"email,omitempty"`
	Phone             string             `json:"phone,omitempty"`
	Company           string             `json:"company,omitempty"`
	Purpose           string             `json:"purpose,omitempty"`
	Host              *HostResponse      `json:"host,omitempty"`
	ScheduledAt       string             `json:"scheduled_at,omitempty"`
	ExpectedMinutes   int                `json:"expected_minutes"`
	AccessCode        string             `json:"access_code,omitempty"`
	TrainingCompleted bool               `json:"training_completed"`
	CheckInTime       string             `json:"check_in_time,omitempty"`
	CheckOutTime      string             `json:"check_out_time,omitempty"`
	ApprovedBy        string             `json:"approved_by,omitempty"`
	ApprovedAt        string             `json:"approved_at,omitempty"`
	RejectReason      string             `json:"reject_reason,omitempty"`
	Hazards           []HazardItem       `json:"hazards,omitempty"`
	PPE               []PPEItem          `json:"ppe,omitempty"`
	Documents         []DocumentResponse `json:"documents,omitempty"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at"`
}

// KioskResponse 自助终端响应（不回显访问码与联系方式）
type KioskResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Status       string `json:"status"`
	HostName     string `json:"host_name,omitempty"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
}

// StatusLogResponse 状态变更日志
type StatusLogResponse struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id,omitempty"`
	ActorRole  string `json:"actor_role,omitempty"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}
