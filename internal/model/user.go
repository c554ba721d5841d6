package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role 员工账号角色
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	// RoleVisitor 访客自助终端操作者，不可分配给员工账号
	RoleVisitor Role = "visitor"
)

// Valid 判断是否为合法的员工账号角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// CanApprove 是否具备访客审批权限
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleManager
}

// User 员工用户表，对应 users（访客的接待人 Host 也是 User）
type User struct {
	UserID             string `gorm:"size:36;primaryKey"                      json:"user_id"`
	Name               string `gorm:"type:varchar(100);not null"              json:"name"`
	Email              string `gorm:"type:varchar(255);not null;uniqueIndex"  json:"email"`
	Phone              string `gorm:"type:varchar(30)"                        json:"phone,omitempty"`
	Department         string `gorm:"type:varchar(100)"                       json:"department,omitempty"`
	PasswordHash       string `gorm:"type:varchar(255);not null"              json:"-"`
	Role               Role   `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	IsActive           bool   `gorm:"not null;default:true"                   json:"is_active"`
	MustChangePassword bool   `gorm:"not null;default:false"                  json:"must_change_password"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 未指定主键时生成 UUID
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	return nil
}
