package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification 站内通知表，对应 notifications
type Notification struct {
	NotificationID string  `gorm:"size:36;primaryKey"              json:"notification_id"`
	UserID         string  `gorm:"size:36;not null;index"          json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"       json:"type"` // visitor.registered | visitor.approved | ...
	Title          string  `gorm:"type:varchar(200);not null"      json:"title"`
	Content        string  `gorm:"type:text;not null"              json:"content"`
	IsRead         bool    `gorm:"not null;default:false"          json:"is_read"`
	RelatedID      *string `gorm:"size:36"                         json:"related_id,omitempty"` // visitor_id
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// BeforeCreate 未指定主键时生成 UUID
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	return nil
}
