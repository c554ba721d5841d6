package model

// SystemSetting 系统设置表，对应 system_settings（单行强类型）
type SystemSetting struct {
	Singleton               bool   `gorm:"primaryKey;default:true"            json:"-"`
	TrainingRequired        bool   `gorm:"not null;default:true"              json:"training_required"`
	AutoApprovePrescheduled bool   `gorm:"not null;default:true"              json:"auto_approve_prescheduled"`
	SiteName                string `gorm:"type:varchar(200);not null;default:'Main Site'" json:"site_name"`
	BaseModel
}

// TableName 指定表名
func (SystemSetting) TableName() string { return "system_settings" }
