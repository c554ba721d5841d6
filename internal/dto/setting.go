package dto

// ── 系统设置 DTO ──

// UpdateSettingRequest 更新系统设置请求
type UpdateSettingRequest struct {
	TrainingRequired        *bool   `json:"training_required"`
	AutoApprovePrescheduled *bool   `json:"auto_approve_prescheduled"`
	SiteName                *string `json:"site_name" binding:"omitempty,min=1,max=200"`
}

// SettingResponse 系统设置响应
type SettingResponse struct {
	TrainingRequired        bool   `json:"training_required"`
	AutoApprovePrescheduled bool   `json:"auto_approve_prescheduled"`
	SiteName                string `json:"site_name"`
	UpdatedAt               string `json:"updated_at"`
}
