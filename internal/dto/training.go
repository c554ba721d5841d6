package dto

// ── 培训模块 DTO ──

// CreateTrainingRequest 创建培训课程请求
type CreateTrainingRequest struct {
	Title         string `json:"title"          binding:"required,min=1,max=200"`
	Description   string `json:"description"    binding:"omitempty,max=5000"`
	ContentURL    string `json:"content_url"    binding:"omitempty,url,max=500"`
	RequiredScore *int   `json:"required_score" binding:"omitempty,min=0,max=100"`
}

// UpdateTrainingRequest 更新培训课程请求
type UpdateTrainingRequest struct {
	Title         *string `json:"title"          binding:"omitempty,min=1,max=200"`
	Description   *string `json:"description"    binding:"omitempty,max=5000"`
	ContentURL    *string `json:"content_url"    binding:"omitempty,url,max=500"`
	RequiredScore *int    `json:"required_score" binding:"omitempty,min=0,max=100"`
	IsActive      *bool   `json:"is_active"`
}

// TrainingListRequest 培训列表查询参数
type TrainingListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// TrainingResponse 培训课程响应
type TrainingResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ContentURL    string `json:"content_url,omitempty"`
	RequiredScore int    `json:"required_score"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// AssignTrainingRequest 为承包商分配培训
type AssignTrainingRequest struct {
	TrainingIDs []string `json:"training_ids" binding:"required,min=1,dive,uuid"`
}

// SubmitScoreRequest 提交培训成绩
type SubmitScoreRequest struct {
	Score int `json:"score" binding:"min=0,max=100"`
}

// EnrollmentResponse 单门培训进度
type EnrollmentResponse struct {
	TrainingID    string `json:"training_id"`
	Title         string `json:"title"`
	RequiredScore int    `json:"required_score"`
	Active        bool   `json:"active"`
	Score         *int   `json:"score,omitempty"`
	Attempts      int    `json:"attempts"`
	Passed        bool   `json:"passed"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// TrainingStatusResponse 访客培训总体状态
type TrainingStatusResponse struct {
	VisitorID         string               `json:"visitor_id"`
	TrainingCompleted bool                 `json:"training_completed"`
	Enrollments       []EnrollmentResponse `json:"enrollments"`
}
