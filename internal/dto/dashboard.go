package dto

import "time"

// ── 看板与导出 DTO ──

// DashboardStatsResponse 看板统计
type DashboardStatsResponse struct {
	ByStatus          map[string]int64 `json:"by_status"`
	CheckedInToday    int64            `json:"checked_in_today"`
	OnSite            int64            `json:"on_site"`
	OnSiteContractors int64            `json:"on_site_contractors"`
	GeneratedAt       string           `json:"generated_at"`
}

// ExportVisitorsRequest 导出访客记录参数（按登记日期，含首尾两天）
type ExportVisitorsRequest struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02"`
	To   time.Time `form:"to"   binding:"required" time_format:"2006-01-02"`
}
