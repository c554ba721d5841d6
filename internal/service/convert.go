package service

import (
	"time"

	"vms/backend/internal/dto"
	"vms/backend/internal/model"
)

// Actor 当前操作者（由 JWT 中间件解析，自助终端为 visitor 角色且无 ID）
type Actor struct {
	ID   string
	Role model.Role
}

func (a Actor) idPtr() *string {
	if a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}

// ── 时间格式 ──

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dto.TimeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ── 模型 → 响应 ──

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:                 user.UserID,
		Name:               user.Name,
		Email:              user.Email,
		Phone:              user.Phone,
		Department:         user.Department,
		Role:               string(user.Role),
		IsActive:           user.IsActive,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          formatTime(user.CreatedAt),
	}
}

func toHostResponse(user *model.User) *dto.HostResponse {
	if user == nil {
		return nil
	}
	return &dto.HostResponse{
		ID:         user.UserID,
		Name:       user.Name,
		Department: user.Department,
	}
}

func toDocumentResponse(doc *model.VisitorDocument, now time.Time) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:           doc.DocumentID,
		DocumentType: doc.DocumentType,
		FileName:     doc.FileName,
		ContentType:  doc.ContentType,
		SizeBytes:    doc.SizeBytes,
		StorageKey:   doc.StorageKey,
		ExpiresAt:    formatTimePtr(doc.ExpiresAt),
		Expired:      doc.ExpiresAt != nil && doc.ExpiresAt.Before(now),
		CreatedAt:    formatTime(doc.CreatedAt),
	}
}

func toVisitorResponse(v *model.Visitor) *dto.VisitorResponse {
	resp := &dto.VisitorResponse{
		ID:                v.VisitorID,
		Category:          string(v.Category),
		Status:            string(v.Status),
		FullName:          v.FullName,
		Email:             v.Email,
		Phone:             v.Phone,
		Company:           v.Company,
		Purpose:           v.Purpose,
		Host:              toHostResponse(v.Host),
		ScheduledAt:       formatTimePtr(v.ScheduledAt),
		ExpectedMinutes:   v.ExpectedMinutes,
		AccessCode:        v.AccessCode,
		TrainingCompleted: v.TrainingCompleted,
		CheckInTime:       formatTimePtr(v.CheckInTime),
		CheckOutTime:      formatTimePtr(v.CheckOutTime),
		ApprovedBy:        derefString(v.ApprovedBy),
		ApprovedAt:        formatTimePtr(v.ApprovedAt),
		RejectReason:      v.RejectReason,
		CreatedAt:         formatTime(v.CreatedAt),
		UpdatedAt:         formatTime(v.UpdatedAt),
	}
	for _, h := range v.Hazards {
		resp.Hazards = append(resp.Hazards, dto.HazardItem{Name: h.Name, Severity: h.Severity, Controls: h.Controls})
	}
	for _, p := range v.PPE {
		resp.PPE = append(resp.PPE, dto.PPEItem{Item: p.Item, Required: p.Required, Notes: p.Notes})
	}
	now := time.Now()
	for i := range v.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(&v.Documents[i], now))
	}
	return resp
}

func toKioskResponse(v *model.Visitor) *dto.KioskResponse {
	resp := &dto.KioskResponse{
		ID:           v.VisitorID,
		FullName:     v.FullName,
		Status:       string(v.Status),
		CheckInTime:  formatTimePtr(v.CheckInTime),
		CheckOutTime: formatTimePtr(v.CheckOutTime),
	}
	if v.Host != nil {
		resp.HostName = v.Host.Name
	}
	return resp
}

func toStatusLogResponse(l *model.VisitorStatusLog) dto.StatusLogResponse {
	return dto.StatusLogResponse{
		ID:         l.LogID,
		Action:     string(l.Action),
		FromStatus: string(l.FromStatus),
		ToStatus:   string(l.ToStatus),
		ActorID:    derefString(l.ActorID),
		ActorRole:  string(l.ActorRole),
		Note:       l.Note,
		CreatedAt:  formatTime(l.CreatedAt),
	}
}

func hazardsFromDTO(items []dto.HazardItem) []model.HazardRecord {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.HazardRecord, 0, len(items))
	for _, h := range items {
		out = append(out, model.HazardRecord{Name: h.Name, Severity: h.Severity, Controls: h.Controls})
	}
	return out
}

func ppeFromDTO(items []dto.PPEItem) []model.PPERecord {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.PPERecord, 0, len(items))
	for _, p := range items {
		out = append(out, model.PPERecord{Item: p.Item, Required: p.Required, Notes: p.Notes})
	}
	return out
}
