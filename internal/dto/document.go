package dto

import "time"

// ── 文件元数据 DTO ──

// AddDocumentRequest 登记承包商文件元数据（文件本体由对象存储负责）
type AddDocumentRequest struct {
	DocumentType string     `json:"document_type" binding:"required,oneof=insurance permit identity method_statement other"`
	FileName     string     `json:"file_name"     binding:"required,max=255"`
	ContentType  string     `json:"content_type"  binding:"omitempty,max=100"`
	SizeBytes    int64      `json:"size_bytes"    binding:"min=0"`
	StorageKey   string     `json:"storage_key"   binding:"required,max=500"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// DocumentResponse 文件元数据响应
type DocumentResponse struct {
	ID           string `json:"id"`
	DocumentType string `json:"document_type"`
	FileName     string `json:"file_name"`
	ContentType  string `json:"content_type,omitempty"`
	SizeBytes    int64  `json:"size_bytes"`
	StorageKey   string `json:"storage_key"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	Expired      bool   `json:"expired"`
	CreatedAt    string `json:"created_at"`
}
