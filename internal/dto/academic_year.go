package dto

// ── 学年模块 DTO ──

// CreateAcademicYearRequest 创建学年请求
type CreateAcademicYearRequest struct {
	Year      string `json:"year"       binding:"required,academic_year"`
	StartDate string `json:"start_date" binding:"required"` // "2025-03-01"
	EndDate   string `json:"end_date"   binding:"required"` // "2026-02-28"
}

// UpdateAcademicYearRequest 更新学年请求
type UpdateAcademicYearRequest struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// AcademicYearResponse 学年信息响应
type AcademicYearResponse struct {
	ID        string `json:"id"`
	Year      string `json:"year"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsCurrent bool   `json:"is_current"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
