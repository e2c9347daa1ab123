package dto

import "time"

// ── 考试场次 DTO ──

// SessionListRequest 场次列表参数
type SessionListRequest struct {
	ClassCode string `form:"class_code" binding:"omitempty,class_code"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	ExamID    string `form:"exam_id"    binding:"omitempty,uuid"`
	From      string `form:"from"` // RFC3339
	To        string `form:"to"`
}

// CalendarRequest 日历导出参数，class_code 与 teacher_id 至少一个
type CalendarRequest struct {
	ClassCode string `form:"class_code" binding:"omitempty,class_code"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
}

// SessionOverridesDTO 场次覆盖设置
type SessionOverridesDTO struct {
	DurationMinutes  *int   `json:"duration_minutes,omitempty"   binding:"omitempty,min=1,max=600"`
	ExtraTimeMinutes *int   `json:"extra_time_minutes,omitempty" binding:"omitempty,min=0,max=300"`
	AllowLateEntry   *bool  `json:"allow_late_entry,omitempty"`
	Notes            string `json:"notes,omitempty"              binding:"omitempty,max=1000"`
}

// CreateSessionRequest 创建场次
type CreateSessionRequest struct {
	ExamID         string              `json:"exam_id"         binding:"required,uuid"`
	Title          string              `json:"title"           binding:"required,max=200"`
	ClassCode      string              `json:"class_code"      binding:"required,class_code"`
	TeacherID      *string             `json:"teacher_id"      binding:"omitempty,uuid"`
	ScheduledStart time.Time           `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time           `json:"scheduled_end"   binding:"required"`
	Overrides      SessionOverridesDTO `json:"overrides"`
}

// UpdateSessionRequest 更新场次
type UpdateSessionRequest struct {
	Title          *string              `json:"title"           binding:"omitempty,max=200"`
	TeacherID      *string              `json:"teacher_id"      binding:"omitempty,uuid"`
	ScheduledStart *time.Time           `json:"scheduled_start"`
	ScheduledEnd   *time.Time           `json:"scheduled_end"`
	Overrides      *SessionOverridesDTO `json:"overrides"`
}

// SessionResponse 场次信息
type SessionResponse struct {
	ID                string              `json:"id"`
	ExamID            string              `json:"exam_id"`
	ExamName          string              `json:"exam_name,omitempty"`
	Title             string              `json:"title"`
	ClassCode         string              `json:"class_code"`
	TeacherID         *string             `json:"teacher_id,omitempty"`
	TeacherName       string              `json:"teacher_name,omitempty"`
	ScheduledStart    string              `json:"scheduled_start"`
	ScheduledEnd      string              `json:"scheduled_end"`
	EffectiveDuration int                 `json:"effective_duration"`
	Overrides         SessionOverridesDTO `json:"overrides"`
}
