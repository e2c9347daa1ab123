package dto

// ── 教师模块 DTO ──

// TeacherListRequest 教师列表参数
type TeacherListRequest struct {
	PaginationRequest
	Keyword  string `form:"keyword"   binding:"omitempty,max=50"`
	IsActive *bool  `form:"is_active"`
}

// CreateTeacherRequest 创建教师
type CreateTeacherRequest struct {
	Name  string `json:"name"  binding:"required,max=100"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
}

// UpdateTeacherRequest 更新教师
type UpdateTeacherRequest struct {
	Name     *string `json:"name"      binding:"omitempty,max=100"`
	Email    *string `json:"email"     binding:"omitempty,email"`
	Phone    *string `json:"phone"     binding:"omitempty,max=30"`
	IsActive *bool   `json:"is_active"`
}

// ReplaceAssignmentsRequest 替换教师任课列表
type ReplaceAssignmentsRequest struct {
	Assignments []AssignmentItem `json:"assignments" binding:"omitempty,dive"`
}

// AssignmentItem 单个任课关系
type AssignmentItem struct {
	ClassCode string `json:"class_code" binding:"required,class_code"`
	Role      string `json:"role"       binding:"required,oneof=main sub native"`
	IsPrimary bool   `json:"is_primary"`
}

// ReplaceAvailabilityRequest 替换每周可用时段
type ReplaceAvailabilityRequest struct {
	Slots []AvailabilitySlot `json:"slots" binding:"omitempty,dive"`
}

// AvailabilitySlot 可用时段
type AvailabilitySlot struct {
	DayOfWeek int    `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime string `json:"start_time"  binding:"required"` // "09:00"
	EndTime   string `json:"end_time"    binding:"required"` // "12:30"
}

// TeacherResponse 教师信息
type TeacherResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone"`
	IsActive     bool                 `json:"is_active"`
	Assignments  []AssignmentResponse `json:"assignments"`
	Availability []AvailabilitySlot   `json:"availability"`
	CreatedAt    string               `json:"created_at"`
}

// AssignmentResponse 任课关系
type AssignmentResponse struct {
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	ClassCode   string `json:"class_code"`
	Role        string `json:"role"`
	IsPrimary   bool   `json:"is_primary"`
}
