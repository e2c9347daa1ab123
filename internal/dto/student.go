package dto

// ── 学生名册 DTO ──

// StudentListRequest 学生列表参数
type StudentListRequest struct {
	PaginationRequest
	ClassCode string `form:"class_code" binding:"omitempty,class_code"`
	Keyword   string `form:"keyword"    binding:"omitempty,max=50"`
}

// CreateStudentRequest 创建学生
type CreateStudentRequest struct {
	StudentNumber string  `json:"student_number" binding:"required,max=30"`
	Name          string  `json:"name"           binding:"required,max=100"`
	ClassCode     *string `json:"class_code"     binding:"omitempty,class_code"`
	Grade         string  `json:"grade"          binding:"omitempty,max=30"`
	ParentContact string  `json:"parent_contact" binding:"omitempty,max=100"`
}

// UpdateStudentRequest 更新学生
type UpdateStudentRequest struct {
	Name          *string `json:"name"           binding:"omitempty,max=100"`
	Grade         *string `json:"grade"          binding:"omitempty,max=30"`
	ParentContact *string `json:"parent_contact" binding:"omitempty,max=100"`
	IsActive      *bool   `json:"is_active"`
}

// MoveStudentRequest 调班，class_code 为空表示移出班级
type MoveStudentRequest struct {
	ClassCode *string `json:"class_code" binding:"omitempty,class_code"`
}

// StudentResponse 学生信息
type StudentResponse struct {
	ID            string  `json:"id"`
	StudentNumber string  `json:"student_number"`
	Name          string  `json:"name"`
	ClassCode     *string `json:"class_code,omitempty"`
	Grade         string  `json:"grade"`
	ParentContact string  `json:"parent_contact"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     string  `json:"created_at"`
}
