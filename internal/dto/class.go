package dto

// ── 班级与课程映射 DTO ──

// ClassListRequest 班级列表参数，year 为空时取当前学年
type ClassListRequest struct {
	Year string `form:"year" binding:"omitempty,academic_year"`
}

// CreateClassRequest 创建班级
type CreateClassRequest struct {
	ClassCode    string `json:"class_code"    binding:"required,class_code"`
	Name         string `json:"name"          binding:"required,max=100"`
	ScheduleInfo string `json:"schedule_info" binding:"omitempty,max=255"`
	TargetGrade  string `json:"target_grade"  binding:"omitempty,max=30"`
}

// UpdateClassRequest 更新班级
type UpdateClassRequest struct {
	Name         *string `json:"name"          binding:"omitempty,max=100"`
	ScheduleInfo *string `json:"schedule_info" binding:"omitempty,max=255"`
	TargetGrade  *string `json:"target_grade"  binding:"omitempty,max=30"`
	IsActive     *bool   `json:"is_active"`
}

// ClassResponse 班级信息，Mapping 为查询学年的课程映射（未映射为 null）
type ClassResponse struct {
	ClassCode    string           `json:"class_code"`
	Name         string           `json:"name"`
	Program      string           `json:"program"`
	SubProgram   string           `json:"subprogram"`
	Level        string           `json:"level"`
	ScheduleInfo string           `json:"schedule_info"`
	TargetGrade  string           `json:"target_grade"`
	IsActive     bool             `json:"is_active"`
	Mapping      *MappingResponse `json:"curriculum_mapping"`
}

// SaveMappingRequest 保存课程映射（显式保存与自动保存共用）
type SaveMappingRequest struct {
	ClassCode         string `json:"class_code"          binding:"required,class_code"`
	CurriculumLevelID string `json:"curriculum_level_id" binding:"required,uuid"`
	AcademicYear      string `json:"academic_year"       binding:"omitempty,academic_year"`
}

// DeleteMappingRequest 删除课程映射
type DeleteMappingRequest struct {
	ClassCode    string `form:"class_code"    binding:"required,class_code"`
	AcademicYear string `form:"academic_year" binding:"omitempty,academic_year"`
}

// MappingResponse 课程映射
type MappingResponse struct {
	ID                string `json:"id"`
	ClassCode         string `json:"class_code"`
	AcademicYear      string `json:"academic_year"`
	CurriculumLevelID string `json:"curriculum_level_id"`
	Program           string `json:"program"`
	SubProgram        string `json:"subprogram"`
	Level             string `json:"level"`
	DisplayName       string `json:"display_name"`
	Version           int    `json:"version"`
	UpdatedAt         string `json:"updated_at"`
}

// AutosaveResponse 自动保存受理结果
type AutosaveResponse struct {
	ClassCode string `json:"class_code"`
	Scheduled bool   `json:"scheduled"`
	Coalesced bool   `json:"coalesced"`
	WindowMS  int64  `json:"window_ms"`
}
