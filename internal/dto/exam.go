package dto

// ── 考试模块 DTO ──

// ExamListRequest 考试列表查询参数
type ExamListRequest struct {
	PaginationRequest
	ExamType          string `form:"exam_type"           binding:"omitempty,exam_type"`
	Timeslot          string `form:"timeslot"            binding:"omitempty,timeslot_code"`
	AcademicYear      string `form:"academic_year"       binding:"omitempty,academic_year"`
	CurriculumLevelID string `form:"curriculum_level_id" binding:"omitempty,uuid"`
	ClassCode         string `form:"class_code"          binding:"omitempty,class_code"`
	Keyword           string `form:"keyword"             binding:"omitempty,max=50"`
}

// CreateExamRequest 创建考试
type CreateExamRequest struct {
	Name              string  `json:"name"                binding:"required,max=200"`
	ExamType          string  `json:"exam_type"           binding:"required,exam_type"`
	Timeslot          string  `json:"timeslot"            binding:"required,timeslot_code"`
	AcademicYear      string  `json:"academic_year"       binding:"omitempty,academic_year"`
	CurriculumLevelID *string `json:"curriculum_level_id" binding:"omitempty,uuid"`
	DurationMinutes   int     `json:"duration_minutes"    binding:"omitempty,min=1,max=600"`
	Description       string  `json:"description"         binding:"omitempty,max=2000"`
}

// UpdateExamRequest 更新考试（Version 用于乐观锁）
type UpdateExamRequest struct {
	Name              *string `json:"name"                binding:"omitempty,max=200"`
	CurriculumLevelID *string `json:"curriculum_level_id" binding:"omitempty,uuid"`
	Description       *string `json:"description"         binding:"omitempty,max=2000"`
	Version           int     `json:"version"             binding:"required,min=1"`
}

// UpdateDurationRequest 修改考试时长
type UpdateDurationRequest struct {
	Duration int `json:"duration" binding:"required,min=1,max=600"`
}

// DeleteExamRequest 删除考试参数：class_code 与 timeslot 需同时给出（仅解除关联）或同时缺省（整卷删除）
type DeleteExamRequest struct {
	ClassCode    string `form:"class_code"    binding:"omitempty,class_code"`
	Timeslot     string `form:"timeslot"      binding:"omitempty,timeslot_code"`
	AcademicYear string `form:"academic_year" binding:"omitempty,academic_year"`
}

// AssignExamRequest 将考试关联到班级时间段
type AssignExamRequest struct {
	ClassCode    string `json:"class_code"    binding:"required,class_code"`
	Timeslot     string `json:"timeslot"      binding:"required,timeslot_code"`
	AcademicYear string `json:"academic_year" binding:"omitempty,academic_year"`
}

// CopyExamRequest 复制考试
// 必填字段由服务层校验，保证缺字段时不触达存储层
type CopyExamRequest struct {
	SourceExamID      string `json:"source_exam_id"      binding:"omitempty,uuid"`
	CurriculumLevelID string `json:"curriculum_level_id" binding:"omitempty,uuid"`
	ExamType          string `json:"exam_type"           binding:"omitempty,exam_type"`
	Timeslot          string `json:"timeslot"            binding:"omitempty,timeslot_code"`
	AcademicYear      string `json:"academic_year"       binding:"omitempty,academic_year"`
	CustomSuffix      string `json:"custom_suffix"       binding:"omitempty,max=50"`
}

// ExamResponse 考试信息
type ExamResponse struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	ExamType          string              `json:"exam_type"`
	Timeslot          string              `json:"timeslot"`
	AcademicYear      string              `json:"academic_year"`
	CurriculumLevelID *string             `json:"curriculum_level_id,omitempty"`
	CurriculumLevel   string              `json:"curriculum_level,omitempty"`
	DurationMinutes   int                 `json:"duration_minutes"`
	QuestionCount     int                 `json:"question_count"`
	Description       string              `json:"description"`
	SourceExamID      *string             `json:"source_exam_id,omitempty"`
	Classes           []ClassExamResponse `json:"classes,omitempty"`
	Version           int                 `json:"version"`
	CreatedAt         string              `json:"created_at"`
	UpdatedAt         string              `json:"updated_at"`
}

// ClassExamResponse 考试-班级关联
type ClassExamResponse struct {
	ClassCode    string `json:"class_code"`
	Timeslot     string `json:"timeslot"`
	AcademicYear string `json:"academic_year"`
}

// DeleteExamResponse 删除结果
type DeleteExamResponse struct {
	ExamID      string `json:"exam_id"`
	LinkRemoved bool   `json:"link_removed"`
	ExamDeleted bool   `json:"exam_deleted"`
}
