package dto

// ── 课程目录 DTO ──

// SubProgramListRequest 子课程查询参数，program_id 为空时返回空列表
type SubProgramListRequest struct {
	ProgramID string `form:"program_id" binding:"omitempty,uuid"`
}

// LevelListRequest 等级查询参数，subprogram_id 为空时返回空列表
type LevelListRequest struct {
	SubProgramID string `form:"subprogram_id" binding:"omitempty,uuid"`
}

// CreateProgramRequest 创建课程体系
type CreateProgramRequest struct {
	Code      string `json:"code"       binding:"required,max=30"`
	Name      string `json:"name"       binding:"required,max=100"`
	SortOrder int    `json:"sort_order" binding:"omitempty,min=0"`
}

// UpdateProgramRequest 更新课程体系
type UpdateProgramRequest struct {
	Name      *string `json:"name"       binding:"omitempty,max=100"`
	SortOrder *int    `json:"sort_order" binding:"omitempty,min=0"`
}

// CreateSubProgramRequest 创建子课程
type CreateSubProgramRequest struct {
	ProgramID string `json:"program_id" binding:"required,uuid"`
	Name      string `json:"name"       binding:"required,max=100"`
	SortOrder int    `json:"sort_order" binding:"omitempty,min=0"`
}

// UpdateSubProgramRequest 更新子课程
type UpdateSubProgramRequest struct {
	Name      *string `json:"name"       binding:"omitempty,max=100"`
	SortOrder *int    `json:"sort_order" binding:"omitempty,min=0"`
}

// CreateLevelRequest 创建等级
type CreateLevelRequest struct {
	SubProgramID string `json:"subprogram_id" binding:"required,uuid"`
	LevelNumber  int    `json:"level_number"  binding:"required,min=1,max=99"`
	Description  string `json:"description"   binding:"omitempty,max=255"`
	SortOrder    int    `json:"sort_order"    binding:"omitempty,min=0"`
}

// UpdateLevelRequest 更新等级
type UpdateLevelRequest struct {
	Description *string `json:"description" binding:"omitempty,max=255"`
	SortOrder   *int    `json:"sort_order"  binding:"omitempty,min=0"`
}

// ProgramResponse 课程体系
type ProgramResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// SubProgramResponse 子课程
type SubProgramResponse struct {
	ID        string `json:"id"`
	ProgramID string `json:"program_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// LevelResponse 课程等级
type LevelResponse struct {
	ID           string `json:"id"`
	SubProgramID string `json:"subprogram_id"`
	LevelNumber  int    `json:"level_number"`
	Label        string `json:"label"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description,omitempty"`
	SortOrder    int    `json:"sort_order"`
}

// CurriculumTreeNode 课程目录树（程序 → 子课程 → 等级）
type CurriculumTreeNode struct {
	ProgramResponse
	SubPrograms []CurriculumSubTree `json:"subprograms"`
}

// CurriculumSubTree 子课程节点
type CurriculumSubTree struct {
	SubProgramResponse
	Levels []LevelResponse `json:"levels"`
}
