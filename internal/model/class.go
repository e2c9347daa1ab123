package model

// Class 班级表，对应 classes
// Program/SubProgram/Level 为当前学年映射结果的冗余展示字段
type Class struct {
	ClassCode         string  `gorm:"type:varchar(30);primaryKey"          json:"class_code"`
	Name              string  `gorm:"type:varchar(100);not null"           json:"name"`
	Program           string  `gorm:"type:varchar(100);not null;default:''" json:"program"`
	SubProgram        string  `gorm:"column:subprogram;type:varchar(100);not null;default:''" json:"subprogram"`
	Level             string  `gorm:"type:varchar(50);not null;default:''" json:"level"`
	ScheduleInfo      string  `gorm:"type:varchar(255);not null;default:''" json:"schedule_info"`
	TargetGrade       string  `gorm:"type:varchar(30);not null;default:''" json:"target_grade"`
	CurriculumLevelID *string `gorm:"type:uuid"                            json:"curriculum_level_id,omitempty"`
	IsActive          bool    `gorm:"not null;default:true"                json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Class) TableName() string { return "classes" }

// CurriculumMapping 班级课程映射，对应 curriculum_mappings
// (class_code, academic_year) 唯一
type CurriculumMapping struct {
	MappingID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"mapping_id"`
	ClassCode         string `gorm:"type:varchar(30);not null"                      json:"class_code"`
	AcademicYear      string `gorm:"type:varchar(4);not null"                       json:"academic_year"`
	CurriculumLevelID string `gorm:"type:uuid;not null"                             json:"curriculum_level_id"`
	Version           int    `gorm:"not null;default:1"                             json:"version"`
	BaseModel

	CurriculumLevel *CurriculumLevel `gorm:"foreignKey:CurriculumLevelID;references:LevelID" json:"curriculum_level,omitempty"`
}

// TableName 指定表名
func (CurriculumMapping) TableName() string { return "curriculum_mappings" }
