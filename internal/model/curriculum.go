package model

import "fmt"

// Program 课程体系，对应 programs
type Program struct {
	ProgramID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"program_id"`
	Code      string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"code"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	SortOrder int    `gorm:"not null;default:0"                             json:"sort_order"`
	BaseModel

	SubPrograms []SubProgram `gorm:"foreignKey:ProgramID;references:ProgramID" json:"subprograms,omitempty"`
}

// TableName 指定表名
func (Program) TableName() string { return "programs" }

// SubProgram 子课程，对应 subprograms
type SubProgram struct {
	SubProgramID string `gorm:"column:subprogram_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"subprogram_id"`
	ProgramID    string `gorm:"type:uuid;not null;index"                                           json:"program_id"`
	Name         string `gorm:"type:varchar(100);not null"                                         json:"name"`
	SortOrder    int    `gorm:"not null;default:0"                                                 json:"sort_order"`
	BaseModel

	Program *Program          `gorm:"foreignKey:ProgramID;references:ProgramID"       json:"program,omitempty"`
	Levels  []CurriculumLevel `gorm:"foreignKey:SubProgramID;references:SubProgramID" json:"levels,omitempty"`
}

// TableName 指定表名
func (SubProgram) TableName() string { return "subprograms" }

// CurriculumLevel 课程等级，对应 curriculum_levels
// (program, subprogram, level) 三元组即一个课程节点
type CurriculumLevel struct {
	LevelID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"     json:"level_id"`
	SubProgramID string `gorm:"column:subprogram_id;type:uuid;not null;index"      json:"subprogram_id"`
	LevelNumber  int    `gorm:"not null"                                           json:"level_number"`
	Description  string `gorm:"type:varchar(255);not null;default:''"              json:"description"`
	SortOrder    int    `gorm:"not null;default:0"                                 json:"sort_order"`
	BaseModel

	SubProgram *SubProgram `gorm:"foreignKey:SubProgramID;references:SubProgramID" json:"subprogram,omitempty"`
}

// TableName 指定表名
func (CurriculumLevel) TableName() string { return "curriculum_levels" }

// ProgramName 所属体系名称（需预加载 SubProgram.Program）
func (l *CurriculumLevel) ProgramName() string {
	if l.SubProgram == nil || l.SubProgram.Program == nil {
		return ""
	}
	return l.SubProgram.Program.Name
}

// SubProgramName 所属子课程名称（需预加载 SubProgram）
func (l *CurriculumLevel) SubProgramName() string {
	if l.SubProgram == nil {
		return ""
	}
	return l.SubProgram.Name
}

// LevelLabel 等级标签，如 "Level 3"
func (l *CurriculumLevel) LevelLabel() string {
	return fmt.Sprintf("Level %d", l.LevelNumber)
}

// DisplayName 完整显示名，如 "CORE Phonics Level 3"
func (l *CurriculumLevel) DisplayName() string {
	name := l.LevelLabel()
	if sp := l.SubProgramName(); sp != "" {
		name = sp + " " + name
	}
	if p := l.ProgramName(); p != "" {
		name = p + " " + name
	}
	return name
}
