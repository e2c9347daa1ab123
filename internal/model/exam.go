package model

// Exam 考试表，对应 exams
type Exam struct {
	ExamID            string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exam_id"`
	Name              string  `gorm:"type:varchar(200);not null"                     json:"name"`
	ExamType          string  `gorm:"type:varchar(20);not null"                      json:"exam_type"` // REVIEW | QUARTERLY
	Timeslot          string  `gorm:"type:varchar(5);not null"                       json:"timeslot"`  // JAN..DEC | Q1..Q4
	AcademicYear      string  `gorm:"type:varchar(4);not null"                       json:"academic_year"`
	CurriculumLevelID *string `gorm:"type:uuid"                                      json:"curriculum_level_id,omitempty"`
	DurationMinutes   int     `gorm:"not null;default:60"                            json:"duration_minutes"`
	QuestionCount     int     `gorm:"not null;default:0"                             json:"question_count"`
	Description       string  `gorm:"type:text;not null;default:''"                  json:"description"`
	SourceExamID      *string `gorm:"type:uuid"                                      json:"source_exam_id,omitempty"`
	VersionedModel

	// 关联
	CurriculumLevel *CurriculumLevel `gorm:"foreignKey:CurriculumLevelID;references:LevelID" json:"curriculum_level,omitempty"`
}

// TableName 指定表名
func (Exam) TableName() string { return "exams" }

// ClassExam 班级-时间段与考试的关联，对应 class_exams
type ClassExam struct {
	ClassExamID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_exam_id"`
	ClassCode    string `gorm:"type:varchar(30);not null"                      json:"class_code"`
	ExamID       string `gorm:"type:uuid;not null;index"                       json:"exam_id"`
	Timeslot     string `gorm:"type:varchar(5);not null"                       json:"timeslot"`
	AcademicYear string `gorm:"type:varchar(4);not null"                       json:"academic_year"`
	BaseModel
}

// TableName 指定表名
func (ClassExam) TableName() string { return "class_exams" }
