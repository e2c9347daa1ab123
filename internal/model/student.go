package model

// Student 学生名册，对应 students
type Student struct {
	StudentID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	StudentNumber string  `gorm:"type:varchar(30);not null;uniqueIndex"          json:"student_number"`
	Name          string  `gorm:"type:varchar(100);not null"                     json:"name"`
	ClassCode     *string `gorm:"type:varchar(30);index"                         json:"class_code,omitempty"`
	Grade         string  `gorm:"type:varchar(30);not null;default:''"           json:"grade"`
	ParentContact string  `gorm:"type:varchar(100);not null;default:''"          json:"parent_contact"`
	IsActive      bool    `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
