package model

// 班级内教师角色
const (
	AssignmentRoleMain   = "main"
	AssignmentRoleSub    = "sub"
	AssignmentRoleNative = "native"
)

// Teacher 教师表，对应 teachers
type Teacher struct {
	TeacherID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone     string `gorm:"type:varchar(30);not null;default:''"           json:"phone"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	// 关联
	Assignments  []TeacherClassAssignment `gorm:"foreignKey:TeacherID;references:TeacherID" json:"assignments,omitempty"`
	Availability []TeacherAvailability    `gorm:"foreignKey:TeacherID;references:TeacherID" json:"availability,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// TeacherClassAssignment 教师任课关系，对应 teacher_class_assignments
type TeacherClassAssignment struct {
	AssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	TeacherID    string `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	ClassCode    string `gorm:"type:varchar(30);not null;index"                json:"class_code"`
	Role         string `gorm:"type:varchar(10);not null"                      json:"role"` // main | sub | native
	IsPrimary    bool   `gorm:"not null;default:false"                         json:"is_primary"`
	BaseModel

	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (TeacherClassAssignment) TableName() string { return "teacher_class_assignments" }

// TeacherAvailability 教师每周可用时段，对应 teacher_availabilities
type TeacherAvailability struct {
	AvailabilityID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_id"`
	TeacherID      string `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	DayOfWeek      int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1=周一 … 7=周日
	StartTime      string `gorm:"type:varchar(5);not null"                       json:"start_time"`  // "HH:MM"
	EndTime        string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	BaseModel
}

// TableName 指定表名
func (TeacherAvailability) TableName() string { return "teacher_availabilities" }
