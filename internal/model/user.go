package model

// 账号角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User 教职工账号表，对应 users
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username           string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string  `gorm:"type:varchar(20);not null;default:'teacher'"    json:"role"`
	TeacherID          *string `gorm:"type:uuid"                                      json:"teacher_id,omitempty"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	IsActive           bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
