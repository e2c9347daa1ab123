package model

import "time"

// AcademicYear 学年表，对应 academic_years
// 课程映射、考试均以 year（四位年份）为键
type AcademicYear struct {
	AcademicYearID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"academic_year_id"`
	Year           string    `gorm:"type:varchar(4);not null;uniqueIndex"           json:"year"`
	StartDate      time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsCurrent      bool      `gorm:"not null;default:false"                         json:"is_current"`
	VersionedModel
}

// TableName 指定表名
func (AcademicYear) TableName() string { return "academic_years" }
