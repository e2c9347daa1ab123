package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// SessionOverrides 场次级覆盖设置（JSONB）
type SessionOverrides struct {
	DurationMinutes  *int   `json:"duration_minutes,omitempty"`
	ExtraTimeMinutes *int   `json:"extra_time_minutes,omitempty"`
	AllowLateEntry   *bool  `json:"allow_late_entry,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// Scan 实现 sql.Scanner
func (o *SessionOverrides) Scan(src interface{}) error {
	*o = SessionOverrides{}
	return scanJSON(src, o)
}

// Value 实现 driver.Valuer
func (o SessionOverrides) Value() (driver.Value, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ExamSession 考试场次表，对应 exam_sessions
type ExamSession struct {
	SessionID      string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	ExamID         string           `gorm:"type:uuid;not null;index"                       json:"exam_id"`
	Title          string           `gorm:"type:varchar(200);not null"                     json:"title"`
	ClassCode      string           `gorm:"type:varchar(30);not null;index"                json:"class_code"`
	TeacherID      *string          `gorm:"type:uuid;index"                                json:"teacher_id,omitempty"`
	ScheduledStart time.Time        `gorm:"not null"                                       json:"scheduled_start"`
	ScheduledEnd   time.Time        `gorm:"not null"                                       json:"scheduled_end"`
	Overrides      SessionOverrides `gorm:"type:jsonb;not null;default:'{}'"               json:"overrides"`
	SoftDeleteModel

	// 关联
	Exam    *Exam    `gorm:"foreignKey:ExamID;references:ExamID"       json:"exam,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (ExamSession) TableName() string { return "exam_sessions" }

// EffectiveDuration 场次实际时长（分钟）：覆盖时长优先，其次考试时长，再加延时
func (s *ExamSession) EffectiveDuration() int {
	d := 0
	if s.Exam != nil {
		d = s.Exam.DurationMinutes
	}
	if s.Overrides.DurationMinutes != nil {
		d = *s.Overrides.DurationMinutes
	}
	if s.Overrides.ExtraTimeMinutes != nil {
		d += *s.Overrides.ExtraTimeMinutes
	}
	return d
}
