package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"routinetest/internal/model"
)

// SessionFilter 场次过滤条件
type SessionFilter struct {
	ClassCode string
	TeacherID string
	ExamID    string
	From      *time.Time
	To        *time.Time
}

// SessionRepository 考试场次数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, s *model.ExamSession) error
	GetByID(ctx context.Context, id string) (*model.ExamSession, error)
	List(ctx context.Context, f SessionFilter) ([]model.ExamSession, error)
	Update(ctx context.Context, s *model.ExamSession) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// CountTeacherOverlaps 统计该教师与 [start, end) 时间重叠的场次，excludeID 用于更新时排除自身
	CountTeacherOverlaps(ctx context.Context, teacherID string, start, end time.Time, excludeID string) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.ExamSession) error {
	return r.db.WithContext(ctx).Omit("Exam", "Teacher").Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.ExamSession, error) {
	var s model.ExamSession
	err := r.db.WithContext(ctx).
		Preload("Exam").
		Preload("Teacher").
		Where("session_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) List(ctx context.Context, f SessionFilter) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	db := r.db.WithContext(ctx)

	if f.ClassCode != "" {
		db = db.Where("class_code = ?", f.ClassCode)
	}
	if f.TeacherID != "" {
		db = db.Where("teacher_id = ?", f.TeacherID)
	}
	if f.ExamID != "" {
		db = db.Where("exam_id = ?", f.ExamID)
	}
	if f.From != nil {
		db = db.Where("scheduled_end > ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("scheduled_start < ?", *f.To)
	}

	err := db.Preload("Exam").
		Preload("Teacher").
		Order("scheduled_start ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) Update(ctx context.Context, s *model.ExamSession) error {
	return r.db.WithContext(ctx).Omit("Exam", "Teacher").Save(s).Error
}

func (r *sessionRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ExamSession{}).
		Where("session_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *sessionRepo) CountTeacherOverlaps(ctx context.Context, teacherID string, start, end time.Time, excludeID string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.ExamSession{}).
		Where("teacher_id = ? AND scheduled_start < ? AND scheduled_end > ?", teacherID, end, start)
	if excludeID != "" {
		db = db.Where("session_id <> ?", excludeID)
	}
	err := db.Count(&n).Error
	return n, err
}
