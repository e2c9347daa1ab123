package repository

import (
	"context"

	"gorm.io/gorm"

	"routinetest/internal/model"
)

// TeacherFilter 教师列表过滤条件
type TeacherFilter struct {
	Keyword  string
	IsActive *bool
}

// TeacherRepository 教师、任课关系与可用时段数据访问接口
type TeacherRepository interface {
	Create(ctx context.Context, t *model.Teacher) error
	GetByID(ctx context.Context, id string) (*model.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*model.Teacher, error)
	List(ctx context.Context, f TeacherFilter, offset, limit int) ([]model.Teacher, int64, error)
	Update(ctx context.Context, t *model.Teacher) error
	Delete(ctx context.Context, id string, deletedBy string) error

	// 任课关系
	ListAssignmentsByTeacher(ctx context.Context, teacherID string) ([]model.TeacherClassAssignment, error)
	ListAssignmentsByClass(ctx context.Context, classCode string) ([]model.TeacherClassAssignment, error)
	IsAssigned(ctx context.Context, teacherID, classCode string) (bool, error)
	DeleteAssignments(ctx context.Context, teacherID string) error
	ClearPrimary(ctx context.Context, classCode string) error
	CreateAssignments(ctx context.Context, as []model.TeacherClassAssignment) error

	// 可用时段
	ListAvailability(ctx context.Context, teacherID string) ([]model.TeacherAvailability, error)
	DeleteAvailability(ctx context.Context, teacherID string) error
	CreateAvailability(ctx context.Context, slots []model.TeacherAvailability) error
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, t *model.Teacher) error {
	return r.db.WithContext(ctx).Omit("Assignments", "Availability").Create(t).Error
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("class_code ASC")
		}).
		Preload("Availability", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Where("teacher_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Where("lower(email) = lower(?)", email).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) List(ctx context.Context, f TeacherFilter, offset, limit int) ([]model.Teacher, int64, error) {
	var teachers []model.Teacher
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Teacher{})
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Assignments").
		Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&teachers).Error; err != nil {
		return nil, 0, err
	}

	return teachers, total, nil
}

func (r *teacherRepo) Update(ctx context.Context, t *model.Teacher) error {
	return r.db.WithContext(ctx).Omit("Assignments", "Availability").Save(t).Error
}

func (r *teacherRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("teacher_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── 任课关系 ──

func (r *teacherRepo) ListAssignmentsByTeacher(ctx context.Context, teacherID string) ([]model.TeacherClassAssignment, error) {
	var as []model.TeacherClassAssignment
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("class_code ASC").
		Find(&as).Error
	return as, err
}

func (r *teacherRepo) ListAssignmentsByClass(ctx context.Context, classCode string) ([]model.TeacherClassAssignment, error) {
	var as []model.TeacherClassAssignment
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("class_code = ?", classCode).
		Order("is_primary DESC, role ASC").
		Find(&as).Error
	return as, err
}

func (r *teacherRepo) IsAssigned(ctx context.Context, teacherID, classCode string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.TeacherClassAssignment{}).
		Where("teacher_id = ? AND class_code = ?", teacherID, classCode).
		Count(&n).Error
	return n > 0, err
}

func (r *teacherRepo) DeleteAssignments(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.TeacherClassAssignment{}).Error
}

// ClearPrimary 取消某班级现有的主带教师标记
func (r *teacherRepo) ClearPrimary(ctx context.Context, classCode string) error {
	return r.db.WithContext(ctx).
		Model(&model.TeacherClassAssignment{}).
		Where("class_code = ? AND is_primary = ?", classCode, true).
		Update("is_primary", false).Error
}

func (r *teacherRepo) CreateAssignments(ctx context.Context, as []model.TeacherClassAssignment) error {
	if len(as) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Teacher").Create(&as).Error
}

// ── 可用时段 ──

func (r *teacherRepo) ListAvailability(ctx context.Context, teacherID string) ([]model.TeacherAvailability, error) {
	var slots []model.TeacherAvailability
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *teacherRepo) DeleteAvailability(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&model.TeacherAvailability{}).Error
}

func (r *teacherRepo) CreateAvailability(ctx context.Context, slots []model.TeacherAvailability) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}
