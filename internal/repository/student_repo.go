package repository

import (
	"context"

	"gorm.io/gorm"

	"routinetest/internal/model"
)

// StudentFilter 学生列表过滤条件
type StudentFilter struct {
	ClassCode string
	Keyword   string
}

// StudentRepository 学生名册数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	BatchCreate(ctx context.Context, students []model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	ExistingNumbers(ctx context.Context, numbers []string) ([]string, error)
	List(ctx context.Context, f StudentFilter, offset, limit int) ([]model.Student, int64, error)
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, s *model.Student) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *studentRepo) BatchCreate(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&students, 200).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).Where("student_id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ExistingNumbers 返回已存在的学号
func (r *studentRepo) ExistingNumbers(ctx context.Context, numbers []string) ([]string, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_number IN ?", numbers).
		Pluck("student_number", &existing).Error
	return existing, err
}

// List limit <= 0 时不分页（导出使用）
func (r *studentRepo) List(ctx context.Context, f StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if f.ClassCode != "" {
		db = db.Where("class_code = ?", f.ClassCode)
	}
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		db = db.Where("name ILIKE ? OR student_number ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Order("class_code ASC, student_number ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) Update(ctx context.Context, s *model.Student) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
