package repository

import (
	"context"

	"gorm.io/gorm"

	"routinetest/internal/model"
)

// ClassRepository 班级数据访问接口
type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	GetByCode(ctx context.Context, code string) (*model.Class, error)
	List(ctx context.Context, activeOnly bool) ([]model.Class, error)
	Update(ctx context.Context, class *model.Class) error
	Delete(ctx context.Context, code string, deletedBy string) error
	// UpdateCurriculumDisplay 回写班级冗余的课程展示字段
	UpdateCurriculumDisplay(ctx context.Context, code string, levelID *string, program, subProgram, level string) error
}

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo 创建 ClassRepository 实例
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) Create(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepo) GetByCode(ctx context.Context, code string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Where("class_code = ?", code).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) List(ctx context.Context, activeOnly bool) ([]model.Class, error) {
	var classes []model.Class
	db := r.db.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("class_code ASC").Find(&classes).Error
	return classes, err
}

func (r *classRepo) Update(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Save(class).Error
}

func (r *classRepo) Delete(ctx context.Context, code string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Class{}).
		Where("class_code = ?", code).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *classRepo) UpdateCurriculumDisplay(ctx context.Context, code string, levelID *string, program, subProgram, level string) error {
	return r.db.WithContext(ctx).
		Model(&model.Class{}).
		Where("class_code = ?", code).
		Updates(map[string]interface{}{
			"curriculum_level_id": levelID,
			"program":             program,
			"subprogram":          subProgram,
			"level":               level,
			"updated_at":          gorm.Expr("NOW()"),
		}).Error
}
