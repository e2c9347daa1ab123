package repository

import (
	"context"

	"gorm.io/gorm"

	"routinetest/internal/model"
	pkgerrors "routinetest/pkg/errors"
)

// MappingRepository 班级课程映射数据访问接口
type MappingRepository interface {
	Get(ctx context.Context, classCode, year string) (*model.CurriculumMapping, error)
	ListByYear(ctx context.Context, year string) ([]model.CurriculumMapping, error)
	Create(ctx context.Context, m *model.CurriculumMapping) error
	Update(ctx context.Context, m *model.CurriculumMapping) error
	Delete(ctx context.Context, classCode, year string) error
}

type mappingRepo struct {
	db *gorm.DB
}

// NewMappingRepo 创建 MappingRepository 实例
func NewMappingRepo(db *gorm.DB) MappingRepository {
	return &mappingRepo{db: db}
}

func (r *mappingRepo) Get(ctx context.Context, classCode, year string) (*model.CurriculumMapping, error) {
	var m model.CurriculumMapping
	err := r.db.WithContext(ctx).
		Preload("CurriculumLevel.SubProgram.Program").
		Where("class_code = ? AND academic_year = ?", classCode, year).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) ListByYear(ctx context.Context, year string) ([]model.CurriculumMapping, error) {
	var mappings []model.CurriculumMapping
	err := r.db.WithContext(ctx).
		Preload("CurriculumLevel.SubProgram.Program").
		Where("academic_year = ?", year).
		Order("class_code ASC").
		Find(&mappings).Error
	return mappings, err
}

func (r *mappingRepo) Create(ctx context.Context, m *model.CurriculumMapping) error {
	return r.db.WithContext(ctx).Omit("CurriculumLevel").Create(m).Error
}

// Update 乐观锁更新
func (r *mappingRepo) Update(ctx context.Context, m *model.CurriculumMapping) error {
	oldVersion := m.Version
	result := r.db.WithContext(ctx).
		Model(&model.CurriculumMapping{}).
		Where("mapping_id = ? AND version = ?", m.MappingID, oldVersion).
		Updates(map[string]interface{}{
			"curriculum_level_id": m.CurriculumLevelID,
			"updated_by":          m.UpdatedBy,
			"updated_at":          gorm.Expr("NOW()"),
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	m.Version = oldVersion + 1
	return nil
}

// Delete 不存在时返回 gorm.ErrRecordNotFound
func (r *mappingRepo) Delete(ctx context.Context, classCode, year string) error {
	result := r.db.WithContext(ctx).
		Where("class_code = ? AND academic_year = ?", classCode, year).
		Delete(&model.CurriculumMapping{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
