package repository

import (
	"context"

	"gorm.io/gorm"

	"routinetest/internal/model"
)

// CurriculumRepository 课程目录（体系 → 子课程 → 等级）数据访问接口
// 所有列表按 sort_order 排序，即前端下拉框的“源顺序”
type CurriculumRepository interface {
	// Program
	ListPrograms(ctx context.Context) ([]model.Program, error)
	GetProgram(ctx context.Context, id string) (*model.Program, error)
	CreateProgram(ctx context.Context, p *model.Program) error
	UpdateProgram(ctx context.Context, p *model.Program) error
	DeleteProgram(ctx context.Context, id string) error

	// SubProgram
	ListSubPrograms(ctx context.Context, programID string) ([]model.SubProgram, error)
	GetSubProgram(ctx context.Context, id string) (*model.SubProgram, error)
	CreateSubProgram(ctx context.Context, sp *model.SubProgram) error
	UpdateSubProgram(ctx context.Context, sp *model.SubProgram) error
	DeleteSubProgram(ctx context.Context, id string) error

	// Level
	ListLevels(ctx context.Context, subProgramID string) ([]model.CurriculumLevel, error)
	GetLevel(ctx context.Context, id string) (*model.CurriculumLevel, error)
	CreateLevel(ctx context.Context, l *model.CurriculumLevel) error
	UpdateLevel(ctx context.Context, l *model.CurriculumLevel) error
	DeleteLevel(ctx context.Context, id string) error

	// 引用计数（删除前检查）
	CountSubPrograms(ctx context.Context, programID string) (int64, error)
	CountLevels(ctx context.Context, subProgramID string) (int64, error)
	CountLevelReferences(ctx context.Context, levelID string) (int64, error)

	// Tree 完整目录树
	Tree(ctx context.Context) ([]model.Program, error)
}

type curriculumRepo struct {
	db *gorm.DB
}

// NewCurriculumRepo 创建 CurriculumRepository 实例
func NewCurriculumRepo(db *gorm.DB) CurriculumRepository {
	return &curriculumRepo{db: db}
}

// ── Program ──

func (r *curriculumRepo) ListPrograms(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, name ASC").
		Find(&programs).Error
	return programs, err
}

func (r *curriculumRepo) GetProgram(ctx context.Context, id string) (*model.Program, error) {
	var p model.Program
	if err := r.db.WithContext(ctx).Where("program_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *curriculumRepo) CreateProgram(ctx context.Context, p *model.Program) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *curriculumRepo) UpdateProgram(ctx context.Context, p *model.Program) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *curriculumRepo) DeleteProgram(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("program_id = ?", id).Delete(&model.Program{}).Error
}

// ── SubProgram ──

func (r *curriculumRepo) ListSubPrograms(ctx context.Context, programID string) ([]model.SubProgram, error) {
	var subs []model.SubProgram
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("sort_order ASC, name ASC").
		Find(&subs).Error
	return subs, err
}

func (r *curriculumRepo) GetSubProgram(ctx context.Context, id string) (*model.SubProgram, error) {
	var sp model.SubProgram
	err := r.db.WithContext(ctx).
		Preload("Program").
		Where("subprogram_id = ?", id).
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *curriculumRepo) CreateSubProgram(ctx context.Context, sp *model.SubProgram) error {
	return r.db.WithContext(ctx).Omit("Program").Create(sp).Error
}

func (r *curriculumRepo) UpdateSubProgram(ctx context.Context, sp *model.SubProgram) error {
	return r.db.WithContext(ctx).Omit("Program").Save(sp).Error
}

func (r *curriculumRepo) DeleteSubProgram(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("subprogram_id = ?", id).Delete(&model.SubProgram{}).Error
}

// ── Level ──

func (r *curriculumRepo) ListLevels(ctx context.Context, subProgramID string) ([]model.CurriculumLevel, error) {
	var levels []model.CurriculumLevel
	err := r.db.WithContext(ctx).
		Preload("SubProgram.Program").
		Where("subprogram_id = ?", subProgramID).
		Order("sort_order ASC, level_number ASC").
		Find(&levels).Error
	return levels, err
}

// GetLevel 预加载 SubProgram.Program 以便拼接显示名
func (r *curriculumRepo) GetLevel(ctx context.Context, id string) (*model.CurriculumLevel, error) {
	var l model.CurriculumLevel
	err := r.db.WithContext(ctx).
		Preload("SubProgram.Program").
		Where("level_id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *curriculumRepo) CreateLevel(ctx context.Context, l *model.CurriculumLevel) error {
	return r.db.WithContext(ctx).Omit("SubProgram").Create(l).Error
}

func (r *curriculumRepo) UpdateLevel(ctx context.Context, l *model.CurriculumLevel) error {
	return r.db.WithContext(ctx).Omit("SubProgram").Save(l).Error
}

func (r *curriculumRepo) DeleteLevel(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("level_id = ?", id).Delete(&model.CurriculumLevel{}).Error
}

// ── 引用计数 ──

func (r *curriculumRepo) CountSubPrograms(ctx context.Context, programID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.SubProgram{}).
		Where("program_id = ?", programID).
		Count(&n).Error
	return n, err
}

func (r *curriculumRepo) CountLevels(ctx context.Context, subProgramID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.CurriculumLevel{}).
		Where("subprogram_id = ?", subProgramID).
		Count(&n).Error
	return n, err
}

// CountLevelReferences 统计引用该等级的课程映射与考试数量
func (r *curriculumRepo) CountLevelReferences(ctx context.Context, levelID string) (int64, error) {
	var mappings, exams int64
	if err := r.db.WithContext(ctx).
		Model(&model.CurriculumMapping{}).
		Where("curriculum_level_id = ?", levelID).
		Count(&mappings).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Exam{}).
		Where("curriculum_level_id = ?", levelID).
		Count(&exams).Error; err != nil {
		return 0, err
	}
	return mappings + exams, nil
}

// ── Tree ──

func (r *curriculumRepo) Tree(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	err := r.db.WithContext(ctx).
		Preload("SubPrograms", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, name ASC")
		}).
		Preload("SubPrograms.Levels", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, level_number ASC")
		}).
		Order("sort_order ASC, name ASC").
		Find(&programs).Error
	return programs, err
}
