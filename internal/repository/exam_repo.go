package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"routinetest/internal/model"
	pkgerrors "routinetest/pkg/errors"
)

// ExamFilter 考试列表过滤条件，空值表示不过滤
type ExamFilter struct {
	ExamType          string
	Timeslot          string
	AcademicYear      string
	CurriculumLevelID string
	ClassCode         string
	Keyword           string
}

// ExamRepository 考试及班级关联数据访问接口
type ExamRepository interface {
	Create(ctx context.Context, exam *model.Exam) error
	GetByID(ctx context.Context, id string) (*model.Exam, error)
	List(ctx context.Context, f ExamFilter, offset, limit int) ([]model.Exam, int64, error)
	Update(ctx context.Context, exam *model.Exam) error
	Delete(ctx context.Context, id string, deletedBy string) error
	SetQuestionCount(ctx context.Context, id string, count int) error
	// LockForUpdate 须在事务内调用：锁定考试行，同一考试的题号分配与前移串行执行
	LockForUpdate(ctx context.Context, id string) error

	// 班级-时间段关联
	CreateLink(ctx context.Context, link *model.ClassExam) error
	GetLink(ctx context.Context, examID, classCode, timeslot, year string) (*model.ClassExam, error)
	ListLinks(ctx context.Context, examID string) ([]model.ClassExam, error)
	DeleteLink(ctx context.Context, examID, classCode, timeslot, year string) (int64, error)
	DeleteLinks(ctx context.Context, examID string) error
	CountLinks(ctx context.Context, examID string) (int64, error)
}

type examRepo struct {
	db *gorm.DB
}

// NewExamRepo 创建 ExamRepository 实例
func NewExamRepo(db *gorm.DB) ExamRepository {
	return &examRepo{db: db}
}

func (r *examRepo) Create(ctx context.Context, exam *model.Exam) error {
	return r.db.WithContext(ctx).Omit("CurriculumLevel").Create(exam).Error
}

func (r *examRepo) GetByID(ctx context.Context, id string) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.WithContext(ctx).
		Preload("CurriculumLevel.SubProgram.Program").
		Where("exam_id = ?", id).
		First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepo) List(ctx context.Context, f ExamFilter, offset, limit int) ([]model.Exam, int64, error) {
	var exams []model.Exam
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Exam{})
	if f.ExamType != "" {
		db = db.Where("exam_type = ?", f.ExamType)
	}
	if f.Timeslot != "" {
		db = db.Where("timeslot = ?", f.Timeslot)
	}
	if f.AcademicYear != "" {
		db = db.Where("academic_year = ?", f.AcademicYear)
	}
	if f.CurriculumLevelID != "" {
		db = db.Where("curriculum_level_id = ?", f.CurriculumLevelID)
	}
	if f.ClassCode != "" {
		db = db.Where("exam_id IN (?)",
			r.db.Model(&model.ClassExam{}).Select("exam_id").Where("class_code = ?", f.ClassCode))
	}
	if f.Keyword != "" {
		db = db.Where("name ILIKE ?", "%"+f.Keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("CurriculumLevel.SubProgram.Program").
		Order("academic_year DESC, exam_type ASC, timeslot ASC, name ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

// Update 乐观锁更新
func (r *examRepo) Update(ctx context.Context, exam *model.Exam) error {
	oldVersion := exam.Version
	result := r.db.WithContext(ctx).
		Model(&model.Exam{}).
		Where("exam_id = ? AND version = ?", exam.ExamID, oldVersion).
		Updates(map[string]interface{}{
			"name":                exam.Name,
			"curriculum_level_id": exam.CurriculumLevelID,
			"duration_minutes":    exam.DurationMinutes,
			"description":         exam.Description,
			"updated_by":          exam.UpdatedBy,
			"updated_at":          gorm.Expr("NOW()"),
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	exam.Version = oldVersion + 1
	return nil
}

func (r *examRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Exam{}).
		Where("exam_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *examRepo) SetQuestionCount(ctx context.Context, id string, count int) error {
	return r.db.WithContext(ctx).
		Model(&model.Exam{}).
		Where("exam_id = ?", id).
		Update("question_count", count).Error
}

func (r *examRepo) LockForUpdate(ctx context.Context, id string) error {
	var exam model.Exam
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("exam_id").
		Where("exam_id = ?", id).
		First(&exam).Error
}

// ── ClassExam ──

func (r *examRepo) CreateLink(ctx context.Context, link *model.ClassExam) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *examRepo) GetLink(ctx context.Context, examID, classCode, timeslot, year string) (*model.ClassExam, error) {
	var link model.ClassExam
	err := r.db.WithContext(ctx).
		Where("exam_id = ? AND class_code = ? AND timeslot = ? AND academic_year = ?", examID, classCode, timeslot, year).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *examRepo) ListLinks(ctx context.Context, examID string) ([]model.ClassExam, error) {
	var links []model.ClassExam
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("academic_year ASC, class_code ASC").
		Find(&links).Error
	return links, err
}

// DeleteLink year 为空时匹配任意学年，返回删除行数
func (r *examRepo) DeleteLink(ctx context.Context, examID, classCode, timeslot, year string) (int64, error) {
	db := r.db.WithContext(ctx).
		Where("exam_id = ? AND class_code = ? AND timeslot = ?", examID, classCode, timeslot)
	if year != "" {
		db = db.Where("academic_year = ?", year)
	}
	result := db.Delete(&model.ClassExam{})
	return result.RowsAffected, result.Error
}

func (r *examRepo) DeleteLinks(ctx context.Context, examID string) error {
	return r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&model.ClassExam{}).Error
}

func (r *examRepo) CountLinks(ctx context.Context, examID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ClassExam{}).
		Where("exam_id = ?", examID).
		Count(&n).Error
	return n, err
}
