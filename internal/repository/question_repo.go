package repository

import (
	"context"

	"gorm.io/gorm"

	"routinetest/internal/model"
)

// QuestionRepository 题目数据访问接口
type QuestionRepository interface {
	ListByExam(ctx context.Context, examID string) ([]model.Question, error)
	GetByID(ctx context.Context, id string) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	BatchCreate(ctx context.Context, qs []model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id string) error
	CountByExam(ctx context.Context, examID string) (int64, error)
	// ShiftNumbers 将题号大于 after 的题目前移一位，保持 1..n 连续
	ShiftNumbers(ctx context.Context, examID string, after int) error
}

type questionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo 创建 QuestionRepository 实例
func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) ListByExam(ctx context.Context, examID string) ([]model.Question, error) {
	var qs []model.Question
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("number ASC").
		Find(&qs).Error
	return qs, err
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	if err := r.db.WithContext(ctx).Where("question_id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) Create(ctx context.Context, q *model.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *questionRepo) BatchCreate(ctx context.Context, qs []model.Question) error {
	if len(qs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&qs).Error
}

func (r *questionRepo) Update(ctx context.Context, q *model.Question) error {
	return r.db.WithContext(ctx).Save(q).Error
}

func (r *questionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("question_id = ?", id).Delete(&model.Question{}).Error
}

func (r *questionRepo) CountByExam(ctx context.Context, examID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Question{}).
		Where("exam_id = ?", examID).
		Count(&n).Error
	return n, err
}

func (r *questionRepo) ShiftNumbers(ctx context.Context, examID string, after int) error {
	return r.db.WithContext(ctx).
		Model(&model.Question{}).
		Where("exam_id = ? AND number > ?", examID, after).
		Update("number", gorm.Expr("number - 1")).Error
}
