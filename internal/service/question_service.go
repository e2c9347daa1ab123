package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
)

// ── 题目模块业务错误 ──

var (
	ErrQuestionNotFound      = errors.New("题目不存在")
	ErrQuestionInvalid       = errors.New("题目内容不合法")
	ErrAnswerKeyNumberAbsent = errors.New("答案对应的题号不存在")
)

// QuestionService 题目业务接口
type QuestionService interface {
	List(ctx context.Context, examID string) ([]dto.QuestionResponse, error)
	Create(ctx context.Context, examID string, req *dto.QuestionRequest, callerID string) (*dto.QuestionResponse, error)
	Update(ctx context.Context, examID, questionID string, req *dto.QuestionRequest, callerID string) (*dto.QuestionResponse, error)
	// Delete 删除后后续题号前移，保持 1..n 连续
	Delete(ctx context.Context, examID, questionID string) error
	ReplaceAnswerKey(ctx context.Context, examID string, req *dto.AnswerKeyRequest, callerID string) ([]dto.QuestionResponse, error)
}

type questionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewQuestionService 创建 QuestionService 实例
func NewQuestionService(repo *repository.Repository, logger *zap.Logger) QuestionService {
	return &questionService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *questionService) List(ctx context.Context, examID string) ([]dto.QuestionResponse, error) {
	if err := s.ensureExam(ctx, examID); err != nil {
		return nil, err
	}
	qs, err := s.repo.Question.ListByExam(ctx, examID)
	if err != nil {
		s.logger.Error("查询题目列表失败", zap.String("exam_id", examID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.QuestionResponse, 0, len(qs))
	for i := range qs {
		result = append(result, *toQuestionResponse(&qs[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *questionService) Create(ctx context.Context, examID string, req *dto.QuestionRequest, callerID string) (*dto.QuestionResponse, error) {
	options, answers, err := normalizeQuestion(req.Type, req.Options, req.CorrectAnswers)
	if err != nil {
		return nil, err
	}
	if err := s.ensureExam(ctx, examID); err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:         examID,
		Text:           req.Text,
		Type:           req.Type,
		Points:         req.Points,
		Options:        options,
		CorrectAnswers: answers,
	}
	q.CreatedBy = &callerID
	q.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := lockExam(ctx, txRepo, examID); err != nil {
			return err
		}
		count, err := txRepo.Question.CountByExam(ctx, examID)
		if err != nil {
			return err
		}
		q.Number = int(count) + 1
		if err := txRepo.Question.Create(ctx, q); err != nil {
			return err
		}
		return txRepo.Exam.SetQuestionCount(ctx, examID, q.Number)
	})
	if err != nil {
		s.logger.Error("创建题目失败", zap.String("exam_id", examID), zap.Error(err))
		return nil, err
	}
	return toQuestionResponse(q), nil
}

// ────────────────────── Update ──────────────────────

func (s *questionService) Update(ctx context.Context, examID, questionID string, req *dto.QuestionRequest, callerID string) (*dto.QuestionResponse, error) {
	options, answers, err := normalizeQuestion(req.Type, req.Options, req.CorrectAnswers)
	if err != nil {
		return nil, err
	}
	q, err := s.get(ctx, examID, questionID)
	if err != nil {
		return nil, err
	}

	q.Text = req.Text
	q.Type = req.Type
	q.Points = req.Points
	q.Options = options
	q.CorrectAnswers = answers
	q.UpdatedBy = &callerID

	if err := s.repo.Question.Update(ctx, q); err != nil {
		s.logger.Error("更新题目失败", zap.String("id", questionID), zap.Error(err))
		return nil, err
	}
	return toQuestionResponse(q), nil
}

// ────────────────────── Delete ──────────────────────

func (s *questionService) Delete(ctx context.Context, examID, questionID string) error {
	q, err := s.get(ctx, examID, questionID)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := lockExam(ctx, txRepo, q.ExamID); err != nil {
			return err
		}
		// 加锁后重新读取，题号可能已被并发删除前移
		current, err := txRepo.Question.GetByID(ctx, q.QuestionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return err
		}
		if err := txRepo.Question.Delete(ctx, current.QuestionID); err != nil {
			return err
		}
		if err := txRepo.Question.ShiftNumbers(ctx, current.ExamID, current.Number); err != nil {
			return err
		}
		count, err := txRepo.Question.CountByExam(ctx, q.ExamID)
		if err != nil {
			return err
		}
		return txRepo.Exam.SetQuestionCount(ctx, q.ExamID, int(count))
	})
	if err != nil {
		s.logger.Error("删除题目失败", zap.String("id", questionID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ReplaceAnswerKey ──────────────────────

// ReplaceAnswerKey 按题号批量替换正确答案，任一题不合法则整体不生效
func (s *questionService) ReplaceAnswerKey(ctx context.Context, examID string, req *dto.AnswerKeyRequest, callerID string) ([]dto.QuestionResponse, error) {
	if err := s.ensureExam(ctx, examID); err != nil {
		return nil, err
	}
	qs, err := s.repo.Question.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]*model.Question, len(qs))
	for i := range qs {
		byNumber[qs[i].Number] = &qs[i]
	}

	changed := make([]*model.Question, 0, len(req.Answers))
	for _, item := range req.Answers {
		q, ok := byNumber[item.Number]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrAnswerKeyNumberAbsent, item.Number)
		}
		_, answers, err := normalizeQuestion(q.Type, q.Options, item.CorrectAnswers)
		if err != nil {
			return nil, fmt.Errorf("第 %d 题: %w", item.Number, err)
		}
		q.CorrectAnswers = answers
		q.UpdatedBy = &callerID
		changed = append(changed, q)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for _, q := range changed {
			if err := txRepo.Question.Update(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("替换答案失败", zap.String("exam_id", examID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("替换答案", zap.String("exam_id", examID), zap.Int("count", len(changed)))
	result := make([]dto.QuestionResponse, 0, len(qs))
	for i := range qs {
		result = append(result, *toQuestionResponse(&qs[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *questionService) ensureExam(ctx context.Context, examID string) error {
	if _, err := s.repo.Exam.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}
	return nil
}

// lockExam 在事务内锁定考试行
func lockExam(ctx context.Context, txRepo *repository.Repository, examID string) error {
	if err := txRepo.Exam.LockForUpdate(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}
	return nil
}

func (s *questionService) get(ctx context.Context, examID, questionID string) (*model.Question, error) {
	q, err := s.repo.Question.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	// examID 为空时按题目自身所属考试处理
	if examID != "" && q.ExamID != examID {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

// normalizeQuestion 按题型校验选项与答案
//   - multiple_choice: 至少 2 个选项，恰好 1 个答案且在选项中
//   - select: 至少 2 个选项，至少 1 个答案且均在选项中
//   - true_false: 选项固定为 True/False，恰好 1 个答案
//   - short/long: 无选项，答案可选（作为参考答案）
func normalizeQuestion(qType string, options, answers []string) (model.StringArray, model.StringArray, error) {
	opts := model.StringArray(options)
	ans := model.StringArray(answers)
	if ans == nil {
		ans = model.StringArray{}
	}

	switch qType {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeSelect:
		if len(opts) < 2 {
			return nil, nil, fmt.Errorf("%w: 至少需要 2 个选项", ErrQuestionInvalid)
		}
		seen := make(map[string]struct{}, len(opts))
		for _, o := range opts {
			if o == "" {
				return nil, nil, fmt.Errorf("%w: 选项不能为空", ErrQuestionInvalid)
			}
			if _, dup := seen[o]; dup {
				return nil, nil, fmt.Errorf("%w: 选项重复 %q", ErrQuestionInvalid, o)
			}
			seen[o] = struct{}{}
		}
		if qType == model.QuestionTypeMultipleChoice && len(ans) != 1 {
			return nil, nil, fmt.Errorf("%w: 单选题必须恰好 1 个正确答案", ErrQuestionInvalid)
		}
		if qType == model.QuestionTypeSelect && len(ans) == 0 {
			return nil, nil, fmt.Errorf("%w: 多选题至少 1 个正确答案", ErrQuestionInvalid)
		}
		for _, a := range ans {
			if !opts.Contains(a) {
				return nil, nil, fmt.Errorf("%w: 答案 %q 不在选项中", ErrQuestionInvalid, a)
			}
		}
		return opts, ans, nil

	case model.QuestionTypeTrueFalse:
		if len(ans) != 1 || !model.TrueFalseOptions.Contains(ans[0]) {
			return nil, nil, fmt.Errorf("%w: 判断题答案必须为 True 或 False", ErrQuestionInvalid)
		}
		return append(model.StringArray{}, model.TrueFalseOptions...), ans, nil

	case model.QuestionTypeShort, model.QuestionTypeLong:
		if len(opts) > 0 {
			return nil, nil, fmt.Errorf("%w: 主观题不能设置选项", ErrQuestionInvalid)
		}
		return model.StringArray{}, ans, nil

	default:
		return nil, nil, fmt.Errorf("%w: 未知题型 %s", ErrQuestionInvalid, qType)
	}
}

func toQuestionResponse(q *model.Question) *dto.QuestionResponse {
	return &dto.QuestionResponse{
		ID:             q.QuestionID,
		ExamID:         q.ExamID,
		Number:         q.Number,
		Text:           q.Text,
		Type:           q.Type,
		Points:         q.Points,
		Options:        append([]string{}, q.Options...),
		CorrectAnswers: append([]string{}, q.CorrectAnswers...),
	}
}
