package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
	pkgerrors "routinetest/pkg/errors"
)

// ── 考试模块业务错误 ──

var (
	ErrExamNotFound           = errors.New("考试不存在")
	ErrTimeslotMismatch       = errors.New("时间段与考试类型不匹配（REVIEW 对应月份，QUARTERLY 对应季度）")
	ErrDeleteParamsIncomplete = errors.New("class_code 与 timeslot 必须同时提供")
	ErrExamLinkNotFound       = errors.New("该班级时间段未关联此考试")
	ErrExamLinkExists         = errors.New("该班级时间段已关联此考试")
	ErrCopyMissingField       = errors.New("复制考试缺少必填字段 source_exam_id 或 curriculum_level_id")
	ErrDurationInvalid        = errors.New("考试时长必须在 1-600 分钟之间")
)

const (
	minExamDuration = 1
	maxExamDuration = 600
)

// ExamService 考试业务接口
type ExamService interface {
	List(ctx context.Context, req *dto.ExamListRequest) ([]dto.ExamResponse, int64, error)
	Get(ctx context.Context, id string) (*dto.ExamResponse, error)
	Create(ctx context.Context, req *dto.CreateExamRequest, callerID string) (*dto.ExamResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateExamRequest, callerID string) (*dto.ExamResponse, error)
	UpdateDuration(ctx context.Context, id string, minutes int, callerID string) (*dto.ExamResponse, error)
	// Delete class_code+timeslot 同时给出时仅解除关联（无剩余关联则删除考试），同时缺省时删除考试及全部关联
	Delete(ctx context.Context, id string, req *dto.DeleteExamRequest, callerID string) (*dto.DeleteExamResponse, error)
	Assign(ctx context.Context, id string, req *dto.AssignExamRequest, callerID string) (*dto.ExamResponse, error)
	Copy(ctx context.Context, req *dto.CopyExamRequest, callerID string) (*dto.ExamResponse, error)
}

type examService struct {
	repo            *repository.Repository
	defaultDuration int
	logger          *zap.Logger
}

// NewExamService 创建 ExamService 实例
func NewExamService(repo *repository.Repository, defaultDuration int, logger *zap.Logger) ExamService {
	if defaultDuration < minExamDuration || defaultDuration > maxExamDuration {
		defaultDuration = 60
	}
	return &examService{repo: repo, defaultDuration: defaultDuration, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *examService) List(ctx context.Context, req *dto.ExamListRequest) ([]dto.ExamResponse, int64, error) {
	f := repository.ExamFilter{
		ExamType:          req.ExamType,
		Timeslot:          strings.ToUpper(req.Timeslot),
		AcademicYear:      req.AcademicYear,
		CurriculumLevelID: req.CurriculumLevelID,
		ClassCode:         req.ClassCode,
		Keyword:           req.Keyword,
	}
	exams, total, err := s.repo.Exam.List(ctx, f, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询考试列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ExamResponse, 0, len(exams))
	for i := range exams {
		result = append(result, *toExamResponse(&exams[i], nil))
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *examService) Get(ctx context.Context, id string) (*dto.ExamResponse, error) {
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.Exam.ListLinks(ctx, id)
	if err != nil {
		s.logger.Error("查询考试关联失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toExamResponse(exam, links), nil
}

// ────────────────────── Create ──────────────────────

func (s *examService) Create(ctx context.Context, req *dto.CreateExamRequest, callerID string) (*dto.ExamResponse, error) {
	timeslot := strings.ToUpper(req.Timeslot)
	if !model.TimeslotMatchesType(req.ExamType, timeslot) {
		return nil, ErrTimeslotMismatch
	}

	year, err := resolveAcademicYear(ctx, s.repo, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	exam := &model.Exam{
		Name:            req.Name,
		ExamType:        req.ExamType,
		Timeslot:        timeslot,
		AcademicYear:    year,
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
	}
	if exam.DurationMinutes == 0 {
		exam.DurationMinutes = s.defaultDuration
	}
	if req.CurriculumLevelID != nil && *req.CurriculumLevelID != "" {
		level, err := s.repo.Curriculum.GetLevel(ctx, *req.CurriculumLevelID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrLevelNotFound
			}
			return nil, err
		}
		exam.CurriculumLevelID = &level.LevelID
		exam.CurriculumLevel = level
	}
	exam.Version = 1
	exam.CreatedBy = &callerID
	exam.UpdatedBy = &callerID

	if err := s.repo.Exam.Create(ctx, exam); err != nil {
		s.logger.Error("创建考试失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建考试", zap.String("exam_id", exam.ExamID), zap.String("name", exam.Name))
	return toExamResponse(exam, nil), nil
}

// ────────────────────── Update ──────────────────────

func (s *examService) Update(ctx context.Context, id string, req *dto.UpdateExamRequest, callerID string) (*dto.ExamResponse, error) {
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Name != nil {
		exam.Name = *req.Name
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.CurriculumLevelID != nil {
		if *req.CurriculumLevelID == "" {
			exam.CurriculumLevelID = nil
			exam.CurriculumLevel = nil
		} else {
			level, err := s.repo.Curriculum.GetLevel(ctx, *req.CurriculumLevelID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrLevelNotFound
				}
				return nil, err
			}
			exam.CurriculumLevelID = &level.LevelID
			exam.CurriculumLevel = level
		}
	}
	exam.UpdatedBy = &callerID

	if err := s.repo.Exam.Update(ctx, exam); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新考试失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return toExamResponse(exam, nil), nil
}

// ────────────────────── UpdateDuration ──────────────────────

func (s *examService) UpdateDuration(ctx context.Context, id string, minutes int, callerID string) (*dto.ExamResponse, error) {
	if minutes < minExamDuration || minutes > maxExamDuration {
		return nil, ErrDurationInvalid
	}
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	exam.DurationMinutes = minutes
	exam.UpdatedBy = &callerID
	if err := s.repo.Exam.Update(ctx, exam); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新考试时长失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return toExamResponse(exam, nil), nil
}

// ────────────────────── Delete ──────────────────────

func (s *examService) Delete(ctx context.Context, id string, req *dto.DeleteExamRequest, callerID string) (*dto.DeleteExamResponse, error) {
	hasClass, hasSlot := req.ClassCode != "", req.Timeslot != ""
	if hasClass != hasSlot {
		return nil, ErrDeleteParamsIncomplete
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	resp := &dto.DeleteExamResponse{ExamID: id}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// 整卷删除
		if !hasClass {
			if err := txRepo.Exam.DeleteLinks(ctx, id); err != nil {
				return err
			}
			resp.ExamDeleted = true
			return txRepo.Exam.Delete(ctx, id, callerID)
		}

		// 仅解除班级时间段关联
		n, err := txRepo.Exam.DeleteLink(ctx, id, req.ClassCode, strings.ToUpper(req.Timeslot), req.AcademicYear)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrExamLinkNotFound
		}
		resp.LinkRemoved = true

		left, err := txRepo.Exam.CountLinks(ctx, id)
		if err != nil {
			return err
		}
		if left == 0 {
			resp.ExamDeleted = true
			return txRepo.Exam.Delete(ctx, id, callerID)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrExamLinkNotFound) {
			s.logger.Error("删除考试失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("删除考试",
		zap.String("exam_id", id),
		zap.Bool("link_removed", resp.LinkRemoved),
		zap.Bool("exam_deleted", resp.ExamDeleted))
	return resp, nil
}

// ────────────────────── Assign ──────────────────────

func (s *examService) Assign(ctx context.Context, id string, req *dto.AssignExamRequest, callerID string) (*dto.ExamResponse, error) {
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	timeslot := strings.ToUpper(req.Timeslot)
	if !model.TimeslotMatchesType(exam.ExamType, timeslot) {
		return nil, ErrTimeslotMismatch
	}
	if _, err := s.repo.Class.GetByCode(ctx, req.ClassCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	year := req.AcademicYear
	if year == "" {
		year = exam.AcademicYear
	}

	if _, err := s.repo.Exam.GetLink(ctx, id, req.ClassCode, timeslot, year); err == nil {
		return nil, ErrExamLinkExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	link := &model.ClassExam{
		ClassCode:    req.ClassCode,
		ExamID:       id,
		Timeslot:     timeslot,
		AcademicYear: year,
	}
	link.CreatedBy = &callerID
	link.UpdatedBy = &callerID
	if err := s.repo.Exam.CreateLink(ctx, link); err != nil {
		s.logger.Error("关联考试失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	links, err := s.repo.Exam.ListLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	return toExamResponse(exam, links), nil
}

// ────────────────────── Copy ──────────────────────

// Copy 复制考试及全部题目到目标课程等级
// 缺少 source_exam_id 或 curriculum_level_id 时直接拒绝，不访问存储层
func (s *examService) Copy(ctx context.Context, req *dto.CopyExamRequest, callerID string) (*dto.ExamResponse, error) {
	if strings.TrimSpace(req.SourceExamID) == "" || strings.TrimSpace(req.CurriculumLevelID) == "" {
		return nil, ErrCopyMissingField
	}
	if req.ExamType != "" && req.Timeslot != "" && !model.TimeslotMatchesType(req.ExamType, strings.ToUpper(req.Timeslot)) {
		return nil, ErrTimeslotMismatch
	}

	source, err := s.get(ctx, req.SourceExamID)
	if err != nil {
		return nil, err
	}

	examType := req.ExamType
	if examType == "" {
		examType = source.ExamType
	}
	timeslot := strings.ToUpper(req.Timeslot)
	if timeslot == "" {
		timeslot = source.Timeslot
	}
	if !model.TimeslotMatchesType(examType, timeslot) {
		return nil, ErrTimeslotMismatch
	}

	level, err := s.repo.Curriculum.GetLevel(ctx, req.CurriculumLevelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLevelNotFound
		}
		return nil, err
	}

	year, err := resolveAcademicYear(ctx, s.repo, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	copied := &model.Exam{
		Name:              copyExamName(examType, timeslot, level, year, req.CustomSuffix),
		ExamType:          examType,
		Timeslot:          timeslot,
		AcademicYear:      year,
		CurriculumLevelID: &level.LevelID,
		DurationMinutes:   source.DurationMinutes,
		Description:       source.Description,
		SourceExamID:      &source.ExamID,
	}
	copied.Version = 1
	copied.CreatedBy = &callerID
	copied.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		questions, err := txRepo.Question.ListByExam(ctx, source.ExamID)
		if err != nil {
			return err
		}
		copied.QuestionCount = len(questions)
		if err := txRepo.Exam.Create(ctx, copied); err != nil {
			return err
		}

		clones := make([]model.Question, 0, len(questions))
		for _, q := range questions {
			clones = append(clones, model.Question{
				ExamID:         copied.ExamID,
				Number:         q.Number,
				Text:           q.Text,
				Type:           q.Type,
				Points:         q.Points,
				Options:        append(model.StringArray{}, q.Options...),
				CorrectAnswers: append(model.StringArray{}, q.CorrectAnswers...),
				BaseModel:      model.BaseModel{CreatedBy: &callerID, UpdatedBy: &callerID},
			})
		}
		return txRepo.Question.BatchCreate(ctx, clones)
	})
	if err != nil {
		s.logger.Error("复制考试失败", zap.String("source_exam_id", source.ExamID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("复制考试",
		zap.String("source_exam_id", source.ExamID),
		zap.String("exam_id", copied.ExamID),
		zap.Int("questions", copied.QuestionCount))

	copied.CurriculumLevel = level
	return toExamResponse(copied, nil), nil
}

// ── 内部辅助方法 ──

func (s *examService) get(ctx context.Context, id string) (*model.Exam, error) {
	exam, err := s.repo.Exam.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		s.logger.Error("查询考试失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return exam, nil
}

// copyExamName 形如 "[REVIEW | MAR] CORE Phonics Level 3 (2025)_retake"
func copyExamName(examType, timeslot string, level *model.CurriculumLevel, year, suffix string) string {
	name := fmt.Sprintf("[%s | %s] %s (%s)", examType, timeslot, level.DisplayName(), year)
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		name += "_" + suffix
	}
	return name
}

func toExamResponse(exam *model.Exam, links []model.ClassExam) *dto.ExamResponse {
	resp := &dto.ExamResponse{
		ID:                exam.ExamID,
		Name:              exam.Name,
		ExamType:          exam.ExamType,
		Timeslot:          exam.Timeslot,
		AcademicYear:      exam.AcademicYear,
		CurriculumLevelID: exam.CurriculumLevelID,
		DurationMinutes:   exam.DurationMinutes,
		QuestionCount:     exam.QuestionCount,
		Description:       exam.Description,
		SourceExamID:      exam.SourceExamID,
		Version:           exam.Version,
		CreatedAt:         formatTime(exam.CreatedAt),
		UpdatedAt:         formatTime(exam.UpdatedAt),
	}
	if exam.CurriculumLevel != nil {
		resp.CurriculumLevel = exam.CurriculumLevel.DisplayName()
	}
	for _, l := range links {
		resp.Classes = append(resp.Classes, dto.ClassExamResponse{
			ClassCode:    l.ClassCode,
			Timeslot:     l.Timeslot,
			AcademicYear: l.AcademicYear,
		})
	}
	return resp
}
