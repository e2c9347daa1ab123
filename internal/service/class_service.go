package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
)

// ── 班级模块业务错误 ──

var (
	ErrClassNotFound = errors.New("班级不存在")
	ErrClassExists   = errors.New("班级代码已存在")
)

// ClassService 班级业务接口
type ClassService interface {
	// List 返回所有在读班级及其在 year 学年的课程映射
	List(ctx context.Context, year string) ([]dto.ClassResponse, error)
	Get(ctx context.Context, code string, year string) (*dto.ClassResponse, error)
	Create(ctx context.Context, req *dto.CreateClassRequest, callerID string) (*dto.ClassResponse, error)
	Update(ctx context.Context, code string, req *dto.UpdateClassRequest, callerID string) (*dto.ClassResponse, error)
	Delete(ctx context.Context, code string, callerID string) error
}

type classService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClassService 创建 ClassService 实例
func NewClassService(repo *repository.Repository, logger *zap.Logger) ClassService {
	return &classService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *classService) List(ctx context.Context, year string) ([]dto.ClassResponse, error) {
	year, err := resolveAcademicYear(ctx, s.repo, year)
	if err != nil {
		return nil, err
	}

	classes, err := s.repo.Class.List(ctx, true)
	if err != nil {
		s.logger.Error("查询班级失败", zap.Error(err))
		return nil, err
	}
	mappings, err := s.repo.Mapping.ListByYear(ctx, year)
	if err != nil {
		s.logger.Error("查询课程映射失败", zap.String("year", year), zap.Error(err))
		return nil, err
	}

	byClass := make(map[string]*model.CurriculumMapping, len(mappings))
	for i := range mappings {
		byClass[mappings[i].ClassCode] = &mappings[i]
	}

	result := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		result = append(result, toClassResponse(&classes[i], byClass[classes[i].ClassCode]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *classService) Get(ctx context.Context, code string, year string) (*dto.ClassResponse, error) {
	class, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}
	year, err = resolveAcademicYear(ctx, s.repo, year)
	if err != nil {
		return nil, err
	}

	var mapping *model.CurriculumMapping
	m, err := s.repo.Mapping.Get(ctx, code, year)
	switch {
	case err == nil:
		mapping = m
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	resp := toClassResponse(class, mapping)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *classService) Create(ctx context.Context, req *dto.CreateClassRequest, callerID string) (*dto.ClassResponse, error) {
	if _, err := s.repo.Class.GetByCode(ctx, req.ClassCode); err == nil {
		return nil, ErrClassExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	class := &model.Class{
		ClassCode:    req.ClassCode,
		Name:         req.Name,
		ScheduleInfo: req.ScheduleInfo,
		TargetGrade:  req.TargetGrade,
		IsActive:     true,
	}
	class.CreatedBy = &callerID
	class.UpdatedBy = &callerID

	if err := s.repo.Class.Create(ctx, class); err != nil {
		s.logger.Error("创建班级失败", zap.String("class_code", req.ClassCode), zap.Error(err))
		return nil, err
	}

	resp := toClassResponse(class, nil)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *classService) Update(ctx context.Context, code string, req *dto.UpdateClassRequest, callerID string) (*dto.ClassResponse, error) {
	class, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.ScheduleInfo != nil {
		class.ScheduleInfo = *req.ScheduleInfo
	}
	if req.TargetGrade != nil {
		class.TargetGrade = *req.TargetGrade
	}
	if req.IsActive != nil {
		class.IsActive = *req.IsActive
	}
	class.UpdatedBy = &callerID

	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.logger.Error("更新班级失败", zap.String("class_code", code), zap.Error(err))
		return nil, err
	}

	resp := toClassResponse(class, nil)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *classService) Delete(ctx context.Context, code string, callerID string) error {
	if _, err := s.get(ctx, code); err != nil {
		return err
	}
	if err := s.repo.Class.Delete(ctx, code, callerID); err != nil {
		s.logger.Error("删除班级失败", zap.String("class_code", code), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *classService) get(ctx context.Context, code string) (*model.Class, error) {
	class, err := s.repo.Class.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询班级失败", zap.String("class_code", code), zap.Error(err))
		return nil, err
	}
	return class, nil
}

func toClassResponse(class *model.Class, mapping *model.CurriculumMapping) dto.ClassResponse {
	resp := dto.ClassResponse{
		ClassCode:    class.ClassCode,
		Name:         class.Name,
		Program:      class.Program,
		SubProgram:   class.SubProgram,
		Level:        class.Level,
		ScheduleInfo: class.ScheduleInfo,
		TargetGrade:  class.TargetGrade,
		IsActive:     class.IsActive,
	}
	if mapping != nil {
		m := toMappingResponse(mapping)
		resp.Mapping = &m
	}
	return resp
}

func toMappingResponse(m *model.CurriculumMapping) dto.MappingResponse {
	resp := dto.MappingResponse{
		ID:                m.MappingID,
		ClassCode:         m.ClassCode,
		AcademicYear:      m.AcademicYear,
		CurriculumLevelID: m.CurriculumLevelID,
		Version:           m.Version,
		UpdatedAt:         formatTime(m.UpdatedAt),
	}
	if l := m.CurriculumLevel; l != nil {
		resp.Program = l.ProgramName()
		resp.SubProgram = l.SubProgramName()
		resp.Level = l.LevelLabel()
		resp.DisplayName = l.DisplayName()
	}
	return resp
}
