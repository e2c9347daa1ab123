package service

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
	"routinetest/pkg/debounce"
)

// ── 课程映射业务错误 ──

var (
	ErrMappingNotFound  = errors.New("课程映射不存在")
	ErrAutosaveShutdown = errors.New("服务正在关闭，自动保存已停止")
)

var (
	autosaveFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routinetest_curriculum_autosave_flushes_total",
		Help: "Curriculum mapping autosaves written after the debounce window.",
	}, []string{"result"})

	autosaveCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routinetest_curriculum_autosave_coalesced_total",
		Help: "Autosave requests superseded by a later request for the same class.",
	})
)

const autosaveTimeout = 10 * time.Second

// MappingService 班级课程映射业务接口
type MappingService interface {
	Save(ctx context.Context, req *dto.SaveMappingRequest, callerID string) (*dto.MappingResponse, error)
	Delete(ctx context.Context, req *dto.DeleteMappingRequest) error
	List(ctx context.Context, year string) ([]dto.MappingResponse, error)
	// Autosave 按班级合并窗口期内的多次提交，窗口结束后仅保存最后一次
	Autosave(ctx context.Context, req *dto.SaveMappingRequest, callerID string) (*dto.AutosaveResponse, error)
	// Close 停止接收自动保存并立即写入待保存项
	Close()
}

type autosaveJob struct {
	req      dto.SaveMappingRequest
	callerID string
}

type mappingService struct {
	repo     *repository.Repository
	autosave *debounce.Debouncer[autosaveJob]
	logger   *zap.Logger
}

// NewMappingService 创建 MappingService 实例
func NewMappingService(repo *repository.Repository, window time.Duration, logger *zap.Logger) MappingService {
	s := &mappingService{repo: repo, logger: logger}
	s.autosave = debounce.New(window, s.flushAutosave)
	return s
}

// ────────────────────── Save ──────────────────────

func (s *mappingService) Save(ctx context.Context, req *dto.SaveMappingRequest, callerID string) (*dto.MappingResponse, error) {
	year, err := resolveAcademicYear(ctx, s.repo, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Class.GetByCode(ctx, req.ClassCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	level, err := s.repo.Curriculum.GetLevel(ctx, req.CurriculumLevelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLevelNotFound
		}
		return nil, err
	}

	currentYear, err := resolveAcademicYear(ctx, s.repo, "")
	if err != nil {
		return nil, err
	}

	var mapping *model.CurriculumMapping
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		existing, err := txRepo.Mapping.Get(ctx, req.ClassCode, year)
		switch {
		case err == nil:
			mapping = existing
			if mapping.CurriculumLevelID != req.CurriculumLevelID {
				mapping.CurriculumLevelID = req.CurriculumLevelID
				mapping.UpdatedBy = &callerID
				if err := txRepo.Mapping.Update(ctx, mapping); err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			mapping = &model.CurriculumMapping{
				ClassCode:         req.ClassCode,
				AcademicYear:      year,
				CurriculumLevelID: req.CurriculumLevelID,
				Version:           1,
			}
			mapping.CreatedBy = &callerID
			mapping.UpdatedBy = &callerID
			if err := txRepo.Mapping.Create(ctx, mapping); err != nil {
				return err
			}
		default:
			return err
		}

		// 当前学年的映射同步回写班级展示字段
		if year == currentYear {
			return txRepo.Class.UpdateCurriculumDisplay(ctx, req.ClassCode, &level.LevelID,
				level.ProgramName(), level.SubProgramName(), level.LevelLabel())
		}
		return nil
	})
	if err != nil {
		s.logger.Error("保存课程映射失败",
			zap.String("class_code", req.ClassCode), zap.String("year", year), zap.Error(err))
		return nil, err
	}

	mapping.CurriculumLevel = level
	resp := toMappingResponse(mapping)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *mappingService) Delete(ctx context.Context, req *dto.DeleteMappingRequest) error {
	year, err := resolveAcademicYear(ctx, s.repo, req.AcademicYear)
	if err != nil {
		return err
	}
	currentYear, err := resolveAcademicYear(ctx, s.repo, "")
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Mapping.Delete(ctx, req.ClassCode, year); err != nil {
			return err
		}
		if year == currentYear {
			return txRepo.Class.UpdateCurriculumDisplay(ctx, req.ClassCode, nil, "", "", "")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMappingNotFound
		}
		s.logger.Error("删除课程映射失败", zap.String("class_code", req.ClassCode), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *mappingService) List(ctx context.Context, year string) ([]dto.MappingResponse, error) {
	year, err := resolveAcademicYear(ctx, s.repo, year)
	if err != nil {
		return nil, err
	}
	mappings, err := s.repo.Mapping.ListByYear(ctx, year)
	if err != nil {
		s.logger.Error("查询课程映射失败", zap.String("year", year), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MappingResponse, 0, len(mappings))
	for i := range mappings {
		result = append(result, toMappingResponse(&mappings[i]))
	}
	return result, nil
}

// ────────────────────── Autosave ──────────────────────

func (s *mappingService) Autosave(_ context.Context, req *dto.SaveMappingRequest, callerID string) (*dto.AutosaveResponse, error) {
	coalesced, err := s.autosave.Trigger(req.ClassCode, autosaveJob{req: *req, callerID: callerID})
	if err != nil {
		if errors.Is(err, debounce.ErrClosed) {
			return nil, ErrAutosaveShutdown
		}
		return nil, err
	}
	if coalesced {
		autosaveCoalesced.Inc()
	}

	return &dto.AutosaveResponse{
		ClassCode: req.ClassCode,
		Scheduled: true,
		Coalesced: coalesced,
		WindowMS:  s.autosave.Window().Milliseconds(),
	}, nil
}

func (s *mappingService) Close() {
	pending := s.autosave.Pending()
	s.autosave.Close()
	if pending > 0 {
		s.logger.Info("已冲刷待保存的课程映射", zap.Int("count", pending))
	}
}

// flushAutosave 窗口结束后执行；失败只记录日志，不重试
func (s *mappingService) flushAutosave(classCode string, job autosaveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	if _, err := s.Save(ctx, &job.req, job.callerID); err != nil {
		autosaveFlushes.WithLabelValues("error").Inc()
		s.logger.Warn("自动保存课程映射失败", zap.String("class_code", classCode), zap.Error(err))
		return
	}
	autosaveFlushes.WithLabelValues("ok").Inc()
	s.logger.Debug("自动保存课程映射", zap.String("class_code", classCode))
}
