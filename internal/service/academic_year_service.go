package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
)

// ── 学年模块业务错误 ──

var (
	ErrAcademicYearNotFound    = errors.New("学年不存在")
	ErrAcademicYearDateInvalid = errors.New("学年结束日期必须晚于开始日期")
	ErrAcademicYearExists      = errors.New("该学年已存在")
	ErrAcademicYearIsCurrent   = errors.New("不能删除当前学年")
)

const dateLayout = "2006-01-02"

// AcademicYearService 学年业务接口
type AcademicYearService interface {
	Create(ctx context.Context, req *dto.CreateAcademicYearRequest, callerID string) (*dto.AcademicYearResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AcademicYearResponse, error)
	GetCurrent(ctx context.Context) (*dto.AcademicYearResponse, error)
	List(ctx context.Context) ([]dto.AcademicYearResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAcademicYearRequest, callerID string) (*dto.AcademicYearResponse, error)
	Activate(ctx context.Context, id string, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
}

type academicYearService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAcademicYearService 创建 AcademicYearService 实例
func NewAcademicYearService(repo *repository.Repository, logger *zap.Logger) AcademicYearService {
	return &academicYearService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *academicYearService) Create(ctx context.Context, req *dto.CreateAcademicYearRequest, callerID string) (*dto.AcademicYearResponse, error) {
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.AcademicYear.GetByYear(ctx, req.Year); err == nil {
		return nil, ErrAcademicYearExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	year := &model.AcademicYear{
		Year:      req.Year,
		StartDate: startDate,
		EndDate:   endDate,
	}
	year.CreatedBy = &callerID
	year.UpdatedBy = &callerID

	if err := s.repo.AcademicYear.Create(ctx, year); err != nil {
		s.logger.Error("创建学年失败", zap.Error(err))
		return nil, err
	}

	return toAcademicYearResponse(year), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *academicYearService) GetByID(ctx context.Context, id string) (*dto.AcademicYearResponse, error) {
	year, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAcademicYearResponse(year), nil
}

// ────────────────────── GetCurrent ──────────────────────

func (s *academicYearService) GetCurrent(ctx context.Context) (*dto.AcademicYearResponse, error) {
	year, err := s.repo.AcademicYear.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAcademicYearNotFound
		}
		s.logger.Error("查询当前学年失败", zap.Error(err))
		return nil, err
	}
	return toAcademicYearResponse(year), nil
}

// ────────────────────── List ──────────────────────

func (s *academicYearService) List(ctx context.Context) ([]dto.AcademicYearResponse, error) {
	years, err := s.repo.AcademicYear.List(ctx)
	if err != nil {
		s.logger.Error("列出学年失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AcademicYearResponse, 0, len(years))
	for i := range years {
		result = append(result, *toAcademicYearResponse(&years[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *academicYearService) Update(ctx context.Context, id string, req *dto.UpdateAcademicYearRequest, callerID string) (*dto.AcademicYearResponse, error) {
	year, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		d, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, ErrAcademicYearDateInvalid
		}
		year.StartDate = d
	}
	if req.EndDate != nil {
		d, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, ErrAcademicYearDateInvalid
		}
		year.EndDate = d
	}
	if !year.EndDate.After(year.StartDate) {
		return nil, ErrAcademicYearDateInvalid
	}
	year.UpdatedBy = &callerID

	if err := s.repo.AcademicYear.Update(ctx, year); err != nil {
		s.logger.Error("更新学年失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAcademicYearResponse(year), nil
}

// ────────────────────── Activate ──────────────────────

// Activate 在事务中清除原当前学年并设置目标学年
func (s *academicYearService) Activate(ctx context.Context, id string, callerID string) error {
	year, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.AcademicYear.ClearCurrent(ctx); err != nil {
			return err
		}
		year.IsCurrent = true
		year.UpdatedBy = &callerID
		return txRepo.AcademicYear.Update(ctx, year)
	})
	if err != nil {
		s.logger.Error("切换当前学年失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("当前学年已切换", zap.String("year", year.Year))
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *academicYearService) Delete(ctx context.Context, id string, callerID string) error {
	year, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if year.IsCurrent {
		return ErrAcademicYearIsCurrent
	}

	if err := s.repo.AcademicYear.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学年失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *academicYearService) get(ctx context.Context, id string) (*model.AcademicYear, error) {
	year, err := s.repo.AcademicYear.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAcademicYearNotFound
		}
		s.logger.Error("查询学年失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return year, nil
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, ErrAcademicYearDateInvalid
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, ErrAcademicYearDateInvalid
	}
	if !endDate.After(startDate) {
		return time.Time{}, time.Time{}, ErrAcademicYearDateInvalid
	}
	return startDate, endDate, nil
}

func toAcademicYearResponse(year *model.AcademicYear) *dto.AcademicYearResponse {
	return &dto.AcademicYearResponse{
		ID:        year.AcademicYearID,
		Year:      year.Year,
		StartDate: year.StartDate.Format(dateLayout),
		EndDate:   year.EndDate.Format(dateLayout),
		IsCurrent: year.IsCurrent,
		CreatedAt: formatTime(year.CreatedAt),
		UpdatedAt: formatTime(year.UpdatedAt),
	}
}
