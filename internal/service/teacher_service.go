package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
)

// ── 教师模块业务错误 ──

var (
	ErrTeacherNotFound     = errors.New("教师不存在")
	ErrTeacherEmailExists  = errors.New("该邮箱已被其他教师使用")
	ErrDuplicateAssignment = errors.New("同一班级不能重复分配")
	ErrAvailabilityInvalid = errors.New("可用时段格式错误，应为 HH:MM 且开始早于结束")
	ErrAvailabilityOverlap = errors.New("同一天的可用时段不能重叠")
)

// TeacherService 教师业务接口
type TeacherService interface {
	List(ctx context.Context, req *dto.TeacherListRequest) ([]dto.TeacherResponse, int64, error)
	Get(ctx context.Context, id string) (*dto.TeacherResponse, error)
	Create(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// ReplaceAssignments 整体替换任课关系；设为主讲时清除该班级原主讲
	ReplaceAssignments(ctx context.Context, id string, req *dto.ReplaceAssignmentsRequest, callerID string) (*dto.TeacherResponse, error)
	ListByClass(ctx context.Context, classCode string) ([]dto.AssignmentResponse, error)
	ReplaceAvailability(ctx context.Context, id string, req *dto.ReplaceAvailabilityRequest, callerID string) (*dto.TeacherResponse, error)
}

type teacherService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTeacherService 创建 TeacherService 实例
func NewTeacherService(repo *repository.Repository, logger *zap.Logger) TeacherService {
	return &teacherService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *teacherService) List(ctx context.Context, req *dto.TeacherListRequest) ([]dto.TeacherResponse, int64, error) {
	teachers, total, err := s.repo.Teacher.List(ctx, repository.TeacherFilter{
		Keyword:  req.Keyword,
		IsActive: req.IsActive,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询教师列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TeacherResponse, 0, len(teachers))
	for i := range teachers {
		result = append(result, *toTeacherResponse(&teachers[i]))
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *teacherService) Get(ctx context.Context, id string) (*dto.TeacherResponse, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTeacherResponse(t), nil
}

// ────────────────────── Create ──────────────────────

func (s *teacherService) Create(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	t := &model.Teacher{
		Name:     req.Name,
		Email:    email,
		Phone:    req.Phone,
		IsActive: true,
	}
	t.CreatedBy = &callerID
	t.UpdatedBy = &callerID

	if err := s.repo.Teacher.Create(ctx, t); err != nil {
		s.logger.Error("创建教师失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("创建教师", zap.String("teacher_id", t.TeacherID), zap.String("name", t.Name))
	return toTeacherResponse(t), nil
}

// ────────────────────── Update ──────────────────────

func (s *teacherService) Update(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, t.Email) {
			if err := s.ensureEmailFree(ctx, email, t.TeacherID); err != nil {
				return nil, err
			}
		}
		t.Email = email
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Phone != nil {
		t.Phone = *req.Phone
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	t.UpdatedBy = &callerID

	if err := s.repo.Teacher.Update(ctx, t); err != nil {
		s.logger.Error("更新教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTeacherResponse(t), nil
}

// ────────────────────── Delete ──────────────────────

func (s *teacherService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Teacher.DeleteAssignments(ctx, id); err != nil {
			return err
		}
		if err := txRepo.Teacher.DeleteAvailability(ctx, id); err != nil {
			return err
		}
		return txRepo.Teacher.Delete(ctx, id, callerID)
	})
	if err != nil {
		s.logger.Error("删除教师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ReplaceAssignments ──────────────────────

func (s *teacherService) ReplaceAssignments(ctx context.Context, id string, req *dto.ReplaceAssignmentsRequest, callerID string) (*dto.TeacherResponse, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Assignments))
	assignments := make([]model.TeacherClassAssignment, 0, len(req.Assignments))
	for _, item := range req.Assignments {
		if _, dup := seen[item.ClassCode]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAssignment, item.ClassCode)
		}
		seen[item.ClassCode] = struct{}{}

		if _, err := s.repo.Class.GetByCode(ctx, item.ClassCode); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrClassNotFound, item.ClassCode)
			}
			return nil, err
		}
		a := model.TeacherClassAssignment{
			TeacherID: t.TeacherID,
			ClassCode: item.ClassCode,
			Role:      item.Role,
			IsPrimary: item.IsPrimary,
		}
		a.CreatedBy = &callerID
		a.UpdatedBy = &callerID
		assignments = append(assignments, a)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Teacher.DeleteAssignments(ctx, t.TeacherID); err != nil {
			return err
		}
		for _, a := range assignments {
			if !a.IsPrimary {
				continue
			}
			if err := txRepo.Teacher.ClearPrimary(ctx, a.ClassCode); err != nil {
				return err
			}
		}
		return txRepo.Teacher.CreateAssignments(ctx, assignments)
	})
	if err != nil {
		s.logger.Error("替换任课关系失败", zap.String("teacher_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("替换任课关系", zap.String("teacher_id", id), zap.Int("count", len(assignments)))
	t.Assignments = assignments
	return toTeacherResponse(t), nil
}

// ────────────────────── ListByClass ──────────────────────

func (s *teacherService) ListByClass(ctx context.Context, classCode string) ([]dto.AssignmentResponse, error) {
	if _, err := s.repo.Class.GetByCode(ctx, classCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	as, err := s.repo.Teacher.ListAssignmentsByClass(ctx, classCode)
	if err != nil {
		s.logger.Error("查询班级教师失败", zap.String("class_code", classCode), zap.Error(err))
		return nil, err
	}

	// 主讲优先
	sort.SliceStable(as, func(i, j int) bool { return as[i].IsPrimary && !as[j].IsPrimary })

	result := make([]dto.AssignmentResponse, 0, len(as))
	for i := range as {
		result = append(result, toAssignmentResponse(&as[i]))
	}
	return result, nil
}

// ────────────────────── ReplaceAvailability ──────────────────────

func (s *teacherService) ReplaceAvailability(ctx context.Context, id string, req *dto.ReplaceAvailabilityRequest, callerID string) (*dto.TeacherResponse, error) {
	if err := validateAvailability(req.Slots); err != nil {
		return nil, err
	}
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	slots := make([]model.TeacherAvailability, 0, len(req.Slots))
	for _, sl := range req.Slots {
		a := model.TeacherAvailability{
			TeacherID: t.TeacherID,
			DayOfWeek: sl.DayOfWeek,
			StartTime: sl.StartTime,
			EndTime:   sl.EndTime,
		}
		a.CreatedBy = &callerID
		a.UpdatedBy = &callerID
		slots = append(slots, a)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Teacher.DeleteAvailability(ctx, t.TeacherID); err != nil {
			return err
		}
		return txRepo.Teacher.CreateAvailability(ctx, slots)
	})
	if err != nil {
		s.logger.Error("替换可用时段失败", zap.String("teacher_id", id), zap.Error(err))
		return nil, err
	}

	t.Availability = slots
	return toTeacherResponse(t), nil
}

// ── 内部辅助方法 ──

func (s *teacherService) get(ctx context.Context, id string) (*model.Teacher, error) {
	t, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (s *teacherService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.Teacher.GetByEmail(ctx, email)
	if err == nil && existing.TeacherID != selfID {
		return ErrTeacherEmailExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

const clockLayout = "15:04"

// validateAvailability 校验 HH:MM 格式、开始早于结束、同一天不重叠
func validateAvailability(slots []dto.AvailabilitySlot) error {
	type span struct{ start, end time.Time }
	byDay := make(map[int][]span)

	for _, sl := range slots {
		start, err1 := time.Parse(clockLayout, sl.StartTime)
		end, err2 := time.Parse(clockLayout, sl.EndTime)
		if err1 != nil || err2 != nil || !start.Before(end) {
			return fmt.Errorf("%w: %s-%s", ErrAvailabilityInvalid, sl.StartTime, sl.EndTime)
		}
		byDay[sl.DayOfWeek] = append(byDay[sl.DayOfWeek], span{start, end})
	}

	for day, spans := range byDay {
		sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
		for i := 1; i < len(spans); i++ {
			if spans[i].start.Before(spans[i-1].end) {
				return fmt.Errorf("%w: 周%d", ErrAvailabilityOverlap, day)
			}
		}
	}
	return nil
}

func toAssignmentResponse(a *model.TeacherClassAssignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		TeacherID: a.TeacherID,
		ClassCode: a.ClassCode,
		Role:      a.Role,
		IsPrimary: a.IsPrimary,
	}
	if a.Teacher != nil {
		resp.TeacherName = a.Teacher.Name
	}
	return resp
}

func toTeacherResponse(t *model.Teacher) *dto.TeacherResponse {
	resp := &dto.TeacherResponse{
		ID:           t.TeacherID,
		Name:         t.Name,
		Email:        t.Email,
		Phone:        t.Phone,
		IsActive:     t.IsActive,
		Assignments:  make([]dto.AssignmentResponse, 0, len(t.Assignments)),
		Availability: make([]dto.AvailabilitySlot, 0, len(t.Availability)),
		CreatedAt:    formatTime(t.CreatedAt),
	}
	for i := range t.Assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(&t.Assignments[i]))
	}
	for _, a := range t.Availability {
		resp.Availability = append(resp.Availability, dto.AvailabilitySlot{
			DayOfWeek: a.DayOfWeek,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
		})
	}
	return resp
}
