package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
)

// ── 考试场次业务错误 ──

var (
	ErrSessionNotFound      = errors.New("考试场次不存在")
	ErrSessionTimeInvalid   = errors.New("结束时间必须晚于开始时间")
	ErrSessionTimeFormat    = errors.New("时间格式错误，应为 RFC3339")
	ErrTeacherNotAssigned   = errors.New("该教师未任教此班级")
	ErrTeacherTimeConflict  = errors.New("该教师在此时间段已有其他考试场次")
	ErrCalendarScopeMissing = errors.New("class_code 与 teacher_id 至少提供一个")
)

// SessionService 考试场次业务接口
type SessionService interface {
	List(ctx context.Context, req *dto.SessionListRequest) ([]dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*dto.SessionResponse, error)
	Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Calendar 导出 iCalendar，返回内容与建议文件名
	Calendar(ctx context.Context, req *dto.CalendarRequest) ([]byte, string, error)
}

type sessionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(repo *repository.Repository, logger *zap.Logger) SessionService {
	return &sessionService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *sessionService) List(ctx context.Context, req *dto.SessionListRequest) ([]dto.SessionResponse, error) {
	f := repository.SessionFilter{
		ClassCode: req.ClassCode,
		TeacherID: req.TeacherID,
		ExamID:    req.ExamID,
	}
	var err error
	if f.From, err = parseOptionalTime(req.From); err != nil {
		return nil, err
	}
	if f.To, err = parseOptionalTime(req.To); err != nil {
		return nil, err
	}

	sessions, err := s.repo.Session.List(ctx, f)
	if err != nil {
		s.logger.Error("查询考试场次失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toSessionResponse(&sessions[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *sessionService) Get(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// ────────────────────── Create ──────────────────────

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	session := &model.ExamSession{
		ExamID:         req.ExamID,
		Title:          req.Title,
		ClassCode:      req.ClassCode,
		TeacherID:      req.TeacherID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Overrides:      fromOverridesDTO(req.Overrides),
	}
	if session.TeacherID != nil && *session.TeacherID == "" {
		session.TeacherID = nil
	}
	if err := s.validate(ctx, session, ""); err != nil {
		return nil, err
	}
	session.CreatedBy = &callerID
	session.UpdatedBy = &callerID

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建考试场次失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建考试场次",
		zap.String("session_id", session.SessionID),
		zap.String("class_code", session.ClassCode))
	return toSessionResponse(session), nil
}

// ────────────────────── Update ──────────────────────

func (s *sessionService) Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.TeacherID != nil {
		if *req.TeacherID == "" {
			session.TeacherID = nil
		} else {
			session.TeacherID = req.TeacherID
		}
		session.Teacher = nil
	}
	if req.ScheduledStart != nil {
		session.ScheduledStart = *req.ScheduledStart
	}
	if req.ScheduledEnd != nil {
		session.ScheduledEnd = *req.ScheduledEnd
	}
	if req.Overrides != nil {
		session.Overrides = fromOverridesDTO(*req.Overrides)
	}
	if err := s.validate(ctx, session, session.SessionID); err != nil {
		return nil, err
	}
	session.UpdatedBy = &callerID

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("更新考试场次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session), nil
}

// ────────────────────── Delete ──────────────────────

func (s *sessionService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Session.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除考试场次失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

func (s *sessionService) Calendar(ctx context.Context, req *dto.CalendarRequest) ([]byte, string, error) {
	if req.ClassCode == "" && req.TeacherID == "" {
		return nil, "", ErrCalendarScopeMissing
	}
	sessions, err := s.repo.Session.List(ctx, repository.SessionFilter{
		ClassCode: req.ClassCode,
		TeacherID: req.TeacherID,
	})
	if err != nil {
		s.logger.Error("查询日历场次失败", zap.Error(err))
		return nil, "", err
	}

	name := "exam-sessions"
	switch {
	case req.ClassCode != "":
		name += "-" + req.ClassCode
	case req.TeacherID != "":
		name += "-teacher"
	}
	return buildSessionCalendar(sessions, name, timeNow()), name + ".ics", nil
}

// ── 内部辅助方法 ──

func (s *sessionService) get(ctx context.Context, id string) (*model.ExamSession, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询考试场次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// validate 校验时间、考试、班级、任课关系与教师时间冲突，并回填关联对象
func (s *sessionService) validate(ctx context.Context, session *model.ExamSession, excludeID string) error {
	if !session.ScheduledEnd.After(session.ScheduledStart) {
		return ErrSessionTimeInvalid
	}

	exam, err := s.repo.Exam.GetByID(ctx, session.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}
	session.Exam = exam

	if _, err := s.repo.Class.GetByCode(ctx, session.ClassCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	if session.TeacherID == nil {
		return nil
	}
	teacher, err := s.repo.Teacher.GetByID(ctx, *session.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		return err
	}
	session.Teacher = teacher

	assigned, err := s.repo.Teacher.IsAssigned(ctx, teacher.TeacherID, session.ClassCode)
	if err != nil {
		return err
	}
	if !assigned {
		return ErrTeacherNotAssigned
	}

	n, err := s.repo.Session.CountTeacherOverlaps(ctx, teacher.TeacherID, session.ScheduledStart, session.ScheduledEnd, excludeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTeacherTimeConflict
	}
	return nil
}

func parseOptionalTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionTimeFormat, v)
	}
	return &t, nil
}

func fromOverridesDTO(o dto.SessionOverridesDTO) model.SessionOverrides {
	return model.SessionOverrides{
		DurationMinutes:  o.DurationMinutes,
		ExtraTimeMinutes: o.ExtraTimeMinutes,
		AllowLateEntry:   o.AllowLateEntry,
		Notes:            o.Notes,
	}
}

func toSessionResponse(s *model.ExamSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:                s.SessionID,
		ExamID:            s.ExamID,
		Title:             s.Title,
		ClassCode:         s.ClassCode,
		TeacherID:         s.TeacherID,
		ScheduledStart:    formatTime(s.ScheduledStart),
		ScheduledEnd:      formatTime(s.ScheduledEnd),
		EffectiveDuration: s.EffectiveDuration(),
		Overrides: dto.SessionOverridesDTO{
			DurationMinutes:  s.Overrides.DurationMinutes,
			ExtraTimeMinutes: s.Overrides.ExtraTimeMinutes,
			AllowLateEntry:   s.Overrides.AllowLateEntry,
			Notes:            s.Overrides.Notes,
		},
	}
	if s.Exam != nil {
		resp.ExamName = s.Exam.Name
	}
	if s.Teacher != nil {
		resp.TeacherName = s.Teacher.Name
	}
	return resp
}
