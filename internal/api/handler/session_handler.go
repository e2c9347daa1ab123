package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

// SessionHandler 考试场次 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// ListSessions GET /RoutineTest/api/sessions/?class_code=&teacher_id=&from=&to=
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var req dto.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	// 教师账号只能查看自己的场次
	if teacherID := GetTeacherID(c); teacherID != "" {
		req.TeacherID = teacherID
	}

	list, err := h.sessionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetSession GET /RoutineTest/api/sessions/:id/
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, err := h.sessionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, s)
}

// CreateSession POST /RoutineTest/api/sessions/
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	s, err := h.sessionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.Created(c, s)
}

// UpdateSession PUT /RoutineTest/api/sessions/:id/
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	s, err := h.sessionSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, s)
}

// DeleteSession DELETE /RoutineTest/api/sessions/:id/
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, nil)
}

// Calendar 导出 iCalendar
// GET /RoutineTest/api/sessions/calendar.ics?class_code=|teacher_id=
func (h *SessionHandler) Calendar(c *gin.Context) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if teacherID := GetTeacherID(c); teacherID != "" && req.ClassCode == "" {
		req.TeacherID = teacherID
	}

	body, filename, err := h.sessionSvc.Calendar(c.Request.Context(), &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// handleSessionError 统一处理考试场次业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 17001, "考试场次不存在")
	case errors.Is(err, service.ErrSessionTimeInvalid):
		response.BadRequest(c, 17002, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrSessionTimeFormat):
		response.BadRequest(c, 17003, "时间格式错误，应为 RFC3339")
	case errors.Is(err, service.ErrTeacherNotAssigned):
		response.BadRequest(c, 17004, "该教师未任教此班级")
	case errors.Is(err, service.ErrTeacherTimeConflict):
		response.Conflict(c, 17005, "该教师在此时间段已有其他考试场次")
	case errors.Is(err, service.ErrCalendarScopeMissing):
		response.BadRequest(c, 17006, "class_code 与 teacher_id 至少提供一个")
	case errors.Is(err, service.ErrExamNotFound):
		response.NotFound(c, 15001, "考试不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 14001, "班级不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 18001, "教师不存在")
	default:
		response.InternalError(c)
	}
}
