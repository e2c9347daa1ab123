package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

// TeacherHandler 教师模块 HTTP 处理器
type TeacherHandler struct {
	teacherSvc service.TeacherService
}

// NewTeacherHandler 创建 TeacherHandler
func NewTeacherHandler(teacherSvc service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherSvc: teacherSvc}
}

// ListTeachers GET /RoutineTest/api/teachers/
func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	var req dto.TeacherListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.teacherSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetTeacher GET /RoutineTest/api/teachers/:id/
func (h *TeacherHandler) GetTeacher(c *gin.Context) {
	t, err := h.teacherSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, t)
}

// CreateTeacher POST /RoutineTest/api/teachers/
func (h *TeacherHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateTeacher PUT /RoutineTest/api/teachers/:id/
func (h *TeacherHandler) UpdateTeacher(c *gin.Context) {
	var req dto.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, t)
}

// DeleteTeacher DELETE /RoutineTest/api/teachers/:id/
func (h *TeacherHandler) DeleteTeacher(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.teacherSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, nil)
}

// ReplaceAssignments 整体替换任课关系
// PUT /RoutineTest/api/teachers/:id/assignments/
func (h *TeacherHandler) ReplaceAssignments(c *gin.Context) {
	var req dto.ReplaceAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.ReplaceAssignments(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, t)
}

// ReplaceAvailability 整体替换每周可用时段
// PUT /RoutineTest/api/teachers/:id/availability/
func (h *TeacherHandler) ReplaceAvailability(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.ReplaceAvailability(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, t)
}

// handleTeacherError 统一处理教师模块业务错误
func (h *TeacherHandler) handleTeacherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 18001, "教师不存在")
	case errors.Is(err, service.ErrTeacherEmailExists):
		response.Conflict(c, 18002, "该邮箱已被其他教师使用")
	case errors.Is(err, service.ErrDuplicateAssignment):
		response.ErrorWithDetails(c, http.StatusBadRequest, 18003, "同一班级不能重复分配", err.Error())
	case errors.Is(err, service.ErrAvailabilityInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 18004, "可用时段格式错误", err.Error())
	case errors.Is(err, service.ErrAvailabilityOverlap):
		response.ErrorWithDetails(c, http.StatusBadRequest, 18005, "同一天的可用时段不能重叠", err.Error())
	case errors.Is(err, service.ErrClassNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 14001, "班级不存在", err.Error())
	default:
		response.InternalError(c)
	}
}
