package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

// ClassHandler 班级模块 HTTP 处理器
type ClassHandler struct {
	classSvc   service.ClassService
	teacherSvc service.TeacherService
}

// NewClassHandler 创建 ClassHandler
func NewClassHandler(classSvc service.ClassService, teacherSvc service.TeacherService) *ClassHandler {
	return &ClassHandler{classSvc: classSvc, teacherSvc: teacherSvc}
}

// ListClasses 在读班级及其指定学年的课程映射
// GET /RoutineTest/api/admin/classes/?year=
func (h *ClassHandler) ListClasses(c *gin.Context) {
	var req dto.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.classSvc.List(c.Request.Context(), req.Year)
	if err != nil {
		h.handleClassError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetClass GET /RoutineTest/api/admin/classes/:code/?year=
func (h *ClassHandler) GetClass(c *gin.Context) {
	var req dto.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	class, err := h.classSvc.Get(c.Request.Context(), c.Param("code"), req.Year)
	if err != nil {
		h.handleClassError(c, err)
		return
	}
	response.OK(c, class)
}

// CreateClass POST /RoutineTest/api/admin/classes/
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleClassError(c, err)
		return
	}
	response.Created(c, class)
}

// UpdateClass PUT /RoutineTest/api/admin/classes/:code/
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Update(c.Request.Context(), c.Param("code"), &req, callerID)
	if err != nil {
		h.handleClassError(c, err)
		return
	}
	response.OK(c, class)
}

// DeleteClass DELETE /RoutineTest/api/admin/classes/:code/
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.classSvc.Delete(c.Request.Context(), c.Param("code"), callerID); err != nil {
		h.handleClassError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListClassTeachers 班级任课教师（主讲在前）
// GET /RoutineTest/api/admin/classes/:code/teachers/
func (h *ClassHandler) ListClassTeachers(c *gin.Context) {
	list, err := h.teacherSvc.ListByClass(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleClassError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// handleClassError 统一处理班级模块业务错误
func (h *ClassHandler) handleClassError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 14001, "班级不存在")
	case errors.Is(err, service.ErrClassExists):
		response.Conflict(c, 14002, "班级代码已存在")
	default:
		response.InternalError(c)
	}
}
