package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	pkgerrors "routinetest/pkg/errors"
	"routinetest/pkg/response"
)

// AcademicYearHandler 学年模块 HTTP 处理器
type AcademicYearHandler struct {
	yearSvc service.AcademicYearService
}

// NewAcademicYearHandler 创建 AcademicYearHandler
func NewAcademicYearHandler(yearSvc service.AcademicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{yearSvc: yearSvc}
}

// ListAcademicYears 获取学年列表
// GET /RoutineTest/api/academic-years/
func (h *AcademicYearHandler) ListAcademicYears(c *gin.Context) {
	years, err := h.yearSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": years})
}

// GetAcademicYear 获取学年详情
// GET /RoutineTest/api/academic-years/:id/
func (h *AcademicYearHandler) GetAcademicYear(c *gin.Context) {
	year, err := h.yearSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAcademicYearError(c, err)
		return
	}

	response.OK(c, year)
}

// GetCurrentAcademicYear 获取当前学年
// GET /RoutineTest/api/academic-years/current/
func (h *AcademicYearHandler) GetCurrentAcademicYear(c *gin.Context) {
	year, err := h.yearSvc.GetCurrent(c.Request.Context())
	if err != nil {
		h.handleAcademicYearError(c, err)
		return
	}

	response.OK(c, year)
}

// CreateAcademicYear 创建学年
// POST /RoutineTest/api/academic-years/
func (h *AcademicYearHandler) CreateAcademicYear(c *gin.Context) {
	var req dto.CreateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	year, err := h.yearSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAcademicYearError(c, err)
		return
	}

	response.Created(c, year)
}

// UpdateAcademicYear 更新学年起止日期
// PUT /RoutineTest/api/academic-years/:id/
func (h *AcademicYearHandler) UpdateAcademicYear(c *gin.Context) {
	var req dto.UpdateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	year, err := h.yearSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleAcademicYearError(c, err)
		return
	}

	response.OK(c, year)
}

// ActivateAcademicYear 设为当前学年
// PUT /RoutineTest/api/academic-years/:id/activate/
func (h *AcademicYearHandler) ActivateAcademicYear(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.yearSvc.Activate(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleAcademicYearError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteAcademicYear 删除学年
// DELETE /RoutineTest/api/academic-years/:id/
func (h *AcademicYearHandler) DeleteAcademicYear(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.yearSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleAcademicYearError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleAcademicYearError 统一处理学年模块业务错误
func (h *AcademicYearHandler) handleAcademicYearError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAcademicYearNotFound):
		response.NotFound(c, 12001, "学年不存在")
	case errors.Is(err, service.ErrAcademicYearDateInvalid):
		response.BadRequest(c, 12002, "学年日期无效")
	case errors.Is(err, service.ErrAcademicYearExists):
		response.Conflict(c, 12003, "该学年已存在")
	case errors.Is(err, service.ErrAcademicYearIsCurrent):
		response.BadRequest(c, 12004, "不能删除当前学年")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
