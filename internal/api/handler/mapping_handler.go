package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	pkgerrors "routinetest/pkg/errors"
	"routinetest/pkg/response"
)

// MappingHandler 班级课程映射 HTTP 处理器
type MappingHandler struct {
	mappingSvc service.MappingService
}

// NewMappingHandler 创建 MappingHandler
func NewMappingHandler(mappingSvc service.MappingService) *MappingHandler {
	return &MappingHandler{mappingSvc: mappingSvc}
}

// ListMappings GET /RoutineTest/api/admin/curriculum-mapping/?year=
func (h *MappingHandler) ListMappings(c *gin.Context) {
	var req dto.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.mappingSvc.List(c.Request.Context(), req.Year)
	if err != nil {
		h.handleMappingError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// SaveMapping 显式保存（存在则更新）
// POST /RoutineTest/api/admin/curriculum-mapping/
func (h *MappingHandler) SaveMapping(c *gin.Context) {
	var req dto.SaveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	m, err := h.mappingSvc.Save(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMappingError(c, err)
		return
	}
	response.OK(c, m)
}

// AutosaveMapping 自动保存：校验后进入合并窗口，返回 202
// POST /RoutineTest/api/admin/curriculum-mapping/autosave/
func (h *MappingHandler) AutosaveMapping(c *gin.Context) {
	var req dto.SaveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.mappingSvc.Autosave(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMappingError(c, err)
		return
	}
	response.Accepted(c, result)
}

// DeleteMapping DELETE /RoutineTest/api/admin/curriculum-mapping/?class_code=&academic_year=
func (h *MappingHandler) DeleteMapping(c *gin.Context) {
	var req dto.DeleteMappingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.mappingSvc.Delete(c.Request.Context(), &req); err != nil {
		h.handleMappingError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleMappingError 统一处理课程映射业务错误
func (h *MappingHandler) handleMappingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 14001, "班级不存在")
	case errors.Is(err, service.ErrLevelNotFound):
		response.NotFound(c, 13003, "课程等级不存在")
	case errors.Is(err, service.ErrMappingNotFound):
		response.NotFound(c, 14101, "课程映射不存在")
	case errors.Is(err, service.ErrAutosaveShutdown):
		response.Error(c, http.StatusServiceUnavailable, 14102, "服务正在关闭，自动保存已停止")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
