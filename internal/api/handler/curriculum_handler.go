package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

// CurriculumHandler 课程目录 HTTP 处理器
type CurriculumHandler struct {
	curriculumSvc service.CurriculumService
}

// NewCurriculumHandler 创建 CurriculumHandler
func NewCurriculumHandler(curriculumSvc service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculumSvc: curriculumSvc}
}

// ── 查询 ──

// ListPrograms 课程体系列表
// GET /RoutineTest/api/curriculum/programs/
func (h *CurriculumHandler) ListPrograms(c *gin.Context) {
	list, err := h.curriculumSvc.ListPrograms(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ListSubPrograms 指定课程体系下的子课程，program_id 为空返回空列表
// GET /RoutineTest/api/curriculum/subprograms/?program_id=
func (h *CurriculumHandler) ListSubPrograms(c *gin.Context) {
	var req dto.SubProgramListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.curriculumSvc.ListSubPrograms(c.Request.Context(), req.ProgramID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ListLevels 指定子课程下的等级，subprogram_id 为空返回空列表
// GET /RoutineTest/api/curriculum/levels/?subprogram_id=
func (h *CurriculumHandler) ListLevels(c *gin.Context) {
	var req dto.LevelListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.curriculumSvc.ListLevels(c.Request.Context(), req.SubProgramID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Tree 完整课程目录树
// GET /RoutineTest/api/curriculum/tree/
func (h *CurriculumHandler) Tree(c *gin.Context) {
	tree, err := h.curriculumSvc.Tree(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": tree})
}

// ── 课程体系 ──

// CreateProgram POST /RoutineTest/api/curriculum/programs/
func (h *CurriculumHandler) CreateProgram(c *gin.Context) {
	var req dto.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.curriculumSvc.CreateProgram(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.Created(c, p)
}

// UpdateProgram PUT /RoutineTest/api/curriculum/programs/:id/
func (h *CurriculumHandler) UpdateProgram(c *gin.Context) {
	var req dto.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.curriculumSvc.UpdateProgram(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, p)
}

// DeleteProgram DELETE /RoutineTest/api/curriculum/programs/:id/
func (h *CurriculumHandler) DeleteProgram(c *gin.Context) {
	if err := h.curriculumSvc.DeleteProgram(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 子课程 ──

// CreateSubProgram POST /RoutineTest/api/curriculum/subprograms/
func (h *CurriculumHandler) CreateSubProgram(c *gin.Context) {
	var req dto.CreateSubProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sp, err := h.curriculumSvc.CreateSubProgram(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.Created(c, sp)
}

// UpdateSubProgram PUT /RoutineTest/api/curriculum/subprograms/:id/
func (h *CurriculumHandler) UpdateSubProgram(c *gin.Context) {
	var req dto.UpdateSubProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sp, err := h.curriculumSvc.UpdateSubProgram(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, sp)
}

// DeleteSubProgram DELETE /RoutineTest/api/curriculum/subprograms/:id/
func (h *CurriculumHandler) DeleteSubProgram(c *gin.Context) {
	if err := h.curriculumSvc.DeleteSubProgram(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 等级 ──

// CreateLevel POST /RoutineTest/api/curriculum/levels/
func (h *CurriculumHandler) CreateLevel(c *gin.Context) {
	var req dto.CreateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	l, err := h.curriculumSvc.CreateLevel(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.Created(c, l)
}

// UpdateLevel PUT /RoutineTest/api/curriculum/levels/:id/
func (h *CurriculumHandler) UpdateLevel(c *gin.Context) {
	var req dto.UpdateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	l, err := h.curriculumSvc.UpdateLevel(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, l)
}

// DeleteLevel DELETE /RoutineTest/api/curriculum/levels/:id/
func (h *CurriculumHandler) DeleteLevel(c *gin.Context) {
	if err := h.curriculumSvc.DeleteLevel(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCurriculumError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleCurriculumError 统一处理课程目录业务错误
func (h *CurriculumHandler) handleCurriculumError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		response.NotFound(c, 13001, "课程体系不存在")
	case errors.Is(err, service.ErrSubProgramNotFound):
		response.NotFound(c, 13002, "子课程不存在")
	case errors.Is(err, service.ErrLevelNotFound):
		response.NotFound(c, 13003, "课程等级不存在")
	case errors.Is(err, service.ErrProgramCodeExists):
		response.Conflict(c, 13004, "课程体系代码已存在")
	case errors.Is(err, service.ErrCurriculumNodeInUse):
		response.Conflict(c, 13005, "该节点下仍有子节点或被引用，无法删除")
	default:
		response.InternalError(c)
	}
}
