package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	pkgerrors "routinetest/pkg/errors"
	"routinetest/pkg/response"
)

// ExamHandler 考试模块 HTTP 处理器
type ExamHandler struct {
	examSvc service.ExamService
}

// NewExamHandler 创建 ExamHandler
func NewExamHandler(examSvc service.ExamService) *ExamHandler {
	return &ExamHandler{examSvc: examSvc}
}

// ListExams 考试列表（分页）
// GET /RoutineTest/api/exams/
func (h *ExamHandler) ListExams(c *gin.Context) {
	var req dto.ExamListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.examSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetExam GET /RoutineTest/api/exams/:id/
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.examSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.OK(c, exam)
}

// CreateExam POST /RoutineTest/api/exams/
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req dto.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exam, err := h.examSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.Created(c, exam)
}

// UpdateExam PUT /RoutineTest/api/exams/:id/
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	var req dto.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exam, err := h.examSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.OK(c, exam)
}

// UpdateDuration 修改考试时长
// PATCH /RoutineTest/api/exam/:id/duration/
func (h *ExamHandler) UpdateDuration(c *gin.Context) {
	var req dto.UpdateDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15007, "考试时长必须在 1-600 分钟之间")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exam, err := h.examSvc.UpdateDuration(c.Request.Context(), c.Param("id"), req.Duration, callerID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.OK(c, exam)
}

// DeleteExam 解除班级时间段关联或整卷删除
// DELETE /RoutineTest/api/exam/:id/delete/?class_code=&timeslot=
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	var req dto.DeleteExamRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.examSvc.Delete(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.OK(c, result)
}

// AssignExam 关联到班级时间段
// POST /RoutineTest/api/exam/:id/assign/
func (h *ExamHandler) AssignExam(c *gin.Context) {
	var req dto.AssignExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exam, err := h.examSvc.Assign(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.Created(c, exam)
}

// CopyExam 复制考试（含全部题目）
// POST /RoutineTest/exams/copy/
func (h *ExamHandler) CopyExam(c *gin.Context) {
	var req dto.CopyExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exam, err := h.examSvc.Copy(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}
	response.Created(c, exam)
}

// handleExamError 统一处理考试模块业务错误
func (h *ExamHandler) handleExamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.NotFound(c, 15001, "考试不存在")
	case errors.Is(err, service.ErrTimeslotMismatch):
		response.BadRequest(c, 15002, "时间段与考试类型不匹配")
	case errors.Is(err, service.ErrDeleteParamsIncomplete):
		response.BadRequest(c, 15003, "class_code 与 timeslot 必须同时提供")
	case errors.Is(err, service.ErrExamLinkNotFound):
		response.NotFound(c, 15004, "该班级时间段未关联此考试")
	case errors.Is(err, service.ErrExamLinkExists):
		response.Conflict(c, 15005, "该班级时间段已关联此考试")
	case errors.Is(err, service.ErrCopyMissingField):
		response.BadRequest(c, 15006, "缺少必填字段 source_exam_id 或 curriculum_level_id")
	case errors.Is(err, service.ErrDurationInvalid):
		response.BadRequest(c, 15007, "考试时长必须在 1-600 分钟之间")
	case errors.Is(err, service.ErrLevelNotFound):
		response.NotFound(c, 13003, "课程等级不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 14001, "班级不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
