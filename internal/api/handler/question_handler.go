package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

// QuestionHandler 题目模块 HTTP 处理器
type QuestionHandler struct {
	questionSvc service.QuestionService
}

// NewQuestionHandler 创建 QuestionHandler
func NewQuestionHandler(questionSvc service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionSvc: questionSvc}
}

// ListQuestions GET /RoutineTest/api/exams/:id/questions/
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	list, err := h.questionSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateQuestion 追加题目，题号自动取 n+1
// POST /RoutineTest/api/exams/:id/questions/
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	q, err := h.questionSvc.Create(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}
	response.Created(c, q)
}

// UpdateQuestion PUT /RoutineTest/api/questions/:id/?exam_id=
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	q, err := h.questionSvc.Update(c.Request.Context(), c.Query("exam_id"), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}
	response.OK(c, q)
}

// DeleteQuestion DELETE /RoutineTest/api/questions/:id/?exam_id=
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questionSvc.Delete(c.Request.Context(), c.Query("exam_id"), c.Param("id")); err != nil {
		h.handleQuestionError(c, err)
		return
	}
	response.OK(c, nil)
}

// ReplaceAnswerKey 批量替换答案，任一题不合法则全部不生效
// PUT /RoutineTest/api/exams/:id/answer-key/
func (h *QuestionHandler) ReplaceAnswerKey(c *gin.Context) {
	var req dto.AnswerKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.questionSvc.ReplaceAnswerKey(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// handleQuestionError 统一处理题目模块业务错误
func (h *QuestionHandler) handleQuestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.NotFound(c, 15001, "考试不存在")
	case errors.Is(err, service.ErrQuestionNotFound):
		response.NotFound(c, 16001, "题目不存在")
	case errors.Is(err, service.ErrQuestionInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16002, "题目内容不合法", err.Error())
	case errors.Is(err, service.ErrAnswerKeyNumberAbsent):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16003, "答案对应的题号不存在", err.Error())
	default:
		response.InternalError(c)
	}
}
