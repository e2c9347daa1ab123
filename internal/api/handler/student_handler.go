package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

// StudentHandler 学生名册 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents GET /RoutineTest/api/students/?class_code=&keyword=
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetStudent GET /RoutineTest/api/students/:id/
func (h *StudentHandler) GetStudent(c *gin.Context) {
	st, err := h.studentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, st)
}

// CreateStudent POST /RoutineTest/api/students/
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.Created(c, st)
}

// UpdateStudent PUT /RoutineTest/api/students/:id/
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, st)
}

// DeleteStudent DELETE /RoutineTest/api/students/:id/
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, nil)
}

// MoveStudent 调班
// PUT /RoutineTest/api/students/:id/class/
func (h *StudentHandler) MoveStudent(c *gin.Context) {
	var req dto.MoveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Move(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, st)
}

// ImportStudents 上传 Excel 导入学生
// POST /RoutineTest/api/students/import/ multipart/form-data, field="file"
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 19004, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rows, err := h.studentSvc.ParseImportFile(file)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	result, err := h.studentSvc.Import(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// handleStudentError 统一处理学生名册业务错误
func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 19001, "学生不存在")
	case errors.Is(err, service.ErrStudentNumberExists):
		response.Conflict(c, 19002, "学号已存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 14001, "班级不存在")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 19005, "Excel文件无数据行")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.ErrorWithDetails(c, http.StatusBadRequest, 19006, "数据行数超过上限", err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 19007, "Excel表头缺少必要列（学号/姓名）")
	default:
		response.InternalError(c)
	}
}
