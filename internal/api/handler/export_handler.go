package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExams 导出考试列表（筛选条件同列表接口）
// GET /RoutineTest/api/exams/export/
func (h *ExportHandler) ExportExams(c *gin.Context) {
	var req dto.ExamListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportExams(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendXLSX(c, buf, filename)
}

// ExportStudents 导出学生名册
// GET /RoutineTest/api/students/export/?class_code=
func (h *ExportHandler) ExportStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportStudents(c.Request.Context(), req.ClassCode)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendXLSX(c, buf, filename)
}

// sendXLSX 设置下载响应头
func sendXLSX(c *gin.Context, buf *bytes.Buffer, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRows):
		response.NotFound(c, 20001, "没有可导出的数据")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 20002, "生成 Excel 文件失败")
	default:
		response.InternalError(c)
	}
}
