package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"routinetest/internal/dto"
	"routinetest/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRows       = errors.New("没有可导出的数据")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportExams 按列表筛选条件导出考试（不分页）
	ExportExams(ctx context.Context, req *dto.ExamListRequest) (*bytes.Buffer, string, error)
	// ExportStudents 导出学生名册，classCode 为空时导出全部
	ExportStudents(ctx context.Context, classCode string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// sheetLayout 单个工作表的表头、列宽与数据
type sheetLayout struct {
	name   string
	title  string
	header []string
	widths []float64
	rows   [][]interface{}
}

// ═══════════════════════════════════════════════════════════
// ExportExams 导出考试列表
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportExams(ctx context.Context, req *dto.ExamListRequest) (*bytes.Buffer, string, error) {
	f := repository.ExamFilter{
		ExamType:          req.ExamType,
		Timeslot:          strings.ToUpper(req.Timeslot),
		AcademicYear:      req.AcademicYear,
		CurriculumLevelID: req.CurriculumLevelID,
		ClassCode:         req.ClassCode,
		Keyword:           req.Keyword,
	}
	exams, _, err := s.repo.Exam.List(ctx, f, 0, 0)
	if err != nil {
		s.logger.Error("查询考试列表失败", zap.Error(err))
		return nil, "", err
	}
	if len(exams) == 0 {
		return nil, "", ErrExportNoRows
	}

	layout := sheetLayout{
		name:   "考试",
		title:  "考试列表",
		header: []string{"考试名称", "类型", "时间段", "学年", "课程等级", "时长(分钟)", "题目数", "说明"},
		widths: []float64{48, 12, 10, 8, 30, 12, 10, 40},
	}
	if f.AcademicYear != "" {
		layout.title = fmt.Sprintf("%s 学年考试列表", f.AcademicYear)
	}
	for _, e := range exams {
		level := ""
		if e.CurriculumLevel != nil {
			level = e.CurriculumLevel.DisplayName()
		}
		layout.rows = append(layout.rows, []interface{}{
			e.Name, e.ExamType, e.Timeslot, e.AcademicYear, level,
			e.DurationMinutes, e.QuestionCount, e.Description,
		})
	}

	buf, err := s.write(layout)
	if err != nil {
		return nil, "", err
	}

	filename := "考试列表.xlsx"
	if f.AcademicYear != "" {
		filename = fmt.Sprintf("考试列表_%s.xlsx", f.AcademicYear)
	}
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportStudents 导出学生名册
// ═══════════════════════════════════════════════════════════
//
// 表头与导入模板一致，导出文件可直接修改后重新导入

func (s *exportService) ExportStudents(ctx context.Context, classCode string) (*bytes.Buffer, string, error) {
	students, _, err := s.repo.Student.List(ctx, repository.StudentFilter{ClassCode: classCode}, 0, 0)
	if err != nil {
		s.logger.Error("查询学生名册失败", zap.Error(err))
		return nil, "", err
	}
	if len(students) == 0 {
		return nil, "", ErrExportNoRows
	}

	layout := sheetLayout{
		name:   "学生名册",
		header: []string{"学号", "姓名", "班级", "年级", "家长联系方式", "状态"},
		widths: []float64{16, 16, 14, 10, 24, 8},
	}
	for _, st := range students {
		class := ""
		if st.ClassCode != nil {
			class = *st.ClassCode
		}
		status := "在读"
		if !st.IsActive {
			status = "停用"
		}
		layout.rows = append(layout.rows, []interface{}{
			st.StudentNumber, st.Name, class, st.Grade, st.ParentContact, status,
		})
	}

	buf, err := s.write(layout)
	if err != nil {
		return nil, "", err
	}

	filename := "学生名册.xlsx"
	if classCode != "" {
		filename = fmt.Sprintf("学生名册_%s.xlsx", classCode)
	}
	return buf, filename, nil
}

// ── 辅助函数 ──

// write 生成单工作表 Excel；title 非空时第一行为合并标题
func (s *exportService) write(layout sheetLayout) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := layout.name
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	for i, w := range layout.widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	row := 1
	if layout.title != "" {
		f.SetCellValue(sheetName, "A1", layout.title)
		f.MergeCell(sheetName, "A1", cell(colName(len(layout.header)-1), 1))
		f.SetCellStyle(sheetName, "A1", "A1", headerStyle)
		row++
	}

	for i, h := range layout.header {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(layout.header)-1), row), headerStyle)
	row++

	for _, values := range layout.rows {
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
