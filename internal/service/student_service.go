package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
)

// ── 学生名册业务错误 ──

var (
	ErrStudentNotFound     = errors.New("学生不存在")
	ErrStudentNumberExists = errors.New("学号已存在")
	ErrImportNoData        = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows   = errors.New("数据行数超过上限")
	ErrImportBadHeader     = errors.New("Excel表头缺少必要列（学号/姓名）")
)

const defaultMaxImportRows = 1000

// ImportStudentRow 导入文件中的一行
type ImportStudentRow struct {
	Row           int // Excel 行号
	StudentNumber string
	Name          string
	ClassCode     string
	Grade         string
	ParentContact string
}

// StudentService 学生名册业务接口
type StudentService interface {
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
	Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	Move(ctx context.Context, id string, req *dto.MoveStudentRequest, callerID string) (*dto.StudentResponse, error)

	ParseImportFile(reader io.Reader) ([]ImportStudentRow, error)
	// Import 先整体校验，再在单个事务中写入全部通过校验的行
	Import(ctx context.Context, rows []ImportStudentRow, callerID string) (*dto.ImportResult, error)
}

type studentService struct {
	repo          *repository.Repository
	maxImportRows int
	logger        *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, maxImportRows int, logger *zap.Logger) StudentService {
	if maxImportRows <= 0 {
		maxImportRows = defaultMaxImportRows
	}
	return &studentService{repo: repo, maxImportRows: maxImportRows, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, repository.StudentFilter{
		ClassCode: req.ClassCode,
		Keyword:   req.Keyword,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *studentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	st, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStudentResponse(st), nil
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	number := strings.TrimSpace(req.StudentNumber)
	existing, err := s.repo.Student.ExistingNumbers(ctx, []string{number})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrStudentNumberExists
	}

	classCode, err := s.checkClass(ctx, req.ClassCode)
	if err != nil {
		return nil, err
	}

	st := &model.Student{
		StudentNumber: number,
		Name:          req.Name,
		ClassCode:     classCode,
		Grade:         req.Grade,
		ParentContact: req.ParentContact,
		IsActive:      true,
	}
	st.CreatedBy = &callerID
	st.UpdatedBy = &callerID

	if err := s.repo.Student.Create(ctx, st); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(st), nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	st, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.Grade != nil {
		st.Grade = *req.Grade
	}
	if req.ParentContact != nil {
		st.ParentContact = *req.ParentContact
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	st.UpdatedBy = &callerID

	if err := s.repo.Student.Update(ctx, st); err != nil {
		s.logger.Error("更新学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toStudentResponse(st), nil
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Student.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Move ──────────────────────

func (s *studentService) Move(ctx context.Context, id string, req *dto.MoveStudentRequest, callerID string) (*dto.StudentResponse, error) {
	st, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	classCode, err := s.checkClass(ctx, req.ClassCode)
	if err != nil {
		return nil, err
	}

	from := ""
	if st.ClassCode != nil {
		from = *st.ClassCode
	}
	st.ClassCode = classCode
	st.UpdatedBy = &callerID

	if err := s.repo.Student.Update(ctx, st); err != nil {
		s.logger.Error("调班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	to := ""
	if classCode != nil {
		to = *classCode
	}
	s.logger.Info("学生调班", zap.String("student_id", id), zap.String("from", from), zap.String("to", to))
	return toStudentResponse(st), nil
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile 解析导入 Excel 文件，表头支持中英文列名与任意列序
func (s *studentService) ParseImportFile(reader io.Reader) ([]ImportStudentRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseStudentHeader(excelRows[0])
	if colIndex["student_number"] < 0 || colIndex["name"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportStudentRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportStudentRow{
			Row:           i + 1,
			StudentNumber: cell(row, "student_number"),
			Name:          cell(row, "name"),
			ClassCode:     cell(row, "class_code"),
			Grade:         cell(row, "grade"),
			ParentContact: cell(row, "parent_contact"),
		}

		// 跳过全空行
		if item.StudentNumber == "" && item.Name == "" && item.ClassCode == "" &&
			item.Grade == "" && item.ParentContact == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > s.maxImportRows {
		return nil, fmt.Errorf("%w %d 行", ErrImportTooManyRows, s.maxImportRows)
	}
	return rows, nil
}

// parseStudentHeader 解析表头，返回列名 -> 列索引映射
func parseStudentHeader(header []string) map[string]int {
	idx := map[string]int{
		"student_number": -1,
		"name":           -1,
		"class_code":     -1,
		"grade":          -1,
		"parent_contact": -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "学号", "student_number", "student number":
			idx["student_number"] = i
		case "姓名", "name":
			idx["name"] = i
		case "班级", "class_code", "class":
			idx["class_code"] = i
		case "年级", "grade":
			idx["grade"] = i
		case "家长联系方式", "parent_contact", "parent contact":
			idx["parent_contact"] = i
		}
	}
	return idx
}

// ────────────────────── Import ──────────────────────

func (s *studentService) Import(ctx context.Context, rows []ImportStudentRow, callerID string) (*dto.ImportResult, error) {
	resp := &dto.ImportResult{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportError{Row: row, Reason: reason})
	}

	classes, err := s.repo.Class.List(ctx, false)
	if err != nil {
		s.logger.Error("加载班级列表失败", zap.Error(err))
		return nil, err
	}
	classSet := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		classSet[c.ClassCode] = struct{}{}
	}

	numbers := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.StudentNumber != "" {
			numbers = append(numbers, r.StudentNumber)
		}
	}
	existing, err := s.repo.Student.ExistingNumbers(ctx, numbers)
	if err != nil {
		s.logger.Error("查询已有学号失败", zap.Error(err))
		return nil, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	valid := make([]model.Student, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		if r.StudentNumber == "" || r.Name == "" {
			fail(r.Row, "必填字段为空（学号/姓名）")
			continue
		}
		if _, ok := taken[r.StudentNumber]; ok {
			fail(r.Row, fmt.Sprintf("学号已存在: %s", r.StudentNumber))
			continue
		}
		if first, ok := seen[r.StudentNumber]; ok {
			fail(r.Row, fmt.Sprintf("学号与第 %d 行重复: %s", first, r.StudentNumber))
			continue
		}
		var classCode *string
		if r.ClassCode != "" {
			if _, ok := classSet[r.ClassCode]; !ok {
				fail(r.Row, fmt.Sprintf("班级不存在: %s", r.ClassCode))
				continue
			}
			classCode = strPtr(r.ClassCode)
		}
		seen[r.StudentNumber] = r.Row

		st := model.Student{
			StudentNumber: r.StudentNumber,
			Name:          r.Name,
			ClassCode:     classCode,
			Grade:         r.Grade,
			ParentContact: r.ParentContact,
			IsActive:      true,
		}
		st.CreatedBy = operatorID(callerID)
		st.UpdatedBy = operatorID(callerID)
		valid = append(valid, st)
	}

	// 第二阶段：在事务中批量写入
	if len(valid) > 0 {
		err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
			return txRepo.Student.BatchCreate(ctx, valid)
		})
		if err != nil {
			s.logger.Error("导入学生写入失败，事务回滚", zap.Int("rows", len(valid)), zap.Error(err))
			return nil, fmt.Errorf("写入数据库失败，已回滚全部导入: %w", err)
		}
		resp.Success = len(valid)
	}

	s.logger.Info("导入学生",
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *studentService) get(ctx context.Context, id string) (*model.Student, error) {
	st, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return st, nil
}

// checkClass 校验班级存在；nil 或空串表示不分班
func (s *studentService) checkClass(ctx context.Context, code *string) (*string, error) {
	if code == nil || *code == "" {
		return nil, nil
	}
	if _, err := s.repo.Class.GetByCode(ctx, *code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return strPtr(*code), nil
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	return &dto.StudentResponse{
		ID:            st.StudentID,
		StudentNumber: st.StudentNumber,
		Name:          st.Name,
		ClassCode:     st.ClassCode,
		Grade:         st.Grade,
		ParentContact: st.ParentContact,
		IsActive:      st.IsActive,
		CreatedAt:     formatTime(st.CreatedAt),
	}
}
