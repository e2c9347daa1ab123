package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
	pkgerrors "routinetest/pkg/errors"
)

// ── 课程目录业务错误 ──

var (
	ErrProgramNotFound     = errors.New("课程体系不存在")
	ErrSubProgramNotFound  = errors.New("子课程不存在")
	ErrLevelNotFound       = errors.New("课程等级不存在")
	ErrProgramCodeExists   = errors.New("课程体系代码已存在")
	ErrCurriculumNodeInUse = errors.New("该节点下仍有子节点或被引用，无法删除")
)

const curriculumTreeCacheKey = "curriculum:tree"

// CurriculumService 课程目录业务接口
// 三级联动：program → subprogram → level，空选择返回空列表
type CurriculumService interface {
	ListPrograms(ctx context.Context) ([]dto.ProgramResponse, error)
	ListSubPrograms(ctx context.Context, programID string) ([]dto.SubProgramResponse, error)
	ListLevels(ctx context.Context, subProgramID string) ([]dto.LevelResponse, error)
	Tree(ctx context.Context) ([]dto.CurriculumTreeNode, error)

	CreateProgram(ctx context.Context, req *dto.CreateProgramRequest, callerID string) (*dto.ProgramResponse, error)
	UpdateProgram(ctx context.Context, id string, req *dto.UpdateProgramRequest, callerID string) (*dto.ProgramResponse, error)
	DeleteProgram(ctx context.Context, id string) error

	CreateSubProgram(ctx context.Context, req *dto.CreateSubProgramRequest, callerID string) (*dto.SubProgramResponse, error)
	UpdateSubProgram(ctx context.Context, id string, req *dto.UpdateSubProgramRequest, callerID string) (*dto.SubProgramResponse, error)
	DeleteSubProgram(ctx context.Context, id string) error

	CreateLevel(ctx context.Context, req *dto.CreateLevelRequest, callerID string) (*dto.LevelResponse, error)
	UpdateLevel(ctx context.Context, id string, req *dto.UpdateLevelRequest, callerID string) (*dto.LevelResponse, error)
	DeleteLevel(ctx context.Context, id string) error
}

type curriculumService struct {
	repo     *repository.Repository
	cache    CacheStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCurriculumService 创建 CurriculumService 实例，cache 可为 nil
func NewCurriculumService(repo *repository.Repository, cache CacheStore, cacheTTL time.Duration, logger *zap.Logger) CurriculumService {
	return &curriculumService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ────────────────────── 联动查询 ──────────────────────

func (s *curriculumService) ListPrograms(ctx context.Context) ([]dto.ProgramResponse, error) {
	programs, err := s.repo.Curriculum.ListPrograms(ctx)
	if err != nil {
		s.logger.Error("查询课程体系失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ProgramResponse, 0, len(programs))
	for i := range programs {
		result = append(result, toProgramResponse(&programs[i]))
	}
	return result, nil
}

func (s *curriculumService) ListSubPrograms(ctx context.Context, programID string) ([]dto.SubProgramResponse, error) {
	result := []dto.SubProgramResponse{}
	if programID == "" {
		return result, nil
	}
	subs, err := s.repo.Curriculum.ListSubPrograms(ctx, programID)
	if err != nil {
		s.logger.Error("查询子课程失败", zap.String("program_id", programID), zap.Error(err))
		return nil, err
	}
	for i := range subs {
		result = append(result, toSubProgramResponse(&subs[i]))
	}
	return result, nil
}

func (s *curriculumService) ListLevels(ctx context.Context, subProgramID string) ([]dto.LevelResponse, error) {
	result := []dto.LevelResponse{}
	if subProgramID == "" {
		return result, nil
	}
	levels, err := s.repo.Curriculum.ListLevels(ctx, subProgramID)
	if err != nil {
		s.logger.Error("查询课程等级失败", zap.String("subprogram_id", subProgramID), zap.Error(err))
		return nil, err
	}
	for i := range levels {
		result = append(result, toLevelResponse(&levels[i]))
	}
	return result, nil
}

// ────────────────────── Tree ──────────────────────

// Tree 优先读 Redis 缓存；缓存不可用时直接读库
func (s *curriculumService) Tree(ctx context.Context) ([]dto.CurriculumTreeNode, error) {
	if s.cache != nil {
		b, err := s.cache.GetCache(ctx, curriculumTreeCacheKey)
		if err == nil {
			var tree []dto.CurriculumTreeNode
			if jsonErr := json.Unmarshal(b, &tree); jsonErr == nil {
				return tree, nil
			}
		} else if !errors.Is(err, pkgerrors.ErrCacheMiss) {
			s.logger.Warn("读取课程目录缓存失败", zap.Error(err))
		}
	}

	programs, err := s.repo.Curriculum.Tree(ctx)
	if err != nil {
		s.logger.Error("查询课程目录失败", zap.Error(err))
		return nil, err
	}

	tree := make([]dto.CurriculumTreeNode, 0, len(programs))
	for i := range programs {
		p := &programs[i]
		node := dto.CurriculumTreeNode{
			ProgramResponse: toProgramResponse(p),
			SubPrograms:     make([]dto.CurriculumSubTree, 0, len(p.SubPrograms)),
		}
		for j := range p.SubPrograms {
			sp := p.SubPrograms[j]
			sub := dto.CurriculumSubTree{
				SubProgramResponse: toSubProgramResponse(&sp),
				Levels:             make([]dto.LevelResponse, 0, len(sp.Levels)),
			}
			parent := &model.SubProgram{Name: sp.Name, Program: &model.Program{Name: p.Name}}
			for k := range sp.Levels {
				lv := sp.Levels[k]
				lv.SubProgram = parent
				sub.Levels = append(sub.Levels, toLevelResponse(&lv))
			}
			node.SubPrograms = append(node.SubPrograms, sub)
		}
		tree = append(tree, node)
	}

	if s.cache != nil {
		if b, err := json.Marshal(tree); err == nil {
			if err := s.cache.SetCache(ctx, curriculumTreeCacheKey, b, s.cacheTTL); err != nil {
				s.logger.Warn("写入课程目录缓存失败", zap.Error(err))
			}
		}
	}
	return tree, nil
}

// ────────────────────── Program ──────────────────────

func (s *curriculumService) CreateProgram(ctx context.Context, req *dto.CreateProgramRequest, callerID string) (*dto.ProgramResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	programs, err := s.repo.Curriculum.ListPrograms(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range programs {
		if p.Code == code {
			return nil, ErrProgramCodeExists
		}
	}

	p := &model.Program{Code: code, Name: req.Name, SortOrder: req.SortOrder}
	p.CreatedBy = &callerID
	p.UpdatedBy = &callerID
	if err := s.repo.Curriculum.CreateProgram(ctx, p); err != nil {
		s.logger.Error("创建课程体系失败", zap.Error(err))
		return nil, err
	}
	s.invalidateTree(ctx)

	resp := toProgramResponse(p)
	return &resp, nil
}

func (s *curriculumService) UpdateProgram(ctx context.Context, id string, req *dto.UpdateProgramRequest, callerID string) (*dto.ProgramResponse, error) {
	p, err := s.repo.Curriculum.GetProgram(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SortOrder != nil {
		p.SortOrder = *req.SortOrder
	}
	p.UpdatedBy = &callerID

	if err := s.repo.Curriculum.UpdateProgram(ctx, p); err != nil {
		s.logger.Error("更新课程体系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateTree(ctx)

	resp := toProgramResponse(p)
	return &resp, nil
}

func (s *curriculumService) DeleteProgram(ctx context.Context, id string) error {
	if _, err := s.repo.Curriculum.GetProgram(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgramNotFound
		}
		return err
	}
	n, err := s.repo.Curriculum.CountSubPrograms(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCurriculumNodeInUse
	}
	if err := s.repo.Curriculum.DeleteProgram(ctx, id); err != nil {
		s.logger.Error("删除课程体系失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.invalidateTree(ctx)
	return nil
}

// ────────────────────── SubProgram ──────────────────────

func (s *curriculumService) CreateSubProgram(ctx context.Context, req *dto.CreateSubProgramRequest, callerID string) (*dto.SubProgramResponse, error) {
	if _, err := s.repo.Curriculum.GetProgram(ctx, req.ProgramID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	sp := &model.SubProgram{ProgramID: req.ProgramID, Name: req.Name, SortOrder: req.SortOrder}
	sp.CreatedBy = &callerID
	sp.UpdatedBy = &callerID
	if err := s.repo.Curriculum.CreateSubProgram(ctx, sp); err != nil {
		s.logger.Error("创建子课程失败", zap.Error(err))
		return nil, err
	}
	s.invalidateTree(ctx)

	resp := toSubProgramResponse(sp)
	return &resp, nil
}

func (s *curriculumService) UpdateSubProgram(ctx context.Context, id string, req *dto.UpdateSubProgramRequest, callerID string) (*dto.SubProgramResponse, error) {
	sp, err := s.repo.Curriculum.GetSubProgram(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubProgramNotFound
		}
		return nil, err
	}
	if req.Name != nil {
		sp.Name = *req.Name
	}
	if req.SortOrder != nil {
		sp.SortOrder = *req.SortOrder
	}
	sp.UpdatedBy = &callerID

	if err := s.repo.Curriculum.UpdateSubProgram(ctx, sp); err != nil {
		s.logger.Error("更新子课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateTree(ctx)

	resp := toSubProgramResponse(sp)
	return &resp, nil
}

func (s *curriculumService) DeleteSubProgram(ctx context.Context, id string) error {
	if _, err := s.repo.Curriculum.GetSubProgram(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubProgramNotFound
		}
		return err
	}
	n, err := s.repo.Curriculum.CountLevels(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCurriculumNodeInUse
	}
	if err := s.repo.Curriculum.DeleteSubProgram(ctx, id); err != nil {
		s.logger.Error("删除子课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.invalidateTree(ctx)
	return nil
}

// ────────────────────── Level ──────────────────────

func (s *curriculumService) CreateLevel(ctx context.Context, req *dto.CreateLevelRequest, callerID string) (*dto.LevelResponse, error) {
	sp, err := s.repo.Curriculum.GetSubProgram(ctx, req.SubProgramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubProgramNotFound
		}
		return nil, err
	}

	l := &model.CurriculumLevel{
		SubProgramID: req.SubProgramID,
		LevelNumber:  req.LevelNumber,
		Description:  req.Description,
		SortOrder:    req.SortOrder,
	}
	if l.SortOrder == 0 {
		l.SortOrder = req.LevelNumber
	}
	l.CreatedBy = &callerID
	l.UpdatedBy = &callerID
	if err := s.repo.Curriculum.CreateLevel(ctx, l); err != nil {
		s.logger.Error("创建课程等级失败", zap.Error(err))
		return nil, err
	}
	s.invalidateTree(ctx)

	l.SubProgram = sp
	resp := toLevelResponse(l)
	return &resp, nil
}

func (s *curriculumService) UpdateLevel(ctx context.Context, id string, req *dto.UpdateLevelRequest, callerID string) (*dto.LevelResponse, error) {
	l, err := s.repo.Curriculum.GetLevel(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLevelNotFound
		}
		return nil, err
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.SortOrder != nil {
		l.SortOrder = *req.SortOrder
	}
	l.UpdatedBy = &callerID

	if err := s.repo.Curriculum.UpdateLevel(ctx, l); err != nil {
		s.logger.Error("更新课程等级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateTree(ctx)

	resp := toLevelResponse(l)
	return &resp, nil
}

func (s *curriculumService) DeleteLevel(ctx context.Context, id string) error {
	if _, err := s.repo.Curriculum.GetLevel(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLevelNotFound
		}
		return err
	}
	n, err := s.repo.Curriculum.CountLevelReferences(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCurriculumNodeInUse
	}
	if err := s.repo.Curriculum.DeleteLevel(ctx, id); err != nil {
		s.logger.Error("删除课程等级失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.invalidateTree(ctx)
	return nil
}

// ── 内部辅助方法 ──

func (s *curriculumService) invalidateTree(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteCache(ctx, curriculumTreeCacheKey); err != nil {
		s.logger.Warn("清除课程目录缓存失败", zap.Error(err))
	}
}

func toProgramResponse(p *model.Program) dto.ProgramResponse {
	return dto.ProgramResponse{ID: p.ProgramID, Code: p.Code, Name: p.Name, SortOrder: p.SortOrder}
}

func toSubProgramResponse(sp *model.SubProgram) dto.SubProgramResponse {
	return dto.SubProgramResponse{ID: sp.SubProgramID, ProgramID: sp.ProgramID, Name: sp.Name, SortOrder: sp.SortOrder}
}

func toLevelResponse(l *model.CurriculumLevel) dto.LevelResponse {
	return dto.LevelResponse{
		ID:           l.LevelID,
		SubProgramID: l.SubProgramID,
		LevelNumber:  l.LevelNumber,
		Label:        l.LevelLabel(),
		DisplayName:  l.DisplayName(),
		Description:  l.Description,
		SortOrder:    l.SortOrder,
	}
}
