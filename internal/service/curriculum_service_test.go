package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"routinetest/internal/dto"
	"routinetest/internal/repository"
	pkgerrors "routinetest/pkg/errors"
)

// ── 测试辅助 ──

// memCache 进程内 CacheStore
type memCache struct {
	data    map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) GetCache(_ context.Context, name string) ([]byte, error) {
	if b, ok := c.data[name]; ok {
		return b, nil
	}
	return nil, pkgerrors.ErrCacheMiss
}

func (c *memCache) SetCache(_ context.Context, name string, value []byte, _ time.Duration) error {
	c.data[name] = value
	return nil
}

func (c *memCache) DeleteCache(_ context.Context, names ...string) error {
	for _, n := range names {
		delete(c.data, n)
	}
	c.deletes++
	return nil
}

func setupTestCurriculumService(cache CacheStore) (CurriculumService, *mockCurriculumRepo) {
	repo, mocks := newMockRepos()
	cur := mocks.curriculum

	// CORE: Phonics(1) / Reading(2)，EDGE: Writing(1)
	cur.seed("p-core", "CORE", "sp-core-reading", "Reading", 2, 1)
	cur.seed("p-core", "CORE", "sp-core-phonics", "Phonics", 1, 2)
	cur.seed("p-core", "CORE", "sp-core-phonics", "Phonics", 1, 1)
	cur.seed("p-core", "CORE", "sp-core-phonics", "Phonics", 1, 3)
	cur.seed("p-edge", "EDGE", "sp-edge-writing", "Writing", 1, 1)

	return NewCurriculumService(repo, cache, time.Minute, zap.NewNop()), cur
}

// ── 联动查询 ──

func TestCurriculumService_ListSubPrograms_OnlySelectedProgramInOrder(t *testing.T) {
	svc, _ := setupTestCurriculumService(nil)

	subs, err := svc.ListSubPrograms(context.Background(), "p-core")
	if err != nil {
		t.Fatalf("ListSubPrograms 返回错误: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("期望 2 个子课程，实际 %d", len(subs))
	}
	if subs[0].Name != "Phonics" || subs[1].Name != "Reading" {
		t.Errorf("期望顺序 Phonics, Reading，实际 %s, %s", subs[0].Name, subs[1].Name)
	}
	for _, sp := range subs {
		if sp.ProgramID != "p-core" {
			t.Errorf("子课程 %s 不属于所选体系: %s", sp.Name, sp.ProgramID)
		}
	}
}

func TestCurriculumService_ListLevels_OnlySelectedSubProgramInOrder(t *testing.T) {
	svc, _ := setupTestCurriculumService(nil)

	levels, err := svc.ListLevels(context.Background(), "sp-core-phonics")
	if err != nil {
		t.Fatalf("ListLevels 返回错误: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("期望 3 个等级，实际 %d", len(levels))
	}
	for i, l := range levels {
		if l.LevelNumber != i+1 {
			t.Errorf("第 %d 项期望 Level %d，实际 Level %d", i, i+1, l.LevelNumber)
		}
		if l.SubProgramID != "sp-core-phonics" {
			t.Errorf("等级不属于所选子课程: %s", l.SubProgramID)
		}
	}
	if levels[2].DisplayName != "CORE Phonics Level 3" {
		t.Errorf("期望显示名 CORE Phonics Level 3，实际 %s", levels[2].DisplayName)
	}
}

func TestCurriculumService_EmptySelection_NoRepositoryCall(t *testing.T) {
	// Curriculum 为 nil，若访问存储层会直接 panic
	svc := NewCurriculumService(&repository.Repository{}, nil, time.Minute, zap.NewNop())

	subs, err := svc.ListSubPrograms(context.Background(), "")
	if err != nil || subs == nil || len(subs) != 0 {
		t.Errorf("清空体系时期望空列表，实际 %v, %v", subs, err)
	}
	levels, err := svc.ListLevels(context.Background(), "")
	if err != nil || levels == nil || len(levels) != 0 {
		t.Errorf("清空子课程时期望空列表，实际 %v, %v", levels, err)
	}
}

// ── 目录树缓存 ──

func TestCurriculumService_Tree_CachedAndInvalidated(t *testing.T) {
	cache := newMemCache()
	svc, cur := setupTestCurriculumService(cache)
	ctx := context.Background()

	first, err := svc.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree 返回错误: %v", err)
	}
	if len(first) != 2 || first[0].Name != "CORE" {
		t.Fatalf("目录树结构不符合预期: %+v", first)
	}
	if _, err := svc.Tree(ctx); err != nil {
		t.Fatalf("Tree 返回错误: %v", err)
	}
	if cur.treeCalls != 1 {
		t.Errorf("第二次读取应命中缓存，实际查询存储层 %d 次", cur.treeCalls)
	}

	if _, err := svc.CreateProgram(ctx, &dto.CreateProgramRequest{Code: "PINNACLE", Name: "PINNACLE", SortOrder: 9}, "admin"); err != nil {
		t.Fatalf("CreateProgram 返回错误: %v", err)
	}
	if cache.deletes == 0 {
		t.Error("写操作后应清除目录缓存")
	}

	tree, _ := svc.Tree(ctx)
	if len(tree) != 3 || cur.treeCalls != 2 {
		t.Errorf("缓存清除后应重新查询，期望 3 个体系/2 次查询，实际 %d/%d", len(tree), cur.treeCalls)
	}
}

func TestCurriculumService_DeleteLevel_InUse(t *testing.T) {
	svc, cur := setupTestCurriculumService(nil)
	cur.references["sp-core-phonics-L1"] = 2

	err := svc.DeleteLevel(context.Background(), "sp-core-phonics-L1")
	if !errors.Is(err, ErrCurriculumNodeInUse) {
		t.Errorf("期望 ErrCurriculumNodeInUse，实际: %v", err)
	}
}

func TestCurriculumService_DeleteProgram_HasChildren(t *testing.T) {
	svc, _ := setupTestCurriculumService(nil)

	err := svc.DeleteProgram(context.Background(), "p-edge")
	if !errors.Is(err, ErrCurriculumNodeInUse) {
		t.Errorf("期望 ErrCurriculumNodeInUse，实际: %v", err)
	}
}
