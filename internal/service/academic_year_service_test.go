package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"routinetest/internal/dto"
)

func setupTestAcademicYearService() (AcademicYearService, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewAcademicYearService(repo, zap.NewNop()), mocks
}

func TestAcademicYearService_Create(t *testing.T) {
	svc, _ := setupTestAcademicYearService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateAcademicYearRequest{Year: "2025", StartDate: "2025-03-01", EndDate: "2026-02-28"}, "admin")
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	if resp.IsCurrent {
		t.Error("新建学年不应自动成为当前学年")
	}

	_, err = svc.Create(ctx, &dto.CreateAcademicYearRequest{Year: "2025", StartDate: "2025-03-01", EndDate: "2026-02-28"}, "admin")
	if !errors.Is(err, ErrAcademicYearExists) {
		t.Errorf("期望 ErrAcademicYearExists，实际: %v", err)
	}

	tests := []struct{ start, end string }{
		{"2026-03-01", "2026-02-28"},
		{"2026-03-01", "2026-03-01"},
		{"2026/03/01", "2027-02-28"},
	}
	for _, tt := range tests {
		_, err := svc.Create(ctx, &dto.CreateAcademicYearRequest{Year: "2026", StartDate: tt.start, EndDate: tt.end}, "admin")
		if !errors.Is(err, ErrAcademicYearDateInvalid) {
			t.Errorf("%s ~ %s 期望 ErrAcademicYearDateInvalid，实际: %v", tt.start, tt.end, err)
		}
	}
}

func TestAcademicYearService_Activate_SingleCurrent(t *testing.T) {
	svc, _ := setupTestAcademicYearService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, &dto.CreateAcademicYearRequest{Year: "2024", StartDate: "2024-03-01", EndDate: "2025-02-28"}, "admin")
	b, _ := svc.Create(ctx, &dto.CreateAcademicYearRequest{Year: "2025", StartDate: "2025-03-01", EndDate: "2026-02-28"}, "admin")

	if err := svc.Activate(ctx, a.ID, "admin"); err != nil {
		t.Fatalf("Activate 返回错误: %v", err)
	}
	if err := svc.Activate(ctx, b.ID, "admin"); err != nil {
		t.Fatalf("Activate 返回错误: %v", err)
	}

	current, err := svc.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent 返回错误: %v", err)
	}
	if current.Year != "2025" {
		t.Errorf("期望当前学年 2025，实际 %s", current.Year)
	}

	list, _ := svc.List(ctx)
	n := 0
	for _, y := range list {
		if y.IsCurrent {
			n++
		}
	}
	if n != 1 {
		t.Errorf("当前学年应唯一，实际 %d 个", n)
	}
}

func TestAcademicYearService_Delete(t *testing.T) {
	svc, _ := setupTestAcademicYearService()
	ctx := context.Background()

	y, _ := svc.Create(ctx, &dto.CreateAcademicYearRequest{Year: "2025", StartDate: "2025-03-01", EndDate: "2026-02-28"}, "admin")
	_ = svc.Activate(ctx, y.ID, "admin")

	if err := svc.Delete(ctx, y.ID, "admin"); !errors.Is(err, ErrAcademicYearIsCurrent) {
		t.Errorf("期望 ErrAcademicYearIsCurrent，实际: %v", err)
	}
	if err := svc.Delete(ctx, "missing", "admin"); !errors.Is(err, ErrAcademicYearNotFound) {
		t.Errorf("期望 ErrAcademicYearNotFound，实际: %v", err)
	}
}

func TestAcademicYearService_GetCurrent_None(t *testing.T) {
	svc, _ := setupTestAcademicYearService()

	if _, err := svc.GetCurrent(context.Background()); !errors.Is(err, ErrAcademicYearNotFound) {
		t.Errorf("期望 ErrAcademicYearNotFound，实际: %v", err)
	}
}
