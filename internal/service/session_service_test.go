package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"routinetest/internal/dto"
	"routinetest/internal/model"
)

func setupTestSessionService() (SessionService, *mockRepos) {
	repo, mocks := newMockRepos()
	seedExam(mocks, "e1", model.ExamTypeReview, "MAR", 0)
	mocks.class.classes["C101"] = &model.Class{ClassCode: "C101", Name: "Phonics A", IsActive: true}
	mocks.class.classes["C102"] = &model.Class{ClassCode: "C102", Name: "Phonics B", IsActive: true}
	mocks.teacher.teachers["t1"] = &model.Teacher{TeacherID: "t1", Name: "Kim", Email: "kim@example.com", IsActive: true}
	mocks.teacher.assignments = []model.TeacherClassAssignment{
		{TeacherID: "t1", ClassCode: "C101", Role: model.AssignmentRoleMain, IsPrimary: true},
		{TeacherID: "t1", ClassCode: "C102", Role: model.AssignmentRoleSub},
	}
	return NewSessionService(repo, zap.NewNop()), mocks
}

var sessionBase = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func sessionReq(class string, teacherID *string, startOffset, minutes int) *dto.CreateSessionRequest {
	start := sessionBase.Add(time.Duration(startOffset) * time.Minute)
	return &dto.CreateSessionRequest{
		ExamID:         "e1",
		Title:          "March Review",
		ClassCode:      class,
		TeacherID:      teacherID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestSessionService_Create_EndBeforeStart(t *testing.T) {
	svc, _ := setupTestSessionService()

	req := sessionReq("C101", nil, 0, 60)
	req.ScheduledEnd = req.ScheduledStart
	_, err := svc.Create(context.Background(), req, "admin")
	if !errors.Is(err, ErrSessionTimeInvalid) {
		t.Errorf("期望 ErrSessionTimeInvalid，实际: %v", err)
	}
}

func TestSessionService_Create_TeacherNotAssigned(t *testing.T) {
	svc, m := setupTestSessionService()
	m.class.classes["C103"] = &model.Class{ClassCode: "C103", Name: "Reading", IsActive: true}

	_, err := svc.Create(context.Background(), sessionReq("C103", strPtr("t1"), 0, 60), "admin")
	if !errors.Is(err, ErrTeacherNotAssigned) {
		t.Errorf("期望 ErrTeacherNotAssigned，实际: %v", err)
	}
}

func TestSessionService_Create_TeacherOverlap(t *testing.T) {
	svc, _ := setupTestSessionService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, sessionReq("C101", strPtr("t1"), 0, 60), "admin"); err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	_, err := svc.Create(ctx, sessionReq("C102", strPtr("t1"), 30, 60), "admin")
	if !errors.Is(err, ErrTeacherTimeConflict) {
		t.Errorf("期望 ErrTeacherTimeConflict，实际: %v", err)
	}
	// 首尾相接不算重叠
	if _, err := svc.Create(ctx, sessionReq("C102", strPtr("t1"), 60, 60), "admin"); err != nil {
		t.Errorf("相邻时间段应允许，实际: %v", err)
	}
}

func TestSessionService_Update_ExcludesSelfFromOverlap(t *testing.T) {
	svc, _ := setupTestSessionService()
	ctx := context.Background()

	created, err := svc.Create(ctx, sessionReq("C101", strPtr("t1"), 0, 60), "admin")
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	end := sessionBase.Add(90 * time.Minute)
	resp, err := svc.Update(ctx, created.ID, &dto.UpdateSessionRequest{ScheduledEnd: &end}, "admin")
	if err != nil {
		t.Fatalf("延长自身场次不应与自身冲突: %v", err)
	}
	if resp.ScheduledEnd != "2025-03-14T10:30:00Z" {
		t.Errorf("期望结束时间 2025-03-14T10:30:00Z，实际 %s", resp.ScheduledEnd)
	}
}

func TestSessionService_EffectiveDuration(t *testing.T) {
	svc, _ := setupTestSessionService()

	req := sessionReq("C101", nil, 0, 120)
	extra := 15
	req.Overrides = dto.SessionOverridesDTO{ExtraTimeMinutes: &extra}
	resp, err := svc.Create(context.Background(), req, "admin")
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	if resp.EffectiveDuration != 60 {
		t.Errorf("期望考试时长 45 + 延时 15 = 60，实际 %d", resp.EffectiveDuration)
	}
}

func TestSessionService_List_BadTime(t *testing.T) {
	svc, _ := setupTestSessionService()

	_, err := svc.List(context.Background(), &dto.SessionListRequest{From: "2025-03-14"})
	if !errors.Is(err, ErrSessionTimeFormat) {
		t.Errorf("期望 ErrSessionTimeFormat，实际: %v", err)
	}
}

// ── 日历导出 ──

func TestSessionService_Calendar(t *testing.T) {
	svc, _ := setupTestSessionService()
	ctx := context.Background()

	_, _, err := svc.Calendar(ctx, &dto.CalendarRequest{})
	assert.ErrorIs(t, err, ErrCalendarScopeMissing)

	notes := "Bring pencils"
	req := sessionReq("C101", strPtr("t1"), 0, 60)
	req.Overrides.Notes = notes
	created, err := svc.Create(ctx, req, "admin")
	require.NoError(t, err)
	_, err = svc.Create(ctx, sessionReq("C102", nil, 120, 60), "admin")
	require.NoError(t, err)

	body, filename, err := svc.Calendar(ctx, &dto.CalendarRequest{ClassCode: "C101"})
	require.NoError(t, err)
	assert.Equal(t, "exam-sessions-C101.ics", filename)

	// 展开 RFC 5545 折行
	text := strings.ReplaceAll(string(body), "\r\n ", "")
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "METHOD:PUBLISH")
	assert.Equal(t, 1, strings.Count(text, "BEGIN:VEVENT"))
	assert.Contains(t, text, "UID:"+created.ID+"@routinetest")
	assert.Contains(t, text, "SUMMARY:March Review")
	assert.Contains(t, text, "DTSTART:20250314T090000Z")
	assert.Contains(t, text, "DTEND:20250314T100000Z")
	assert.Contains(t, text, notes)
}
