package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"routinetest/internal/dto"
	"routinetest/internal/model"
)

func setupTestQuestionService() (QuestionService, *mockRepos) {
	repo, mocks := newMockRepos()
	seedExam(mocks, "e1", model.ExamTypeReview, "JAN", 0)
	return NewQuestionService(repo, zap.NewNop()), mocks
}

// ── 题型校验 ──

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		name    string
		qType   string
		options []string
		answers []string
		wantErr bool
	}{
		{"单选合法", model.QuestionTypeMultipleChoice, []string{"A", "B", "C"}, []string{"B"}, false},
		{"单选仅一个选项", model.QuestionTypeMultipleChoice, []string{"A"}, []string{"A"}, true},
		{"单选多个答案", model.QuestionTypeMultipleChoice, []string{"A", "B"}, []string{"A", "B"}, true},
		{"单选答案不在选项中", model.QuestionTypeMultipleChoice, []string{"A", "B"}, []string{"C"}, true},
		{"单选选项重复", model.QuestionTypeMultipleChoice, []string{"A", "A"}, []string{"A"}, true},
		{"多选合法", model.QuestionTypeSelect, []string{"A", "B", "C"}, []string{"A", "C"}, false},
		{"多选无答案", model.QuestionTypeSelect, []string{"A", "B"}, nil, true},
		{"判断题合法", model.QuestionTypeTrueFalse, nil, []string{"False"}, false},
		{"判断题非法答案", model.QuestionTypeTrueFalse, nil, []string{"Yes"}, true},
		{"简答无答案", model.QuestionTypeShort, nil, nil, false},
		{"论述带选项", model.QuestionTypeLong, []string{"A"}, nil, true},
		{"未知题型", "essay", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := normalizeQuestion(tt.qType, tt.options, tt.answers)
			if tt.wantErr && !errors.Is(err, ErrQuestionInvalid) {
				t.Errorf("期望 ErrQuestionInvalid，实际: %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("期望合法，实际: %v", err)
			}
		})
	}
}

func TestNormalizeQuestion_TrueFalseOptionsFixed(t *testing.T) {
	opts, _, err := normalizeQuestion(model.QuestionTypeTrueFalse, []string{"Yes", "No"}, []string{"True"})
	if err != nil {
		t.Fatalf("返回错误: %v", err)
	}
	if len(opts) != 2 || opts[0] != "True" || opts[1] != "False" {
		t.Errorf("判断题选项应固定为 True/False，实际 %v", opts)
	}
}

// ── 题号与题目数 ──

func TestQuestionService_CreateDelete_KeepsNumbersDense(t *testing.T) {
	svc, m := setupTestQuestionService()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		resp, err := svc.Create(ctx, "e1", &dto.QuestionRequest{
			Text: "Q", Type: model.QuestionTypeShort, Points: 2,
		}, "admin")
		if err != nil {
			t.Fatalf("Create 返回错误: %v", err)
		}
		if resp.Number != i+1 {
			t.Errorf("期望题号 %d，实际 %d", i+1, resp.Number)
		}
		ids = append(ids, resp.ID)
	}
	if got := m.exam.exams["e1"].QuestionCount; got != 3 {
		t.Errorf("期望 question_count=3，实际 %d", got)
	}

	if err := svc.Delete(ctx, "e1", ids[0]); err != nil {
		t.Fatalf("Delete 返回错误: %v", err)
	}
	list, _ := svc.List(ctx, "e1")
	if len(list) != 2 || list[0].Number != 1 || list[1].Number != 2 {
		t.Errorf("删除后题号应为 1..2，实际 %+v", list)
	}
	if got := m.exam.exams["e1"].QuestionCount; got != 2 {
		t.Errorf("期望 question_count=2，实际 %d", got)
	}
}

func TestQuestionService_Create_ExamNotFound(t *testing.T) {
	svc, _ := setupTestQuestionService()

	_, err := svc.Create(context.Background(), "missing", &dto.QuestionRequest{
		Text: "Q", Type: model.QuestionTypeShort, Points: 1,
	}, "admin")
	if !errors.Is(err, ErrExamNotFound) {
		t.Errorf("期望 ErrExamNotFound，实际: %v", err)
	}
}

func TestQuestionService_Update_WrongExam(t *testing.T) {
	svc, m := setupTestQuestionService()
	ctx := context.Background()
	seedExam(m, "e2", model.ExamTypeReview, "FEB", 0)

	q, _ := svc.Create(ctx, "e1", &dto.QuestionRequest{Text: "Q", Type: model.QuestionTypeShort, Points: 1}, "admin")
	_, err := svc.Update(ctx, "e2", q.ID, &dto.QuestionRequest{Text: "Q2", Type: model.QuestionTypeShort, Points: 1}, "admin")
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("题目不属于该考试时期望 ErrQuestionNotFound，实际: %v", err)
	}
}

// ── 答案 ──

func TestQuestionService_ReplaceAnswerKey(t *testing.T) {
	svc, _ := setupTestQuestionService()
	ctx := context.Background()

	_, _ = svc.Create(ctx, "e1", &dto.QuestionRequest{
		Text: "Q1", Type: model.QuestionTypeMultipleChoice, Points: 1,
		Options: []string{"A", "B", "C"}, CorrectAnswers: []string{"A"},
	}, "admin")
	_, _ = svc.Create(ctx, "e1", &dto.QuestionRequest{
		Text: "Q2", Type: model.QuestionTypeTrueFalse, Points: 1, CorrectAnswers: []string{"True"},
	}, "admin")

	list, err := svc.ReplaceAnswerKey(ctx, "e1", &dto.AnswerKeyRequest{Answers: []dto.AnswerKeyItem{
		{Number: 1, CorrectAnswers: []string{"C"}},
		{Number: 2, CorrectAnswers: []string{"False"}},
	}}, "admin")
	if err != nil {
		t.Fatalf("ReplaceAnswerKey 返回错误: %v", err)
	}
	if list[0].CorrectAnswers[0] != "C" || list[1].CorrectAnswers[0] != "False" {
		t.Errorf("答案未替换: %+v", list)
	}

	// 任一题不合法则整体不生效
	_, err = svc.ReplaceAnswerKey(ctx, "e1", &dto.AnswerKeyRequest{Answers: []dto.AnswerKeyItem{
		{Number: 1, CorrectAnswers: []string{"B"}},
		{Number: 2, CorrectAnswers: []string{"Maybe"}},
	}}, "admin")
	if !errors.Is(err, ErrQuestionInvalid) {
		t.Errorf("期望 ErrQuestionInvalid，实际: %v", err)
	}
	list, _ = svc.List(ctx, "e1")
	if list[0].CorrectAnswers[0] != "C" {
		t.Errorf("校验失败时不应修改任何题目，实际 %v", list[0].CorrectAnswers)
	}

	_, err = svc.ReplaceAnswerKey(ctx, "e1", &dto.AnswerKeyRequest{Answers: []dto.AnswerKeyItem{
		{Number: 9, CorrectAnswers: []string{"A"}},
	}}, "admin")
	if !errors.Is(err, ErrAnswerKeyNumberAbsent) {
		t.Errorf("期望 ErrAnswerKeyNumberAbsent，实际: %v", err)
	}
}

// ── 题号分配加锁 ──

func TestQuestionService_CreateDelete_LockExamRow(t *testing.T) {
	svc, m := setupTestQuestionService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, "e1", &dto.QuestionRequest{
		Text: "Q", Type: model.QuestionTypeShort, Points: 1,
	}, "admin")
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	if err := svc.Delete(ctx, "e1", resp.ID); err != nil {
		t.Fatalf("Delete 返回错误: %v", err)
	}

	if len(m.exam.locked) != 2 || m.exam.locked[0] != "e1" || m.exam.locked[1] != "e1" {
		t.Errorf("创建与删除都应锁定考试行，实际 %v", m.exam.locked)
	}
}

func TestQuestionService_Delete_ExamGoneBeforeLock(t *testing.T) {
	svc, m := setupTestQuestionService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, "e1", &dto.QuestionRequest{
		Text: "Q", Type: model.QuestionTypeShort, Points: 1,
	}, "admin")
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	m.exam.deleted["e1"] = true

	if err := svc.Delete(ctx, "", resp.ID); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("期望 ErrExamNotFound，实际 %v", err)
	}
	if _, ok := m.question.questions[resp.ID]; !ok {
		t.Error("考试已删除时不应删除题目")
	}
}
