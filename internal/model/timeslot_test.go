package model

import "testing"

func TestTimeslotMatchesType(t *testing.T) {
	cases := []struct {
		examType string
		code     string
		want     bool
	}{
		{ExamTypeReview, "JAN", true},
		{ExamTypeReview, "dec", true},
		{ExamTypeReview, "Q1", false},
		{ExamTypeQuarterly, "Q4", true},
		{ExamTypeQuarterly, "MAR", false},
		{"MONTHLY", "JAN", false},
		{ExamTypeReview, "", false},
	}
	for _, tc := range cases {
		if got := TimeslotMatchesType(tc.examType, tc.code); got != tc.want {
			t.Errorf("TimeslotMatchesType(%s, %s) 期望 %v，实际 %v", tc.examType, tc.code, tc.want, got)
		}
	}
}

func TestTimeslotsFor(t *testing.T) {
	if n := len(TimeslotsFor(ExamTypeReview)); n != 12 {
		t.Errorf("REVIEW 期望 12 个时间段，实际 %d", n)
	}
	if n := len(TimeslotsFor(ExamTypeQuarterly)); n != 4 {
		t.Errorf("QUARTERLY 期望 4 个时间段，实际 %d", n)
	}
	if TimeslotsFor("OTHER") != nil {
		t.Error("未知类型应返回 nil")
	}
}
