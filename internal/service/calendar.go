package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"routinetest/internal/model"
)

// ── ICS 日历导出 ──────────────────────────────────────────────
//
// 每个考试场次对应一个 VEVENT：
//   - UID 取 session_id，客户端重复订阅时可按 UID 更新
//   - DTSTART/DTEND 使用 UTC
//   - DESCRIPTION 包含考试名、班级、教师、实际时长与备注
// ─────────────────────────────────────────────────────────────

const icsProductID = "-//RoutineTest//Exam Sessions//KO"

// buildSessionCalendar 生成 iCalendar 文本
func buildSessionCalendar(sessions []model.ExamSession, name string, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(name)

	for i := range sessions {
		s := &sessions[i]
		event := cal.AddEvent(s.SessionID + "@routinetest")
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(s.ScheduledStart.UTC())
		event.SetEndAt(s.ScheduledEnd.UTC())
		event.SetSummary(s.Title)
		event.SetLocation(s.ClassCode)
		event.SetDescription(sessionDescription(s))
	}
	return []byte(cal.Serialize())
}

func sessionDescription(s *model.ExamSession) string {
	var lines []string
	if s.Exam != nil {
		lines = append(lines, "考试: "+s.Exam.Name)
	}
	lines = append(lines, "班级: "+s.ClassCode)
	if s.Teacher != nil {
		lines = append(lines, "监考: "+s.Teacher.Name)
	}
	if d := s.EffectiveDuration(); d > 0 {
		lines = append(lines, fmt.Sprintf("时长: %d 分钟", d))
	}
	if s.Overrides.AllowLateEntry != nil && *s.Overrides.AllowLateEntry {
		lines = append(lines, "允许迟到入场")
	}
	if s.Overrides.Notes != "" {
		lines = append(lines, "备注: "+s.Overrides.Notes)
	}
	return strings.Join(lines, "\n")
}
