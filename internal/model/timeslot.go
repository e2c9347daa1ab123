package model

import "strings"

// 考试类型
const (
	ExamTypeReview    = "REVIEW"    // 月度复习
	ExamTypeQuarterly = "QUARTERLY" // 季度考试
)

var (
	monthTimeslots   = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}
	quarterTimeslots = []string{"Q1", "Q2", "Q3", "Q4"}
)

// IsExamType 判断考试类型是否合法
func IsExamType(t string) bool {
	return t == ExamTypeReview || t == ExamTypeQuarterly
}

// TimeslotsFor 返回某考试类型可用的时间段代码
func TimeslotsFor(examType string) []string {
	switch examType {
	case ExamTypeReview:
		return append([]string(nil), monthTimeslots...)
	case ExamTypeQuarterly:
		return append([]string(nil), quarterTimeslots...)
	default:
		return nil
	}
}

// IsTimeslotCode 判断是否为任一类型的时间段代码
func IsTimeslotCode(code string) bool {
	return IsExamType(ExamTypeForTimeslot(code))
}

// ExamTypeForTimeslot 由时间段代码推断考试类型，无法识别时返回空串
func ExamTypeForTimeslot(code string) string {
	code = strings.ToUpper(code)
	for _, m := range monthTimeslots {
		if m == code {
			return ExamTypeReview
		}
	}
	for _, q := range quarterTimeslots {
		if q == code {
			return ExamTypeQuarterly
		}
	}
	return ""
}

// TimeslotMatchesType REVIEW 对应月份代码，QUARTERLY 对应季度代码
func TimeslotMatchesType(examType, code string) bool {
	return IsExamType(examType) && ExamTypeForTimeslot(code) == examType
}
