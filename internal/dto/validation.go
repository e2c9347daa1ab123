package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"routinetest/internal/model"
)

var (
	academicYearPattern = regexp.MustCompile(`^[0-9]{4}$`)
	classCodePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`)
)

// RegisterValidators 向 gin 的 validator 引擎注册业务校验标签
//
//	exam_type      REVIEW | QUARTERLY
//	timeslot_code  JAN..DEC | Q1..Q4
//	academic_year  四位年份
//	class_code     字母数字、下划线、连字符，最长 30
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"exam_type": func(fl validator.FieldLevel) bool {
			return model.IsExamType(fl.Field().String())
		},
		"timeslot_code": func(fl validator.FieldLevel) bool {
			return model.IsTimeslotCode(fl.Field().String())
		},
		"academic_year": func(fl validator.FieldLevel) bool {
			return academicYearPattern.MatchString(fl.Field().String())
		},
		"class_code": func(fl validator.FieldLevel) bool {
			return classCodePattern.MatchString(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
