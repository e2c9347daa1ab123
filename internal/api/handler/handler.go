package handler

import (
	"routinetest/config"
	"routinetest/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	AcademicYear *AcademicYearHandler
	Curriculum   *CurriculumHandler
	Class        *ClassHandler
	Mapping      *MappingHandler
	Exam         *ExamHandler
	Question     *QuestionHandler
	Session      *SessionHandler
	Teacher      *TeacherHandler
	Student      *StudentHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth.Cookie),
		AcademicYear: NewAcademicYearHandler(svc.AcademicYear),
		Curriculum:   NewCurriculumHandler(svc.Curriculum),
		Class:        NewClassHandler(svc.Class, svc.Teacher),
		Mapping:      NewMappingHandler(svc.Mapping),
		Exam:         NewExamHandler(svc.Exam),
		Question:     NewQuestionHandler(svc.Question),
		Session:      NewSessionHandler(svc.Session),
		Teacher:      NewTeacherHandler(svc.Teacher),
		Student:      NewStudentHandler(svc.Student),
		Export:       NewExportHandler(svc.Export),
	}
}
