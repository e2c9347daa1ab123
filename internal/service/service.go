package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/config"
	"routinetest/internal/repository"
	"routinetest/pkg/jwt"
)

// TokenStore Token 黑名单存储（Redis 实现见 pkg/redis）
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// CacheStore 通用字节缓存（Redis 实现见 pkg/redis）
type CacheStore interface {
	GetCache(ctx context.Context, name string) ([]byte, error)
	SetCache(ctx context.Context, name string, value []byte, ttl time.Duration) error
	DeleteCache(ctx context.Context, names ...string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	AcademicYear AcademicYearService
	Curriculum   CurriculumService
	Class        ClassService
	Mapping      MappingService
	Exam         ExamService
	Question     QuestionService
	Session      SessionService
	Teacher      TeacherService
	Student      StudentService
	Export       ExportService
}

// Deps 构造 Service 聚合所需的外部依赖
// Tokens / Cache 为 nil 时对应功能降级（不校验黑名单、不缓存）
type Deps struct {
	Config *config.Config
	Repo   *repository.Repository
	JWT    *jwt.Manager
	Tokens TokenStore
	Cache  CacheStore
	Logger *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	return &Service{
		Auth:         NewAuthService(d.Config, d.Repo, d.JWT, d.Tokens, d.Logger),
		AcademicYear: NewAcademicYearService(d.Repo, d.Logger),
		Curriculum:   NewCurriculumService(d.Repo, d.Cache, d.Config.Academy.CatalogCacheTTL, d.Logger),
		Class:        NewClassService(d.Repo, d.Logger),
		Mapping:      NewMappingService(d.Repo, d.Config.Academy.AutosaveWindow, d.Logger),
		Exam:         NewExamService(d.Repo, d.Config.Academy.DefaultExamDuration, d.Logger),
		Question:     NewQuestionService(d.Repo, d.Logger),
		Session:      NewSessionService(d.Repo, d.Logger),
		Teacher:      NewTeacherService(d.Repo, d.Logger),
		Student:      NewStudentService(d.Repo, d.Config.Academy.MaxImportRows, d.Logger),
		Export:       NewExportService(d.Repo, d.Logger),
	}
}

// Shutdown 冲刷待执行的自动保存
func (s *Service) Shutdown() {
	s.Mapping.Close()
}

// ── 公共辅助 ──

const timeLayout = "2006-01-02T15:04:05Z"

// timeNow 便于测试替换
var timeNow = time.Now

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// resolveAcademicYear 未指定学年时回退到当前学年，仍无则取服务器时钟的公历年
func resolveAcademicYear(ctx context.Context, repo *repository.Repository, year string) (string, error) {
	if year != "" {
		return year, nil
	}
	current, err := repo.AcademicYear.GetCurrent(ctx)
	if err == nil {
		return current.Year, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return strconv.Itoa(timeNow().Year()), nil
}

func strPtr(s string) *string {
	return &s
}

// operatorID CLI 调用时无操作人，审计字段留空
func operatorID(callerID string) *string {
	if callerID == "" {
		return nil
	}
	return &callerID
}
