package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/config"
	"routinetest/internal/api/handler"
	"routinetest/internal/api/middleware"
	"routinetest/internal/model"
	"routinetest/pkg/jwt"
	"routinetest/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// db 仅用于健康检查，可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes, cfg.Server.UploadLimitBytes))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF(&cfg.Server.CSRF))
	}

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher)
	bulk := middleware.RateLimit(rdb, cfg.Academy.ExportRateLimit, time.Minute, middleware.ByUser)

	root := r.Group("/RoutineTest")

	// 考试复制沿用旧版前端的非 /api 路径
	root.POST("/exams/copy/", middleware.JWTAuth(jwtMgr, rdb), staff, h.Exam.CopyExam)

	api := root.Group("/api")
	{
		api.GET("/csrf/", middleware.CSRFToken)

		// 认证模块（无需认证）
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.Academy.LoginRateLimit, time.Minute, middleware.ByClientIP), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 学年模块
			years := authorized.Group("/academic-years")
			{
				years.GET("/", h.AcademicYear.ListAcademicYears)
				years.GET("/current/", h.AcademicYear.GetCurrentAcademicYear)
				years.GET("/:id/", h.AcademicYear.GetAcademicYear)
				years.POST("/", admin, h.AcademicYear.CreateAcademicYear)
				years.PUT("/:id/", admin, h.AcademicYear.UpdateAcademicYear)
				years.PUT("/:id/activate/", admin, h.AcademicYear.ActivateAcademicYear)
				years.DELETE("/:id/", admin, h.AcademicYear.DeleteAcademicYear)
			}

			// 课程目录模块
			curriculum := authorized.Group("/curriculum")
			{
				curriculum.GET("/tree/", h.Curriculum.Tree)
				curriculum.GET("/programs/", h.Curriculum.ListPrograms)
				curriculum.POST("/programs/", admin, h.Curriculum.CreateProgram)
				curriculum.PUT("/programs/:id/", admin, h.Curriculum.UpdateProgram)
				curriculum.DELETE("/programs/:id/", admin, h.Curriculum.DeleteProgram)
				curriculum.GET("/subprograms/", h.Curriculum.ListSubPrograms)
				curriculum.POST("/subprograms/", admin, h.Curriculum.CreateSubProgram)
				curriculum.PUT("/subprograms/:id/", admin, h.Curriculum.UpdateSubProgram)
				curriculum.DELETE("/subprograms/:id/", admin, h.Curriculum.DeleteSubProgram)
				curriculum.GET("/levels/", h.Curriculum.ListLevels)
				curriculum.POST("/levels/", admin, h.Curriculum.CreateLevel)
				curriculum.PUT("/levels/:id/", admin, h.Curriculum.UpdateLevel)
				curriculum.DELETE("/levels/:id/", admin, h.Curriculum.DeleteLevel)
			}

			// 管理模块：账号、班级、课程映射
			adminGroup := authorized.Group("/admin", admin)
			{
				adminGroup.POST("/users/", h.Auth.CreateUser)

				adminGroup.GET("/classes/", h.Class.ListClasses)
				adminGroup.POST("/classes/", h.Class.CreateClass)
				adminGroup.GET("/classes/:code/", h.Class.GetClass)
				adminGroup.PUT("/classes/:code/", h.Class.UpdateClass)
				adminGroup.DELETE("/classes/:code/", h.Class.DeleteClass)
				adminGroup.GET("/classes/:code/teachers/", h.Class.ListClassTeachers)

				adminGroup.GET("/curriculum-mapping/", h.Mapping.ListMappings)
				adminGroup.POST("/curriculum-mapping/", h.Mapping.SaveMapping)
				adminGroup.DELETE("/curriculum-mapping/", h.Mapping.DeleteMapping)
				adminGroup.POST("/curriculum-mapping/autosave/", h.Mapping.AutosaveMapping)
			}

			// 考试模块
			exams := authorized.Group("/exams")
			{
				exams.GET("/", h.Exam.ListExams)
				exams.POST("/", staff, h.Exam.CreateExam)
				exams.GET("/export/", bulk, h.Export.ExportExams)
				exams.GET("/:id/", h.Exam.GetExam)
				exams.PUT("/:id/", staff, h.Exam.UpdateExam)
				exams.GET("/:id/questions/", h.Question.ListQuestions)
				exams.POST("/:id/questions/", staff, h.Question.CreateQuestion)
				exams.PUT("/:id/answer-key/", staff, h.Question.ReplaceAnswerKey)
			}
			exam := authorized.Group("/exam")
			{
				exam.PATCH("/:id/duration/", staff, h.Exam.UpdateDuration)
				exam.DELETE("/:id/delete/", staff, h.Exam.DeleteExam)
				exam.POST("/:id/assign/", staff, h.Exam.AssignExam)
			}

			// 题目模块
			questions := authorized.Group("/questions")
			{
				questions.PUT("/:id/", staff, h.Question.UpdateQuestion)
				questions.DELETE("/:id/", staff, h.Question.DeleteQuestion)
			}

			// 考试场次模块（教师账号在 Handler 中限定为本人场次）
			sessions := authorized.Group("/sessions")
			{
				sessions.GET("/", h.Session.ListSessions)
				sessions.GET("/calendar.ics", h.Session.Calendar)
				sessions.GET("/:id/", h.Session.GetSession)
				sessions.POST("/", admin, h.Session.CreateSession)
				sessions.PUT("/:id/", admin, h.Session.UpdateSession)
				sessions.DELETE("/:id/", admin, h.Session.DeleteSession)
			}

			// 教师模块
			teachers := authorized.Group("/teachers", admin)
			{
				teachers.GET("/", h.Teacher.ListTeachers)
				teachers.POST("/", h.Teacher.CreateTeacher)
				teachers.GET("/:id/", h.Teacher.GetTeacher)
				teachers.PUT("/:id/", h.Teacher.UpdateTeacher)
				teachers.DELETE("/:id/", h.Teacher.DeleteTeacher)
				teachers.PUT("/:id/assignments/", h.Teacher.ReplaceAssignments)
				teachers.PUT("/:id/availability/", h.Teacher.ReplaceAvailability)
			}

			// 学生名册模块
			students := authorized.Group("/students")
			{
				students.GET("/", h.Student.ListStudents)
				students.GET("/export/", bulk, h.Export.ExportStudents)
				students.GET("/:id/", h.Student.GetStudent)
				students.POST("/", admin, h.Student.CreateStudent)
				students.POST("/import/", admin, bulk, h.Student.ImportStudents)
				students.PUT("/:id/", admin, h.Student.UpdateStudent)
				students.PUT("/:id/class/", admin, h.Student.MoveStudent)
				students.DELETE("/:id/", admin, h.Student.DeleteStudent)
			}
		}
	}

	return r
}
