// routinectl 运维命令行：数据库迁移、学生名册导入、考试导出与管理员账号初始化
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"routinetest/config"
	"routinetest/internal/dto"
	"routinetest/internal/model"
	"routinetest/internal/repository"
	"routinetest/internal/service"
	"routinetest/pkg/database"
	"routinetest/pkg/jwt"
	applogger "routinetest/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// app 子命令共享的运行时依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	_ = a.logger.Sync()
}

func (a *app) service() *service.Service {
	return service.NewService(service.Deps{
		Config: a.cfg,
		Repo:   repository.NewRepository(a.db),
		JWT:    jwt.NewManager(&a.cfg.Auth),
		Logger: a.logger,
	})
}

func rootCmd() *cobra.Command {
	var configPath string
	a := &app{}

	cmd := &cobra.Command{
		Use:           "routinectl",
		Short:         "RoutineTest 运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := applogger.NewLogger(&cfg.Log)
			if err != nil {
				return fmt.Errorf("初始化日志失败: %w", err)
			}
			db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
			if err != nil {
				return fmt.Errorf("数据库连接失败: %w", err)
			}
			a.cfg, a.logger, a.db = cfg, logger, db
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.close()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（YAML）")

	cmd.AddCommand(
		migrateCmd(a),
		importStudentsCmd(a),
		exportExamsCmd(a),
		createAdminCmd(a),
	)
	return cmd
}

// ── migrate ──

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return database.RunMigrations(sqlDB, a.logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚最近的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return database.RollbackMigrations(sqlDB, steps, a.logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	cmd.AddCommand(down)

	return cmd
}

// ── import-students ──

func importStudentsCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-students <file.xlsx>",
		Short: "从 Excel 导入学生名册",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			svc := a.service()
			rows, err := svc.Student.ParseImportFile(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "解析成功：%d 行\n", len(rows))
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			result, err := svc.Student.Import(ctx, rows, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "共 %d 行，成功 %d，失败 %d\n", result.Total, result.Success, result.Failed)
			for _, e := range result.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  第 %d 行: %s\n", e.Row, e.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "仅解析不写入")
	return cmd
}

// ── export-exams ──

func exportExamsCmd(a *app) *cobra.Command {
	var (
		req    dto.ExamListRequest
		output string
	)

	cmd := &cobra.Command{
		Use:   "export-exams",
		Short: "导出考试列表为 Excel",
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, filename, err := a.service().Export.ExportExams(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if output == "" {
				output = filename
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出到 %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.AcademicYear, "year", "", "学年（yyyy），缺省为当前学年")
	cmd.Flags().StringVar(&req.ExamType, "type", "", "考试类型 REVIEW|QUARTERLY")
	cmd.Flags().StringVar(&req.ClassCode, "class", "", "班级代码")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件（缺省使用生成的文件名）")
	return cmd
}

// ── create-admin ──

func createAdminCmd(a *app) *cobra.Command {
	req := dto.CreateUserRequest{Role: model.RoleAdmin}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "创建管理员账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("ROUTINE_ADMIN_PASSWORD")
			}
			if err := validateRequest(&req); err != nil {
				return err
			}
			user, err := a.service().Auth.CreateUser(cmd.Context(), &req, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "管理员已创建: %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "admin", "登录名")
	cmd.Flags().StringVar(&req.Name, "name", "Administrator", "显示名")
	cmd.Flags().StringVar(&req.Email, "email", "", "邮箱")
	cmd.Flags().StringVar(&req.Password, "password", "", "初始密码（也可用 ROUTINE_ADMIN_PASSWORD）")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// validateRequest 复用 DTO 上的 binding 规则
func validateRequest(v interface{}) error {
	validate := validator.New()
	validate.SetTagName("binding")
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("参数校验失败: %w", err)
	}
	return nil
}
