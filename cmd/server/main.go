package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/wfunc/tictactoe/internal/api"
	"github.com/wfunc/tictactoe/internal/config"
	"github.com/wfunc/tictactoe/internal/database"
	"github.com/wfunc/tictactoe/internal/logger"
	"go.uber.org/zap"
)

// 版本信息，构建时通过 -ldflags 注入
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "tictactoe-server",
		Short:        "井字棋多人对战服务",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (env: TICTACTOE_CONFIG)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newMigrateCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP与WebSocket服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Cleanup()

			setupSystem(&cfg.System)
			printStartInfo(cfg)

			server := NewServer(cfg)
			if err := server.Start(); err != nil {
				logger.Error("服务器启动失败", zap.Error(err))
				return err
			}

			server.WaitForShutdown()

			if err := server.Shutdown(); err != nil {
				logger.Error("服务器关闭失败", zap.Error(err))
				return err
			}
			logger.Info("服务器已安全关闭")
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Cleanup()

			if err := database.Init(&cfg.Database); err != nil {
				return err
			}
			defer database.Close()

			if err := database.AutoMigrate(); err != nil {
				return err
			}
			logger.Info("数据库迁移完成", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "井字棋多人对战服务\n")
			fmt.Fprintf(out, "版本: %s\n", Version)
			fmt.Fprintf(out, "构建时间: %s\n", BuildTime)
			fmt.Fprintf(out, "Git提交: %s\n", GitCommit)
			fmt.Fprintf(out, "Go版本: %s\n", runtime.Version())
			fmt.Fprintf(out, "操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// bootstrap 加载配置并初始化日志
func bootstrap(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = os.Getenv(config.EnvPrefix + "_CONFIG")
	}
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	api.Version = Version
	return cfg, nil
}
