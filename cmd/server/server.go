package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tictactoe/internal/api"
	"github.com/wfunc/tictactoe/internal/config"
	"github.com/wfunc/tictactoe/internal/database"
	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/game"
	"github.com/wfunc/tictactoe/internal/logger"
	"github.com/wfunc/tictactoe/internal/registry"
	"github.com/wfunc/tictactoe/internal/service"
	"github.com/wfunc/tictactoe/internal/utils"
	ws "github.com/wfunc/tictactoe/internal/websocket"
	"go.uber.org/zap"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	registry registry.Registry
	hub      *ws.Hub
	games    *game.Handler
	http     *http.Server

	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
	}
}

// Start 初始化组件并开始监听
func (s *Server) Start() error {
	s.logger.Info("正在启动井字棋服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}

	s.startHTTPServer()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("websocket", s.cfg.WebSocket.Path),
		zap.String("registry", s.cfg.Registry.Driver),
	)
	return nil
}

// initComponents 按依赖顺序初始化：数据库、注册表、Hub、对局处理器、HTTP
func (s *Server) initComponents() error {
	if err := s.initDatabase(); err != nil {
		return err
	}

	reg, err := registry.New(s.cfg.Registry)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrRegistry, "初始化会话注册表失败")
	}
	s.registry = reg

	s.hub = ws.NewHub(s.cfg.WebSocket, s.logger.Named("websocket"))

	tokens := utils.NewJWTManager(s.cfg.Security.JWT.Secret, s.cfg.Security.JWT.ResumeTokenTTL)
	s.games = game.NewHandler(database.DB, reg, s.hub, tokens,
		game.OptionsFromConfig(s.cfg.Game),
		s.logger,
	)
	s.hub.SetMessageHandler(ws.NewDispatcher(s.games, s.logger.Named("dispatcher")))

	gin.SetMode(s.cfg.Server.Mode)
	services := service.NewServices(database.DB, s.logger)
	router := api.NewRouter(s.cfg, database.DB, services, s.hub, s.logger)

	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...", zap.String("driver", s.cfg.Database.Driver))

	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}
	return nil
}

func (s *Server) startHTTPServer() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			select {
			case <-s.shutdownCh:
			default:
				close(s.shutdownCh)
			}
		}
	}()
}

// WaitForShutdown 等待退出信号或服务异常
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.shutdownCh:
	}
}

// Shutdown 优雅关闭：停止接收请求、断开连接、停止计时器，最后关闭存储
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErr error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			shutdownErr = apperrors.Wrap(err, apperrors.ErrTimeout, "关闭HTTP服务超时")
		}
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.games != nil {
		s.games.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("关闭超时，强制退出")
		shutdownErr = apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()

	if err := logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "同步日志失败: %v\n", err)
	}
	return shutdownErr
}

func (s *Server) closeComponents() {
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			s.logger.Error("关闭会话注册表失败", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
	s.logger.Info("所有组件已关闭")
}

// reloadConfig 应用可热更新的配置：日志级别与对局参数
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	if s.games != nil {
		s.games.UpdateOptions(game.OptionsFromConfig(newCfg.Game))
	}
	s.cfg = newCfg

	s.logger.Info("配置重新加载完成",
		zap.String("log_level", newCfg.Log.Level),
		zap.Duration("disconnect_grace", newCfg.Game.DisconnectGrace),
		zap.Bool("forfeit_on_leave", newCfg.Game.ForfeitOnLeave),
	)
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Println("  Tic-Tac-Toe 多人对战服务")
	fmt.Printf("  版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("  配置文件: %s\n", config.ConfigFile())
	fmt.Println("═══════════════════════════════════════════════")
}
