package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wfunc/tictactoe/internal/config"
	"github.com/wfunc/tictactoe/internal/database"
	"github.com/wfunc/tictactoe/internal/middleware"
	"github.com/wfunc/tictactoe/internal/service"
	ws "github.com/wfunc/tictactoe/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version 服务版本，构建时通过 -ldflags 覆盖
var Version = "1.0.0"

// Router API路由器
type Router struct {
	engine   *gin.Engine
	db       *gorm.DB
	services *service.Services

	players *PlayerHandler
	rooms   *RoomHandler
	games   *GameHandler
	stats   *StatsHandler
	ws      *WebSocketHandler

	cfg *config.Config
	log *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(cfg *config.Config, db *gorm.DB, services *service.Services, hub *ws.Hub, log *zap.Logger) *Router {
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(cors.New(corsConfig(cfg.CORS)))

	router := &Router{
		engine:   engine,
		db:       db,
		services: services,
		players:  NewPlayerHandler(services.Player),
		rooms:    NewRoomHandler(services.Room),
		games:    NewGameHandler(services.Game),
		stats:    NewStatsHandler(services.Stats),
		ws:       NewWebSocketHandler(hub, cfg.WebSocket, cfg.CORS.AllowOrigins, log.Named("websocket")),
		cfg:      cfg,
		log:      log,
	}

	router.setupRoutes()

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowCredentials = cfg.AllowCredentials
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	c.ExposeHeaders = []string{middleware.RequestIDHeader}

	if len(cfg.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	c.AllowOrigins = cfg.AllowOrigins
	return c
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/", r.root)
	r.engine.GET("/health", r.healthCheck)

	api := r.engine.Group("/api")
	{
		players := api.Group("/players")
		{
			players.GET("", r.players.List)
			players.POST("", r.players.Create)
			players.GET("/:id", r.players.Get)
		}

		games := api.Group("/games")
		{
			games.GET("", r.games.List)
			games.GET("/:id", r.games.Get)
			games.GET("/:id/moves", r.games.Moves)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", r.rooms.List)
			rooms.POST("", r.rooms.Create)
			rooms.GET("/:code", r.rooms.Get)
		}

		stats := api.Group("/stats")
		{
			stats.GET("/general", r.stats.General)
			stats.GET("/ranking", r.stats.Ranking)
			stats.GET("/player/:id", r.stats.Player)
			stats.GET("/leaderboard", r.stats.Leaderboard)
		}
	}

	path := r.cfg.WebSocket.Path
	if path == "" {
		path = "/ws"
	}
	r.engine.GET(path, r.ws.Serve)

	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "接口不存在",
		})
	})
}

// root 服务信息
// @Summary 服务信息
// @Tags System
// @Produce json
// @Success 200 {object} MessageResponse
// @Router / [get]
func (r *Router) root(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{
		Message: "Tic-Tac-Toe Multiplayer API",
		Version: Version,
		Docs:    "/docs/redoc",
	})
}

// healthCheck 健康检查
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (r *Router) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, r.db); err != nil {
		r.log.Warn("健康检查失败", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
