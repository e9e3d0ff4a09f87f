package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/tictactoe/internal/config"
	ws "github.com/wfunc/tictactoe/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket升级处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器，跨域来源沿用CORS白名单
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, origins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

// originChecker 无 Origin 头的非浏览器客户端总是放行
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// Serve 升级为WebSocket连接
// @Summary 实时对局连接
// @Description 升级为WebSocket；消息为 {"type","data","timestamp"} JSON 信封
// @Tags Realtime
// @Success 101
// @Router /ws [get]
func (h *WebSocketHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket升级失败",
			zap.String("ip", c.ClientIP()),
			zap.Error(err))
		return
	}

	client := h.hub.Serve(conn)
	h.logger.Debug("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()))
}
