package websocket

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/tictactoe/internal/config"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
)

// 未配置时的默认值
const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 8192
	defaultSendBuffer     = 256
)

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteWait
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongWait
	}
	// ping 周期必须小于 pong 超时
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	return cfg
}

// Client WebSocket客户端
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.cfg.SendBuffer),
	}
}

// ReadPump 读取消息，同一连接的消息按到达顺序依次处理
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}

		if c.hub.handler != nil {
			c.hub.handler.HandleClientMessage(c, message)
		}
	}
}

// WritePump 写入消息，每条消息单独一帧
func (c *Client) WritePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				// Hub关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送事件给该客户端
func (c *Client) SendMessage(event string, data interface{}) error {
	return c.hub.SendTo(c.ID, event, data)
}
